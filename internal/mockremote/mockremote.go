// Package mockremote is an in-memory stand-in for the fleet simulation's
// HTTP API. It applies operator commands to a static fleet and records
// every request so tests can assert on them. It does no scheduling.
package mockremote

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/logging"
)

// Request is one recorded command received by the server.
type Request struct {
	Method string
	Path   string
	Body   map[string]any
}

var users = map[string]struct{ password, role string }{
	"admin":    {"password", "Admin"},
	"operator": {"password", "Operator"},
}

// Server holds the mock fleet.
type Server struct {
	mu       sync.Mutex
	initial  fleet.Snapshot
	state    fleet.Snapshot
	requests []Request
	failing  bool
	delay    time.Duration
	paused   bool
	autoTask bool
	nextID   int
	clock    func() time.Time

	streamInterval time.Duration
	logger         *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithSnapshot seeds the fleet.
func WithSnapshot(s fleet.Snapshot) Option {
	return func(m *Server) {
		m.initial = s.Clone()
	}
}

// WithStreamInterval sets how often /stream pushes a snapshot.
func WithStreamInterval(d time.Duration) Option {
	return func(m *Server) {
		m.streamInterval = d
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Server) {
		m.logger = l
	}
}

// WithClock replaces the event clock.
func WithClock(now func() time.Time) Option {
	return func(m *Server) {
		m.clock = now
	}
}

// New returns a mock seeded with a small default fleet.
func New(opts ...Option) *Server {
	m := &Server{
		initial:        DefaultFleet(),
		streamInterval: 100 * time.Millisecond,
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrNop(m.logger)
	m.state = m.initial.Clone()
	m.nextID = maxID(m.state) + 1
	return m
}

// DefaultFleet is three robots and two tasks around the origin.
func DefaultFleet() fleet.Snapshot {
	one := 1
	return fleet.Snapshot{
		Robots: []fleet.Robot{
			{ID: 1, X: 100, Y: 100, Energy: 92, IsActive: true, Status: "Executing Task 1"},
			{ID: 2, X: 300, Y: 180, Energy: 64, IsActive: true, Status: "Idle"},
			{ID: 3, X: 220, Y: 360, Energy: 15, IsActive: true, Status: "Returning to charge"},
		},
		Tasks: []fleet.Task{
			{ID: 1, X: 260, Y: 120, Priority: 5, AssignedTo: &one},
			{ID: 2, X: 420, Y: 300, Priority: 2},
		},
		Stats: fleet.FleetStats{AvgEnergy: 57, CompletedCount: 0, ActiveTasks: 2, FleetSize: 3},
	}
}

func maxID(s fleet.Snapshot) int {
	id := 0
	for _, r := range s.Robots {
		id = max(id, r.ID)
	}
	for _, t := range s.Tasks {
		id = max(id, t.ID)
	}
	return id
}

// Handler returns the chi router for the mock API.
func (m *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(m.gate)
	r.Get("/state", m.handleState)
	r.Get("/stream", m.handleStream)
	r.Post("/login", m.handleLogin)
	r.Post("/tasks", m.handleTask)
	r.Post("/robots/deploy", m.handleDeploy)
	r.Post("/control/auto-task", m.handleAutoTask)
	r.Post("/control/{action}", m.handleControl)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

// SetFailing makes every request return 503 until cleared.
func (m *Server) SetFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

// SetDelay holds every response for d.
func (m *Server) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Emit sets the last event as if the simulation produced it now.
func (m *Server) Emit(ev fleet.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastEvent = &ev
}

// Snapshot returns a copy of the current fleet.
func (m *Server) Snapshot() fleet.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Requests returns every recorded command.
func (m *Server) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Flags reports the pause and auto-task switches.
func (m *Server) Flags() (paused, autoTask bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused, m.autoTask
}

func (m *Server) gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		failing, delay := m.failing, m.delay
		m.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			http.Error(w, "simulation unavailable", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Server) now() float64 {
	return float64(m.clock().UnixNano()) / 1e9
}

// emitLocked stamps a new event; m.mu must be held.
func (m *Server) emitLocked(typ fleet.EventType, id *int, x, y *float64) {
	m.state.LastEvent = &fleet.Event{Type: typ, Time: m.now(), ID: id, X: x, Y: y}
}

func (m *Server) record(r *http.Request, body map[string]any) {
	m.requests = append(m.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
}

func (m *Server) refreshStatsLocked() {
	s := &m.state.Stats
	s.FleetSize = len(m.state.Robots)
	s.ActiveTasks = len(m.state.Tasks)
	if len(m.state.Robots) == 0 {
		s.AvgEnergy = 0
		return
	}
	total := 0.0
	for _, r := range m.state.Robots {
		total += r.Energy
	}
	s.AvgEnergy = float64(int(total/float64(len(m.state.Robots))*10)) / 10
}

func (m *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (m *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		m.logger.Debug("stream accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx := conn.CloseRead(r.Context())
	ticker := time.NewTicker(m.streamInterval)
	defer ticker.Stop()
	for {
		m.mu.Lock()
		failing := m.failing
		m.mu.Unlock()
		if failing {
			conn.Close(websocket.StatusTryAgainLater, "simulation unavailable")
			return
		}
		payload, err := json.Marshal(m.Snapshot())
		if err != nil {
			return
		}
		wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = conn.Write(wctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	name := r.PostForm.Get("username")
	u, ok := users[name]
	if !ok || r.PostForm.Get("password") != u.password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Incorrect username or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": name,
		"token_type":   "bearer",
		"role":         u.role,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusUnprocessableEntity)
		return nil, false
	}
	return body, true
}

func number(body map[string]any, key string) (float64, bool) {
	v, ok := body[key].(float64)
	return v, ok
}

func (m *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	x, okX := number(body, "x")
	y, okY := number(body, "y")
	p, okP := number(body, "priority")
	if !okX || !okY || !okP {
		http.Error(w, "x, y and priority are required", http.StatusUnprocessableEntity)
		return
	}

	m.mu.Lock()
	m.record(r, body)
	id := m.nextID
	m.nextID++
	m.state.Tasks = append(m.state.Tasks, fleet.Task{ID: id, X: x, Y: y, Priority: int(p)})
	m.refreshStatsLocked()
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "Task Added", "id": id})
}

func (m *Server) handleDeploy(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	x, okX := number(body, "x")
	y, okY := number(body, "y")
	if !okX || !okY {
		http.Error(w, "x and y are required", http.StatusUnprocessableEntity)
		return
	}

	m.mu.Lock()
	m.record(r, body)
	id := m.nextID
	m.nextID++
	m.state.Robots = append(m.state.Robots, fleet.Robot{ID: id, X: x, Y: y, Energy: 100, IsActive: true, Status: "Idle"})
	m.refreshStatsLocked()
	m.emitLocked(fleet.EventDeploy, &id, &x, &y)
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "Robot Deployed", "id": id})
}

func (m *Server) handleAutoTask(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	enabled, ok := body["enabled"].(bool)
	if !ok {
		http.Error(w, "enabled is required", http.StatusUnprocessableEntity)
		return
	}
	m.mu.Lock()
	m.record(r, body)
	m.autoTask = enabled
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "Auto Task Toggled", "enabled": enabled})
}

func (m *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")

	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(r, nil)

	switch action {
	case "pause":
		m.paused = true
		writeJSON(w, http.StatusOK, map[string]string{"status": "Paused"})
	case "resume":
		m.paused = false
		writeJSON(w, http.StatusOK, map[string]string{"status": "Resumed"})
	case "fail":
		for i := range m.state.Robots {
			rb := &m.state.Robots[i]
			if !rb.IsActive {
				continue
			}
			rb.IsActive = false
			rb.Status = "FAILED"
			id, x, y := rb.ID, rb.X, rb.Y
			m.emitLocked(fleet.EventFailure, &id, &x, &y)
			writeJSON(w, http.StatusOK, map[string]any{"status": "Failure Simulated", "robot_id": id})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "No active robots left"})
	case "reset":
		m.state = m.initial.Clone()
		m.nextID = maxID(m.state) + 1
		m.paused = false
		m.autoTask = false
		m.emitLocked(fleet.EventReset, nil, nil, nil)
		writeJSON(w, http.StatusOK, map[string]string{"status": "Mission Reset"})
	case "clear-tasks":
		m.state.Tasks = []fleet.Task{}
		m.refreshStatsLocked()
		m.emitLocked(fleet.EventClearTasks, nil, nil, nil)
		writeJSON(w, http.StatusOK, map[string]string{"status": "Tasks Cleared"})
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
