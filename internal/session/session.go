// Package session owns everything the console knows locally: the viewport,
// effects, mission log and toggles, the synchronized snapshot and the
// command dispatcher. The GUI and the headless watcher both drive a Session
// from a single goroutine.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/command"
	"github.com/Garsondee/Swarm-Control/internal/effects"
	"github.com/Garsondee/Swarm-Control/internal/feed"
	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/logging"
	"github.com/Garsondee/Swarm-Control/internal/mission"
	"github.com/Garsondee/Swarm-Control/internal/render"
	"github.com/Garsondee/Swarm-Control/internal/speech"
	"github.com/Garsondee/Swarm-Control/internal/viewport"
)

// Session is the explicit state owner. It is not safe for concurrent use.
type Session struct {
	View     *viewport.Controller
	Effects  *effects.Manager
	Toggles  *mission.Toggles
	Log      *mission.Log
	Notifier *mission.Notifier
	Sync     *feed.Synchronizer
	Commands *command.Dispatcher

	input   viewport.InputState
	started time.Time
	logger  *zap.Logger
}

// Options wires a Session's collaborators. Zero values are safe.
type Options struct {
	Voice    speech.Announcer
	Alerts   speech.Announcer
	Logger   *zap.Logger
	Now      func() time.Time
	Commands []command.Option
}

// New returns a session sending commands to r.
func New(r command.Remote, opts Options) *Session {
	logger := logging.OrNop(opts.Logger)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Voice == nil {
		opts.Voice = speech.Nop{}
	}
	if opts.Alerts == nil {
		opts.Alerts = speech.Nop{}
	}

	s := &Session{
		View:    viewport.NewController(),
		Effects: effects.NewManager(),
		Toggles: &mission.Toggles{},
		Log:     mission.NewLog(opts.Now),
		started: opts.Now(),
		logger:  logger,
	}
	s.Notifier = mission.NewNotifier(s.Log, s.Effects, s.Toggles,
		mission.WithVoice(opts.Voice),
		mission.WithAlerts(opts.Alerts),
		mission.WithLogger(logger.Named("mission")))
	s.Sync = feed.NewSynchronizer(s.Notifier, logger.Named("feed"))

	copts := append([]command.Option{
		command.WithLogger(logger.Named("command")),
		command.WithVoice(s.Notifier),
	}, opts.Commands...)
	s.Commands = command.New(r, s.Log, s.Toggles, copts...)
	return s
}

// Start runs f in the background, feeding the synchronizer.
func (s *Session) Start(ctx context.Context, f feed.Feed) {
	s.Sync.Start(ctx, f)
}

// Pump applies pending snapshots and command outcomes.
func (s *Session) Pump() (results, outcomes int) {
	return s.Sync.Pump(), s.Commands.Pump()
}

// HandleInput applies one frame of captured input. Clicks on the map are
// turned into commands at the world point under the pointer when it was
// released.
func (s *Session) HandleInput(events []viewport.InputEvent) {
	for _, world := range s.View.Apply(&s.input, events) {
		s.Commands.Click(world)
	}
}

// ZoomStep zooms in (in=true) or out around the centre of a w by h surface.
func (s *Session) ZoomStep(in bool, w, h float64) {
	delta := 1.0
	if in {
		delta = -1
	}
	s.View.ZoomAt(delta, viewport.Point{X: w / 2, Y: h / 2})
}

// Snapshot returns the held fleet snapshot.
func (s *Session) Snapshot() fleet.Snapshot {
	return s.Sync.Snapshot()
}

// Render draws one map frame onto c and advances the effects.
func (s *Session) Render(c render.Canvas) {
	snap := s.Sync.Snapshot()
	render.Render(c, &snap, s.View.State(), s.Effects)
}

// Uptime returns how long the session has existed at now.
func (s *Session) Uptime(now time.Time) time.Duration {
	return now.Sub(s.started)
}

// Close stops in-flight commands.
func (s *Session) Close() {
	s.Commands.Close()
}
