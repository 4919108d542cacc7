// Package remote talks to the fleet simulation over its HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Garsondee/Swarm-Control/internal/fleet"
)

// maxBody caps how much of a response body is read.
const maxBody = 8 << 20

// Control actions accepted by POST /control/{action}.
const (
	ActionFail       = "fail"
	ActionReset      = "reset"
	ActionClearTasks = "clear-tasks"
	ActionPause      = "pause"
	ActionResume     = "resume"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, strings.TrimSpace(e.Body))
}

// Session is what a successful login returns.
type Session struct {
	Role  string `json:"role"`
	Token string `json:"access_token"`
}

// Client is a thin HTTP client for the remote boundary.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// State fetches the current snapshot. It satisfies feed.Source.
func (c *Client) State(ctx context.Context) (fleet.Snapshot, error) {
	body, err := c.do(ctx, http.MethodGet, "/state", "", nil)
	if err != nil {
		return fleet.Snapshot{}, err
	}
	return fleet.Decode(body)
}

type taskRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Priority int     `json:"priority"`
}

type pointRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type autoTaskRequest struct {
	Enabled bool `json:"enabled"`
}

// AddTask injects a task at world coordinates.
func (c *Client) AddTask(ctx context.Context, x, y float64, priority int) error {
	return c.postJSON(ctx, "/tasks", taskRequest{X: x, Y: y, Priority: priority})
}

// DeployRobot spawns a robot at world coordinates.
func (c *Client) DeployRobot(ctx context.Context, x, y float64) error {
	return c.postJSON(ctx, "/robots/deploy", pointRequest{X: x, Y: y})
}

// Control posts a body-less control action.
func (c *Client) Control(ctx context.Context, action string) error {
	switch action {
	case ActionFail, ActionReset, ActionClearTasks, ActionPause, ActionResume:
	default:
		return fmt.Errorf("unknown control action %q", action)
	}
	_, err := c.do(ctx, http.MethodPost, "/control/"+action, "", nil)
	return err
}

// SetAutoTask toggles automatic task generation.
func (c *Client) SetAutoTask(ctx context.Context, enabled bool) error {
	return c.postJSON(ctx, "/control/auto-task", autoTaskRequest{Enabled: enabled})
}

// Login posts form credentials and returns the granted session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	body, err := c.do(ctx, http.MethodPost, "/login", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(body, &s); err != nil {
		return Session{}, fmt.Errorf("decode login: %w", err)
	}
	if s.Role == "" {
		return Session{}, fmt.Errorf("login: response carried no role")
	}
	return s, nil
}

func (c *Client) postJSON(ctx context.Context, path string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	_, err = c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload))
	return err
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
