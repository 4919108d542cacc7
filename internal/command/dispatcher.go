// Package command sends operator actions to the remote simulation.
//
// Every action runs off the main goroutine and reports back as an Outcome
// that Pump applies on the main goroutine. Local state that mirrors the
// remote (auto-task, pause) only changes once the remote has accepted the
// request; a failed request logs an error and changes nothing.
package command

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/remeh/sizedwaitgroup"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Garsondee/Swarm-Control/internal/logging"
	"github.com/Garsondee/Swarm-Control/internal/mission"
	"github.com/Garsondee/Swarm-Control/internal/remote"
	"github.com/Garsondee/Swarm-Control/internal/speech"
	"github.com/Garsondee/Swarm-Control/internal/viewport"
)

// Priorities the console assigns to tasks it creates.
const (
	ClickPriority  = 5
	RandomPriority = 3
)

// Remote is the subset of the remote client the dispatcher needs.
type Remote interface {
	AddTask(ctx context.Context, x, y float64, priority int) error
	DeployRobot(ctx context.Context, x, y float64) error
	Control(ctx context.Context, action string) error
	SetAutoTask(ctx context.Context, enabled bool) error
}

// Mode decides what a click on the map does.
type Mode int

const (
	ModeTask Mode = iota
	ModeDeploy
)

func (m Mode) String() string {
	if m == ModeDeploy {
		return "DEPLOY"
	}
	return "TASK"
}

// Label is the HUD caption for the mode.
func (m Mode) Label() string {
	if m == ModeDeploy {
		return "DEPLOY ROBOT"
	}
	return "INJECT TASK"
}

// Kind identifies an operator action.
type Kind int

const (
	ClickTask Kind = iota
	ClickDeploy
	QuickDeploy
	RandomTask
	Fail
	Reset
	ClearTasks
	AutoTask
	Pause
	Resume
)

// Outcome is the result of one action, applied on the main goroutine.
type Outcome struct {
	Kind    Kind
	At      viewport.Point
	Enabled bool
	Err     error
}

// Dispatcher issues operator actions. Apart from the goroutines it starts
// itself, it must only be used from the main goroutine.
type Dispatcher struct {
	remote   Remote
	log      *mission.Log
	toggles  *mission.Toggles
	voice    speech.Announcer
	logger   *zap.Logger
	limiter  *rate.Limiter
	rng      *rand.Rand
	timeout  time.Duration
	parallel int

	mode         Mode
	autoPending  bool
	pausePending bool

	ctx    context.Context
	cancel context.CancelFunc
	swg    sizedwaitgroup.SizedWaitGroup
	jobs   sync.WaitGroup
	out    chan Outcome
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithVoice sets where pause and resume are announced.
func WithVoice(a speech.Announcer) Option {
	return func(d *Dispatcher) { d.voice = a }
}

// WithClickLimit replaces the limiter guarding map clicks.
func WithClickLimit(l *rate.Limiter) Option {
	return func(d *Dispatcher) { d.limiter = l }
}

// WithConcurrency bounds how many requests run at once.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.parallel = n }
}

// WithTimeout bounds each request.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = t }
}

// WithRand sets the source used for random task placement.
func WithRand(r *rand.Rand) Option {
	return func(d *Dispatcher) { d.rng = r }
}

// New returns a dispatcher sending to r, logging to log and keeping
// toggles in step with the remote.
func New(r Remote, log *mission.Log, toggles *mission.Toggles, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		remote:   r,
		log:      log,
		toggles:  toggles,
		voice:    speech.Nop{},
		limiter:  rate.NewLimiter(rate.Every(100*time.Millisecond), 4),
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		timeout:  5 * time.Second,
		parallel: 4,
		out:      make(chan Outcome, 64),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrNop(d.logger)
	d.swg = sizedwaitgroup.New(max(d.parallel, 1))
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Mode returns the current interaction mode.
func (d *Dispatcher) Mode() Mode { return d.mode }

// ToggleMode flips between task injection and robot deployment. It is
// local only.
func (d *Dispatcher) ToggleMode() Mode {
	if d.mode == ModeTask {
		d.mode = ModeDeploy
	} else {
		d.mode = ModeTask
	}
	d.log.Add(mission.System, "Mode changed to %s", d.mode)
	return d.mode
}

// Click acts on a map click at world coordinates according to the mode. It
// reports false when the click was dropped by the rate limiter.
func (d *Dispatcher) Click(world viewport.Point) bool {
	if !d.limiter.Allow() {
		d.logger.Debug("click dropped", zap.Float64("x", world.X), zap.Float64("y", world.Y))
		return false
	}
	if d.mode == ModeTask {
		d.run(Outcome{Kind: ClickTask, At: world}, func(ctx context.Context) error {
			return d.remote.AddTask(ctx, world.X, world.Y, ClickPriority)
		})
	} else {
		d.run(Outcome{Kind: ClickDeploy, At: world}, func(ctx context.Context) error {
			return d.remote.DeployRobot(ctx, world.X, world.Y)
		})
	}
	return true
}

// QuickDeploy deploys a robot at the world point under the centre of a
// w by h surface.
func (d *Dispatcher) QuickDeploy(v viewport.State, w, h float64) {
	at := v.ToWorld(viewport.Point{X: w / 2, Y: h / 2})
	d.run(Outcome{Kind: QuickDeploy, At: at}, func(ctx context.Context) error {
		return d.remote.DeployRobot(ctx, at.X, at.Y)
	})
}

// RandomTask injects a task at a random visible point of a w by h surface.
func (d *Dispatcher) RandomTask(v viewport.State, w, h float64) {
	at := v.ToWorld(viewport.Point{X: d.rng.Float64() * w, Y: d.rng.Float64() * h})
	d.run(Outcome{Kind: RandomTask, At: at}, func(ctx context.Context) error {
		return d.remote.AddTask(ctx, at.X, at.Y, RandomPriority)
	})
}

// Fail asks the remote to fail a robot.
func (d *Dispatcher) Fail() { d.control(Fail, remote.ActionFail) }

// Reset asks the remote to reset the mission.
func (d *Dispatcher) Reset() { d.control(Reset, remote.ActionReset) }

// ClearTasks asks the remote to drop every task.
func (d *Dispatcher) ClearTasks() { d.control(ClearTasks, remote.ActionClearTasks) }

func (d *Dispatcher) control(k Kind, action string) {
	d.run(Outcome{Kind: k}, func(ctx context.Context) error {
		return d.remote.Control(ctx, action)
	})
}

// ToggleAutoTask requests the opposite of the current auto-task state. A
// second toggle while one is in flight is ignored.
func (d *Dispatcher) ToggleAutoTask() {
	if d.autoPending {
		return
	}
	d.autoPending = true
	want := !d.toggles.AutoTask
	d.run(Outcome{Kind: AutoTask, Enabled: want}, func(ctx context.Context) error {
		return d.remote.SetAutoTask(ctx, want)
	})
}

// TogglePause pauses a running mission or resumes a paused one. A second
// toggle while one is in flight is ignored.
func (d *Dispatcher) TogglePause() {
	if d.pausePending {
		return
	}
	d.pausePending = true
	if d.toggles.Paused {
		d.control(Resume, remote.ActionResume)
	} else {
		d.control(Pause, remote.ActionPause)
	}
}

func (d *Dispatcher) run(o Outcome, call func(ctx context.Context) error) {
	d.jobs.Add(1)
	go func() {
		defer d.jobs.Done()
		if err := d.swg.AddWithContext(d.ctx); err != nil {
			return
		}
		defer d.swg.Done()

		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		o.Err = call(ctx)
		cancel()

		select {
		case d.out <- o:
		case <-d.ctx.Done():
		}
	}()
}

// Pump applies finished actions and returns how many it consumed.
func (d *Dispatcher) Pump() int {
	n := 0
	for {
		select {
		case o := <-d.out:
			d.apply(o)
			n++
		default:
			return n
		}
	}
}

// Wait blocks until every started action has finished, applying outcomes
// as they arrive.
func (d *Dispatcher) Wait() {
	done := make(chan struct{})
	go func() {
		d.jobs.Wait()
		close(done)
	}()
	for {
		select {
		case o := <-d.out:
			d.apply(o)
		case <-done:
			d.Pump()
			return
		}
	}
}

// Close abandons in-flight actions.
func (d *Dispatcher) Close() {
	d.cancel()
	d.jobs.Wait()
}

func (d *Dispatcher) apply(o Outcome) {
	switch o.Kind {
	case AutoTask:
		d.autoPending = false
	case Pause, Resume:
		d.pausePending = false
	}
	if o.Err != nil {
		d.logger.Warn("command failed", zap.Int("kind", int(o.Kind)), zap.Error(o.Err))
		d.log.Add(mission.Error, "%s", failureText(o.Kind))
		return
	}
	d.logger.Debug("command done", zap.Int("kind", int(o.Kind)))

	x, y := int(math.Round(o.At.X)), int(math.Round(o.At.Y))
	switch o.Kind {
	case ClickTask:
		d.log.Add(mission.Mission, "Task injected at (%d, %d)", x, y)
	case ClickDeploy:
		d.log.Add(mission.System, "Robot deployed at (%d, %d)", x, y)
	case QuickDeploy:
		d.log.Add(mission.System, "Quick-deploying robot...")
	case RandomTask:
		d.log.Add(mission.Mission, "Random task injected.")
	case Fail:
		d.log.Add(mission.System, "Triggering failure...")
	case Reset:
		d.log.Add(mission.System, "Resetting mission...")
	case ClearTasks:
		d.log.Add(mission.System, "Clearing tasks...")
	case AutoTask:
		d.toggles.AutoTask = o.Enabled
		d.log.Add(mission.System, "Auto-Task: %s", onOff(o.Enabled))
	case Pause:
		d.toggles.Paused = true
		d.log.Add(mission.System, "Mission Paused")
		d.voice.Announce("Mission paused.")
	case Resume:
		d.toggles.Paused = false
		d.log.Add(mission.System, "Mission Resumed")
		d.voice.Announce("Mission resumed.")
	}
}

func failureText(k Kind) string {
	switch k {
	case ClickTask, ClickDeploy:
		return "Canvas interaction failed."
	case QuickDeploy:
		return "Quick deploy failed."
	case RandomTask:
		return "Random task failed."
	case Fail:
		return "Fail trigger failed."
	case Reset:
		return "Reset failed."
	case ClearTasks:
		return "Clear tasks failed."
	case AutoTask:
		return "Auto-task toggle failed."
	default:
		return "Pause/Resume failed."
	}
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
