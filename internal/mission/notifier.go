// Package mission turns remote mission events into what the operator sees
// and hears: log lines, spoken announcements, desktop alerts and failure
// rings. It also owns the mission toggles that a reset clears.
package mission

import (
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/effects"
	"github.com/Garsondee/Swarm-Control/internal/fleet"
	"github.com/Garsondee/Swarm-Control/internal/logging"
	"github.com/Garsondee/Swarm-Control/internal/speech"
)

// Toggles mirrors the remote switches the console displays.
type Toggles struct {
	AutoTask bool
	Paused   bool
}

// Notifier reacts to mission events. It satisfies feed.EventHandler.
type Notifier struct {
	log     *Log
	effects *effects.Manager
	toggles *Toggles
	voice   speech.Announcer
	alerts  speech.Announcer
	logger  *zap.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithVoice sets where spoken announcements go.
func WithVoice(a speech.Announcer) NotifierOption {
	return func(n *Notifier) { n.voice = a }
}

// WithAlerts sets where critical alerts go, in addition to the voice.
func WithAlerts(a speech.Announcer) NotifierOption {
	return func(n *Notifier) { n.alerts = a }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) NotifierOption {
	return func(n *Notifier) { n.logger = l }
}

// NewNotifier returns a notifier writing to log, spawning rings in fx and
// clearing toggles on reset.
func NewNotifier(log *Log, fx *effects.Manager, toggles *Toggles, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		log:     log,
		effects: fx,
		toggles: toggles,
		voice:   speech.Nop{},
		alerts:  speech.Nop{},
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = logging.OrNop(n.logger)
	return n
}

// Handle performs the side effects for ev. Unknown types are ignored.
func (n *Notifier) Handle(ev fleet.Event) {
	if !ev.Type.Known() {
		n.logger.Debug("ignoring unknown event", zap.String("type", string(ev.Type)), zap.Float64("time", ev.Time))
		return
	}
	switch ev.Type {
	case fleet.EventFailure:
		n.log.Add(Critical, "Robot %s hardware failure!", ev.RobotLabel())
		text := "Critical failure detected on Robot " + ev.RobotLabel() + ". Initiating swarm re-allocation."
		n.voice.Announce(text)
		n.alerts.Announce(text)
		if x, y, ok := ev.Position(); ok {
			n.effects.Spawn(x, y)
		}
	case fleet.EventDeploy:
		n.log.Add(System, "New robot unit deployed.")
		n.voice.Announce("New robot unit deployed to the field.")
	case fleet.EventReset:
		n.log.Add(System, "Mission reset. All systems recalibrated.")
		n.voice.Announce("Mission reset initiated.")
		n.effects.Clear()
		*n.toggles = Toggles{}
	case fleet.EventClearTasks:
		n.log.Add(System, "All tasks cleared.")
		n.voice.Announce("All tasks cleared.")
	}
	n.logger.Info("mission event", zap.String("type", string(ev.Type)), zap.String("robot", ev.RobotLabel()))
}

// Announce speaks text without logging it.
func (n *Notifier) Announce(text string) {
	n.voice.Announce(text)
}

// Welcome records a successful login and greets the operator.
func (n *Notifier) Welcome(username, role string) {
	n.log.Add(Auth, "User %s logged in as %s", username, role)
	text := "Welcome back " + username + ". Swarm Mission Control system is now online."
	n.voice.Announce(text)
	n.alerts.Announce(text)
}

// Logout records the operator leaving and says goodbye.
func (n *Notifier) Logout(username string) {
	n.log.Add(Auth, "User %s logged out", username)
	n.voice.Announce("Logging out. Goodbye.")
}
