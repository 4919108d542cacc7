package speech

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/logging"
)

// engines are tried in order when no command is configured.
var engines = []string{"espeak-ng", "espeak", "spd-say", "say"}

// Queue speaks announcements through an external text-to-speech command.
// Only the newest announcement matters: a new one interrupts whatever is
// being spoken and replaces anything still waiting.
type Queue struct {
	argv   []string
	logger *zap.Logger

	pending chan string
	start   sync.Once

	// speak runs one utterance; replaced in tests.
	speak func(ctx context.Context, text string) error
}

// Detect returns the first text-to-speech binary found on PATH, or "".
func Detect() string {
	for _, name := range engines {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

// NewQueue returns a queue for command, a binary optionally followed by
// arguments; the text is appended as the last argument. An empty command
// is auto-detected. When nothing can speak, the queue is a no-op.
func NewQueue(command string, logger *zap.Logger) *Queue {
	q := &Queue{
		logger:  logging.OrNop(logger),
		pending: make(chan string, 1),
	}
	if command == "" {
		command = Detect()
	}
	q.argv = strings.Fields(command)
	if len(q.argv) > 0 {
		if _, err := exec.LookPath(q.argv[0]); err != nil {
			q.logger.Info("speech disabled", zap.String("command", q.argv[0]), zap.Error(err))
			q.argv = nil
		}
	}
	q.speak = q.run
	return q
}

// Enabled reports whether the queue has something to speak with.
func (q *Queue) Enabled() bool { return len(q.argv) > 0 }

// Start runs the worker until ctx is cancelled. Calling it more than once
// has no effect.
func (q *Queue) Start(ctx context.Context) {
	q.start.Do(func() {
		go q.worker(ctx)
	})
}

// Announce replaces any waiting announcement with text. It never blocks.
func (q *Queue) Announce(text string) {
	if !q.Enabled() || text == "" {
		return
	}
	for {
		select {
		case q.pending <- text:
			return
		default:
		}
		select {
		case <-q.pending:
		default:
		}
	}
}

func (q *Queue) worker(ctx context.Context) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)
	stop := func() {
		if cancel != nil {
			cancel()
			<-done
			cancel = nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case text := <-q.pending:
			stop()
			var sctx context.Context
			sctx, cancel = context.WithCancel(ctx)
			done = make(chan struct{})
			go func(c context.Context, d chan struct{}) {
				defer close(d)
				if err := q.speak(c, text); err != nil && c.Err() == nil {
					q.logger.Debug("speech failed", zap.Error(err))
				}
			}(sctx, done)
		}
	}
}

func (q *Queue) run(ctx context.Context, text string) error {
	args := append(append([]string(nil), q.argv[1:]...), text)
	return exec.CommandContext(ctx, q.argv[0], args...).Run()
}
