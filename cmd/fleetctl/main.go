// Command fleetctl drives the remote fleet simulation from a terminal. It
// sends the same commands as the console and can follow the feed headless,
// printing the mission log as it grows.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/config"
	"github.com/Garsondee/Swarm-Control/internal/feed"
	"github.com/Garsondee/Swarm-Control/internal/logging"
	"github.com/Garsondee/Swarm-Control/internal/mission"
	"github.com/Garsondee/Swarm-Control/internal/remote"
	"github.com/Garsondee/Swarm-Control/internal/session"
	"github.com/Garsondee/Swarm-Control/internal/speech"
	"github.com/Garsondee/Swarm-Control/internal/viewport"
)

const usage = `usage: fleetctl [flags] <command> [args]

commands:
  state               print the current fleet
  task X Y            inject a task at world point (X, Y)
  deploy X Y          deploy a robot at world point (X, Y)
  fail                fail the first active robot
  reset               reset the mission
  clear-tasks         drop every task
  pause | resume      pause or resume the mission
  auto-task on|off    switch automatic task generation
  watch               follow the feed and print the mission log

flags:
`

// errUsage marks a bad command line; main exits with 2.
var errUsage = errors.New("usage")

// errCommand marks a command the remote rejected; main exits with 1.
var errCommand = errors.New("command failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "fleetctl:", err)
		os.Exit(1)
	}
}

type env struct {
	cfg    config.Config
	client *remote.Client
	logger *zap.Logger
	out    io.Writer
	watch  time.Duration
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("fleetctl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	var flags config.Flags
	flags.Register(fs)
	watchFor := fs.Duration("for", 0, "stop watching after this long (0 = until interrupted)")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Resolve(fs, &flags)
	if err != nil {
		return err
	}
	// The terminal is for the report; logs go only to --log-file, if set.
	logger := zap.NewNop()
	if cfg.Log.File != "" {
		if logger, err = logging.NewFile(cfg.Log.Level, cfg.Log.File); err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	client, err := remote.New(cfg.Remote.BaseURL, remote.WithTimeout(cfg.Remote.Timeout))
	if err != nil {
		return err
	}
	e := &env{cfg: cfg, client: client, logger: logger, out: stdout, watch: *watchFor}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "state":
		return e.state(ctx)
	case "watch":
		return e.watchFeed(ctx)
	case "task", "deploy":
		at, err := parsePoint(rest)
		if err != nil {
			fmt.Fprintf(stderr, "fleetctl %s: %v\n", cmd, err)
			return errUsage
		}
		return e.command(func(s *session.Session) {
			if cmd == "deploy" {
				s.Commands.ToggleMode()
			}
			s.Commands.Click(at)
		})
	case "fail":
		return e.command(func(s *session.Session) { s.Commands.Fail() })
	case "reset":
		return e.command(func(s *session.Session) { s.Commands.Reset() })
	case "clear-tasks":
		return e.command(func(s *session.Session) { s.Commands.ClearTasks() })
	case "pause", "resume":
		return e.command(func(s *session.Session) {
			s.Toggles.Paused = cmd == "resume"
			s.Commands.TogglePause()
		})
	case "auto-task":
		on, err := parseOnOff(rest)
		if err != nil {
			fmt.Fprintf(stderr, "fleetctl auto-task: %v\n", err)
			return errUsage
		}
		return e.command(func(s *session.Session) {
			s.Toggles.AutoTask = !on
			s.Commands.ToggleAutoTask()
		})
	default:
		fmt.Fprintf(stderr, "fleetctl: unknown command %q\n", cmd)
		fs.Usage()
		return errUsage
	}
}

func parsePoint(args []string) (viewport.Point, error) {
	if len(args) != 2 {
		return viewport.Point{}, fmt.Errorf("want X Y, got %d arguments", len(args))
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return viewport.Point{}, fmt.Errorf("bad X: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return viewport.Point{}, fmt.Errorf("bad Y: %w", err)
	}
	return viewport.Point{X: x, Y: y}, nil
}

func parseOnOff(args []string) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("want on or off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", args[0])
}

// command runs one dispatcher action in a throwaway session and prints the
// log lines it produced.
func (e *env) command(do func(*session.Session)) error {
	s := session.New(e.client, session.Options{Logger: e.logger})
	defer s.Close()
	st := newStyles(e.out)

	do(s)
	s.Log.Listen(func(en mission.Entry) { fmt.Fprintln(e.out, st.entry(en)) })
	s.Commands.Wait()
	if s.Log.Count(mission.Error) > 0 {
		return errCommand
	}
	return nil
}

func (e *env) state(ctx context.Context) error {
	snap, err := e.client.State(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(e.out, formatState(newStyles(e.out), snap))
	return nil
}

// printer announces by printing, so spoken lines show up in the terminal.
type printer struct {
	out io.Writer
	st  styles
}

func (p printer) Announce(text string) {
	fmt.Fprintln(p.out, p.st.voice.Render(">> "+text))
}

// watchFeed follows the feed with a headless session until ctx is done or
// the watch duration passes.
func (e *env) watchFeed(ctx context.Context) error {
	st := newStyles(e.out)
	voice := speech.Multi{printer{out: e.out, st: st}}
	if e.cfg.Audio.Speech {
		q := speech.NewQueue(e.cfg.Audio.SpeechCommand, e.logger.Named("speech"))
		q.Start(ctx)
		voice = append(voice, q)
	}

	s := session.New(e.client, session.Options{Voice: voice, Logger: e.logger})
	defer s.Close()
	s.Log.Listen(func(en mission.Entry) { fmt.Fprintln(e.out, st.entry(en)) })

	if e.watch > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.watch)
		defer cancel()
	}

	var f feed.Feed = feed.NewPoller(e.client, e.cfg.Feed.Interval, e.logger.Named("poller"))
	if e.cfg.Feed.Mode == config.FeedStream {
		f = feed.NewStream(feed.StreamURL(e.client.BaseURL(), e.cfg.Feed.StreamPath), e.cfg.Feed.Interval, e.logger.Named("stream"))
	}
	s.Start(ctx, f)
	fmt.Fprintln(e.out, st.header.Render("watching "+e.cfg.Remote.BaseURL))

	conn := feed.Connecting
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Pump()
			fmt.Fprint(e.out, formatSummary(st, s, time.Now()))
			return nil
		case <-tick.C:
			s.Pump()
			if c := s.Sync.Connectivity(); c != conn {
				conn = c
				fmt.Fprintln(e.out, st.conn(c))
			}
		}
	}
}
