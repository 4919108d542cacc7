package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/config"
	"github.com/Garsondee/Swarm-Control/internal/feed"
	"github.com/Garsondee/Swarm-Control/internal/game"
	"github.com/Garsondee/Swarm-Control/internal/logging"
	"github.com/Garsondee/Swarm-Control/internal/remote"
	"github.com/Garsondee/Swarm-Control/internal/session"
	"github.com/Garsondee/Swarm-Control/internal/speech"
)

func main() {
	fs := pflag.NewFlagSet("swarmview", pflag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Resolve(fs, &flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "swarmview:", err)
		os.Exit(2)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, "swarmview:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := remote.New(cfg.Remote.BaseURL, remote.WithTimeout(cfg.Remote.Timeout))
	if err != nil {
		logger.Fatal("remote", zap.Error(err))
	}
	op, err := client.Login(ctx, cfg.Operator.Username, cfg.Operator.Password)
	if err != nil {
		logger.Fatal("login failed", zap.String("user", cfg.Operator.Username), zap.Error(err))
	}

	var voice, alerts speech.Announcer
	if cfg.Audio.Speech {
		q := speech.NewQueue(cfg.Audio.SpeechCommand, logger.Named("speech"))
		q.Start(ctx)
		voice = q
	}
	if cfg.Audio.Notifications {
		alerts = speech.NewDesktop(cfg.Window.Title, logger.Named("notify"))
	}

	sess := session.New(client, session.Options{Voice: voice, Alerts: alerts, Logger: logger})
	defer sess.Close()
	sess.Notifier.Welcome(cfg.Operator.Username, op.Role)

	var f feed.Feed
	switch cfg.Feed.Mode {
	case config.FeedStream:
		f = feed.NewStream(feed.StreamURL(client.BaseURL(), cfg.Feed.StreamPath), cfg.Feed.Interval, logger.Named("stream"))
	default:
		f = feed.NewPoller(client, cfg.Feed.Interval, logger.Named("poller"))
	}
	sess.Start(ctx, f)
	logger.Info("console started",
		zap.String("base_url", cfg.Remote.BaseURL),
		zap.String("feed", cfg.Feed.Mode),
		zap.String("role", op.Role))

	g, err := game.New(sess, game.Options{
		Width:  cfg.Window.Width,
		Height: cfg.Window.Height,
		User:   cfg.Operator.Username,
		Role:   op.Role,
		Logger: logger.Named("game"),
	})
	if err != nil {
		logger.Fatal("game", zap.Error(err))
	}

	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
