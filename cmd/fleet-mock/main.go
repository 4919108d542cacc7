// Command fleet-mock serves an in-memory robot fleet over the same HTTP and
// WebSocket routes as the real simulation, for running the console without
// a backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Garsondee/Swarm-Control/internal/logging"
	"github.com/Garsondee/Swarm-Control/internal/mockremote"
)

func main() {
	fs := pflag.NewFlagSet("fleet-mock", pflag.ExitOnError)
	addr := fs.String("addr", "localhost:8000", "listen address")
	streamEvery := fs.Duration("stream-interval", 100*time.Millisecond, "WebSocket snapshot period")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	_ = fs.Parse(os.Args[1:])

	logger, err := logging.New(*logLevel, "")
	if err != nil {
		fmt.Fprintln(os.Stderr, "fleet-mock:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	mock := mockremote.New(
		mockremote.WithStreamInterval(*streamEvery),
		mockremote.WithLogger(logger.Named("mock")))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("serving mock fleet", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen", zap.Error(err))
	}
}
