// photobox-server starts photo sessions on request and serves their reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photobox/internal/logging"
	"photobox/internal/pipeline"
	"photobox/internal/server"
)

func main() {
	cfg, err := InitConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := pipeline.NewRunner(cfg.Pipeline, pipeline.WithLogger(logger))
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.New(ctx, runner, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server: photobox running", "address", cfg.Address, "pipeline", cfg.Pipeline)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server: listen failed", "error", err)
		os.Exit(1)
	}
}
