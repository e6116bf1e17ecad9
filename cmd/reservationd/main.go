// Command reservationd runs the reservation lifecycle engine: the HTTP API, the command handlers,
// and the projector that keeps the read model and the conflict index up to date.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/reservation-lifecycle-engine/shell/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("reservationd stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine, the environment may be set by other means.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.router,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return app.projector.Run(groupCtx)
	})

	group.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTPAddr, "engine", cfg.Engine)

		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down")

		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func newLogger(cfg config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	options := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, options)), nil
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, options)), nil
}
