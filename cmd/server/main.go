// Package main is the entry point for the Sprout Found server. It loads
// configuration, opens the key/value store, wires together all plugins,
// and runs the HTTP server next to the mission rotation loop.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/sproutfound/internal/app"
	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/kvstore"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("starting Sprout Found",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.Store.Backend),
	)

	// --- Open Store ---
	// The backend connects lazily; a dead backend degrades reads to empty
	// instead of blocking startup.
	store, err := kvstore.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	// --- Create Application ---
	application, err := app.New(cfg, store)
	if err != nil {
		return err
	}
	application.RegisterRoutes()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// --- Start Server ---
	g.Go(func() error {
		if err := application.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Resolve the session and the mission board in the background so the
	// listener is up while a slow backend initializes. Routes answer 503
	// until the first check lands.
	g.Go(func() error {
		state := application.Authority.CheckSession(ctx)
		slog.Info("session resolved", slog.String("status", string(state.Status)))

		if _, err := application.Scheduler.Ensure(ctx); err != nil {
			slog.Warn("initial mission rotation incomplete", slog.Any("error", err))
		}
		return application.Scheduler.Run(ctx)
	})

	g.Go(func() error {
		return application.Limiter.Run(ctx, time.Minute)
	})

	// --- Graceful Shutdown ---
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Echo.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
			return err
		}
		return nil
	})

	err = g.Wait()
	slog.Info("server stopped")
	return err
}

// setupLogging configures the global slog logger. Development uses text
// format for readability, everything else JSON for log aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
