// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/fenwick/ordna/internal/api"
	"github.com/fenwick/ordna/internal/history"
	"github.com/fenwick/ordna/internal/sse"
	"github.com/fenwick/ordna/internal/storage"
	"github.com/fenwick/ordna/internal/vaultservice"
	"github.com/fenwick/ordna/internal/watcher"
)

// Run starts the application in serve mode with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("history_path", cfg.History.Path),
		slog.Int("capture_days", cfg.Policy.CaptureDays),
		slog.Int("active_days", cfg.Policy.ActiveDays),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	// Initialize run ledger.
	hist, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer hist.Close()

	svc := vaultservice.New(store, vaultservice.Policy{
		CaptureDays: cfg.Policy.CaptureDays,
		ActiveDays:  cfg.Policy.ActiveDays,
	}, logger)

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Re-check the vault and record the run when its outcome changed since
	// the previous one. Shared by startup and watcher callbacks.
	recheck := func() {
		rep, err := svc.Check(ctx, time.Now())
		if err != nil {
			logger.Warn("vault check failed", slog.String("error", err.Error()))
			return
		}
		digest := rep.Digest()
		last, err := hist.LastDigest()
		if err != nil {
			logger.Warn("read last digest failed", slog.String("error", err.Error()))
		}
		if digest != last {
			if _, err := hist.Record(history.Run{
				RanAt:    rep.GeneratedAt,
				Findings: len(rep.Findings),
				Warnings: len(rep.Warnings) + len(rep.Errors),
				Digest:   digest,
			}); err != nil {
				logger.Warn("record run failed", slog.String("error", err.Error()))
			}
		}
		broker.PublishReport(len(rep.Findings), digest)
	}

	// Initial check.
	recheck()

	apiRouter := api.NewRouter(svc, hist, cfg.Auth.AuthEnabled(), cfg.Auth.Token, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher; every debounced change triggers a fresh check.
	g.Go(func() error {
		if err := watcher.Watch(gCtx, cfg.Vault.Path, 500*time.Millisecond, logger, recheck); err != nil {
			logger.Warn("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
