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

	"github.com/soundscapelab/soundscape/internal/api"
	"github.com/soundscapelab/soundscape/internal/device"
	"github.com/soundscapelab/soundscape/internal/lifecycle"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/models"
	"github.com/soundscapelab/soundscape/internal/noteservice"
	"github.com/soundscapelab/soundscape/internal/notesdb"
	"github.com/soundscapelab/soundscape/internal/session"
	"github.com/soundscapelab/soundscape/internal/sse"
)

// Run starts the application with the given options.
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
		slog.String("media_path", cfg.Media.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure media directory exists.
	if err := os.MkdirAll(cfg.Media.Path, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	// Initialize media storage.
	store, err := mediastore.NewFS(cfg.Media.Path)
	if err != nil {
		return fmt.Errorf("init media store: %w", err)
	}

	// Initialize SQLite notes database.
	db, err := notesdb.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init notes db: %w", err)
	}
	defer db.Close()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	// Session coordinator with ffmpeg capture / ffplay playback.
	coord := session.NewCoordinator(
		store,
		func() device.CaptureDevice {
			return device.NewFFmpegCapture(cfg.Audio.Format, cfg.Audio.Source)
		},
		func() device.PlaybackDevice {
			return device.NewFFplayPlayback()
		},
		cfg.Playback.ProgressInterval(),
		func(p session.Progress) {
			broker.PublishProgress(p.PositionMS, p.DurationMS)
		},
		logger,
	)
	defer coord.Shutdown()

	life := lifecycle.NewManager(db, store, logger)
	svc := noteservice.NewService(db, store, life, coord)

	apiRouter := api.NewRouter(svc, store, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	// Mount API routes under /api and file serving under /media.
	r.Mount("/api", apiRouter)
	r.Mount("/media", api.NewMediaRouter(store))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the media root for files vanishing behind our back.
	g.Go(func() error {
		if err := mediastore.Watch(gCtx, store, logger, func(ref models.MediaReference) {
			broker.PublishMediaMissing(ref)
		}); err != nil {
			logger.Warn("media watcher stopped", slog.String("error", err.Error()))
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
