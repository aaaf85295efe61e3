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

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/augment"
	"github.com/starford/ansuz/internal/importer"
	"github.com/starford/ansuz/internal/services"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/workspace"
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
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize workspace storage.
	store, err := storage.OpenSQLite(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()

	// Load the workspace state.
	ws, err := workspace.New(store, logger, cfg.Autosave.QuietPeriod)
	if err != nil {
		return fmt.Errorf("init workspace: %w", err)
	}
	defer ws.Close()

	// Augmentation collaborators. Unconfigured services stay nil and the
	// corresponding pipeline reports not-ready.
	svc := buildServices(ctx, cfg, logger)
	if svc.Memory != nil {
		defer svc.Memory.Close()
	}
	aug := augment.New(ws, svc, logger)

	// SSE broker, wired as the event sink for both layers.
	broker := sse.NewBroker()
	defer broker.Close()
	ws.SetEventFunc(broker.PublishWorkspaceEvent)
	aug.SetEvents(broker)

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
	r.Mount("/api", api.NewRouter(ws, aug, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the drop-folder importer.
	if cfg.Import.Enabled {
		if err := os.MkdirAll(cfg.Import.Path, 0o755); err != nil {
			return fmt.Errorf("create import dir: %w", err)
		}
		g.Go(func() error {
			if err := importer.Watch(gCtx, ws, cfg.Import.Path, logger); err != nil {
				logger.Warn("importer failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

// buildServices constructs the configured augmentation collaborators.
func buildServices(ctx context.Context, cfg *Config, logger *slog.Logger) augment.Services {
	var svc augment.Services

	var llm *services.LLMClient
	if cfg.Services.LLM.Configured() {
		llm = services.NewLLMClient(cfg.Services.LLM.BaseURL, cfg.Services.LLM.APIKey, cfg.Services.LLM.Model)
		svc.Summarizer = llm
		logger.Info("LLM service configured",
			slog.String("base_url", cfg.Services.LLM.BaseURL),
			slog.String("model", cfg.Services.LLM.Model))
	}

	if cfg.Services.Extractor.Configured() {
		svc.Extractor = services.NewReaderClient(cfg.Services.Extractor.BaseURL)
		logger.Info("Extractor service configured", slog.String("base_url", cfg.Services.Extractor.BaseURL))
	}

	if cfg.Services.Search.Configured() && llm != nil {
		svc.Searcher = services.NewSearchClient(cfg.Services.Search.BaseURL, llm)
		logger.Info("Search service configured", slog.String("base_url", cfg.Services.Search.BaseURL))
	}

	if cfg.Services.Memory.Configured() && llm != nil {
		mem := services.NewMemoryClient(llm, cfg.Services.Memory.Command, cfg.Services.Memory.Args...)
		initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := mem.Initialize(initCtx); err != nil {
			logger.Warn("memory service init failed", slog.String("error", err.Error()))
		} else {
			svc.Memory = mem
			logger.Info("Memory service configured", slog.String("command", cfg.Services.Memory.Command))
		}
	}

	return svc
}
