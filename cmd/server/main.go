// Package main is the entrypoint for the ShopScribe API server.
package main

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

	"github.com/daehan-cho/shopscribe/internal/acquire"
	"github.com/daehan-cho/shopscribe/internal/acquire/browser"
	"github.com/daehan-cho/shopscribe/internal/acquire/infer"
	"github.com/daehan-cho/shopscribe/internal/acquire/searchapi"
	"github.com/daehan-cho/shopscribe/internal/api"
	"github.com/daehan-cho/shopscribe/internal/api/handler"
	"github.com/daehan-cho/shopscribe/internal/api/response"
	"github.com/daehan-cho/shopscribe/internal/checkpoint"
	"github.com/daehan-cho/shopscribe/internal/cms"
	"github.com/daehan-cho/shopscribe/internal/config"
	"github.com/daehan-cho/shopscribe/internal/pipeline"
	"github.com/daehan-cho/shopscribe/internal/publish"
	"github.com/daehan-cho/shopscribe/internal/store"
	"github.com/daehan-cho/shopscribe/internal/synthesize"
)

const (
	shutdownTimeout = 30 * time.Second
	cleanupInterval = 1 * time.Hour
	jobRetention    = 7 * 24 * time.Hour
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "inference_provider", cfg.Inference.Provider, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create checkpoint store on Redis
	checkpoints, err := checkpoint.NewRedisStore(cfg.Redis.URL, cfg.Pipeline.CheckpointTTL)
	if err != nil {
		return fmt.Errorf("create checkpoint store: %w", err)
	}
	defer checkpoints.Close()

	if err := checkpoints.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Build the acquisition tier chain
	selectors, err := config.LoadSelectors(cfg.Browser.SelectorsPath)
	if err != nil {
		return fmt.Errorf("load selectors: %w", err)
	}

	searchTier := searchapi.NewTier(searchapi.NewHTTPClient(cfg.SearchAPI), nil)
	scraper := browser.NewScraper(cfg.Browser, selectors)
	defer scraper.Close()

	provider, err := infer.NewProvider(cfg.Inference)
	if err != nil {
		return fmt.Errorf("create inference provider: %w", err)
	}
	slog.Info("inference provider initialized", "provider", provider.Name())
	inferTier := infer.NewTier(infer.NewBreaker(provider, logger), cfg.Inference.Timeout, logger)

	controller := acquire.NewController(
		[]acquire.Tier{searchTier, scraper, inferTier},
		cfg.Pipeline.Workers,
		cfg.Pipeline.TierTimeout,
	)

	// 6. Create synthesizer and publisher
	synthesizer := synthesize.New(logger)

	cmsClient := cms.NewHTTPClient(cfg.CMS.BaseURL, cfg.CMS.Username, cfg.CMS.Password, cfg.CMS.Timeout)
	publisher := publish.New(cmsClient, logger)

	// 7. Create store and pipeline service
	pgStore := store.NewPostgresStore(pool)

	runner := pipeline.NewRunner(
		controller,
		synthesizer,
		publisher,
		checkpoints,
		pgStore,
		[]pipeline.Releaser{scraper},
		cfg.Pipeline.CheckpointTTL,
		logger,
	)
	svc := pipeline.NewService(pgStore, checkpoints, runner, logger)

	// 8. Periodically purge old terminal jobs
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := svc.CleanupOldJobs(ctx, jobRetention)
				if err != nil {
					slog.Warn("job cleanup failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("old jobs purged", "count", n)
				}
			}
		}
	}()

	// 9. Build router with dependencies
	deps := api.Dependencies{
		HealthHandler: healthHandler(pgStore, checkpoints),

		SubmitJobHandler: handler.NewSubmitJobHandler(svc),
		ListJobsHandler:  handler.NewListJobsHandler(svc),
		GetJobHandler:    handler.NewGetJobHandler(svc),
		JobResultHandler: handler.NewJobResultHandler(svc),
		ResumeJobHandler: handler.NewResumeJobHandler(svc),
		CancelJobHandler: handler.NewCancelJobHandler(svc),
	}

	router := api.NewRouter(deps)

	// 10. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and checkpoint store connectivity.
func healthHandler(s store.Store, c checkpoint.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database":    "ok",
			"checkpoints": "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["checkpoints"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["checkpoints"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
