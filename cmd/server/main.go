package main

import (
	"context"
	"errors"
	"mail-route-tracker/internal/adapters/repositories"
	"mail-route-tracker/internal/api"
	"mail-route-tracker/internal/app"
	"mail-route-tracker/internal/config"
	"mail-route-tracker/internal/jobs"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// main is the application composition root.
// It wires the configured store behind the ports, keeps the snapshot hub fed and
// starts the HTTP server.
func main() {
	envLoaded := config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile}); err != nil {
		logger.Fatal("logger init", "err", err)
	}
	if !envLoaded {
		logger.Info("no .env file found (using environment variables)")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("open stores", "err", err)
	}
	defer stores.Close()

	// Local runs start with demo data when the store is still empty.
	if cfg.SeedPath != "" {
		seedIfEmpty(ctx, stores, cfg.SeedPath)
	}

	hub := services.NewSnapshotHub(stores.Repo)
	go func() {
		if err := hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("snapshot hub stopped", "err", err)
		}
	}()

	digest := &jobs.Digest{Source: hub, Areas: cfg.Areas, Collation: cfg.Collation}
	scheduler, err := jobs.Schedule(ctx, cfg.DigestSchedule, digest)
	if err != nil {
		logger.Fatal("digest", "err", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewRouter(api.Deps{
		Repo:         stores.Repo,
		Source:       hub,
		WalkOrders:   stores.WalkOrders,
		Collation:    cfg.Collation,
		RateLimitRPS: cfg.RateLimitRPS,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	logger.Info("server listening", "addr", srv.Addr, "store", cfg.Store)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server", "err", err)
	}
	logger.Info("server stopped")
}

func seedIfEmpty(ctx context.Context, stores *app.Stores, seedPath string) {
	existing, err := stores.Repo.ListStreets(ctx)
	if err != nil {
		logger.Warn("seed check failed", "err", err)
		return
	}
	if len(existing) > 0 {
		return
	}
	if _, err := os.Stat(seedPath); err != nil {
		return
	}

	n, err := repositories.SeedFromJSON(ctx, stores.Seeder, seedPath)
	if err != nil {
		logger.Warn("seed failed", "path", seedPath, "err", err)
		return
	}
	logger.Info("seeded streets", "count", n, "path", seedPath)
}
