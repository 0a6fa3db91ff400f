package main

import (
	"context"
	"mail-route-tracker/internal/adapters/repositories"
	"mail-route-tracker/internal/adapters/walkorder"
	"mail-route-tracker/internal/app"
	"mail-route-tracker/internal/config"
	"mail-route-tracker/internal/platform/logger"
)

// dbtool prepares a SQL store: schema, seed streets and the walk order table.
func main() {
	if !config.LoadEnv() {
		logger.Info("no .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	if cfg.Store != config.StorePostgres && cfg.Store != config.StoreSQLite {
		logger.Fatal("dbtool needs STORE=postgres or STORE=sqlite", "store", cfg.Store)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", "err", err)
	}

	ctx := context.Background()

	// Open runs the schema migration.
	logger.Info("initializing database schema...", "store", cfg.Store)
	stores, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("schema initialization failed", "err", err)
	}
	defer stores.Close()
	logger.Info("schema ready")

	logger.Info("seeding streets...", "path", cfg.SeedPath)
	n, err := repositories.SeedFromJSON(ctx, stores.Seeder, cfg.SeedPath)
	if err != nil {
		logger.Fatal("seeding failed", "err", err)
	}
	logger.Info("seeding complete", "streets", n)

	walk, err := walkorder.LoadYAML(cfg.WalkOrderPath)
	if err != nil {
		logger.Fatal("walk order load failed", "err", err)
	}
	if err := stores.SQLWalking.PutAll(ctx, walk); err != nil {
		logger.Fatal("walk order import failed", "err", err)
	}
	logger.Info("walk order imported", "areas", len(walk))
}
