// Package app assembles the configured adapters behind the ports.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mail-route-tracker/internal/adapters/notify"
	"mail-route-tracker/internal/adapters/repositories"
	"mail-route-tracker/internal/adapters/walkorder"
	"mail-route-tracker/internal/config"
	"mail-route-tracker/internal/platform/db"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/ports"
)

// Stores is the set of adapters selected by the configuration.
type Stores struct {
	Repo       ports.StreetRepository
	WalkOrders ports.WalkOrderSource
	// Seeder writes seed data into the primary store.
	Seeder repositories.BulkWriter

	// Set for the SQL backends only.
	DB         *sql.DB
	Dialect    db.Dialect
	SQLWalking *walkorder.SQLStore

	closers []func() error
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open builds the street repository, its change feed and the walk order source.
func Open(ctx context.Context, cfg config.Config) (*Stores, error) {
	s := &Stores{}
	files := walkorder.NewFileSource(cfg.WalkOrderPath)

	switch cfg.Store {
	case config.StoreSQLite, config.StorePostgres:
		if err := s.openSQL(ctx, cfg); err != nil {
			_ = s.Close()
			return nil, err
		}
		// rows loaded by dbtool take precedence over the file
		s.WalkOrders = walkorder.Merged{s.SQLWalking, files}

	case config.StoreJSON:
		store, err := repositories.NewJSONStreetStore(cfg.LocalStorePath)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		s.Repo, s.Seeder, s.WalkOrders = store, store, files

	case config.StoreFirestore:
		client, err := repositories.NewFirestoreClient(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID)
		if err != nil {
			return nil, fmt.Errorf("open stores: %w", err)
		}
		s.closers = append(s.closers, client.Close)

		local, err := repositories.NewJSONStreetStore(cfg.LocalStorePath)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("open stores: local fallback: %w", err)
		}
		remote := repositories.NewFirestoreStreetRepository(client, cfg.StreetsCollection)
		s.Repo = repositories.NewFallbackStreetRepository(remote, local)
		s.Seeder = remote
		s.WalkOrders = files

	default:
		return nil, fmt.Errorf("open stores: unknown store %q", cfg.Store)
	}

	logger.Info("stores ready", "store", cfg.Store, "redis", cfg.RedisURL != "")
	return s, nil
}

func (s *Stores) openSQL(ctx context.Context, cfg config.Config) error {
	var (
		conn *sql.DB
		err  error
	)
	if cfg.Store == config.StorePostgres {
		conn, err = db.Open(cfg.DatabaseURL)
		s.Dialect = db.Postgres
	} else {
		conn, err = db.OpenSQLite(cfg.DBPath)
		s.Dialect = db.SQLite
	}
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	s.DB = conn
	s.closers = append(s.closers, conn.Close)

	if err := repositories.InitSchema(ctx, conn, s.Dialect); err != nil {
		return fmt.Errorf("open stores: %w", err)
	}

	notifier, err := s.openNotifier(cfg)
	if err != nil {
		return err
	}

	repo := repositories.NewSQLStreetRepository(conn, s.Dialect, notifier)
	s.Repo, s.Seeder = repo, repo
	s.SQLWalking = walkorder.NewSQLStore(conn, s.Dialect)
	return nil
}

func (s *Stores) openNotifier(cfg config.Config) (ports.ChangeNotifier, error) {
	if cfg.RedisURL == "" {
		return notify.NewLocalNotifier(), nil
	}
	n, err := notify.NewRedisNotifier(cfg.RedisURL, "")
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	s.closers = append(s.closers, n.Close)
	return n, nil
}
