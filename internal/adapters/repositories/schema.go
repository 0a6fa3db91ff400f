package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mail-route-tracker/internal/platform/db"
)

// Initialize the streets and walk_order tables for the given dialect.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createStreetsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS streets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		area TEXT NOT NULL,
		is_big %s NOT NULL,
		last_delivered TEXT,
		delivery_times TEXT NOT NULL DEFAULT '[]',
		average_time INTEGER,
		cycle_start_date TEXT
	);
	`, dialect.BoolType())

	createWalkOrderQuery := `
	CREATE TABLE IF NOT EXISTS walk_order (
        area TEXT NOT NULL,
        position INTEGER NOT NULL,
        street_id TEXT NOT NULL,
        PRIMARY KEY (area, position)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_streets_area
    ON streets(area);
	`

	statements := []string{
		createStreetsQuery,
		createWalkOrderQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
