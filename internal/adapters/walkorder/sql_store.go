package walkorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/db"
	"strings"
)

// SQLStore keeps walk orders in the walk_order table, one row per (area, position).
type SQLStore struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLStore(conn *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{DB: conn, Dialect: dialect}
}

// Return every area's walking path.
func (s *SQLStore) WalkOrder(ctx context.Context) (domain.WalkOrder, error) {
	if s.DB == nil {
		return nil, errors.New("walk order store: db is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT
        area,
        street_id
    FROM walk_order
    ORDER BY area, position;
	`)
	if err != nil {
		return nil, fmt.Errorf("get walk order: query walk_order table: %w", err)
	}
	defer rows.Close()

	out := domain.WalkOrder{}
	for rows.Next() {
		var area, id string
		if err := rows.Scan(&area, &id); err != nil {
			return nil, fmt.Errorf("get walk order: scan rows: %w", err)
		}
		out[area] = append(out[area], id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get walk order: row iteration: %w", err)
	}

	return out, nil
}

// Replace the walking path of one area.
func (s *SQLStore) PutArea(ctx context.Context, area string, ids []string) error {
	if s.DB == nil {
		return errors.New("walk order store: db is nil")
	}

	area = strings.TrimSpace(area)
	if area == "" {
		return errors.New("put walk order: area must not be empty")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put walk order: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM walk_order WHERE area = ?;`), area); err != nil {
		return fmt.Errorf("put walk order area=%q: clear: %w", area, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO walk_order (
        area,
        position,
        street_id
    )
    VALUES (?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("put walk order: db prepare: %w", err)
	}
	defer stmt.Close()

	pos := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, area, pos, id); err != nil {
			return fmt.Errorf("put walk order area=%q id=%q: %w", area, id, err)
		}
		pos++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put walk order commit: %w", err)
	}

	return nil
}

// Replace the walking paths of every area in w.
func (s *SQLStore) PutAll(ctx context.Context, w domain.WalkOrder) error {
	for area, ids := range w {
		if err := s.PutArea(ctx, area, ids); err != nil {
			return err
		}
	}
	return nil
}
