package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/db"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/platform/obs"
	"mail-route-tracker/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQL-backed implementation of the StreetRepository port for SQLite and Postgres.
//
// SQL has no change feed of its own, so writes are announced through a ChangeNotifier
// and Subscribe reloads the full collection on every signal.
type SQLStreetRepository struct {
	DB       *sql.DB
	Dialect  db.Dialect
	Notifier ports.ChangeNotifier
}

func NewSQLStreetRepository(conn *sql.DB, dialect db.Dialect, notifier ports.ChangeNotifier) *SQLStreetRepository {
	return &SQLStreetRepository{DB: conn, Dialect: dialect, Notifier: notifier}
}

const streetColumns = `
		id,
		name,
		area,
		is_big,
		last_delivered,
		delivery_times,
		average_time,
		cycle_start_date`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStreet(row rowScanner) (*domain.Street, error) {
	var (
		s             domain.Street
		lastDelivered sql.NullString
		times         string
		average       sql.NullInt64
		cycleStart    sql.NullString
	)

	if err := row.Scan(&s.ID, &s.Name, &s.Area, &s.IsBig, &lastDelivered, &times, &average, &cycleStart); err != nil {
		return nil, err
	}

	s.LastDelivered = domain.ParseTimestamp(lastDelivered.String)
	s.CycleStartDate = domain.ParseTimestamp(cycleStart.String)

	if strings.TrimSpace(times) != "" {
		if err := json.Unmarshal([]byte(times), &s.DeliveryTimes); err != nil {
			return nil, fmt.Errorf("street %q: decode delivery_times: %w", s.ID, err)
		}
	}
	if len(s.DeliveryTimes) > 0 {
		s.AverageTime = domain.AverageMinutes(s.DeliveryTimes)
	} else if average.Valid {
		a := int(average.Int64)
		s.AverageTime = &a
	}

	return &s, nil
}

func streetArgs(s *domain.Street) ([]any, error) {
	times := s.DeliveryTimes
	if times == nil {
		times = []int{}
	}
	b, err := json.Marshal(times)
	if err != nil {
		return nil, fmt.Errorf("encode delivery_times: %w", err)
	}

	var average any
	if s.AverageTime != nil {
		average = *s.AverageTime
	}

	return []any{
		s.ID,
		s.Name,
		s.Area,
		s.IsBig,
		nullableTimestamp(s.LastDelivered),
		string(b),
		average,
		nullableTimestamp(s.CycleStartDate),
	}, nil
}

func nullableTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return domain.FormatTimestamp(t)
}

// Return all streets ordered by area and name.
func (r *SQLStreetRepository) ListStreets(ctx context.Context) (_ []*domain.Street, err error) {
	defer obs.Time(ctx, "streets.sql.List")(&err)

	if r.DB == nil {
		return nil, errors.New("sql street repository: DB is nil")
	}

	query := `SELECT` + streetColumns + `
	FROM streets
	ORDER BY area, name, id;
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list streets: query streets table: %w", err)
	}
	defer rows.Close()

	streets := make([]*domain.Street, 0, 64)
	for rows.Next() {
		s, err := scanStreet(rows)
		if err != nil {
			return nil, fmt.Errorf("list streets: scan row: %w", err)
		}
		streets = append(streets, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list streets: row iteration: %w", err)
	}

	return streets, nil
}

func (r *SQLStreetRepository) GetStreet(ctx context.Context, id string) (*domain.Street, error) {
	if r.DB == nil {
		return nil, errors.New("sql street repository: DB is nil")
	}
	return r.getStreet(ctx, r.DB, id, false)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getStreet reads one row. With forUpdate the Postgres row stays locked until the
// surrounding transaction ends; SQLite serializes writers on its own.
func (r *SQLStreetRepository) getStreet(ctx context.Context, q queryRower, id string, forUpdate bool) (*domain.Street, error) {
	lock := ""
	if forUpdate && r.Dialect == db.Postgres {
		lock = " FOR UPDATE"
	}
	query := r.Dialect.Rebind(`SELECT` + streetColumns + `
	FROM streets
	WHERE id = ?` + lock + `;
	`)

	s, err := scanStreet(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get street %q: %w", id, ports.ErrStreetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get street %q: %w", id, err)
	}
	return s, nil
}

func (r *SQLStreetRepository) CreateStreet(ctx context.Context, s *domain.Street) (_ *domain.Street, err error) {
	defer obs.Time(ctx, "streets.sql.Create")(&err)

	if r.DB == nil {
		return nil, errors.New("sql street repository: DB is nil")
	}
	if s == nil {
		return nil, errors.New("create street: street is nil")
	}

	created := s.Clone()
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	args, err := streetArgs(created)
	if err != nil {
		return nil, fmt.Errorf("create street %q: %w", created.ID, err)
	}

	query := r.Dialect.Rebind(`
	INSERT INTO streets (` + streetColumns + `
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create street %q: %w", created.ID, ports.ErrStreetExists)
		}
		return nil, fmt.Errorf("create street %q: insert: %w", created.ID, err)
	}

	r.announce(ctx)
	return created, nil
}

// Apply a patch inside a transaction (read, apply, write back).
func (r *SQLStreetRepository) PatchStreet(
	ctx context.Context,
	id string,
	patch domain.StreetPatch,
) (_ *domain.Street, err error) {
	defer obs.Time(ctx, "streets.sql.Patch")(&err)

	if r.DB == nil {
		return nil, errors.New("sql street repository: DB is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("patch street %q: begin tx: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	s, err := r.getStreet(ctx, tx, id, true)
	if err != nil {
		return nil, fmt.Errorf("patch street: %w", err)
	}
	patch.Apply(s)

	args, err := streetArgs(s)
	if err != nil {
		return nil, fmt.Errorf("patch street %q: %w", id, err)
	}

	query := r.Dialect.Rebind(`
	UPDATE streets
	SET last_delivered = ?,
		delivery_times = ?,
		average_time = ?,
		cycle_start_date = ?
	WHERE id = ?;
	`)
	if _, err := tx.ExecContext(ctx, query, args[4], args[5], args[6], args[7], id); err != nil {
		return nil, fmt.Errorf("patch street %q: update: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("patch street %q: commit tx: %w", id, err)
	}

	r.announce(ctx)
	return s, nil
}

func (r *SQLStreetRepository) DeleteStreet(ctx context.Context, id string) (err error) {
	defer obs.Time(ctx, "streets.sql.Delete")(&err)

	if r.DB == nil {
		return errors.New("sql street repository: DB is nil")
	}

	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM streets WHERE id = ?;`), id)
	if err != nil {
		return fmt.Errorf("delete street %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete street %q: rows affected: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete street %q: %w", id, ports.ErrStreetNotFound)
	}

	r.announce(ctx)
	return nil
}

// Insert or replace streets in one transaction.
func (r *SQLStreetRepository) UpsertStreets(ctx context.Context, streets []*domain.Street) (err error) {
	defer obs.Time(ctx, "streets.sql.Upsert")(&err)

	if r.DB == nil {
		return errors.New("sql street repository: DB is nil")
	}
	if len(streets) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert streets: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.Dialect.Rebind(`
	INSERT INTO streets (`+streetColumns+`
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		area = EXCLUDED.area,
		is_big = EXCLUDED.is_big,
		last_delivered = EXCLUDED.last_delivered,
		delivery_times = EXCLUDED.delivery_times,
		average_time = EXCLUDED.average_time,
		cycle_start_date = EXCLUDED.cycle_start_date;
	`))
	if err != nil {
		return fmt.Errorf("upsert streets: prepare: %w", err)
	}
	defer stmt.Close()

	for _, s := range streets {
		if s == nil || strings.TrimSpace(s.ID) == "" {
			return errors.New("upsert streets: street with empty id")
		}

		args, err := streetArgs(s)
		if err != nil {
			return fmt.Errorf("upsert streets: street %q: %w", s.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("upsert streets: street %q: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert streets: commit tx: %w", err)
	}

	r.announce(ctx)
	return nil
}

// Subscribe listens before taking the initial snapshot so no change is lost in between.
func (r *SQLStreetRepository) Subscribe(ctx context.Context, fn func([]*domain.Street)) error {
	if r.Notifier == nil {
		return errors.New("subscribe streets: no change notifier configured")
	}

	changes, err := r.Notifier.Listen(ctx)
	if err != nil {
		return fmt.Errorf("subscribe streets: %w", err)
	}

	streets, err := r.ListStreets(ctx)
	if err != nil {
		return fmt.Errorf("subscribe streets: initial snapshot: %w", err)
	}
	fn(streets)

	for range changes {
		streets, err := r.ListStreets(ctx)
		if err != nil {
			return fmt.Errorf("subscribe streets: reload snapshot: %w", err)
		}
		fn(streets)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("subscribe streets: change feed closed")
}

// announce publishes a change signal. The write already succeeded, so a failed
// publish is only logged.
func (r *SQLStreetRepository) announce(ctx context.Context) {
	if r.Notifier == nil {
		return
	}
	if err := r.Notifier.Publish(ctx); err != nil {
		logger.Warn("street change notification failed", "dialect", r.Dialect, "err", err)
	}
}
