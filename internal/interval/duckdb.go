package interval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/fakeyudi/pomo/internal/timer"
)

// schema is applied statement by statement on open; every statement is
// idempotent.
var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS timer_intervals_id_seq START 1`,
	`CREATE TABLE IF NOT EXISTS timer_intervals (
		id                       BIGINT PRIMARY KEY DEFAULT nextval('timer_intervals_id_seq'),
		interval_type            VARCHAR NOT NULL
		                         CHECK (interval_type IN ('work', 'short_break', 'long_break')),
		start_time               TIMESTAMP NOT NULL,
		end_time                 TIMESTAMP,
		duration_seconds         INTEGER,
		planned_duration_seconds INTEGER NOT NULL,
		status                   VARCHAR NOT NULL DEFAULT 'in_progress'
		                         CHECK (status IN ('in_progress', 'completed', 'cancelled')),
		created_at               TIMESTAMP NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timer_intervals_start_time ON timer_intervals (start_time)`,
}

const selectColumns = `id, interval_type, start_time, end_time, duration_seconds, planned_duration_seconds, status, created_at`

// DuckStore persists records in a DuckDB database file.
type DuckStore struct {
	db *sql.DB
}

// OpenDuckStore opens (creating if needed) the database at path. An empty
// path opens a private in-memory database.
func OpenDuckStore(ctx context.Context, path string) (*DuckStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	// DuckDB works best with a single connection; an in-memory database
	// also only exists on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return &DuckStore{db: db}, nil
}

// Begin inserts a new in-progress record and returns its id.
func (d *DuckStore) Begin(ctx context.Context, kind timer.Kind, start time.Time, plannedSeconds uint32) (int64, error) {
	var id int64
	err := d.db.QueryRowContext(ctx,
		`INSERT INTO timer_intervals (interval_type, start_time, planned_duration_seconds, status)
		 VALUES (?, ?, ?, 'in_progress') RETURNING id`,
		string(kind), start.UTC(), int64(plannedSeconds),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert interval: %w", err)
	}
	return id, nil
}

// Finalize closes an in-progress record. The status guard in the update
// makes a second finalize fail instead of overwriting the first.
func (d *DuckStore) Finalize(ctx context.Context, id int64, end time.Time, actualSeconds uint32, outcome timer.Outcome) error {
	status, err := statusFor(outcome)
	if err != nil {
		return err
	}
	res, err := d.db.ExecContext(ctx,
		`UPDATE timer_intervals
		 SET status = ?, end_time = ?, duration_seconds = ?
		 WHERE id = ? AND status = 'in_progress'`,
		string(status), end.UTC(), int64(actualSeconds), id,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize interval %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize interval %d: %w", id, err)
	}
	if n == 1 {
		return nil
	}
	if _, err := d.Get(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("finalize interval %d: %w", id, ErrAlreadyFinalized)
}

// Get returns the record with id.
func (d *DuckStore) Get(ctx context.Context, id int64) (Record, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM timer_intervals WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("get interval %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get interval %d: %w", id, err)
	}
	return r, nil
}

// List returns matching records, most recent start first.
func (d *DuckStore) List(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if !f.Since.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		where = append(where, "start_time < ?")
		args = append(args, f.Until.UTC())
	}
	if f.Kind != "" {
		where = append(where, "interval_type = ?")
		args = append(args, string(f.Kind))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + selectColumns + ` FROM timer_intervals`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time DESC, id DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list intervals: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (d *DuckStore) Close() error {
	return d.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r        Record
		kind     string
		status   string
		end      sql.NullTime
		duration sql.NullInt64
		planned  int64
	)
	if err := row.Scan(&r.ID, &kind, &r.StartTime, &end, &duration, &planned, &status, &r.CreatedAt); err != nil {
		return Record{}, err
	}
	r.Kind = timer.Kind(kind)
	r.Status = Status(status)
	r.PlannedDurationSeconds = uint32(planned)
	r.StartTime = r.StartTime.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	if end.Valid {
		t := end.Time.UTC()
		r.EndTime = &t
	}
	if duration.Valid {
		secs := uint32(duration.Int64)
		r.DurationSeconds = &secs
	}
	return r, nil
}

var _ Store = (*DuckStore)(nil)
