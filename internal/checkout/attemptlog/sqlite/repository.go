// Package sqlite provides a SQLite-backed attemptlog.Repository.
//
// WAL mode lets the status endpoint read while a checkout goroutine writes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jcmexdev/storefront/internal/checkout/attemptlog"

	_ "modernc.org/sqlite"
)

// schema is append-only: one row per transition. The latest row per
// attempt_id is the current state.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_attempts (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    attempt_id      TEXT    NOT NULL,
    state           TEXT    NOT NULL,
    payment_method  TEXT    NOT NULL DEFAULT '',
    -- order snapshot, written on the first row only
    payload         TEXT,
    error_messages  TEXT    NOT NULL DEFAULT '[]',
    trace_id        TEXT    NOT NULL DEFAULT '',
    span_id         TEXT    NOT NULL DEFAULT '',
    updated_at      TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_attempts_attempt_id ON checkout_attempts(attempt_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_checkout_attempts_trace_id ON checkout_attempts(trace_id);
`

type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/attempts.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends an entry. Safe for concurrent use.
func (r *Repository) Save(ctx context.Context, entry *attemptlog.Entry) error {
	const q = `
		INSERT INTO checkout_attempts
			(attempt_id, state, payment_method, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.AttemptID,
		entry.State,
		entry.PaymentMethod,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		entry.UpdatedAt.UTC().Format("2006-01-02T15:04:05.999999999Z"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save attempt %q: %w", entry.AttemptID, err)
	}
	return nil
}

func (r *Repository) GetLatest(ctx context.Context, attemptID string) (*attemptlog.Entry, error) {
	const q = `
		SELECT attempt_id, state, payment_method, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   checkout_attempts
		WHERE  attempt_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	var entry attemptlog.Entry
	var updatedAt string
	err := r.db.QueryRowContext(ctx, q, attemptID).Scan(
		&entry.AttemptID,
		&entry.State,
		&entry.PaymentMethod,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, attemptlog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", attemptID, err)
	}

	entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: attempt %q has unreadable updated_at %q: %w", attemptID, updatedAt, err)
	}
	return &entry, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
