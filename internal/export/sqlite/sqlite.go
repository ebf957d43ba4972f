package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stx-x/li-domain-checker/internal/export"
	_ "modernc.org/sqlite"
)

// ensure Sink implements export.Sink
var _ export.Sink = (*Sink)(nil)

// Sink writes exported rows into a SQLite database.
type Sink struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS domain_results (
	scan_id TEXT NOT NULL,
	name TEXT NOT NULL,
	domain TEXT NOT NULL,
	outcome TEXT NOT NULL,
	reason TEXT,
	code INTEGER NOT NULL,
	message TEXT,
	attempts INTEGER NOT NULL,
	checked_at DATETIME NOT NULL,
	PRIMARY KEY (scan_id, name)
);
CREATE INDEX IF NOT EXISTS domain_results_outcome ON domain_results (scan_id, outcome);
`

const upsert = `
INSERT INTO domain_results (
	scan_id, name, domain, outcome, reason, code, message, attempts, checked_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (scan_id, name) DO UPDATE SET
	domain = excluded.domain,
	outcome = excluded.outcome,
	reason = excluded.reason,
	code = excluded.code,
	message = excluded.message,
	attempts = excluded.attempts,
	checked_at = excluded.checked_at
`

// New opens the SQLite database at dsn and creates the schema.
func New(dsn string) (*Sink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Sink{db: db}, nil
}

// Save upserts rows in a single transaction.
func (s *Sink) Save(ctx context.Context, rows []export.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.ScanID,
			r.Name,
			r.Domain,
			string(r.Outcome),
			r.Reason,
			r.Code,
			r.Message,
			r.Attempts,
			r.Timestamp.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Available returns the available domains exported for scanID, sorted.
func (s *Sink) Available(ctx context.Context, scanID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT domain FROM domain_results WHERE scan_id = ? AND outcome = 'available' ORDER BY domain`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying available domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		domains = append(domains, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return domains, nil
}

// Count returns the number of rows exported for scanID.
func (s *Sink) Count(ctx context.Context, scanID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM domain_results WHERE scan_id = ?`, scanID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}
