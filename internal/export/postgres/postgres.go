package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stx-x/li-domain-checker/internal/export"
)

// ensure Sink implements export.Sink
var _ export.Sink = (*Sink)(nil)

// Sink writes exported rows into Postgres.
type Sink struct {
	pool *pgxpool.Pool
}

var schema = []string{`
CREATE TABLE IF NOT EXISTS domain_results (
	scan_id TEXT NOT NULL,
	name TEXT NOT NULL,
	domain TEXT NOT NULL,
	outcome TEXT NOT NULL,
	reason TEXT,
	code INTEGER NOT NULL,
	message TEXT,
	attempts INTEGER NOT NULL,
	checked_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (scan_id, name)
)`,
	`CREATE INDEX IF NOT EXISTS domain_results_outcome ON domain_results (scan_id, outcome)`,
}

const upsert = `
INSERT INTO domain_results (
	scan_id, name, domain, outcome, reason, code, message, attempts, checked_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (scan_id, name) DO UPDATE SET
	domain = EXCLUDED.domain,
	outcome = EXCLUDED.outcome,
	reason = EXCLUDED.reason,
	code = EXCLUDED.code,
	message = EXCLUDED.message,
	attempts = EXCLUDED.attempts,
	checked_at = EXCLUDED.checked_at
`

// New connects to Postgres at dsn and creates the schema.
func New(ctx context.Context, dsn string) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &Sink{pool: pool}, nil
}

// Save upserts rows as one batch inside a transaction.
func (s *Sink) Save(ctx context.Context, rows []export.Row) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsert,
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
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("saving batch: %w", err)
	}
	return nil
}

// Available returns the available domains exported for scanID, sorted.
func (s *Sink) Available(ctx context.Context, scanID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT domain FROM domain_results WHERE scan_id = $1 AND outcome = 'available' ORDER BY domain`, scanID)
	if err != nil {
		return nil, fmt.Errorf("querying available domains: %w", err)
	}
	domains, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting rows: %w", err)
	}
	return domains, nil
}

// DeleteScan removes every row exported for scanID.
func (s *Sink) DeleteScan(ctx context.Context, scanID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM domain_results WHERE scan_id = $1`, scanID); err != nil {
		return fmt.Errorf("deleting scan %s: %w", scanID, err)
	}
	return nil
}

func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}
