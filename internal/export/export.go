// Package export copies the result file of a scan into an external store.
package export

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/storage"
)

// Row is one exported result, keyed by scan and name.
type Row struct {
	ScanID string
	models.Result
}

// Sink receives exported rows. Implementations must make Save idempotent per
// (ScanID, Name) so a scan can be exported again after it resumed.
type Sink interface {
	Save(ctx context.Context, rows []Row) error
	Close() error
}

// Stats reports what an export copied.
type Stats struct {
	Rows      int
	Available int
	// Truncated is set when the result file ended in a malformed tail, which
	// was not exported.
	Truncated bool
}

// DefaultBatchSize is the number of rows handed to a Sink at a time.
const DefaultBatchSize = 500

// Export streams every record of the result file in scanDir to sink.
func Export(ctx context.Context, scanDir, scanID string, sink Sink, batchSize int) (Stats, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var stats Stats
	batch := make([]Row, 0, batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.Save(ctx, batch); err != nil {
			return fmt.Errorf("saving batch: %w", err)
		}
		stats.Rows += len(batch)
		batch = batch[:0]
		return nil
	}

	path := filepath.Join(scanDir, storage.ResultsFile)
	load, err := storage.ReadResults(path, func(r models.Result) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Outcome == models.OutcomeAvailable {
			stats.Available++
		}
		batch = append(batch, Row{ScanID: scanID, Result: r})
		if len(batch) == batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("exporting %s: %w", path, err)
	}
	if err := flush(); err != nil {
		return stats, fmt.Errorf("exporting %s: %w", path, err)
	}

	stats.Truncated = load.Truncated
	return stats, nil
}
