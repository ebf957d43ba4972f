package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/stx-x/li-domain-checker/internal/models"
)

// LoadStats describes what was recovered from an existing result file.
type LoadStats struct {
	// Records is the number of valid records kept.
	Records int
	// Retried is the number of error records dropped so they run again.
	Retried int
	// Truncated is set when a malformed or partially written tail was
	// discarded. The records before it are still used.
	Truncated bool
	// DiscardedBytes is the size of the discarded tail.
	DiscardedBytes int64
}

// ResultLogOptions configures OpenResultLog.
type ResultLogOptions struct {
	// RetryErrors drops prior error records when the log is opened, so those
	// names are resolved again instead of being skipped.
	RetryErrors bool
	Logger      *slog.Logger
}

// ResultLog is the append-only NDJSON result file of a scan and the set of
// names it already holds. A name present in the log is never resolved again
// by a run that reuses the same file.
type ResultLog struct {
	mu    sync.RWMutex
	path  string
	file  *os.File
	seen  map[string]struct{}
	stats LoadStats
}

// OpenResultLog loads the result file at path (if any) and opens it for
// appending. A partial or malformed tail is cut off so later appends stay
// parseable; it is reported in Stats, not returned as an error.
func OpenResultLog(path string, opts ResultLogOptions) (*ResultLog, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("creating result directory: %w", err)
	}

	seen := make(map[string]struct{})
	var errorNames []string
	stats, offset, err := scanResultFile(path, func(r models.Result) error {
		seen[r.Name] = struct{}{}
		if r.Outcome == models.OutcomeError {
			errorNames = append(errorNames, r.Name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if stats.Truncated {
		logger.Warn("discarding malformed tail of result file",
			"path", path, "kept_records", stats.Records, "discarded_bytes", stats.DiscardedBytes)
		if err := os.Truncate(path, offset); err != nil {
			return nil, fmt.Errorf("truncating %s: %w", path, err)
		}
	}

	if opts.RetryErrors && len(errorNames) > 0 {
		if err := dropErrorRecords(path); err != nil {
			return nil, fmt.Errorf("compacting %s: %w", path, err)
		}
		for _, name := range errorNames {
			delete(seen, name)
		}
		stats.Retried = len(errorNames)
		stats.Records -= len(errorNames)
		logger.Info("prior error records will be retried", "path", path, "count", len(errorNames))
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return &ResultLog{
		path:  path,
		file:  f,
		seen:  seen,
		stats: stats,
	}, nil
}

// Record appends r and syncs it to disk before returning. Once Record
// returns nil the name counts as resolved for every later run.
func (l *ResultLog) Record(r models.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding result for %s: %w", r.Name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending to %s: %w", l.path, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", l.path, err)
	}
	l.seen[r.Name] = struct{}{}
	return nil
}

// Seen reports whether name already has a record.
func (l *ResultLog) Seen(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[name]
	return ok
}

// Len is the number of names with a record.
func (l *ResultLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.seen)
}

// Stats returns what was recovered when the log was opened.
func (l *ResultLog) Stats() LoadStats {
	return l.stats
}

// Path returns the file path of the log.
func (l *ResultLog) Path() string {
	return l.path
}

// Close syncs and closes the file.
func (l *ResultLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

// ReadResults streams every valid record of the result file at path to fn,
// stopping silently at a malformed tail. A missing file yields no records.
func ReadResults(path string, fn func(models.Result) error) (LoadStats, error) {
	stats, _, err := scanResultFile(path, fn)
	return stats, err
}

// scanResultFile reads leading valid records and returns the byte offset just
// past the last one. Reading stops at the first line that is not a complete,
// valid record.
func scanResultFile(path string, fn func(models.Result) error) (LoadStats, int64, error) {
	var stats LoadStats

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return stats, 0, nil
	}
	if err != nil {
		return stats, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return stats, 0, err
	}

	var offset int64
	r := bufio.NewReader(f)
	for {
		line, readErr := r.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return stats, offset, readErr
		}
		if len(line) == 0 {
			break
		}
		// A final line without its newline was cut short by a crash.
		if line[len(line)-1] != '\n' {
			break
		}

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			var rec models.Result
			if err := json.Unmarshal(trimmed, &rec); err != nil || rec.Name == "" || !rec.Outcome.Valid() {
				break
			}
			if err := fn(rec); err != nil {
				return stats, offset, err
			}
			stats.Records++
		}
		offset += int64(len(line))

		if readErr == io.EOF {
			break
		}
	}

	if offset < info.Size() {
		stats.Truncated = true
		stats.DiscardedBytes = info.Size() - offset
	}
	return stats, offset, nil
}

// dropErrorRecords rewrites the file without its error records, via a
// temporary file and rename so a crash leaves either version intact.
func dropErrorRecords(path string) error {
	tmpPath := path + ".tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(tmp)
	_, _, err = scanResultFile(path, func(r models.Result) error {
		if r.Outcome == models.OutcomeError {
			return nil
		}
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = w.Write(append(data, '\n'))
		return err
	})
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}
