package csvsink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/stx-x/li-domain-checker/internal/export"
)

// ensure Sink implements export.Sink
var _ export.Sink = (*Sink)(nil)

// Sink writes exported rows to a CSV file. The file is recreated on open, so
// a repeated export replaces the previous one.
type Sink struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// headers defines the CSV column order
var headers = []string{
	"scan_id",
	"name",
	"domain",
	"outcome",
	"reason",
	"code",
	"message",
	"attempts",
	"checked_at",
}

// New creates the CSV file at path and writes the header row.
func New(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}

	return &Sink{file: f, w: w}, nil
}

func (s *Sink) Save(ctx context.Context, rows []export.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		record := []string{
			r.ScanID,
			r.Name,
			r.Domain,
			string(r.Outcome),
			r.Reason,
			strconv.Itoa(r.Code),
			r.Message,
			strconv.Itoa(r.Attempts),
			r.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := s.w.Write(record); err != nil {
			return fmt.Errorf("writing %s: %w", r.Name, err)
		}
	}

	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
