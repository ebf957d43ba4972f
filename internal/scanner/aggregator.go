package scanner

import (
	"sync"
	"time"

	"github.com/stx-x/li-domain-checker/internal/generator"
	"github.com/stx-x/li-domain-checker/internal/metrics"
	"github.com/stx-x/li-domain-checker/internal/models"
)

// ResultRecorder durably stores one result. storage.ResultLog implements it.
type ResultRecorder interface {
	Record(r models.Result) error
}

// DomainAppender durably lists one available domain. storage.AvailableList
// implements it.
type DomainAppender interface {
	Append(domain string) error
}

// ScanState holds the counters of a run.
type ScanState struct {
	Total     int
	Skipped   int
	Processed int
	Available int
	Taken     int
	Errors    int
	// AvailableDomains lists the domains found by this run in discovery order.
	AvailableDomains []string
}

// Pending is the number of candidates neither skipped nor processed yet.
func (s ScanState) Pending() int {
	n := s.Total - s.Skipped - s.Processed
	if n < 0 {
		return 0
	}
	return n
}

// Snapshot is a point-in-time copy of the state with timing estimates.
type Snapshot struct {
	ScanState
	Elapsed time.Duration
	// ETA is zero until the first candidate has been processed.
	ETA time.Duration
	// Rate is processed candidates per second.
	Rate float64
}

// AggregatorOptions configures NewAggregator.
type AggregatorOptions struct {
	// OnResult, if set, is called after each result is persisted.
	OnResult func(models.Result)
}

// Aggregator is the single point through which results reach disk and the
// counters. All methods are safe for concurrent use.
type Aggregator struct {
	mu        sync.Mutex
	state     ScanState
	results   ResultRecorder
	available DomainAppender
	opts      AggregatorOptions
	started   time.Time
	now       func() time.Time
}

// NewAggregator creates an aggregator for a run over total candidates.
func NewAggregator(total int, results ResultRecorder, available DomainAppender, opts AggregatorOptions) *Aggregator {
	return &Aggregator{
		state:     ScanState{Total: total},
		results:   results,
		available: available,
		opts:      opts,
		started:   time.Now(),
		now:       time.Now,
	}
}

// Submit persists r and updates the counters. An available domain is listed
// before its record is written, so a crash between the two re-resolves the
// name instead of losing the domain. A failed write is a *PersistenceError and
// leaves the counters untouched.
func (a *Aggregator) Submit(r models.Result) error {
	a.mu.Lock()

	if r.Outcome == models.OutcomeAvailable {
		if err := a.available.Append(r.Domain); err != nil {
			a.mu.Unlock()
			return &PersistenceError{Op: "available list", Err: err}
		}
	}
	if err := a.results.Record(r); err != nil {
		a.mu.Unlock()
		return &PersistenceError{Op: "result file", Err: err}
	}

	a.state.Processed++
	switch r.Outcome {
	case models.OutcomeAvailable:
		a.state.Available++
		a.state.AvailableDomains = append(a.state.AvailableDomains, r.Domain)
	case models.OutcomeTaken:
		a.state.Taken++
	case models.OutcomeError:
		a.state.Errors++
	}
	metrics.RecordResult(string(r.Outcome), r.Attempts)
	a.mu.Unlock()

	if a.opts.OnResult != nil {
		a.opts.OnResult(r)
	}
	return nil
}

// Skip counts a candidate that an earlier run already resolved.
func (a *Aggregator) Skip(c generator.Candidate) {
	a.mu.Lock()
	a.state.Skipped++
	a.mu.Unlock()
	metrics.RecordSkipped()
}

// State returns a copy of the counters.
func (a *Aggregator) State() ScanState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copyState()
}

// Snapshot returns the counters with elapsed time, rate and ETA.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	state := a.copyState()
	elapsed := a.now().Sub(a.started)
	a.mu.Unlock()

	snap := Snapshot{ScanState: state, Elapsed: elapsed}
	if state.Processed > 0 && elapsed > 0 {
		snap.Rate = float64(state.Processed) / elapsed.Seconds()
		snap.ETA = time.Duration(float64(state.Pending()) / snap.Rate * float64(time.Second))
	}
	return snap
}

func (a *Aggregator) copyState() ScanState {
	s := a.state
	s.AvailableDomains = append([]string(nil), a.state.AvailableDomains...)
	return s
}
