package scanner

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stx-x/li-domain-checker/internal/models"
)

// memRecorder is an in-memory ResultRecorder and DomainAppender.
type memRecorder struct {
	mu        sync.Mutex
	results   []models.Result
	available []string
	failOn    models.Outcome
}

func (m *memRecorder) Record(r models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && r.Outcome == m.failOn {
		return errors.New("disk full")
	}
	m.results = append(m.results, r)
	return nil
}

func (m *memRecorder) Append(domain string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = append(m.available, domain)
	return nil
}

func (m *memRecorder) byName() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int, len(m.results))
	for _, r := range m.results {
		counts[r.Name]++
	}
	return counts
}

func (m *memRecorder) records() []models.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Result(nil), m.results...)
}

func result(name string, outcome models.Outcome) models.Result {
	return models.Result{Name: name, Domain: name + ".li", Outcome: outcome, Attempts: 1}
}

func TestAggregator_ConcurrentSubmitAccounting(t *testing.T) {
	rec := &memRecorder{}
	agg := NewAggregator(10000, rec, rec, AggregatorOptions{})

	outcomes := []models.Outcome{models.OutcomeAvailable, models.OutcomeTaken, models.OutcomeTaken, models.OutcomeError}

	var wg sync.WaitGroup
	for w := 0; w < 100; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				name := fmt.Sprintf("w%d-%d", w, i)
				assert.NoError(t, agg.Submit(result(name, outcomes[i%len(outcomes)])))
			}
		}(w)
	}
	wg.Wait()

	state := agg.State()
	assert.Equal(t, 10000, state.Processed)
	assert.Equal(t, 2500, state.Available)
	assert.Equal(t, 5000, state.Taken)
	assert.Equal(t, 2500, state.Errors)
	assert.Equal(t, state.Processed, state.Available+state.Taken+state.Errors)
	assert.Len(t, state.AvailableDomains, 2500)
	assert.Len(t, rec.records(), 10000)
	assert.Equal(t, state.AvailableDomains, rec.available, "list order matches discovery order")
}

func TestAggregator_PersistenceFailure(t *testing.T) {
	rec := &memRecorder{failOn: models.OutcomeTaken}
	agg := NewAggregator(2, rec, rec, AggregatorOptions{})

	require.NoError(t, agg.Submit(result("a", models.OutcomeAvailable)))

	err := agg.Submit(result("b", models.OutcomeTaken))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "result file", perr.Op)

	state := agg.State()
	assert.Equal(t, 1, state.Processed, "failed submit leaves counters untouched")
	assert.Equal(t, 0, state.Taken)
}

func TestAggregator_OnResult(t *testing.T) {
	rec := &memRecorder{}
	var seen []string
	agg := NewAggregator(1, rec, rec, AggregatorOptions{
		OnResult: func(r models.Result) { seen = append(seen, r.Name) },
	})

	require.NoError(t, agg.Submit(result("x", models.OutcomeTaken)))
	assert.Equal(t, []string{"x"}, seen)
}

func TestAggregator_SnapshotETA(t *testing.T) {
	rec := &memRecorder{}
	agg := NewAggregator(100, rec, rec, AggregatorOptions{})
	start := agg.started
	agg.now = func() time.Time { return start.Add(10 * time.Second) }

	snap := agg.Snapshot()
	assert.Zero(t, snap.ETA, "no estimate before the first result")

	for i := 0; i < 10; i++ {
		agg.Skip("s")
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, agg.Submit(result(fmt.Sprint(i), models.OutcomeTaken)))
	}

	snap = agg.Snapshot()
	assert.Equal(t, 10, snap.Skipped)
	assert.Equal(t, 70, snap.Pending())
	assert.InDelta(t, 2.0, snap.Rate, 0.001)
	assert.Equal(t, 35*time.Second, snap.ETA)
	assert.Equal(t, 10*time.Second, snap.Elapsed)
}

func TestAggregator_StateIsCopy(t *testing.T) {
	rec := &memRecorder{}
	agg := NewAggregator(1, rec, rec, AggregatorOptions{})
	require.NoError(t, agg.Submit(result("a", models.OutcomeAvailable)))

	state := agg.State()
	state.AvailableDomains[0] = "mutated"
	assert.Equal(t, []string{"a.li"}, agg.State().AvailableDomains)
}
