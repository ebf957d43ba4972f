package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stx-x/li-domain-checker/internal/models"
)

func TestReporter_PeriodicAndFinal(t *testing.T) {
	rec := &memRecorder{}
	agg := NewAggregator(10, rec, rec, AggregatorOptions{})

	var (
		mu    sync.Mutex
		snaps []Snapshot
	)
	reporter := NewReporter(agg, 10*time.Millisecond, func(s Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reporter.Run(ctx)
		close(done)
	}()

	time.Sleep(55 * time.Millisecond)
	require.NoError(t, agg.Submit(result("a", models.OutcomeAvailable)))
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(snaps), 3)
	last := snaps[len(snaps)-1]
	assert.Equal(t, 1, last.Processed, "final snapshot reflects the last submit")
	assert.Equal(t, []string{"a.li"}, last.AvailableDomains)
}

func TestReporter_NilCallback(t *testing.T) {
	rec := &memRecorder{}
	reporter := NewReporter(NewAggregator(0, rec, rec, AggregatorOptions{}), 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reporter.Run(ctx)
}
