package scanner

import (
	"context"
	"time"
)

// Reporter hands periodic snapshots of an Aggregator to a callback.
type Reporter struct {
	agg        *Aggregator
	interval   time.Duration
	onProgress func(Snapshot)
}

// NewReporter creates a reporter. A non-positive interval means 10s.
func NewReporter(agg *Aggregator, interval time.Duration, onProgress func(Snapshot)) *Reporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Reporter{agg: agg, interval: interval, onProgress: onProgress}
}

// Run emits a snapshot every interval until ctx ends, then emits one final
// snapshot and returns.
func (r *Reporter) Run(ctx context.Context) {
	if r.onProgress == nil {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.onProgress(r.agg.Snapshot())
			return
		case <-ticker.C:
			r.onProgress(r.agg.Snapshot())
		}
	}
}
