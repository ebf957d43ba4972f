package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter caps the global rate of lookups across all workers. It is safe for
// concurrent use by multiple goroutines.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter allowing rps requests per second with the given
// burst. If rps is <= 0, the limiter does not block.
func NewLimiter(rps float64, burst int) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the next request may start or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}

// Enabled reports whether the limiter ever blocks.
func (l *Limiter) Enabled() bool {
	return l != nil && l.limiter != nil
}
