// Package scanner resolves generated candidates against the registry with a
// bounded worker pool and funnels every result through one Aggregator.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"
	"golang.org/x/sync/errgroup"

	"github.com/stx-x/li-domain-checker/internal/generator"
	"github.com/stx-x/li-domain-checker/internal/metrics"
	"github.com/stx-x/li-domain-checker/internal/models"
	"github.com/stx-x/li-domain-checker/internal/registry"
	"github.com/stx-x/li-domain-checker/pkg/ratelimit"
)

// Resolved reports names that already have a result. storage.ResultLog
// implements it.
type Resolved interface {
	Seen(name string) bool
}

// Options configures a Scheduler. Zero values fall back to the defaults
// noted on each field.
type Options struct {
	// TLD the candidates are checked under (default "li").
	TLD string
	// Workers is the number of concurrent lookups (default 50).
	Workers int
	// Delay is the pause a worker takes after each lookup.
	Delay time.Duration
	// MaxAttempts is the total number of registry queries per candidate
	// before it is recorded as an error (default 3).
	MaxAttempts int
	// RetryBackoff is the initial retry interval (default 500ms). It grows
	// exponentially between attempts.
	RetryBackoff time.Duration
	// GracePeriod is how long in-flight lookups may continue after the run
	// context ends.
	GracePeriod time.Duration
	// MaxRPS caps lookups per second across all workers; 0 disables it.
	MaxRPS float64
	Logger *slog.Logger
}

// Scheduler dispatches candidates to a fixed pool of workers.
type Scheduler struct {
	checker registry.Checker
	opts    Options
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// NewScheduler creates a scheduler that resolves names with checker.
func NewScheduler(checker registry.Checker, opts Options) *Scheduler {
	if opts.TLD == "" {
		opts.TLD = "li"
	}
	if opts.Workers <= 0 {
		opts.Workers = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		checker: checker,
		opts:    opts,
		limiter: ratelimit.NewLimiter(opts.MaxRPS, 1),
		logger:  logger,
		now:     time.Now,
	}
}

// Run walks gen, skips names in done and resolves the rest, submitting each
// result to agg. It returns nil once the generator is exhausted and every
// worker has finished, a *PersistenceError if agg failed to write, or
// ErrInterrupted if ctx ended first.
//
// When ctx ends no new candidate is dispatched. Lookups already in flight get
// GracePeriod to finish and are recorded if they do; lookups cut off after
// that are dropped so a later run resolves them again.
func (s *Scheduler) Run(ctx context.Context, gen *generator.Generator, done Resolved, agg *Aggregator) error {
	lookupCtx, cancelLookups := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelLookups()

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan generator.Candidate)

	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-finished:
			return
		case <-gctx.Done():
		}
		timer := time.NewTimer(s.opts.GracePeriod)
		defer timer.Stop()
		select {
		case <-finished:
		case <-timer.C:
			cancelLookups()
		}
	}()

	g.Go(func() error {
		defer close(queue)
		for {
			c, ok := gen.Next()
			if !ok {
				return nil
			}
			if done != nil && done.Seen(string(c)) {
				agg.Skip(c)
				continue
			}
			select {
			case queue <- c:
			case <-gctx.Done():
				return nil
			}
		}
	})

	for i := 0; i < s.opts.Workers; i++ {
		g.Go(func() error {
			if err := s.work(gctx, lookupCtx, queue, agg); err != nil {
				cancelLookups()
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInterrupted, context.Cause(ctx))
	}
	return nil
}

func (s *Scheduler) work(ctx, lookupCtx context.Context, queue <-chan generator.Candidate, agg *Aggregator) error {
	for {
		var c generator.Candidate
		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-queue:
			if !ok {
				return nil
			}
			c = next
		}
		// select picks randomly when both cases are ready
		if ctx.Err() != nil {
			return nil
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil
		}

		result, ok := s.resolve(ctx, lookupCtx, c)
		if !ok {
			s.logger.Debug("lookup abandoned", "name", string(c))
			return nil
		}
		if err := agg.Submit(result); err != nil {
			return err
		}

		if !sleep(ctx, s.opts.Delay) {
			return nil
		}
	}
}

// resolve queries the registry for c with retries. It reports false when the
// lookup was cut off by cancellation and must not be recorded.
func (s *Scheduler) resolve(runCtx, lookupCtx context.Context, c generator.Candidate) (models.Result, bool) {
	var (
		answer    *registry.Answer
		attempts  int
		abandoned bool
	)

	operation := func() error {
		// no new attempts once the run is over
		if attempts > 0 && runCtx.Err() != nil {
			abandoned = true
			return backoff.Permanent(runCtx.Err())
		}
		attempts++

		a, err := s.checker.Check(lookupCtx, string(c))
		if err != nil {
			if registry.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			s.logger.Debug("lookup failed, will retry", "name", string(c), "attempt", attempts, "error", err)
			return err
		}
		answer = a
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.opts.RetryBackoff
	expBackoff.MaxElapsedTime = 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(expBackoff, uint64(s.opts.MaxAttempts-1)),
		lookupCtx,
	)

	metrics.InFlight.Inc()
	start := s.now()
	err := backoff.Retry(operation, policy)
	metrics.ObserveLookup(s.now().Sub(start))
	metrics.InFlight.Dec()

	if abandoned || lookupCtx.Err() != nil {
		return models.Result{}, false
	}

	result := models.Result{
		Name:      string(c),
		Domain:    c.Domain(s.opts.TLD),
		Attempts:  attempts,
		Timestamp: s.now().UTC(),
	}

	if err != nil {
		result.Outcome = models.OutcomeError
		result.Reason = err.Error()
		var reply *registry.ReplyError
		if errors.As(err, &reply) {
			result.Code = reply.Code
			result.Message = reply.Message
		}
		return result, true
	}

	result.Code = answer.Code
	result.Message = answer.Message
	switch answer.Status {
	case registry.StatusAvailable:
		result.Outcome = models.OutcomeAvailable
	default:
		result.Outcome = models.OutcomeTaken
	}
	return result, true
}

// sleep waits for d or until ctx ends, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
