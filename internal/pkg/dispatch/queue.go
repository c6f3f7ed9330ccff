// Package dispatch serializes upstream street-crime requests behind a single
// worker so the whole process respects one shared upstream rate limit.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookgo/clock"

	"github.com/safestreets/safestreets/internal/core/domain"
	"github.com/safestreets/safestreets/internal/core/ports"
	"github.com/safestreets/safestreets/internal/pkg/metrics"
)

// Request identifies one street-crime lookup.
type Request struct {
	Lat   float64
	Lon   float64
	Month string // YYYY-MM
}

// Config tunes the queue's pacing and retry budget.
type Config struct {
	// MinInterval is the gap enforced between consecutive dispatches so
	// sustained throughput stays under the documented upstream limit.
	MinInterval time.Duration
	// Cooldown is the wait after an explicit 429, longer than MinInterval.
	Cooldown time.Duration
	// BackoffStep scales linearly with the attempt number on transient
	// failures: attempt n waits n*BackoffStep.
	BackoffStep time.Duration
	// MaxAttempts bounds tries per request, first attempt included.
	MaxAttempts int
}

// DefaultConfig keeps well under the upstream's 15 req/s ceiling.
func DefaultConfig() Config {
	return Config{
		MinInterval: 500 * time.Millisecond,
		Cooldown:    5 * time.Second,
		BackoffStep: time.Second,
		MaxAttempts: 4,
	}
}

type result struct {
	records []domain.IncidentRecord
	err     error
}

type job struct {
	ctx   context.Context
	req   Request
	reply chan result
}

// Queue dispatches requests strictly in submission order, one at a time,
// sleeping MinInterval between dispatches. All fetch operations in the
// process must share one Queue: the upstream rate limit is per source IP,
// not per caller.
type Queue struct {
	api   ports.CrimeAPI
	cfg   Config
	clock clock.Clock
	jobs  chan job
	done  chan struct{}
}

// New builds a queue over the given crime API using the wall clock.
func New(api ports.CrimeAPI, cfg Config) *Queue {
	return NewWithClock(api, cfg, clock.New())
}

// NewWithClock injects the clock; tests pass clock.NewMock().
func NewWithClock(api ports.CrimeAPI, cfg Config, clk clock.Clock) *Queue {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Queue{
		api:   api,
		cfg:   cfg,
		clock: clk,
		jobs:  make(chan job, 256),
		done:  make(chan struct{}),
	}
}

// Run owns the dispatch loop. It returns when ctx is cancelled; pending
// submissions are then abandoned without consuming rate-limit budget.
// Run must be called exactly once, typically as `go queue.Run(ctx)`.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-q.jobs:
			// Dropped by the submitter while queued: settle without
			// touching the upstream and without the pacing sleep.
			if j.ctx.Err() != nil {
				j.reply <- result{err: j.ctx.Err()}
				continue
			}

			j.reply <- q.execute(j.ctx, j.req)

			if !q.sleep(ctx, q.cfg.MinInterval) {
				return
			}
		}
	}
}

// Submit enqueues a request and blocks until it settles. Requests are
// executed in submission order; a slow request delays everything behind it,
// which is the accepted cost of exact rate-limit compliance.
func (q *Queue) Submit(ctx context.Context, req Request) ([]domain.IncidentRecord, error) {
	j := job{ctx: ctx, req: req, reply: make(chan result, 1)}

	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		return nil, errors.New("dispatch queue is stopped")
	}

	select {
	case res := <-j.reply:
		return res.records, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// execute runs one request to completion, retries included.
func (q *Queue) execute(ctx context.Context, req Request) result {
	var lastErr error

	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		records, err := q.api.StreetCrimes(ctx, req.Lat, req.Lon, req.Month)
		if err == nil {
			metrics.UpstreamRequests.WithLabelValues("ok").Inc()
			metrics.RecordsFetched.Add(float64(len(records)))
			return result{records: records}
		}
		if ctx.Err() != nil {
			return result{err: ctx.Err()}
		}
		lastErr = err

		var delay time.Duration
		if errors.Is(err, domain.ErrThrottled) {
			metrics.UpstreamRequests.WithLabelValues("throttled").Inc()
			delay = q.cfg.Cooldown
		} else {
			metrics.UpstreamRequests.WithLabelValues("error").Inc()
			delay = time.Duration(attempt) * q.cfg.BackoffStep
		}

		if attempt == q.cfg.MaxAttempts {
			break
		}
		metrics.UpstreamRetries.Inc()
		if !q.sleep(ctx, delay) {
			return result{err: ctx.Err()}
		}
	}

	if errors.Is(lastErr, domain.ErrThrottled) {
		return result{err: fmt.Errorf("%w after %d attempts", domain.ErrRateLimited, q.cfg.MaxAttempts)}
	}
	return result{err: fmt.Errorf("%w after %d attempts: %v", domain.ErrFetchFailed, q.cfg.MaxAttempts, lastErr)}
}

// sleep waits d on the injected clock, returning false if ctx ended first.
func (q *Queue) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-q.clock.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
