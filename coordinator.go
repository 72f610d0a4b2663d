package reportroute

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// coordinator orchestrates attempt, classify, retry, fallback, aggregate for
// one call: it drives the primary backend's retry loop through its circuit
// breaker, decides whether failover is allowed, and repeats the loop against
// the fallback backend with a fresh attempt budget.
type coordinator struct {
	policy         RetryPolicy
	classifier     Classifier
	tracker        *PerformanceTracker
	logger         *slog.Logger
	enableFallback bool
}

// backendRun is the terminal state of one backend's retry loop.
type backendRun struct {
	result   Result
	category ErrorCategory
	err      error
	rejected bool // the breaker refused without invoking the adapter
	canceled bool // the caller's context ended the loop
}

// execute routes one call. On total failure of both backends the returned
// error is an *AggregateError naming both final failures; authentication and
// invalid-request failures surface immediately without fallback.
func (c *coordinator) execute(
	ctx context.Context,
	octx OperationContext,
	primary Backend, primaryBreaker *breaker,
	fallback Backend, fallbackBreaker *breaker,
	outcome *FallbackOutcome,
) (Result, error) {
	run := c.runBackend(ctx, octx, primary, primaryBreaker, outcome)
	if run.err == nil {
		outcome.UsedBackend = primary.ID()
		return run.result, nil
	}
	if run.canceled {
		return nil, run.err
	}

	// The caller has to fix credentials or the request shape; neither
	// backend can repair those, so fallback is pointless.
	if run.category == CategoryAuthentication || run.category == CategoryInvalidRequest {
		return nil, run.err
	}
	if fallback == nil || !c.enableFallback {
		return nil, run.err
	}

	c.logger.Info("failing over to secondary backend",
		"call_id", outcome.CallID,
		"operation", octx.Operation,
		"from", primary.ID(),
		"to", fallback.ID(),
		"category", run.category.String(),
		"rejected_by_breaker", run.rejected)

	fbRun := c.runBackend(ctx, octx, fallback, fallbackBreaker, outcome)
	if fbRun.err == nil {
		outcome.UsedBackend = fallback.ID()
		return fbRun.result, nil
	}
	if fbRun.canceled {
		return nil, fbRun.err
	}

	return nil, &AggregateError{
		Op:               octx.Operation,
		Primary:          primary.ID(),
		PrimaryCategory:  run.category,
		PrimaryErr:       run.err,
		Fallback:         fallback.ID(),
		FallbackCategory: fbRun.category,
		FallbackErr:      fbRun.err,
	}
}

// runBackend runs one backend's retry loop through its breaker. Every real
// attempt updates the tracker and the outcome trail; breaker rejections are
// terminal for the backend and recorded without touching its metrics, since
// the adapter was never invoked.
func (c *coordinator) runBackend(
	ctx context.Context,
	octx OperationContext,
	backend Backend,
	br *breaker,
	outcome *FallbackOutcome,
) backendRun {
	var run backendRun
	attempts := 0

	maxRetries := c.policy.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}

	// The backoff consults the retry engine for the delay after the attempt
	// that just failed; quota errors may stretch it via a retry-after hint.
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.BackoffFunc(func() (time.Duration, bool) {
		return c.nextDelay(attempts-1, run.category, run.err), false
	}))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			run.err = err
			run.canceled = true
			return err
		}
		attempts++

		start := time.Now()
		res, err := br.execute(func() (Result, error) {
			return backend.Call(ctx, octx.Operation, octx.Args)
		})
		elapsed := time.Since(start)

		if err == nil {
			c.tracker.RecordSuccess(backend.ID(), elapsed)
			outcome.record(backend.ID(), "", nil, elapsed)
			run = backendRun{result: res}
			if attempts > 1 {
				c.logger.Info("call succeeded after retry",
					"call_id", outcome.CallID,
					"backend", backend.ID(),
					"operation", octx.Operation,
					"attempts", attempts)
			}
			return nil
		}

		var open *CircuitOpenError
		if errors.As(err, &open) {
			outcome.record(backend.ID(), "", err, 0)
			run.err = err
			run.rejected = true
			return err
		}

		if ctx.Err() != nil {
			// The caller gave up mid-attempt; propagate without classifying
			// and schedule no further retries.
			c.tracker.RecordFailure(backend.ID(), elapsed)
			outcome.record(backend.ID(), "", err, elapsed)
			run.err = err
			run.canceled = true
			return err
		}

		category := c.classifier.Classify(err)
		c.tracker.RecordFailure(backend.ID(), elapsed)
		outcome.record(backend.ID(), category, err, elapsed)
		run.category = category
		run.err = err

		if !c.policy.ShouldRetry(category, attempts) {
			return err
		}

		c.logger.Debug("retrying after backoff",
			"call_id", outcome.CallID,
			"backend", backend.ID(),
			"operation", octx.Operation,
			"attempt", attempts,
			"category", category.String())
		return retry.RetryableError(err)
	})
	if err != nil {
		run.err = err
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// Canceled while sleeping between attempts.
			run.canceled = true
		}
	}
	return run
}

// nextDelay is the backoff before the retry that follows attemptIndex. Quota
// failures honor a backend-supplied retry-after hint when it exceeds the
// computed delay.
func (c *coordinator) nextDelay(attemptIndex int, category ErrorCategory, lastErr error) time.Duration {
	delay := c.policy.Delay(attemptIndex)
	if category != CategoryQuota {
		return delay
	}
	var ra RetryAfterProvider
	if errors.As(lastErr, &ra) {
		if hint := ra.RetryAfter(); hint > delay {
			delay = hint
		}
	}
	return delay
}
