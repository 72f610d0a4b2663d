package reportroute

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// BackoffStrategy selects how retry delays grow with the attempt index.
type BackoffStrategy string

const (
	// StrategyLinear grows delays as baseDelay * (attempt + 1).
	StrategyLinear BackoffStrategy = "linear"

	// StrategyExponential grows delays as baseDelay * multiplier^attempt.
	StrategyExponential BackoffStrategy = "exponential"

	// StrategyFibonacci grows delays along the fibonacci sequence.
	StrategyFibonacci BackoffStrategy = "fibonacci"
)

// RetryPolicy is the immutable retry configuration shared by every call.
// Category membership decides eligibility; the strategy decides delay.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts per backend, including the
	// initial one.
	MaxAttempts int

	// Strategy is the backoff growth curve.
	Strategy BackoffStrategy

	// BaseDelay seeds the backoff curve.
	BaseDelay time.Duration

	// MaxDelay caps every computed delay.
	MaxDelay time.Duration

	// Multiplier is the growth factor for StrategyExponential.
	Multiplier float64

	// Jitter, when true, replaces each computed delay with a uniform random
	// value in [delay/2, delay] to desynchronize concurrent retries.
	Jitter bool

	// Retryable lists categories worth another attempt.
	Retryable map[ErrorCategory]bool

	// NonRetryable lists categories that must surface immediately. It wins
	// over Retryable on conflict.
	NonRetryable map[ErrorCategory]bool
}

// DefaultRetryPolicy returns the stock policy: three attempts, exponential
// doubling from one second capped at a minute, with jitter. Authentication
// and invalid-request failures are never retried; quota, network, timeout,
// and backend-internal failures are.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Strategy:    StrategyExponential,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
		Retryable: map[ErrorCategory]bool{
			CategoryQuota:    true,
			CategoryNetwork:  true,
			CategoryTimeout:  true,
			CategoryInternal: true,
		},
		NonRetryable: map[ErrorCategory]bool{
			CategoryAuthentication: true,
			CategoryInvalidRequest: true,
		},
	}
}

// ShouldRetry reports whether another attempt is warranted after `attempts`
// completed attempts failed with the given category.
func (p RetryPolicy) ShouldRetry(category ErrorCategory, attempts int) bool {
	if attempts >= p.MaxAttempts {
		return false
	}
	if p.NonRetryable[category] {
		return false
	}
	return p.Retryable[category]
}

// Delay computes the backoff before retry number attemptIndex+1.
// attemptIndex is zero-based: the delay after the first failed attempt is
// Delay(0). The result is clamped to MaxDelay; with Jitter enabled it is then
// drawn uniformly from [delay/2, delay].
func (p RetryPolicy) Delay(attemptIndex int) time.Duration {
	if attemptIndex < 0 {
		attemptIndex = 0
	}

	var delay time.Duration
	switch p.Strategy {
	case StrategyLinear:
		delay = scaleDelay(p.BaseDelay, float64(attemptIndex+1))
	case StrategyFibonacci:
		delay = scaleDelay(p.BaseDelay, fib(attemptIndex+1))
	case StrategyExponential:
		delay = scaleDelay(p.BaseDelay, math.Pow(p.multiplier(), float64(attemptIndex)))
	default:
		delay = scaleDelay(p.BaseDelay, math.Pow(p.multiplier(), float64(attemptIndex)))
	}

	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter {
		delay = applyJitter(delay)
	}
	return delay
}

func (p RetryPolicy) multiplier() float64 {
	if p.Multiplier <= 0 {
		return 2.0
	}
	return p.Multiplier
}

// scaleDelay multiplies a duration by a factor, saturating on overflow.
func scaleDelay(base time.Duration, factor float64) time.Duration {
	scaled := float64(base) * factor
	if scaled >= float64(math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}

// fib returns the nth fibonacci number with fib(1) = fib(2) = 1, as a float
// so large indexes saturate instead of wrapping.
func fib(n int) float64 {
	a, b := 0.0, 1.0
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}

// applyJitter draws a uniform random duration from [d/2, d] using crypto/rand.
// Falls back to the undithered delay if the random source fails.
func applyJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	span := int64(d / 2)
	r, err := rand.Int(rand.Reader, big.NewInt(span+1))
	if err != nil {
		return d
	}
	return d - time.Duration(r.Int64())
}
