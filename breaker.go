package reportroute

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitState mirrors the breaker's three states for summaries and health
// reporting.
type CircuitState int

const (
	// CircuitClosed means requests flow normally.
	CircuitClosed CircuitState = iota

	// CircuitHalfOpen means one trial request is probing for recovery.
	CircuitHalfOpen

	// CircuitOpen means requests are rejected without reaching the backend.
	CircuitOpen
)

// String returns the string representation of the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitHalfOpen:
		return "half-open"
	case CircuitOpen:
		return "open"
	default:
		return "unknown"
	}
}

// BreakerCounts is a snapshot of a backend breaker's request counts.
type BreakerCounts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// breaker gates calls to one backend. It opens after a configured number of
// consecutive failures, rejects calls until the recovery timeout elapses,
// then admits exactly one half-open trial; concurrent arrivals during the
// trial are rejected, not queued.
type breaker struct {
	backend   BackendID
	threshold uint32
	recovery  time.Duration
	logger    *slog.Logger

	mu sync.RWMutex // guards cb swaps on operator reset only
	cb *gobreaker.CircuitBreaker[Result]
}

func newBreaker(backend BackendID, threshold uint32, recovery time.Duration, logger *slog.Logger) *breaker {
	b := &breaker{
		backend:   backend,
		threshold: threshold,
		recovery:  recovery,
		logger:    logger,
	}

	settings := gobreaker.Settings{
		Name: string(backend),
		// One probe at a time while half-open.
		MaxRequests: 1,
		// Interval 0: consecutive-failure counts in the closed state never
		// decay on their own; only a success clears them.
		Interval: 0,
		Timeout:  recovery,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"backend", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	b.cb = gobreaker.NewCircuitBreaker[Result](settings)
	return b
}

// execute runs fn if the breaker state permits. Rejections come back as
// *CircuitOpenError without fn being invoked.
func (b *breaker) execute(fn func() (Result, error)) (Result, error) {
	res, err := b.load().Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.logger.Debug("circuit breaker rejected call",
				"backend", b.backend,
				"state", b.load().State().String())
			return nil, &CircuitOpenError{Backend: b.backend}
		}
		return nil, err
	}
	return res, nil
}

func (b *breaker) load() *gobreaker.CircuitBreaker[Result] {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cb
}

// state returns the breaker's current state.
func (b *breaker) state() CircuitState {
	switch b.load().State() {
	case gobreaker.StateClosed:
		return CircuitClosed
	case gobreaker.StateHalfOpen:
		return CircuitHalfOpen
	case gobreaker.StateOpen:
		return CircuitOpen
	default:
		return CircuitClosed
	}
}

// counts returns a snapshot of the breaker's counters.
func (b *breaker) counts() BreakerCounts {
	c := b.load().Counts()
	return BreakerCounts{
		Requests:             c.Requests,
		TotalSuccesses:       c.TotalSuccesses,
		TotalFailures:        c.TotalFailures,
		ConsecutiveSuccesses: c.ConsecutiveSuccesses,
		ConsecutiveFailures:  c.ConsecutiveFailures,
	}
}

// reset rebuilds the underlying breaker, returning it to a pristine closed
// state. gobreaker has no public reset, so operator resets swap the instance.
func (b *breaker) reset() {
	fresh := newBreaker(b.backend, b.threshold, b.recovery, b.logger)
	b.mu.Lock()
	b.cb = fresh.cb
	b.mu.Unlock()
}
