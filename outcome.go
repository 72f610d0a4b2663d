package reportroute

import (
	"time"
)

// Attempt records one completed (or breaker-rejected) attempt within a call.
type Attempt struct {
	// Backend is the backend the attempt targeted.
	Backend BackendID

	// Category is the classified failure, or "" for a success or a
	// breaker rejection.
	Category ErrorCategory

	// Err is the attempt's error, nil on success.
	Err error

	// Duration is how long the backend call took. Zero for breaker
	// rejections, where the adapter was never invoked.
	Duration time.Duration
}

// FallbackOutcome is the full trail of one routed call: every attempt in
// order, which backend finally served it, and the result or terminal error.
// It is built per call and discarded after logging; only its effect on the
// tracker and breakers persists.
type FallbackOutcome struct {
	// CallID correlates the outcome with log records for this call.
	CallID string

	// Operation is the routed operation.
	Operation OperationID

	// UsedBackend is the backend that produced Result, or "" on failure.
	UsedBackend BackendID

	// Attempts lists every attempt in execution order, across both backends.
	Attempts []Attempt

	// Result is the successful result, nil on failure.
	Result Result

	// Err is the terminal error, nil on success.
	Err error
}

func (o *FallbackOutcome) record(backend BackendID, category ErrorCategory, err error, d time.Duration) {
	o.Attempts = append(o.Attempts, Attempt{
		Backend:  backend,
		Category: category,
		Err:      err,
		Duration: d,
	})
}

// AttemptsAgainst counts the attempts made against one backend.
func (o *FallbackOutcome) AttemptsAgainst(backend BackendID) int {
	n := 0
	for _, a := range o.Attempts {
		if a.Backend == backend {
			n++
		}
	}
	return n
}
