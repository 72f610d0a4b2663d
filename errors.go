package reportroute

import (
	"errors"
	"fmt"
	"time"

	jperrors "github.com/JohnPlummer/jp-go-errors"
)

var (
	// ErrNoBackends is returned by New when neither backend adapter is usable.
	ErrNoBackends = errors.New("no backend adapters available")

	// ErrUnknownOperation is returned for an operation the catalog has no
	// entry for.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrOperationNotSupported is returned when no available backend can
	// satisfy the requested operation.
	ErrOperationNotSupported = errors.New("operation not supported by any available backend")
)

// Categorizer lets an error carry its own classification. Backend adapters
// that already know why a call failed implement this to skip heuristic
// classification entirely.
type Categorizer interface {
	ErrorCategory() ErrorCategory
}

// RetryAfterProvider exposes a backend-supplied retry-after hint. The retry
// engine honors it for quota errors in place of the computed backoff.
type RetryAfterProvider interface {
	RetryAfter() time.Duration
}

// HTTPError is any error carrying an HTTP-ish status code. Both adapters wrap
// transport failures in errors implementing this, which the classifier maps
// onto the category taxonomy.
type HTTPError interface {
	error
	StatusCode() int
}

// BackendError is the standard failure an adapter reports for one call.
// Category and RetryAfterHint are optional; when set they take precedence
// over heuristic classification and computed backoff respectively.
type BackendError struct {
	Backend        BackendID
	Op             OperationID
	Category       ErrorCategory
	Code           int
	RetryAfterHint time.Duration
	Err            error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Backend, e.Op)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *BackendError) Unwrap() error { return e.Err }

// StatusCode implements HTTPError.
func (e *BackendError) StatusCode() int { return e.Code }

// ErrorCategory implements Categorizer. A zero category means the adapter
// left classification to the router.
func (e *BackendError) ErrorCategory() ErrorCategory { return e.Category }

// RetryAfter implements RetryAfterProvider.
func (e *BackendError) RetryAfter() time.Duration { return e.RetryAfterHint }

// StatusCodeError wraps an error with an HTTP status code, for adapters whose
// transport doesn't produce typed errors.
//
// Example:
//
//	resp, err := doRequest()
//	if err != nil {
//	    return nil, reportroute.NewStatusCodeError(http.StatusServiceUnavailable, err)
//	}
type StatusCodeError struct {
	Err  error
	Code int
}

// Error implements the error interface.
func (e *StatusCodeError) Error() string { return e.Err.Error() }

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *StatusCodeError) Unwrap() error { return e.Err }

// StatusCode implements HTTPError.
func (e *StatusCodeError) StatusCode() int { return e.Code }

// NewStatusCodeError creates a new StatusCodeError.
func NewStatusCodeError(statusCode int, err error) error {
	return &StatusCodeError{Code: statusCode, Err: err}
}

// CircuitOpenError is returned when a backend's circuit breaker rejects a
// call without invoking the adapter, either because the circuit is open or
// because a half-open trial is already in flight. It wraps
// jperrors.ErrCircuitOpen so callers can match it with errors.Is.
type CircuitOpenError struct {
	Backend BackendID
}

// Error implements the error interface.
func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%s: circuit open, call rejected", e.Backend)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *CircuitOpenError) Unwrap() error { return jperrors.ErrCircuitOpen }

// AggregateError is raised when both the primary and fallback backends
// exhausted their attempts. It names both backends' final category and error
// so operators can tell "both backends are down" apart from "this operation
// was never supported elsewhere".
type AggregateError struct {
	Op               OperationID
	Primary          BackendID
	PrimaryCategory  ErrorCategory
	PrimaryErr       error
	Fallback         BackendID
	FallbackCategory ErrorCategory
	FallbackErr      error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	return fmt.Sprintf("%s failed on both backends: %s (%s): %v; %s (%s): %v",
		e.Op,
		e.Primary, categoryLabel(e.PrimaryCategory), e.PrimaryErr,
		e.Fallback, categoryLabel(e.FallbackCategory), e.FallbackErr)
}

// categoryLabel names a category in error text. Breaker rejections carry no
// category because the adapter was never invoked.
func categoryLabel(c ErrorCategory) string {
	if c == "" {
		return "circuit-open"
	}
	return string(c)
}

// Unwrap exposes both underlying errors to errors.Is and errors.As.
func (e *AggregateError) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}
