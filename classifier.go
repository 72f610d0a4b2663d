package reportroute

import (
	"context"
	"errors"
	"net"

	jperrors "github.com/JohnPlummer/jp-go-errors"
)

// ErrorCategory is the closed taxonomy every failure is normalized into
// before any retry or fallback decision is made.
type ErrorCategory string

const (
	// CategoryAuthentication covers credential and permission failures.
	// Never retried, never failed over: the caller has to fix credentials.
	CategoryAuthentication ErrorCategory = "authentication"

	// CategoryQuota covers rate limits and quota exhaustion.
	CategoryQuota ErrorCategory = "quota"

	// CategoryNetwork covers connectivity failures short of a timeout.
	CategoryNetwork ErrorCategory = "network"

	// CategoryTimeout covers deadline and timeout signals.
	CategoryTimeout ErrorCategory = "timeout"

	// CategoryInvalidRequest covers malformed or rejected request shapes.
	// Never retried, never failed over: neither backend can repair the call.
	CategoryInvalidRequest ErrorCategory = "invalid_request"

	// CategoryInternal is the residual category for backend-side faults.
	CategoryInternal ErrorCategory = "internal"
)

// String returns the category name.
func (c ErrorCategory) String() string { return string(c) }

func validCategory(c ErrorCategory) bool {
	switch c {
	case CategoryAuthentication, CategoryQuota, CategoryNetwork,
		CategoryTimeout, CategoryInvalidRequest, CategoryInternal:
		return true
	}
	return false
}

// Classifier normalizes any raised failure into an ErrorCategory.
// Implementations must be total: every error maps to exactly one category
// and classification never fails.
type Classifier interface {
	Classify(err error) ErrorCategory
}

// DefaultClassifier classifies errors by adapter-supplied category, known
// sentinel errors, network error types, and HTTP status codes, in the order
// authentication, quota, network, timeout, invalid request. Anything it
// cannot place lands in CategoryInternal.
type DefaultClassifier struct{}

// NewDefaultClassifier returns the stock classifier.
func NewDefaultClassifier() *DefaultClassifier { return &DefaultClassifier{} }

// Classify implements Classifier.
func (dc *DefaultClassifier) Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryInternal
	}

	// An adapter that knows why it failed wins outright.
	var categorizer Categorizer
	if errors.As(err, &categorizer) {
		if c := categorizer.ErrorCategory(); validCategory(c) {
			return c
		}
	}

	status := extractStatusCode(err)

	switch status {
	case 401, 403:
		return CategoryAuthentication
	case 429:
		return CategoryQuota
	}
	if errors.Is(err, jperrors.ErrRateLimited) {
		return CategoryQuota
	}

	// Connectivity failures that are not timeouts.
	var netErr net.Error
	if errors.As(err, &netErr) && !netErr.Timeout() {
		return CategoryNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) || jperrors.IsTimeout(err) {
		return CategoryTimeout
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	switch status {
	case 408, 504:
		return CategoryTimeout
	case 400, 404, 405, 409, 422:
		return CategoryInvalidRequest
	}

	return CategoryInternal
}

// extractStatusCode pulls an HTTP status code out of an error chain, or 0.
func extractStatusCode(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}

	type statusProvider interface {
		StatusCode() int
	}
	var provider statusProvider
	if errors.As(err, &provider) {
		return provider.StatusCode()
	}

	return 0
}
