// Package reportroute routes reporting-API calls across two parallel backends
// with retries, circuit breaking, and automatic failover. The reporting
// platform exposes the same logical operations over a legacy SOAP service and
// a lighter REST service; neither supports every operation, and either can be
// slow, broken, or rate-limited independently of the other. The Router picks
// the best backend per call, retries transient failures with backoff, fails
// over when the primary is exhausted, and feeds observed performance back into
// future routing decisions.
//
// Wire formats, authentication, and serialization belong to the backend
// adapters; this package treats them as opaque capability objects.
package reportroute

import (
	"context"
)

// Arguments carries the caller-supplied parameters for one operation.
// The router inspects a few well-known keys (batch limits, bulk flags) for
// routing decisions and otherwise passes the map through untouched.
type Arguments map[string]any

// Result is an opaque backend response. Decoding it is the caller's business.
type Result any

// Backend is the capability interface both protocol adapters implement.
// An adapter only receives operations the Catalog assigns to it; Call may
// block and should honor ctx for timeouts and cancellation.
//
// Example:
//
//	type restAdapter struct{ client *reportapi.Client }
//
//	func (a *restAdapter) ID() reportroute.BackendID { return reportroute.BackendREST }
//
//	func (a *restAdapter) Call(ctx context.Context, op reportroute.OperationID, args reportroute.Arguments) (reportroute.Result, error) {
//	    return a.client.Do(ctx, string(op), args)
//	}
type Backend interface {
	// ID identifies which of the two backends this adapter speaks for.
	ID() BackendID

	// Call performs one operation and returns its result or error.
	Call(ctx context.Context, op OperationID, args Arguments) (Result, error)
}
