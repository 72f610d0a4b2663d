package reportroute

// BackendID identifies one of the two backends the router can dispatch to.
type BackendID string

const (
	// BackendSOAP is the legacy SOAP-style backend. Heavier per call, but it
	// carries the richer batch semantics and tolerates large requests better.
	BackendSOAP BackendID = "soap"

	// BackendREST is the lightweight structured backend. Cheap and
	// latency-sensitive; models schema and dictionary lookups naturally.
	BackendREST BackendID = "rest"
)

// OperationID names a logical reporting operation. One or both backends can
// satisfy each operation; the Catalog records which.
type OperationID string

const (
	OpCreateReport   OperationID = "create-report"
	OpRunReport      OperationID = "run-report"
	OpFetchRows      OperationID = "fetch-rows"
	OpListReports    OperationID = "list-reports"
	OpGetLineItems   OperationID = "get-line-items"
	OpGetDimensions  OperationID = "get-dimensions"
	OpGetMetrics     OperationID = "get-metrics"
	OpTestConnection OperationID = "test-connection"
)

// OperationContext is the immutable per-call input to backend selection.
// It is built fresh for every Execute call and never persisted.
type OperationContext struct {
	// Operation is the logical operation being routed.
	Operation OperationID

	// Args are the caller's arguments, inspected for bulk signals only.
	Args Arguments

	// Override, when non-empty, is a caller-requested backend.
	Override BackendID

	// ComplexityScore is the caller's estimate of how expensive this call is.
	// Zero means unknown/cheap.
	ComplexityScore int

	// Bulk marks calls that move large batches of data.
	Bulk bool
}
