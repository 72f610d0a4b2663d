package reportroute

import (
	"fmt"
)

// SupportEntry records which backends can satisfy an operation.
// A zero Fallback means only one backend supports the operation and no
// failover is ever attempted for it.
type SupportEntry struct {
	// Preferred is the backend the catalog favors absent other signals.
	Preferred BackendID

	// Fallback is the secondary backend, or "" when none exists.
	Fallback BackendID

	// MetadataOnly marks read-only schema/dictionary lookups. These are
	// always cheap and latency-sensitive, which biases selection toward the
	// REST backend.
	MetadataOnly bool
}

// Supports reports whether b appears in the entry at all.
func (e SupportEntry) Supports(b BackendID) bool {
	return b != "" && (e.Preferred == b || e.Fallback == b)
}

// Other returns the supported backend that is not b, or "" if there isn't one.
func (e SupportEntry) Other(b BackendID) BackendID {
	if b == "" {
		return ""
	}
	switch b {
	case e.Preferred:
		return e.Fallback
	case e.Fallback:
		return e.Preferred
	}
	return ""
}

// Catalog is the fixed map from operations to backend support metadata.
// It is built once at construction and never mutated afterwards.
type Catalog struct {
	entries map[OperationID]SupportEntry
}

// DefaultCatalog returns the support table for the reporting platform.
// Report lifecycle and row retrieval favor SOAP for its batch semantics;
// schema lookups favor REST.
func DefaultCatalog() *Catalog {
	return NewCatalog(map[OperationID]SupportEntry{
		OpCreateReport:   {Preferred: BackendSOAP, Fallback: BackendREST},
		OpRunReport:      {Preferred: BackendSOAP, Fallback: BackendREST},
		OpFetchRows:      {Preferred: BackendSOAP, Fallback: BackendREST},
		OpGetLineItems:   {Preferred: BackendSOAP, Fallback: BackendREST},
		OpListReports:    {Preferred: BackendREST, Fallback: BackendSOAP, MetadataOnly: true},
		OpGetDimensions:  {Preferred: BackendREST, Fallback: BackendSOAP, MetadataOnly: true},
		OpGetMetrics:     {Preferred: BackendREST, Fallback: BackendSOAP, MetadataOnly: true},
		OpTestConnection: {Preferred: BackendREST, Fallback: BackendSOAP},
	})
}

// NewCatalog builds a catalog from a literal support table. Use this to
// replace the default table when the platform adds or retires operations.
func NewCatalog(entries map[OperationID]SupportEntry) *Catalog {
	copied := make(map[OperationID]SupportEntry, len(entries))
	for op, e := range entries {
		copied[op] = e
	}
	return &Catalog{entries: copied}
}

// Entry looks up the support metadata for an operation. It fails only for an
// operation the catalog has never heard of.
func (c *Catalog) Entry(op OperationID) (SupportEntry, error) {
	e, ok := c.entries[op]
	if !ok {
		return SupportEntry{}, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	return e, nil
}

// Operations returns every operation the catalog knows about.
func (c *Catalog) Operations() []OperationID {
	ops := make([]OperationID, 0, len(c.entries))
	for op := range c.entries {
		ops = append(ops, op)
	}
	return ops
}
