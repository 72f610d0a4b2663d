package reportroute

import (
	"reflect"
)

// selector implements backend selection: a pure function of the operation
// catalog, the per-call context, and a performance snapshot. It never causes
// side effects and holds no mutable state of its own.
type selector struct {
	catalog              *Catalog
	available            map[BackendID]bool
	globalPreference     BackendID
	performanceThreshold float64
	minSampleSize        int64
	complexityThreshold  int
}

// selection is the routing decision for one call: the backend to try first
// and, optionally, the one to fail over to.
type selection struct {
	primary  BackendID
	fallback BackendID // "" when no failover is possible
}

// pick resolves the primary/fallback pair for one call. The first matching
// rule wins:
//
//  1. caller override, if the operation supports it
//  2. global preference, if the operation supports it
//  3. metadata-only operations go to the REST backend
//  4. bulk or high-complexity calls go to the SOAP backend
//  5. a catalog-preferred backend with a poor recent success rate yields to
//     the other supported backend
//  6. the catalog pair, unchanged
func (s *selector) pick(octx OperationContext, perf map[BackendID]PerformanceSnapshot) (selection, error) {
	entry, err := s.catalog.Entry(octx.Operation)
	if err != nil {
		return selection{}, err
	}

	entry, ok := s.restrict(entry)
	if !ok {
		return selection{}, ErrOperationNotSupported
	}

	if octx.Override != "" && entry.Supports(octx.Override) {
		return orient(entry, octx.Override), nil
	}

	if s.globalPreference != "" && entry.Supports(s.globalPreference) {
		return orient(entry, s.globalPreference), nil
	}

	if entry.MetadataOnly && entry.Supports(BackendREST) {
		return orient(entry, BackendREST), nil
	}

	if (octx.Bulk || octx.ComplexityScore > s.complexityThreshold) && entry.Supports(BackendSOAP) {
		return orient(entry, BackendSOAP), nil
	}

	if entry.Fallback != "" {
		snap := perf[entry.Preferred]
		if snap.TotalRequests >= s.minSampleSize && snap.SuccessRate() < s.performanceThreshold {
			return orient(entry, entry.Fallback), nil
		}
	}

	return selection{primary: entry.Preferred, fallback: entry.Fallback}, nil
}

// restrict drops unavailable backends from an entry, returning false when no
// supported backend survives. With one adapter missing the router degrades to
// single-backend operation per operation.
func (s *selector) restrict(entry SupportEntry) (SupportEntry, bool) {
	if !s.available[entry.Fallback] {
		entry.Fallback = ""
	}
	if !s.available[entry.Preferred] {
		if entry.Fallback == "" {
			return SupportEntry{}, false
		}
		entry.Preferred, entry.Fallback = entry.Fallback, ""
	}
	return entry, true
}

// orient returns the selection with want first and the entry's other
// supported backend, if any, as fallback.
func orient(entry SupportEntry, want BackendID) selection {
	return selection{primary: want, fallback: entry.Other(want)}
}

// bulkRequest reports whether the arguments signal a bulk call: an explicit
// bulk flag, a batch-size/limit argument above the threshold, or any list
// argument longer than the threshold.
func bulkRequest(args Arguments, sizeThreshold int) bool {
	if args == nil {
		return false
	}
	if flag, ok := args["bulk"].(bool); ok && flag {
		return true
	}
	for _, key := range []string{"limit", "page_size", "batch_size"} {
		if n, ok := intArg(args[key]); ok && n > sizeThreshold {
			return true
		}
	}
	for _, v := range args {
		rv := reflect.ValueOf(v)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() > sizeThreshold {
			return true
		}
	}
	return false
}

func intArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
