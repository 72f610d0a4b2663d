package reportroute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Router is the single entry point for routed reporting calls. It is safe
// for concurrent use; per-backend counters and breaker state are the only
// shared mutable state and are synchronized internally. Locks are never held
// across backend adapter calls.
type Router struct {
	cfg      *Config
	logger   *slog.Logger
	backends map[BackendID]Backend
	breakers map[BackendID]*breaker
	tracker  *PerformanceTracker
	selector *selector
	coord    *coordinator
}

// New constructs a router over the two backend adapters. Either adapter may
// be nil: the router then degrades to single-backend operation, logs the
// condition, and drops a global preference naming the missing backend. It
// fails only when neither adapter is usable or the configuration is invalid.
//
// Example:
//
//	router, err := reportroute.New(soapAdapter, restAdapter,
//	    reportroute.WithMaxAttempts(5),
//	    reportroute.WithExponentialBackoff(time.Second, 60*time.Second),
//	)
func New(soap, rest Backend, opts ...Option) (*Router, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewDefaultClassifier()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}

	if soap == nil && rest == nil {
		return nil, fmt.Errorf("%w: both adapters are nil", ErrNoBackends)
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("max attempts must be at least 1, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.BreakerThreshold == 0 {
		return nil, errors.New("circuit breaker threshold must be positive")
	}

	backends := make(map[BackendID]Backend, 2)
	if err := registerAdapter(backends, soap, BackendSOAP); err != nil {
		return nil, err
	}
	if err := registerAdapter(backends, rest, BackendREST); err != nil {
		return nil, err
	}

	available := make(map[BackendID]bool, 2)
	for _, id := range []BackendID{BackendSOAP, BackendREST} {
		if _, ok := backends[id]; ok {
			available[id] = true
			continue
		}
		cfg.Logger.Warn("backend adapter unavailable, degrading to single-backend operation",
			"backend", id)
	}

	if cfg.GlobalPreference != "" && !available[cfg.GlobalPreference] {
		cfg.Logger.Warn("global preference names an unavailable backend, ignoring it",
			"preference", cfg.GlobalPreference)
		cfg.GlobalPreference = ""
	}

	breakers := make(map[BackendID]*breaker, len(backends))
	for id := range backends {
		breakers[id] = newBreaker(id, cfg.BreakerThreshold, cfg.BreakerRecoveryTimeout, cfg.Logger)
	}

	tracker := NewPerformanceTracker(cfg.PerformanceTracking)

	return &Router{
		cfg:      cfg,
		logger:   cfg.Logger,
		backends: backends,
		breakers: breakers,
		tracker:  tracker,
		selector: &selector{
			catalog:              cfg.Catalog,
			available:            available,
			globalPreference:     cfg.GlobalPreference,
			performanceThreshold: cfg.PerformanceThreshold,
			minSampleSize:        cfg.MinSampleSize,
			complexityThreshold:  cfg.ComplexityThreshold,
		},
		coord: &coordinator{
			policy:         cfg.Retry,
			classifier:     cfg.Classifier,
			tracker:        tracker,
			logger:         cfg.Logger,
			enableFallback: cfg.EnableFallback,
		},
	}, nil
}

func registerAdapter(backends map[BackendID]Backend, adapter Backend, want BackendID) error {
	if adapter == nil {
		return nil
	}
	if adapter.ID() != want {
		return fmt.Errorf("adapter reports backend %q, want %q", adapter.ID(), want)
	}
	backends[want] = adapter
	return nil
}

// Execute routes one operation: selects a backend, retries transient
// failures with backoff, and fails over to the secondary backend when
// eligible. See ExecuteDetailed for the full attempt trail.
func (r *Router) Execute(ctx context.Context, op OperationID, args Arguments, opts ...CallOption) (Result, error) {
	outcome, err := r.ExecuteDetailed(ctx, op, args, opts...)
	if err != nil {
		return nil, err
	}
	return outcome.Result, nil
}

// ExecuteDetailed is Execute plus the per-attempt trail. The outcome is
// non-nil whenever at least one attempt was made, including on failure.
func (r *Router) ExecuteDetailed(ctx context.Context, op OperationID, args Arguments, opts ...CallOption) (*FallbackOutcome, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}

	octx := OperationContext{
		Operation:       op,
		Args:            args,
		Override:        co.override,
		ComplexityScore: co.complexity,
		Bulk:            co.bulk || bulkRequest(args, r.cfg.BulkSizeThreshold),
	}

	sel, err := r.selector.pick(octx, r.tracker.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("routing %q: %w", op, err)
	}

	outcome := &FallbackOutcome{
		CallID:    uuid.NewString(),
		Operation: op,
	}

	r.logger.Debug("routing call",
		"call_id", outcome.CallID,
		"operation", op,
		"primary", sel.primary,
		"fallback", sel.fallback,
		"bulk", octx.Bulk,
		"complexity", octx.ComplexityScore)

	primary := r.backends[sel.primary]
	var fallback Backend
	var fallbackBreaker *breaker
	if sel.fallback != "" {
		fallback = r.backends[sel.fallback]
		fallbackBreaker = r.breakers[sel.fallback]
	}

	result, err := r.coord.execute(ctx, octx, primary, r.breakers[sel.primary], fallback, fallbackBreaker, outcome)
	outcome.Result = result
	outcome.Err = err
	if err != nil {
		r.logger.Warn("call failed",
			"call_id", outcome.CallID,
			"operation", op,
			"attempts", len(outcome.Attempts),
			"error", err)
		return outcome, err
	}

	r.logger.Debug("call complete",
		"call_id", outcome.CallID,
		"operation", op,
		"backend", outcome.UsedBackend,
		"attempts", len(outcome.Attempts))
	return outcome, nil
}

// BackendSummary is one backend's entry in the performance summary.
type BackendSummary struct {
	TotalRequests int64         `json:"total_requests"`
	SuccessCount  int64         `json:"success_count"`
	ErrorCount    int64         `json:"error_count"`
	SuccessRate   float64       `json:"success_rate"`
	AvgLatency    time.Duration `json:"avg_latency"`
	CircuitState  CircuitState  `json:"circuit_state"`
}

// PerformanceSummary returns a point-in-time snapshot of every available
// backend's metrics and circuit state.
func (r *Router) PerformanceSummary() map[BackendID]BackendSummary {
	snaps := r.tracker.Snapshot()
	out := make(map[BackendID]BackendSummary, len(r.backends))
	for id := range r.backends {
		snap := snaps[id]
		out[id] = BackendSummary{
			TotalRequests: snap.TotalRequests,
			SuccessCount:  snap.SuccessCount,
			ErrorCount:    snap.ErrorCount,
			SuccessRate:   snap.SuccessRate(),
			AvgLatency:    snap.AvgLatency,
			CircuitState:  r.breakers[id].state(),
		}
	}
	return out
}

// ResetPerformanceStats clears all recorded metrics. Operator and test use
// only; routing decisions start from a clean slate afterwards.
func (r *Router) ResetPerformanceStats() {
	r.tracker.Reset()
}

// ResetBreakers returns every backend's circuit to the closed state.
// Operator use only; breaker state otherwise lives for the whole process.
func (r *Router) ResetBreakers() {
	for _, b := range r.breakers {
		b.reset()
	}
	r.logger.Info("circuit breakers reset")
}
