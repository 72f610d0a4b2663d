package reportroute

import (
	"sync"
	"time"
)

// PerformanceSnapshot is a read-only copy of one backend's rolling metrics.
type PerformanceSnapshot struct {
	// TotalRequests counts every completed attempt against the backend.
	TotalRequests int64

	// SuccessCount counts attempts that returned a result.
	SuccessCount int64

	// ErrorCount counts attempts that returned an error.
	ErrorCount int64

	// AvgLatency is the rolling average duration of completed attempts.
	AvgLatency time.Duration
}

// SuccessRate returns successes over total, or 1.0 before any traffic so an
// untested backend is never penalized by the selection strategy.
func (s PerformanceSnapshot) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 1.0
	}
	return float64(s.SuccessCount) / float64(s.TotalRequests)
}

type backendMetrics struct {
	total      int64
	successes  int64
	failures   int64
	avgLatency time.Duration
}

func (m *backendMetrics) observe(d time.Duration) {
	m.total++
	// Cumulative moving average; cheap and monotone in sample count.
	m.avgLatency += (d - m.avgLatency) / time.Duration(m.total)
}

// PerformanceTracker keeps rolling per-backend metrics that feed the
// selection strategy and the operator summary. All access is synchronized;
// readers only ever see value snapshots.
type PerformanceTracker struct {
	mu      sync.RWMutex
	enabled bool
	metrics map[BackendID]*backendMetrics
}

// NewPerformanceTracker creates a tracker. A disabled tracker records
// nothing and reports empty snapshots, which switches off performance-based
// backend switchover.
func NewPerformanceTracker(enabled bool) *PerformanceTracker {
	return &PerformanceTracker{
		enabled: enabled,
		metrics: make(map[BackendID]*backendMetrics),
	}
}

// RecordSuccess records one successful attempt and its duration.
func (t *PerformanceTracker) RecordSuccess(backend BackendID, d time.Duration) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.metricsFor(backend)
	m.observe(d)
	m.successes++
}

// RecordFailure records one failed attempt and its duration.
func (t *PerformanceTracker) RecordFailure(backend BackendID, d time.Duration) {
	if !t.enabled {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.metricsFor(backend)
	m.observe(d)
	m.failures++
}

// Snapshot returns a point-in-time copy of every backend's metrics.
func (t *PerformanceTracker) Snapshot() map[BackendID]PerformanceSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[BackendID]PerformanceSnapshot, len(t.metrics))
	for backend, m := range t.metrics {
		out[backend] = PerformanceSnapshot{
			TotalRequests: m.total,
			SuccessCount:  m.successes,
			ErrorCount:    m.failures,
			AvgLatency:    m.avgLatency,
		}
	}
	return out
}

// Reset clears all recorded metrics. Operator and test use only.
func (t *PerformanceTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = make(map[BackendID]*backendMetrics)
}

func (t *PerformanceTracker) metricsFor(backend BackendID) *backendMetrics {
	m, ok := t.metrics[backend]
	if !ok {
		m = &backendMetrics{}
		t.metrics[backend] = m
	}
	return m
}
