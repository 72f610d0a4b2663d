package reportroute

// HealthStatus describes one backend's circuit health for dashboards and
// readiness checks. It is a strongly-typed alternative to exposing raw
// breaker internals.
type HealthStatus struct {
	// Healthy is true while the circuit admits traffic (closed or half-open).
	Healthy bool `json:"healthy"`

	// CircuitState is the circuit's current state name.
	CircuitState string `json:"circuit_state"`

	// ConsecutiveFailures is the current run of failures against the backend.
	ConsecutiveFailures uint32 `json:"consecutive_failures"`

	// TotalSuccesses counts successes in the breaker's current generation.
	TotalSuccesses uint32 `json:"total_successes"`

	// TotalFailures counts failures in the breaker's current generation.
	TotalFailures uint32 `json:"total_failures"`
}

// Health returns each available backend's circuit health. A backend whose
// adapter failed to initialize has no entry.
func (r *Router) Health() map[BackendID]HealthStatus {
	out := make(map[BackendID]HealthStatus, len(r.breakers))
	for id, b := range r.breakers {
		state := b.state()
		counts := b.counts()
		out[id] = HealthStatus{
			Healthy:             state != CircuitOpen,
			CircuitState:        state.String(),
			ConsecutiveFailures: counts.ConsecutiveFailures,
			TotalSuccesses:      counts.TotalSuccesses,
			TotalFailures:       counts.TotalFailures,
		}
	}
	return out
}
