package reportroute

import (
	"log/slog"
	"time"
)

// Config holds the router's construction-time configuration. Build it with
// DefaultConfig and functional options; it is read-only once the router is
// constructed.
type Config struct {
	// GlobalPreference, when non-empty, biases selection toward one backend
	// for every operation that supports it.
	GlobalPreference BackendID

	// Retry is the retry policy shared by every call.
	Retry RetryPolicy

	// EnableFallback allows failover to the secondary backend. Disabling it
	// surfaces the primary's error as soon as its retries are exhausted.
	EnableFallback bool

	// PerformanceTracking records per-backend metrics and enables the
	// success-rate switchover rule.
	PerformanceTracking bool

	// PerformanceThreshold is the success rate below which the selection
	// strategy prefers the other supported backend.
	PerformanceThreshold float64

	// MinSampleSize is the minimum number of recorded attempts before the
	// success-rate rule applies. Keeps a single early failure from
	// steering all traffic away from a barely used backend.
	MinSampleSize int64

	// ComplexityThreshold is the complexity score above which calls prefer
	// the SOAP backend's batch semantics.
	ComplexityThreshold int

	// BulkSizeThreshold is the batch-size/limit/list-length above which a
	// call counts as bulk.
	BulkSizeThreshold int

	// BreakerThreshold is the number of consecutive failures that opens a
	// backend's circuit.
	BreakerThreshold uint32

	// BreakerRecoveryTimeout is how long an open circuit waits before
	// admitting a half-open trial.
	BreakerRecoveryTimeout time.Duration

	// Classifier normalizes failures into the category taxonomy.
	// Default: NewDefaultClassifier()
	Classifier Classifier

	// Catalog maps operations to backend support metadata.
	// Default: DefaultCatalog()
	Catalog *Catalog

	// Logger for routing, retry, and breaker events.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns the router configuration with stock defaults.
func DefaultConfig() *Config {
	return &Config{
		Retry:                  DefaultRetryPolicy(),
		EnableFallback:         true,
		PerformanceTracking:    true,
		PerformanceThreshold:   0.8,
		MinSampleSize:          10,
		ComplexityThreshold:    10,
		BulkSizeThreshold:      100,
		BreakerThreshold:       5,
		BreakerRecoveryTimeout: 30 * time.Second,
		Classifier:             NewDefaultClassifier(),
		Catalog:                DefaultCatalog(),
		Logger:                 slog.Default(),
	}
}

// Option is a functional option for configuring the router.
type Option func(*Config)

// WithGlobalPreference biases selection toward one backend wherever the
// operation supports it.
//
// Example:
//
//	reportroute.WithGlobalPreference(reportroute.BackendREST)
func WithGlobalPreference(backend BackendID) Option {
	return func(c *Config) {
		c.GlobalPreference = backend
	}
}

// WithMaxAttempts sets the total attempts per backend, including the first.
func WithMaxAttempts(attempts int) Option {
	return func(c *Config) {
		c.Retry.MaxAttempts = attempts
	}
}

// WithLinearBackoff configures linear backoff: baseDelay, 2×baseDelay,
// 3×baseDelay, ... capped at maxDelay.
func WithLinearBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Config) {
		c.Retry.Strategy = StrategyLinear
		c.Retry.BaseDelay = baseDelay
		c.Retry.MaxDelay = maxDelay
	}
}

// WithExponentialBackoff configures exponential backoff with the configured
// multiplier (default 2.0), capped at maxDelay.
//
// Example:
//
//	reportroute.WithExponentialBackoff(time.Second, 60*time.Second)
//	// delays: 1s, 2s, 4s, 8s, ... capped at 60s
func WithExponentialBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Config) {
		c.Retry.Strategy = StrategyExponential
		c.Retry.BaseDelay = baseDelay
		c.Retry.MaxDelay = maxDelay
	}
}

// WithFibonacciBackoff configures fibonacci backoff capped at maxDelay.
//
// Example:
//
//	reportroute.WithFibonacciBackoff(time.Second, 60*time.Second)
//	// delays: 1s, 1s, 2s, 3s, 5s, 8s, ... capped at 60s
func WithFibonacciBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Config) {
		c.Retry.Strategy = StrategyFibonacci
		c.Retry.BaseDelay = baseDelay
		c.Retry.MaxDelay = maxDelay
	}
}

// WithMultiplier sets the growth factor for exponential backoff.
func WithMultiplier(multiplier float64) Option {
	return func(c *Config) {
		c.Retry.Multiplier = multiplier
	}
}

// WithJitter enables or disables backoff jitter. With jitter on, each delay
// is drawn uniformly from [delay/2, delay].
func WithJitter(enabled bool) Option {
	return func(c *Config) {
		c.Retry.Jitter = enabled
	}
}

// WithRetryPolicy replaces the whole retry policy at once.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Config) {
		c.Retry = policy
	}
}

// WithFallback enables or disables failover to the secondary backend.
func WithFallback(enabled bool) Option {
	return func(c *Config) {
		c.EnableFallback = enabled
	}
}

// WithPerformanceTracking enables or disables per-backend metrics and the
// success-rate switchover rule.
func WithPerformanceTracking(enabled bool) Option {
	return func(c *Config) {
		c.PerformanceTracking = enabled
	}
}

// WithPerformanceThreshold sets the success rate below which selection
// prefers the other supported backend.
func WithPerformanceThreshold(threshold float64) Option {
	return func(c *Config) {
		c.PerformanceThreshold = threshold
	}
}

// WithMinSampleSize sets the minimum recorded attempts before the
// success-rate rule applies.
func WithMinSampleSize(n int64) Option {
	return func(c *Config) {
		c.MinSampleSize = n
	}
}

// WithComplexityThreshold sets the score above which calls prefer the SOAP
// backend.
func WithComplexityThreshold(threshold int) Option {
	return func(c *Config) {
		c.ComplexityThreshold = threshold
	}
}

// WithBulkSizeThreshold sets the batch-size/list-length above which a call
// counts as bulk.
func WithBulkSizeThreshold(threshold int) Option {
	return func(c *Config) {
		c.BulkSizeThreshold = threshold
	}
}

// WithBreakerThreshold sets how many consecutive failures open a backend's
// circuit.
func WithBreakerThreshold(threshold uint32) Option {
	return func(c *Config) {
		c.BreakerThreshold = threshold
	}
}

// WithBreakerRecoveryTimeout sets how long an open circuit waits before
// admitting a half-open trial.
func WithBreakerRecoveryTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.BreakerRecoveryTimeout = timeout
	}
}

// WithClassifier sets a custom error classifier.
func WithClassifier(classifier Classifier) Option {
	return func(c *Config) {
		c.Classifier = classifier
	}
}

// WithCatalog replaces the default operation support table.
func WithCatalog(catalog *Catalog) Option {
	return func(c *Config) {
		c.Catalog = catalog
	}
}

// WithLogger sets a custom logger.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	reportroute.WithLogger(logger)
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// callOptions carries per-call overrides for Execute.
type callOptions struct {
	override   BackendID
	complexity int
	bulk       bool
}

// CallOption is a per-call option for Execute.
type CallOption func(*callOptions)

// WithBackendOverride pins this call to a specific backend, provided the
// operation supports it.
func WithBackendOverride(backend BackendID) CallOption {
	return func(o *callOptions) {
		o.override = backend
	}
}

// WithComplexityScore declares how expensive this call is expected to be.
// Scores above the configured threshold steer the call to the SOAP backend.
func WithComplexityScore(score int) CallOption {
	return func(o *callOptions) {
		o.complexity = score
	}
}

// WithBulk marks this call as bulk regardless of what the arguments look
// like.
func WithBulk() CallOption {
	return func(o *callOptions) {
		o.bulk = true
	}
}
