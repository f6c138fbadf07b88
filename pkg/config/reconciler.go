package config

import "time"

// ReconcilerConfig tunes the Control-Plane Reconciler's tick loop, backoff,
// and rate limiting (spec.md §4.6).
type ReconcilerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`

	// OrphanScanInterval is how often the orphan-reaping sweep runs.
	OrphanScanInterval time.Duration `yaml:"orphan_scan_interval"`

	// StopGracePeriod is how long to wait after SIGTERM-equivalent stop
	// before force-removing a container.
	StopGracePeriod time.Duration `yaml:"stop_grace_period"`

	// BackoffInitial / BackoffMax bound the per-agent exponential backoff
	// applied after a transient engine error.
	BackoffInitial time.Duration `yaml:"backoff_initial"`
	BackoffMax     time.Duration `yaml:"backoff_max"`

	// EngineCallsPerSecond rate-limits the reconciler's container engine
	// calls so a large fleet cannot thunder the engine on one tick.
	EngineCallsPerSecond float64 `yaml:"engine_calls_per_second"`
	EngineCallsBurst     int     `yaml:"engine_calls_burst"`
}

// DefaultReconcilerConfig returns the built-in reconciler defaults.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		TickInterval:         2 * time.Second,
		OrphanScanInterval:   30 * time.Second,
		StopGracePeriod:      10 * time.Second,
		BackoffInitial:       1 * time.Second,
		BackoffMax:           2 * time.Minute,
		EngineCallsPerSecond: 20,
		EngineCallsBurst:     10,
	}
}

// Validate checks the reconciler defaults for internal consistency.
func (r ReconcilerConfig) Validate() error {
	if r.TickInterval <= 0 {
		return NewValidationError("reconciler", "", "tick_interval", ErrInvalidValue)
	}
	if r.BackoffInitial <= 0 || r.BackoffMax < r.BackoffInitial {
		return NewValidationError("reconciler", "", "backoff_initial/backoff_max", ErrInvalidValue)
	}
	if r.EngineCallsPerSecond <= 0 || r.EngineCallsBurst <= 0 {
		return NewValidationError("reconciler", "", "engine_calls_per_second/burst", ErrInvalidValue)
	}
	return nil
}
