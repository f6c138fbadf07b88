package config

import "time"

// AgentDefaults holds the agent lifecycle defaults applied at create_agent
// time when a field is not supplied (spec.md §3, §4.7).
type AgentDefaults struct {
	IdleTimeoutSeconds int `yaml:"idle_timeout_s"`
	BusyTimeoutSeconds int `yaml:"busy_timeout_s"`

	// IterationCap bounds the inference loop (spec.md §4.5.1, default 32).
	IterationCap int `yaml:"iteration_cap"`

	// SoftLimitTokens is used when the provider does not report one.
	SoftLimitTokens int `yaml:"soft_limit_tokens"`

	WorkspaceRoot string `yaml:"workspace_root"`

	// AgentImage is the container image the Reconciler starts for every
	// agent (spec.md §4.6 ensure_container).
	AgentImage string `yaml:"agent_image"`
}

// DefaultAgentDefaults returns the built-in agent defaults.
func DefaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		IdleTimeoutSeconds: 1800,
		BusyTimeoutSeconds: 3600,
		IterationCap:       32,
		SoftLimitTokens:    128_000,
		WorkspaceRoot:      "/agent",
		AgentImage:         "raworc/agent-runtime:latest",
	}
}

// Validate checks the agent defaults for internal consistency.
func (a AgentDefaults) Validate() error {
	if a.IdleTimeoutSeconds <= 0 {
		return NewValidationError("agent_defaults", "", "idle_timeout_s", ErrInvalidValue)
	}
	if a.BusyTimeoutSeconds <= 0 {
		return NewValidationError("agent_defaults", "", "busy_timeout_s", ErrInvalidValue)
	}
	if a.IterationCap <= 0 {
		return NewValidationError("agent_defaults", "", "iteration_cap", ErrInvalidValue)
	}
	if a.SoftLimitTokens <= 0 {
		return NewValidationError("agent_defaults", "", "soft_limit_tokens", ErrInvalidValue)
	}
	if a.WorkspaceRoot == "" {
		return NewValidationError("agent_defaults", "", "workspace_root", ErrMissingRequiredField)
	}
	if a.AgentImage == "" {
		return NewValidationError("agent_defaults", "", "agent_image", ErrMissingRequiredField)
	}
	return nil
}

// IdleTimeout returns the idle timeout as a time.Duration.
func (a AgentDefaults) IdleTimeout() time.Duration {
	return time.Duration(a.IdleTimeoutSeconds) * time.Second
}

// BusyTimeout returns the busy timeout as a time.Duration.
func (a AgentDefaults) BusyTimeout() time.Duration {
	return time.Duration(a.BusyTimeoutSeconds) * time.Second
}
