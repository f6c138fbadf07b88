package config

import "time"

// ToolsConfig holds the runtime limits enforced by the Tool Catalog
// (spec.md §4.4, §4.5.2).
type ToolsConfig struct {
	// RunBashDefaultTimeout / RunBashMaxTimeout bound run_bash's timeout_s.
	RunBashDefaultTimeout time.Duration `yaml:"run_bash_default_timeout"`
	RunBashMaxTimeout     time.Duration `yaml:"run_bash_max_timeout"`

	// RunBashOutputCeiling is the truncation boundary for merged stdout+stderr.
	RunBashOutputCeiling int `yaml:"run_bash_output_ceiling_bytes"`

	// FileReadCeiling is the maximum file size file-editing tools will load.
	FileReadCeiling int `yaml:"file_read_ceiling_bytes"`

	// FileToolTimeout is the soft timeout for file-editing tool calls.
	FileToolTimeout time.Duration `yaml:"file_tool_timeout"`
}

// DefaultToolsConfig returns the built-in tool catalog defaults.
func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		RunBashDefaultTimeout: 120 * time.Second,
		RunBashMaxTimeout:     600 * time.Second,
		RunBashOutputCeiling:  256 * 1024,
		FileReadCeiling:       25 * 1024 * 1024,
		FileToolTimeout:       5 * time.Second,
	}
}

// Validate checks the tool catalog defaults for internal consistency.
func (t ToolsConfig) Validate() error {
	if t.RunBashDefaultTimeout <= 0 || t.RunBashMaxTimeout <= 0 {
		return NewValidationError("tools", "", "run_bash timeout", ErrInvalidValue)
	}
	if t.RunBashDefaultTimeout > t.RunBashMaxTimeout {
		return NewValidationError("tools", "", "run_bash_default_timeout", ErrInvalidValue)
	}
	if t.RunBashOutputCeiling <= 0 {
		return NewValidationError("tools", "", "run_bash_output_ceiling_bytes", ErrInvalidValue)
	}
	if t.FileReadCeiling <= 0 {
		return NewValidationError("tools", "", "file_read_ceiling_bytes", ErrInvalidValue)
	}
	return nil
}
