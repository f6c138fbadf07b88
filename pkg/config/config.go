// Package config loads and validates the control-plane and runtime
// configuration: database connection, reconciler tuning, agent defaults,
// tool catalog limits, and inference provider credentials.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/raworc/raworc/pkg/database"
)

// Config is the umbrella configuration loaded at process startup.
type Config struct {
	Database    database.Config    `yaml:"-"`
	Agent       AgentDefaults      `yaml:"agent_defaults"`
	Tools       ToolsConfig        `yaml:"tools"`
	Reconciler  ReconcilerConfig   `yaml:"reconciler"`
	Inference   InferenceConfig    `yaml:"-"`
	ContentRoot string             `yaml:"content_root"`
}

// LoadFromFile reads a YAML file of non-secret defaults and overlays
// environment-derived secrets (database credentials, provider API keys).
// Mirrors the teacher's layering: .env for secrets, YAML for declarative
// defaults.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is not an error

	cfg := &Config{
		Agent:      DefaultAgentDefaults(),
		Tools:      DefaultToolsConfig(),
		Reconciler: DefaultReconcilerConfig(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewLoadError(path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, NewLoadError(path, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
		}
	}

	dbCfg, err := database.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}
	cfg.Database = dbCfg

	infCfg, err := LoadInferenceConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading inference config: %w", err)
	}
	cfg.Inference = infCfg

	if cfg.ContentRoot == "" {
		cfg.ContentRoot = getEnvOrDefault("CONTENT_ROOT", "/var/lib/raworc/content")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-cutting invariants across the umbrella config.
func (c *Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return NewValidationError("agent_defaults", "", "", err)
	}
	if err := c.Tools.Validate(); err != nil {
		return NewValidationError("tools", "", "", err)
	}
	if err := c.Reconciler.Validate(); err != nil {
		return NewValidationError("reconciler", "", "", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
