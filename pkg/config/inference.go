package config

import "os"

// InferenceProvider names the configured Inference Provider Adapter
// (spec.md §4.3).
type InferenceProvider string

// Supported providers.
const (
	InferenceProviderAnthropic InferenceProvider = "anthropic"
	InferenceProviderOpenAI    InferenceProvider = "openai"
)

// InferenceConfig holds the selected provider and its credentials. Secrets
// come only from the environment, never from the YAML defaults file.
type InferenceConfig struct {
	Provider    InferenceProvider
	Model       string
	AnthropicAPIKey string
	OpenAIAPIKey    string
}

// LoadInferenceConfigFromEnv reads the inference provider selection and API
// keys from the environment.
func LoadInferenceConfigFromEnv() (InferenceConfig, error) {
	provider := InferenceProvider(getEnvOrDefault("INFERENCE_PROVIDER", string(InferenceProviderAnthropic)))

	cfg := InferenceConfig{
		Provider:        provider,
		Model:           getEnvOrDefault("INFERENCE_MODEL", defaultModelFor(provider)),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
	}

	switch provider {
	case InferenceProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return InferenceConfig{}, NewValidationError("inference", string(provider), "ANTHROPIC_API_KEY", ErrMissingRequiredField)
		}
	case InferenceProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return InferenceConfig{}, NewValidationError("inference", string(provider), "OPENAI_API_KEY", ErrMissingRequiredField)
		}
	default:
		return InferenceConfig{}, NewValidationError("inference", string(provider), "provider", ErrInvalidValue)
	}

	return cfg, nil
}

func defaultModelFor(provider InferenceProvider) string {
	switch provider {
	case InferenceProviderOpenAI:
		return "gpt-4.1"
	default:
		return "claude-sonnet-4-5"
	}
}
