package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultAgentDefaults_Valid(t *testing.T) {
	assert.NoError(t, DefaultAgentDefaults().Validate())
}

func TestAgentDefaults_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *AgentDefaults)
		wantErr bool
	}{
		{"valid", func(a *AgentDefaults) {}, false},
		{"zero idle timeout", func(a *AgentDefaults) { a.IdleTimeoutSeconds = 0 }, true},
		{"zero iteration cap", func(a *AgentDefaults) { a.IterationCap = 0 }, true},
		{"empty workspace root", func(a *AgentDefaults) { a.WorkspaceRoot = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAgentDefaults()
			tt.mutate(&a)
			err := a.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToolsConfig_Validate(t *testing.T) {
	cfg := DefaultToolsConfig()
	require := assert.New(t)
	require.NoError(cfg.Validate())

	cfg.RunBashDefaultTimeout = cfg.RunBashMaxTimeout + 1
	require.Error(cfg.Validate())
}

func TestReconcilerConfig_Validate(t *testing.T) {
	cfg := DefaultReconcilerConfig()
	assert.NoError(t, cfg.Validate())

	cfg.BackoffMax = 0
	assert.Error(t, cfg.Validate())
}
