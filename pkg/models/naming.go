package models

import (
	"fmt"
	"regexp"
)

// AgentNamePattern is the §3 naming constraint: 1..63 characters, starting
// with a letter and ending alphanumeric, hyphens allowed in between.
var AgentNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]{0,61}[A-Za-z0-9]$|^[A-Za-z]$`)

// ValidAgentName reports whether name satisfies spec.md §3's agent name
// regex and length bound.
func ValidAgentName(name string) bool {
	return len(name) <= 63 && AgentNamePattern.MatchString(name)
}

// ContainerName derives the container name for an agent (spec.md §6.1).
func ContainerName(agentName string) string {
	return fmt.Sprintf("raworc_agent_%s", agentName)
}

// VolumeName derives the workspace volume name for an agent (spec.md §6.1).
func VolumeName(agentName string) string {
	return fmt.Sprintf("raworc_agent_data_%s", agentName)
}

// AgentOwnedLabel is the Docker label key marking a container as owned by
// this control plane, used by the Reconciler's orphan-reaping sweep
// (spec.md §4.6).
const AgentOwnedLabel = "raworc.agent"

// WorkspaceCodeDir, WorkspaceSecretsDir, WorkspaceContentDir are the fixed
// subdirectories of an agent's workspace volume (spec.md §6.1).
const (
	WorkspaceCodeDir    = "code"
	WorkspaceSecretsDir = "secrets"
	WorkspaceContentDir = "content"
)
