package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raworc/raworc/pkg/engine"
	"github.com/raworc/raworc/pkg/models"
)

func TestObservedLabel(t *testing.T) {
	assert.Equal(t, "missing", observedLabel(engine.Status{Exists: false}))
	assert.Equal(t, "stopped", observedLabel(engine.Status{Exists: true, Running: false}))
	assert.Equal(t, "running", observedLabel(engine.Status{Exists: true, Running: true}))
}

func TestAgentNameFromContainer(t *testing.T) {
	assert.Equal(t, "my-agent", agentNameFromContainer("raworc_agent_my-agent"))
	assert.Equal(t, models.ContainerName("my-agent"), "raworc_agent_my-agent")
}

func TestRemixSubtrees(t *testing.T) {
	all := remixSubtrees(models.PublishPermissions{Code: true, Secrets: true, Content: true})
	assert.ElementsMatch(t, []string{models.WorkspaceCodeDir, models.WorkspaceSecretsDir, models.WorkspaceContentDir}, all)

	none := remixSubtrees(models.PublishPermissions{})
	assert.Empty(t, none)

	codeOnly := remixSubtrees(models.PublishPermissions{Code: true})
	assert.Equal(t, []string{models.WorkspaceCodeDir}, codeOnly)
}

func TestSecretsTar_BuildsNonEmptyArchive(t *testing.T) {
	buf, err := secretsTar(map[string]string{"api_key": "sekret"})
	assert.NoError(t, err)
	assert.NotZero(t, buf.Len())
}
