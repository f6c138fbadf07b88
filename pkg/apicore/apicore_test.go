package apicore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/ent/schema"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
)

func TestTranslateStoreErr_ClassifiesSentinels(t *testing.T) {
	assert.Equal(t, models.ErrorKindNotFound, KindOf(translateStoreErr(store.ErrNotFound, "x")))
	assert.Equal(t, models.ErrorKindConflict, KindOf(translateStoreErr(store.ErrConflict, "x")))
	assert.Equal(t, models.ErrorKindConflict, KindOf(translateStoreErr(store.ErrTaskSlotOccupied, "x")))
	assert.Equal(t, models.ErrorKindInternal, KindOf(translateStoreErr(errors.New("boom"), "x")))
	assert.Nil(t, translateStoreErr(nil, "x"))
}

func TestTranslateStoreErr_PassesThroughAlreadyClassified(t *testing.T) {
	e := conflictErr("already classified")
	got := translateStoreErr(e, "wrapped")
	assert.Equal(t, models.ErrorKindConflict, KindOf(got))
	assert.Same(t, e, got)
}

func TestToAgentView_HandlesNilables(t *testing.T) {
	a := &ent.Agent{
		Name: "blaze-otter", CreatedBy: "op-1", CreatedAt: time.Unix(0, 0),
		IdleTimeoutS: 300, BusyTimeoutS: 900,
	}
	v := toAgentView(a)
	assert.Equal(t, "blaze-otter", v.Name)
	assert.Empty(t, v.ParentAgentName)
	assert.Empty(t, v.LastError)
	assert.Nil(t, v.ContentPort)

	parent := "src-agent"
	lastErr := "engine unreachable"
	port := 8080
	a.ParentAgentName = &parent
	a.LastError = &lastErr
	a.ContentPort = &port
	v = toAgentView(a)
	assert.Equal(t, "src-agent", v.ParentAgentName)
	assert.Equal(t, "engine unreachable", v.LastError)
	assert.Equal(t, &port, v.ContentPort)
}

func TestToSegmentView_ToolResultSurfacesTextUnderOutput(t *testing.T) {
	s := &ent.Segment{Ordinal: 2, Type: "tool_result", Text: `{"exit_code":0}`}
	v := toSegmentView(s)
	assert.Equal(t, models.SegmentToolResult, v.Type)
	assert.Equal(t, `{"exit_code":0}`, v.Output)
	assert.Empty(t, v.Text)
}

func TestToSegmentView_CommentarySurfacesText(t *testing.T) {
	channel := "analysis"
	s := &ent.Segment{Ordinal: 1, Type: "commentary", Channel: &channel, Text: "thinking..."}
	v := toSegmentView(s)
	assert.Equal(t, models.ChannelAnalysis, v.Channel)
	assert.Equal(t, "thinking...", v.Text)
	assert.Nil(t, v.Output)
}

func TestToContentItems_RoundTrips(t *testing.T) {
	items := []schema.ContentItem{{Type: "text", Content: "hello"}}
	out := toContentItems(items)
	assert.Equal(t, []models.ContentItem{{Type: "text", Content: "hello"}}, out)
}

func TestCleanWorkspacePath_DefaultsAndCleans(t *testing.T) {
	assert.Equal(t, "/agent", cleanWorkspacePath(""))
	assert.Equal(t, "/agent/code", cleanWorkspacePath("/agent/code/"))
	assert.Equal(t, "/agent/code", cleanWorkspacePath("/agent/../agent/code"))
}

func TestHashToken_Deterministic(t *testing.T) {
	assert.Equal(t, hashToken("secret"), hashToken("secret"))
	assert.NotEqual(t, hashToken("secret"), hashToken("other"))
}

func TestHealthView_Healthy(t *testing.T) {
	healthy := HealthView{StoreReachable: true, ReconcilerAgeMS: 1000, AgentErrors: map[string]string{}}
	assert.True(t, healthy.Healthy())

	unreachable := healthy
	unreachable.StoreReachable = false
	assert.False(t, unreachable.Healthy())

	stale := healthy
	stale.ReconcilerAgeMS = int64(maxReconcilerAge.Milliseconds()) + 1
	assert.False(t, stale.Healthy())

	withErr := healthy
	withErr.AgentErrors = map[string]string{"a": "boom"}
	assert.False(t, withErr.Healthy())
}
