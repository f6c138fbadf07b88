package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raworc/raworc/pkg/database"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
	testutil "github.com/raworc/raworc/test/util"
)

func newTestStore(t *testing.T) *store.EntStore {
	entClient, db := testutil.SetupTestDatabase(t)
	client := database.NewClientFromEnt(entClient, db)
	return store.NewEntStore(client.Client)
}

func TestAgentLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.CreateAgent(ctx, store.CreateAgentSpec{Name: "blaze-otter", CreatedBy: "op-1"})
	require.NoError(t, err)
	assert.Equal(t, "init", string(a.State))

	a, err = s.ClaimIdleAgent(ctx, "blaze-otter")
	require.NoError(t, err)
	assert.Equal(t, "idle", string(a.State))
	assert.NotNil(t, a.IdleFrom)

	a, err = s.ClaimBusyAgent(ctx, "blaze-otter")
	require.NoError(t, err)
	assert.Equal(t, "busy", string(a.State))
	assert.NotNil(t, a.BusyFrom)
	assert.Nil(t, a.IdleFrom)

	// A second concurrent claim_busy_agent from idle must fail: agent is
	// already busy.
	_, err = s.ClaimBusyAgent(ctx, "blaze-otter")
	assert.ErrorIs(t, err, store.ErrConflict)

	a, err = s.ClaimIdleAgent(ctx, "blaze-otter")
	require.NoError(t, err)
	assert.Equal(t, "idle", string(a.State))

	a, err = s.MarkSlept(ctx, "blaze-otter")
	require.NoError(t, err)
	assert.Equal(t, "slept", string(a.State))

	a, err = s.MarkInit(ctx, "blaze-otter")
	require.NoError(t, err)
	assert.Equal(t, "init", string(a.State))

	_, err = s.MarkTerminated(ctx, "blaze-otter")
	require.NoError(t, err)

	// Terminal is final: a second terminate must conflict.
	_, err = s.MarkTerminated(ctx, "blaze-otter")
	assert.ErrorIs(t, err, store.ErrConflict)

	// No transition out of terminated is possible.
	_, err = s.ClaimIdleAgent(ctx, "blaze-otter")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestCreateTask_EnforcesSingleInFlight(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateAgent(ctx, store.CreateAgentSpec{Name: "agent-a", CreatedBy: "op-1"})
	require.NoError(t, err)

	_, err = s.CreateTask(ctx, "agent-a", []models.ContentItem{{Type: "text", Content: "hi"}})
	require.NoError(t, err)

	_, err = s.CreateTask(ctx, "agent-a", []models.ContentItem{{Type: "text", Content: "again"}})
	assert.ErrorIs(t, err, store.ErrTaskSlotOccupied)
}

func TestAcquireTaskSlot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateAgent(ctx, store.CreateAgentSpec{Name: "agent-b", CreatedBy: "op-1"})
	require.NoError(t, err)

	created, err := s.CreateTask(ctx, "agent-b", []models.ContentItem{{Type: "text", Content: "hi"}})
	require.NoError(t, err)

	claimed, err := s.AcquireTaskSlot(ctx, "agent-b")
	require.NoError(t, err)
	assert.Equal(t, created.ID, claimed.ID)
	assert.Equal(t, "processing", string(claimed.Status))

	// No more pending tasks for this agent.
	_, err = s.AcquireTaskSlot(ctx, "agent-b")
	assert.ErrorIs(t, err, store.ErrNoTaskAvailable)
}

func TestAppendSegment_OrdinalsAndDedup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateAgent(ctx, store.CreateAgentSpec{Name: "agent-c", CreatedBy: "op-1"})
	require.NoError(t, err)
	task, err := s.CreateTask(ctx, "agent-c", []models.ContentItem{{Type: "text", Content: "hi"}})
	require.NoError(t, err)

	seg1, err := s.AppendSegment(ctx, task.ID, store.NewSegment{Type: models.SegmentCommentary, Channel: models.ChannelAnalysis, Text: "thinking"})
	require.NoError(t, err)
	assert.Equal(t, 0, seg1.Ordinal)

	seg2, err := s.AppendSegment(ctx, task.ID, store.NewSegment{Type: models.SegmentFinal, Channel: models.ChannelFinal, Text: "done"})
	require.NoError(t, err)
	assert.Equal(t, 1, seg2.Ordinal)

	segs, err := s.ListSegments(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, segs, 2)

	// Re-appending with the same client_seq dedups instead of assigning a
	// new ordinal (spec.md §9 "crash-safe appends").
	clientSeq := int64(7)
	dup1, err := s.AppendSegment(ctx, task.ID, store.NewSegment{Type: models.SegmentCommentary, ClientSeq: &clientSeq, Text: "retry"})
	require.NoError(t, err)
	dup2, err := s.AppendSegment(ctx, task.ID, store.NewSegment{Type: models.SegmentCommentary, ClientSeq: &clientSeq, Text: "retry"})
	require.NoError(t, err)
	assert.Equal(t, dup1.ID, dup2.ID)
}
