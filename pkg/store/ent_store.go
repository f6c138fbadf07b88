package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/ent/agent"
	"github.com/raworc/raworc/ent/agentmessage"
	"github.com/raworc/raworc/ent/operator"
	"github.com/raworc/raworc/ent/schema"
	"github.com/raworc/raworc/ent/secret"
	"github.com/raworc/raworc/ent/segment"
	"github.com/raworc/raworc/ent/snapshot"
	"github.com/raworc/raworc/ent/task"
	"github.com/raworc/raworc/ent/token"
	"github.com/raworc/raworc/pkg/models"
)

// EntStore is the ent/pgx-backed Store implementation.
type EntStore struct {
	client *ent.Client
}

// NewEntStore wraps an *ent.Client as a Store.
func NewEntStore(client *ent.Client) *EntStore {
	return &EntStore{client: client}
}

var _ Store = (*EntStore)(nil)

// CreateAgent inserts a declared init row (spec.md §4.7 create_agent).
func (s *EntStore) CreateAgent(ctx context.Context, spec CreateAgentSpec) (*ent.Agent, error) {
	create := s.client.Agent.Create().
		SetName(spec.Name).
		SetDescription(spec.Description).
		SetCreatedBy(spec.CreatedBy).
		SetState(agent.StateInit)

	if spec.IdleTimeoutSeconds > 0 {
		create = create.SetIdleTimeoutS(spec.IdleTimeoutSeconds)
	}
	if spec.BusyTimeoutSeconds > 0 {
		create = create.SetBusyTimeoutS(spec.BusyTimeoutSeconds)
	}
	if spec.Tags != nil {
		create = create.SetTags(spec.Tags)
	}
	if spec.Metadata != nil {
		create = create.SetMetadata(spec.Metadata)
	}

	a, err := create.Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, fmt.Errorf("%w: agent %q already exists", ErrConflict, spec.Name)
		}
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	return a, nil
}

// GetAgent fetches one agent by name.
func (s *EntStore) GetAgent(ctx context.Context, name string) (*ent.Agent, error) {
	a, err := s.client.Agent.Query().Where(agent.NameEQ(name)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w: agent %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("getting agent: %w", err)
	}
	return a, nil
}

// ListAgents applies the q/state/tags/limit/offset filters of spec.md §4.7.
func (s *EntStore) ListAgents(ctx context.Context, f AgentFilters) ([]*ent.Agent, int, error) {
	q := s.client.Agent.Query()
	if f.Query != "" {
		q = q.Where(agent.NameContainsFold(f.Query))
	}
	if f.State != "" {
		q = q.Where(agent.StateEQ(agent.State(f.State)))
	}

	q = q.Order(ent.Desc(agent.FieldCreatedAt))
	all, err := q.All(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing agents: %w", err)
	}

	// Tag containment is applied in Go rather than pushed into SQL: the
	// tags filter is typically small (a handful of terms) and this keeps
	// the query portable across the tags GIN index without hand-rolling
	// a raw predicate for ent's query builder.
	filtered := all
	if len(f.Tags) > 0 {
		filtered = filtered[:0]
		for _, a := range all {
			if hasAllTags(a.Tags, f.Tags) {
				filtered = append(filtered, a)
			}
		}
	}
	total := len(filtered)

	start := f.Offset
	if start > len(filtered) {
		start = len(filtered)
	}
	end := len(filtered)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return filtered[start:end], total, nil
}

// UpdateAgent applies the update_agent-mutable field patch.
func (s *EntStore) UpdateAgent(ctx context.Context, name string, patch AgentPatch) (*ent.Agent, error) {
	upd := s.client.Agent.Update().Where(agent.NameEQ(name))
	if patch.Description != nil {
		upd = upd.SetDescription(*patch.Description)
	}
	if patch.IdleTimeoutSeconds != nil {
		upd = upd.SetIdleTimeoutS(*patch.IdleTimeoutSeconds)
	}
	if patch.BusyTimeoutSeconds != nil {
		upd = upd.SetBusyTimeoutS(*patch.BusyTimeoutSeconds)
	}
	if patch.Tags != nil {
		upd = upd.SetTags(patch.Tags)
	}
	if patch.Metadata != nil {
		upd = upd.SetMetadata(patch.Metadata)
	}

	n, err := upd.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating agent: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: agent %q", ErrNotFound, name)
	}
	return s.GetAgent(ctx, name)
}

// MarkTerminated is the write-once transition to the terminal state (I2).
// It is not conditional on current state: delete_agent must succeed from
// any non-terminated state.
func (s *EntStore) MarkTerminated(ctx context.Context, name string) (*ent.Agent, error) {
	n, err := s.client.Agent.Update().
		Where(agent.NameEQ(name), agent.StateNEQ(agent.StateTerminated)).
		SetState(agent.StateTerminated).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("marking agent terminated: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: agent %q already terminated or missing", ErrConflict, name)
	}
	return s.GetAgent(ctx, name)
}

// transitionAgentState implements the conditional-update pattern shared by
// ClaimIdleAgent, ClaimBusyAgent, MarkSlept and MarkInit: lock the agent
// row, verify it is still in an allowed source state, apply the mutation,
// commit. Concurrent contenders serialise on the row lock; the loser sees
// the post-transition state and fails with ErrConflict.
func (s *EntStore) transitionAgentState(ctx context.Context, name string, from []agent.State, mutate func(*ent.AgentUpdateOne) *ent.AgentUpdateOne) (*ent.Agent, error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := tx.Agent.Query().
		Where(agent.NameEQ(name)).
		ForUpdate().
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w: agent %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("locking agent: %w", err)
	}

	allowed := false
	for _, st := range from {
		if a.State == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: agent %q in state %q", ErrConflict, name, a.State)
	}

	updated, err := mutate(tx.Agent.UpdateOne(a)).Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("transitioning agent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transition: %w", err)
	}
	return updated, nil
}

// ClaimIdleAgent implements spec.md §4.1 claim_idle_agent.
func (s *EntStore) ClaimIdleAgent(ctx context.Context, name string) (*ent.Agent, error) {
	now := time.Now().UTC()
	return s.transitionAgentState(ctx, name, []agent.State{agent.StateInit, agent.StateBusy}, func(u *ent.AgentUpdateOne) *ent.AgentUpdateOne {
		return u.SetState(agent.StateIdle).SetIdleFrom(now).ClearBusyFrom()
	})
}

// ClaimBusyAgent implements spec.md §4.1 claim_busy_agent.
func (s *EntStore) ClaimBusyAgent(ctx context.Context, name string) (*ent.Agent, error) {
	now := time.Now().UTC()
	return s.transitionAgentState(ctx, name, []agent.State{agent.StateIdle}, func(u *ent.AgentUpdateOne) *ent.AgentUpdateOne {
		return u.SetState(agent.StateBusy).SetBusyFrom(now).ClearIdleFrom()
	})
}

// MarkSlept transitions the agent into slept, clearing sleep bookkeeping.
func (s *EntStore) MarkSlept(ctx context.Context, name string) (*ent.Agent, error) {
	return s.transitionAgentState(ctx, name, []agent.State{agent.StateInit, agent.StateIdle, agent.StateBusy}, func(u *ent.AgentUpdateOne) *ent.AgentUpdateOne {
		return u.SetState(agent.StateSlept).ClearIdleFrom().ClearBusyFrom().ClearSleepDeadline()
	})
}

// MarkInit transitions a slept agent back to init (wake); the Reconciler
// then starts its stopped container (or brings up a new one if it is gone)
// and the Runtime re-claims idle.
func (s *EntStore) MarkInit(ctx context.Context, name string) (*ent.Agent, error) {
	return s.transitionAgentState(ctx, name, []agent.State{agent.StateSlept}, func(u *ent.AgentUpdateOne) *ent.AgentUpdateOne {
		return u.SetState(agent.StateInit)
	})
}

// SetSleepDeadline records a delayed sleep(delay_s) deadline.
func (s *EntStore) SetSleepDeadline(ctx context.Context, name string, deadline time.Time) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetSleepDeadline(deadline).Exec(ctx)
}

// ClearSleepDeadline drops a previously set sleep deadline.
func (s *EntStore) ClearSleepDeadline(ctx context.Context, name string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).ClearSleepDeadline().Exec(ctx)
}

// SetLastObservedState records the Reconciler's last container-liveness
// observation; never authoritative over declared state (ownership note,
// spec.md §3).
func (s *EntStore) SetLastObservedState(ctx context.Context, name string, observed string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetLastObservedState(observed).Exec(ctx)
}

// SetLastError records a permanent engine/provider error, blocking further
// transitions until the declared state changes (spec.md §4.6).
func (s *EntStore) SetLastError(ctx context.Context, name string, msg string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetLastError(msg).Exec(ctx)
}

// ClearLastError clears a previously recorded permanent error.
func (s *EntStore) ClearLastError(ctx context.Context, name string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).ClearLastError().Exec(ctx)
}

// SetContextUsage persists the runtime's last context-window estimate so
// API Core's create_task can evaluate the context_full budget check without
// reaching into the (separate-process) Agent Task Runtime (spec.md §4.7).
func (s *EntStore) SetContextUsage(ctx context.Context, name string, usedEstimated, softLimit int) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).
		SetContextUsedEstimated(usedEstimated).
		SetContextSoftLimitTokens(softLimit).
		Exec(ctx)
}

// SetPublished implements the publish/unpublish half of I6.
func (s *EntStore) SetPublished(ctx context.Context, name string, published bool, perms *models.PublishPermissions) (*ent.Agent, error) {
	upd := s.client.Agent.Update().Where(agent.NameEQ(name)).SetIsPublished(published)
	if published {
		upd = upd.SetPublishedAt(time.Now().UTC())
		if perms != nil {
			upd = upd.SetPublishPermissions(schema.PublishPermissions{
				Code:    perms.Code,
				Secrets: perms.Secrets,
				Content: perms.Content,
			})
		}
	} else {
		upd = upd.ClearPublishedAt().ClearPublishPermissions()
	}
	if _, err := upd.Save(ctx); err != nil {
		return nil, fmt.Errorf("setting published: %w", err)
	}
	return s.GetAgent(ctx, name)
}

// SetParent records parent_agent_name, set by remix(src->dst).
func (s *EntStore) SetParent(ctx context.Context, name, parentName string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetParentAgentName(parentName).Exec(ctx)
}

// SetContentPort records the port exposed for a published agent's content.
func (s *EntStore) SetContentPort(ctx context.Context, name string, port int) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetContentPort(port).Exec(ctx)
}

// RequestPublish stages publish(agent)'s declared intent; the Reconciler's
// tick performs the actual copy_out/content.Put/CreateSnapshot work.
func (s *EntStore) RequestPublish(ctx context.Context, name string, perms models.PublishPermissions) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).
		SetPublishRequested(true).
		SetRequestedPublishPermissions(schema.PublishPermissions{
			Code:    perms.Code,
			Secrets: perms.Secrets,
			Content: perms.Content,
		}).
		Exec(ctx)
}

// ClearPublishRequest clears publish_requested once the Reconciler has
// fulfilled it.
func (s *EntStore) ClearPublishRequest(ctx context.Context, name string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).
		SetPublishRequested(false).
		ClearRequestedPublishPermissions().
		Exec(ctx)
}

// RequestUnpublish stages unpublish(agent)'s declared intent.
func (s *EntStore) RequestUnpublish(ctx context.Context, name string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetUnpublishRequested(true).Exec(ctx)
}

// ClearUnpublishRequest clears unpublish_requested once fulfilled.
func (s *EntStore) ClearUnpublishRequest(ctx context.Context, name string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetUnpublishRequested(false).Exec(ctx)
}

// SetRemixPermissions stages the subtree permissions a freshly created
// remix destination's bringUp consumes once.
func (s *EntStore) SetRemixPermissions(ctx context.Context, name string, perms models.PublishPermissions) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).
		SetRemixPermissions(schema.PublishPermissions{
			Code:    perms.Code,
			Secrets: perms.Secrets,
			Content: perms.Content,
		}).
		Exec(ctx)
}

// ClearRemixPermissions clears remix_permissions once bringUp has
// performed the subtree copy.
func (s *EntStore) ClearRemixPermissions(ctx context.Context, name string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).ClearRemixPermissions().Exec(ctx)
}

// RequestSnapshot stages snapshot(agent, trigger)'s declared intent.
func (s *EntStore) RequestSnapshot(ctx context.Context, name string, trigger models.SnapshotTrigger) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).SetPendingSnapshotTrigger(string(trigger)).Exec(ctx)
}

// ClearSnapshotRequest clears pending_snapshot_trigger once the Reconciler
// has taken the snapshot.
func (s *EntStore) ClearSnapshotRequest(ctx context.Context, name string) error {
	return s.client.Agent.Update().Where(agent.NameEQ(name)).ClearPendingSnapshotTrigger().Exec(ctx)
}

// ListAgentsNeedingReconcile implements the cheap query of spec.md §4.1:
// agents whose declared state or timeout policy may disagree with
// observed reality.
func (s *EntStore) ListAgentsNeedingReconcile(ctx context.Context, now time.Time) ([]*ent.Agent, error) {
	agents, err := s.client.Agent.Query().
		Where(
			agent.StateNEQ(agent.StateTerminated),
			agent.LastErrorIsNil(),
		).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agents needing reconcile: %w", err)
	}

	needed := make([]*ent.Agent, 0, len(agents))
	for _, a := range agents {
		switch {
		case a.State == agent.StateInit:
			needed = append(needed, a)
		case a.State == agent.StateIdle && a.IdleFrom != nil && now.Sub(*a.IdleFrom) >= time.Duration(a.IdleTimeoutS)*time.Second:
			needed = append(needed, a)
		case a.State == agent.StateBusy && a.BusyFrom != nil && now.Sub(*a.BusyFrom) >= time.Duration(a.BusyTimeoutS)*time.Second:
			needed = append(needed, a)
		case a.SleepDeadline != nil && !now.Before(*a.SleepDeadline):
			needed = append(needed, a)
		case a.LastObservedState == nil || *a.LastObservedState != string(a.State):
			needed = append(needed, a)
		case a.PublishRequested || a.UnpublishRequested || a.PendingSnapshotTrigger != nil:
			needed = append(needed, a)
		}
	}
	return needed, nil
}

// ListLiveAgentNames returns every non-terminated agent's name, for the
// Reconciler's orphan-reaping sweep (spec.md §4.6).
func (s *EntStore) ListLiveAgentNames(ctx context.Context) ([]string, error) {
	return s.client.Agent.Query().
		Where(agent.StateNEQ(agent.StateTerminated)).
		Select(agent.FieldName).
		Strings(ctx)
}

// PutSecret upserts a (agent, key) -> value pair.
func (s *EntStore) PutSecret(ctx context.Context, agentName, key, value string) error {
	err := s.client.Secret.Create().
		SetAgentName(agentName).
		SetKey(key).
		SetValue(value).
		OnConflictColumns(secret.FieldAgentName, secret.FieldKey).
		UpdateNewValues().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("putting secret: %w", err)
	}
	return nil
}

// ListSecrets returns all secrets for an agent (values are Sensitive;
// callers must not log them).
func (s *EntStore) ListSecrets(ctx context.Context, agentName string) ([]*ent.Secret, error) {
	return s.client.Secret.Query().Where(secret.AgentNameEQ(agentName)).All(ctx)
}

// CreateTask inserts a pending task; I3 is enforced by the database's
// partial unique index (pkg/database/migrations), surfaced here as a
// conflict.
func (s *EntStore) CreateTask(ctx context.Context, agentName string, input []models.ContentItem) (*ent.Task, error) {
	items := make([]schema.ContentItem, len(input))
	for i, it := range input {
		items[i] = schema.ContentItem{Type: it.Type, Title: it.Title, Content: it.Content}
	}

	t, err := s.client.Task.Create().
		SetID(uuid.NewString()).
		SetAgentName(agentName).
		SetStatus(task.StatusPending).
		SetInputContent(items).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, fmt.Errorf("%w: agent %q already has an in-flight task", ErrTaskSlotOccupied, agentName)
		}
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return t, nil
}

// GetTask fetches one task by id.
func (s *EntStore) GetTask(ctx context.Context, taskID string) (*ent.Task, error) {
	t, err := s.client.Task.Get(ctx, taskID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
		}
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// ListTasks returns an agent's tasks, most recent first.
func (s *EntStore) ListTasks(ctx context.Context, agentName string) ([]*ent.Task, error) {
	return s.client.Task.Query().
		Where(task.AgentNameEQ(agentName)).
		Order(ent.Desc(task.FieldCreatedAt)).
		All(ctx)
}

// AcquireTaskSlot claims the oldest pending task for agentName, following
// tarsy's claimNextSession FOR UPDATE SKIP LOCKED pattern.
func (s *EntStore) AcquireTaskSlot(ctx context.Context, agentName string) (*ent.Task, error) {
	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := tx.Task.Query().
		Where(task.AgentNameEQ(agentName), task.StatusEQ(task.StatusPending)).
		Order(ent.Asc(task.FieldCreatedAt)).
		Limit(1).
		ForUpdate(entsql.WithLockAction(entsql.SkipLocked)).
		First(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNoTaskAvailable
		}
		return nil, fmt.Errorf("querying pending task: %w", err)
	}

	t, err = tx.Task.UpdateOne(t).SetStatus(task.StatusProcessing).Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("claiming task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task claim: %w", err)
	}
	return t, nil
}

// RequestCancel sets cancel_requested; the runtime polls or is pushed this
// via the control API.
func (s *EntStore) RequestCancel(ctx context.Context, taskID string) error {
	n, err := s.client.Task.Update().
		Where(task.IDEQ(taskID), task.StatusIn(task.StatusPending, task.StatusProcessing)).
		SetCancelRequested(true).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("requesting cancel: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: task %q not cancellable", ErrConflict, taskID)
	}
	return nil
}

// FinishTask transitions a task to a terminal status (L3: no further
// segments may be appended after this).
func (s *EntStore) FinishTask(ctx context.Context, taskID string, status models.TaskStatus, failureReason string, output []models.ContentItem) (*ent.Task, error) {
	upd := s.client.Task.UpdateOneID(taskID).SetStatus(task.Status(status))
	if failureReason != "" {
		upd = upd.SetFailureReason(failureReason)
	}
	if output != nil {
		items := make([]schema.ContentItem, len(output))
		for i, it := range output {
			items[i] = schema.ContentItem{Type: it.Type, Title: it.Title, Content: it.Content}
		}
		upd = upd.SetOutputContent(items)
	}
	t, err := upd.Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
		}
		return nil, fmt.Errorf("finishing task: %w", err)
	}
	return t, nil
}

// HasInFlightTask reports whether agentName has a pending|processing task
// (I3 read-side check).
func (s *EntStore) HasInFlightTask(ctx context.Context, agentName string) (bool, error) {
	return s.client.Task.Query().
		Where(task.AgentNameEQ(agentName), task.StatusIn(task.StatusPending, task.StatusProcessing)).
		Exist(ctx)
}

// AppendSegment assigns the next ordinal and appends, deduplicating on
// (task_id, client_seq) when supplied (spec.md §9 "crash-safe appends").
func (s *EntStore) AppendSegment(ctx context.Context, taskID string, seg NewSegment) (*ent.Segment, error) {
	if seg.ClientSeq != nil {
		existing, err := s.client.Segment.Query().
			Where(segment.TaskIDEQ(taskID), segment.ClientSeqEQ(*seg.ClientSeq)).
			Only(ctx)
		if err == nil {
			return existing, nil
		}
		if !ent.IsNotFound(err) {
			return nil, fmt.Errorf("checking segment dedup: %w", err)
		}
	}

	tx, err := s.client.Tx(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Lock the task row to serialise ordinal assignment for this task.
	if _, err := tx.Task.Query().Where(task.IDEQ(taskID)).ForUpdate().Only(ctx); err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w: task %q", ErrNotFound, taskID)
		}
		return nil, fmt.Errorf("locking task: %w", err)
	}

	count, err := tx.Segment.Query().Where(segment.TaskIDEQ(taskID)).Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting segments: %w", err)
	}

	create := tx.Segment.Create().
		SetTaskID(taskID).
		SetOrdinal(count).
		SetType(segment.Type(seg.Type))
	if seg.ClientSeq != nil {
		create = create.SetClientSeq(*seg.ClientSeq)
	}
	if seg.Channel != "" {
		create = create.SetChannel(string(seg.Channel))
	}
	if seg.Tool != "" {
		create = create.SetTool(string(seg.Tool))
	}
	if seg.Args != nil {
		create = create.SetArgs(seg.Args)
	}
	if seg.Output != nil {
		create = create.SetOutput(seg.Output)
	}
	if seg.Text != "" {
		create = create.SetText(seg.Text)
	}
	if seg.RuntimeSeconds != nil {
		create = create.SetRuntimeSeconds(*seg.RuntimeSeconds)
	}
	if seg.Reason != "" {
		create = create.SetReason(seg.Reason)
	}

	s2, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("appending segment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing segment append: %w", err)
	}
	return s2, nil
}

// ListSegments returns a task's segment log in ordinal order (I4).
func (s *EntStore) ListSegments(ctx context.Context, taskID string) ([]*ent.Segment, error) {
	return s.client.Segment.Query().
		Where(segment.TaskIDEQ(taskID)).
		Order(ent.Asc(segment.FieldOrdinal)).
		All(ctx)
}

// NextOrdinal reports the ordinal that would be assigned to the next
// segment appended to taskID.
func (s *EntStore) NextOrdinal(ctx context.Context, taskID string) (int, error) {
	count, err := s.client.Segment.Query().Where(segment.TaskIDEQ(taskID)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting segments: %w", err)
	}
	return count, nil
}

// AppendMessage records one turn of AgentMessage-backed chat history.
func (s *EntStore) AppendMessage(ctx context.Context, agentName string, role models.MessageRole, content string) (*ent.AgentMessage, error) {
	m, err := s.client.AgentMessage.Create().
		SetID(uuid.NewString()).
		SetAgentName(agentName).
		SetRole(agentmessage.Role(role)).
		SetContent(content).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}
	return m, nil
}

// ListMessages returns an agent's chat history in chronological order.
func (s *EntStore) ListMessages(ctx context.Context, agentName string) ([]*ent.AgentMessage, error) {
	return s.client.AgentMessage.Query().
		Where(agentmessage.AgentNameEQ(agentName)).
		Order(ent.Asc(agentmessage.FieldCreatedAt)).
		All(ctx)
}

// CreateSnapshot records a point-in-time capture of the agent volume.
func (s *EntStore) CreateSnapshot(ctx context.Context, agentName string, trigger models.SnapshotTrigger, digest string) (*ent.Snapshot, error) {
	create := s.client.Snapshot.Create().
		SetID(uuid.NewString()).
		SetAgentName(agentName).
		SetTriggerType(snapshot.TriggerType(trigger))
	if digest != "" {
		create = create.SetDigest(digest)
	}
	snap, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}
	return snap, nil
}

// ListSnapshots returns an agent's snapshots, most recent first.
func (s *EntStore) ListSnapshots(ctx context.Context, agentName string) ([]*ent.Snapshot, error) {
	return s.client.Snapshot.Query().
		Where(snapshot.AgentNameEQ(agentName)).
		Order(ent.Desc(snapshot.FieldCreatedAt)).
		All(ctx)
}

// CreateOperator registers a new operator account.
func (s *EntStore) CreateOperator(ctx context.Context, id, username string) (*ent.Operator, error) {
	op, err := s.client.Operator.Create().SetID(id).SetUsername(username).Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, fmt.Errorf("%w: username %q already taken", ErrConflict, username)
		}
		return nil, fmt.Errorf("creating operator: %w", err)
	}
	return op, nil
}

// IssueToken records a bearer credential; the raw token is hashed by the
// caller before being passed here (the Store never sees it in the clear).
func (s *EntStore) IssueToken(ctx context.Context, operatorID, tokenID, hash string, expiresAt *time.Time) (*ent.Token, error) {
	create := s.client.Token.Create().
		SetID(tokenID).
		SetOperatorID(operatorID).
		SetHash(hash)
	if expiresAt != nil {
		create = create.SetExpiresAt(*expiresAt)
	}
	tok, err := create.Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	return tok, nil
}

// ResolveToken looks up the Operator owning a non-revoked, non-expired
// token hash (the authenticate(token) operation's sole Store dependency).
func (s *EntStore) ResolveToken(ctx context.Context, hash string) (*ent.Operator, error) {
	tok, err := s.client.Token.Query().
		Where(token.HashEQ(hash), token.RevokedAtIsNil()).
		Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, fmt.Errorf("%w: token", ErrNotFound)
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	if tok.ExpiresAt != nil && time.Now().UTC().After(*tok.ExpiresAt) {
		return nil, fmt.Errorf("%w: token expired", ErrNotFound)
	}
	return s.client.Operator.Get(ctx, tok.OperatorID)
}

// RevokeToken marks a token revoked; the row is kept for audit, but
// ResolveToken no longer accepts it.
func (s *EntStore) RevokeToken(ctx context.Context, tokenID string) error {
	return s.client.Token.UpdateOneID(tokenID).SetRevokedAt(time.Now().UTC()).Exec(ctx)
}

// hasAllTags reports whether tags contains every entry in want.
func hasAllTags(tags, want []string) bool {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
