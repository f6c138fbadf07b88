package apicore

import (
	"context"
	"errors"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/ent/schema"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
)

// CreateTask inserts a pending task for name after checking I3 (one
// in-flight task per agent, enforced by the Store's uniqueness constraint)
// and the context budget (spec.md §4.7, §8 scenario 3): a task is rejected
// with context_full if the agent's last-persisted context usage is already
// at or over its soft limit.
func (c *Core) CreateTask(ctx context.Context, name string, input []models.ContentItem) (models.TaskView, error) {
	if len(input) == 0 {
		return models.TaskView{}, validationErr("task input content must not be empty")
	}

	a, err := c.store.GetAgent(ctx, name)
	if err != nil {
		return models.TaskView{}, translateStoreErr(err, "getting agent %q", name)
	}
	if models.AgentState(a.State).IsTerminal() {
		return models.TaskView{}, conflictErr("agent %q is terminated", name)
	}
	if a.ContextSoftLimitTokens > 0 && a.ContextUsedEstimated >= a.ContextSoftLimitTokens {
		return models.TaskView{}, conflictErr("agent %q context is full (%d/%d tokens); compact or clear first", name, a.ContextUsedEstimated, a.ContextSoftLimitTokens)
	}

	t, err := c.store.CreateTask(ctx, name, input)
	if err != nil {
		if errors.Is(err, store.ErrTaskSlotOccupied) {
			return models.TaskView{}, conflictErr("agent %q already has a pending or processing task", name)
		}
		return models.TaskView{}, translateStoreErr(err, "creating task for agent %q", name)
	}
	return c.projectTask(ctx, t)
}

// ListTasks returns the agent's tasks, most recent first (Store's choice of
// ordering).
func (c *Core) ListTasks(ctx context.Context, name string) ([]models.TaskView, error) {
	tasks, err := c.store.ListTasks(ctx, name)
	if err != nil {
		return nil, translateStoreErr(err, "listing tasks for agent %q", name)
	}
	views := make([]models.TaskView, 0, len(tasks))
	for _, t := range tasks {
		v, err := c.projectTask(ctx, t)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// GetTask returns the materialised projection of one task, including its
// segment log (spec.md §6.2).
func (c *Core) GetTask(ctx context.Context, taskID string) (models.TaskView, error) {
	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return models.TaskView{}, translateStoreErr(err, "getting task %q", taskID)
	}
	return c.projectTask(ctx, t)
}

// CancelTask requests cancellation of an in-flight task (spec.md §4.5.4,
// §5). It is a no-op, not an error, if the task is already terminal (L3).
func (c *Core) CancelTask(ctx context.Context, taskID string) error {
	t, err := c.store.GetTask(ctx, taskID)
	if err != nil {
		return translateStoreErr(err, "getting task %q", taskID)
	}
	if models.TaskStatus(t.Status).IsTerminal() {
		return nil
	}
	if err := c.store.RequestCancel(ctx, taskID); err != nil {
		return translateStoreErr(err, "cancelling task %q", taskID)
	}
	return nil
}

func (c *Core) projectTask(ctx context.Context, t *ent.Task) (models.TaskView, error) {
	segments, err := c.store.ListSegments(ctx, t.ID)
	if err != nil {
		return models.TaskView{}, internalErr("loading segments for task", err)
	}
	views := make([]models.SegmentView, len(segments))
	for i, s := range segments {
		views[i] = toSegmentView(s)
	}
	return models.TaskView{
		ID: t.ID, AgentName: t.AgentName, Status: models.TaskStatus(t.Status),
		InputContent: toContentItems(t.InputContent), OutputContent: toContentItems(t.OutputContent),
		Segments: views, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}, nil
}

func toContentItems(items []schema.ContentItem) []models.ContentItem {
	out := make([]models.ContentItem, len(items))
	for i, it := range items {
		out[i] = models.ContentItem{Type: it.Type, Title: it.Title, Content: it.Content}
	}
	return out
}

// toSegmentView projects an ent.Segment into its wire shape (spec.md §6.2).
// tool_result's generic JSON Output field is unused by the runtime (which
// records the raw provider/tool output string in Text); for that segment
// type Text is surfaced under the wire "output" key instead of "text" to
// match the documented shape, leaving Output available for a future
// structured-JSON tool result.
func toSegmentView(s *ent.Segment) models.SegmentView {
	v := models.SegmentView{
		Ordinal: s.Ordinal, Type: models.SegmentType(s.Type), CreatedAt: s.CreatedAt,
		Args: s.Args, RuntimeSeconds: s.RuntimeSeconds,
	}
	if s.Channel != nil {
		v.Channel = models.Channel(*s.Channel)
	}
	if s.Tool != nil {
		v.Tool = models.ToolName(*s.Tool)
	}
	if s.Reason != nil {
		v.Reason = *s.Reason
	}
	switch models.SegmentType(s.Type) {
	case models.SegmentToolResult:
		if s.Output != nil {
			v.Output = s.Output
		} else {
			v.Output = s.Text
		}
	default:
		v.Text = s.Text
	}
	return v
}
