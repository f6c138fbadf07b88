package apicore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
)

// CreateAgentSpec is the create_agent input (spec.md §4.7).
type CreateAgentSpec struct {
	Name               string
	Description        string
	CreatedBy          string
	IdleTimeoutSeconds int
	BusyTimeoutSeconds int
	Tags               []string
	Metadata           map[string]any
}

// CreateAgent writes the init row a newly declared agent starts in; the
// Reconciler picks it up on its next tick and brings up the container.
func (c *Core) CreateAgent(ctx context.Context, spec CreateAgentSpec) (models.AgentView, error) {
	if !models.ValidAgentName(spec.Name) {
		return models.AgentView{}, validationErr("agent name %q does not match the required pattern", spec.Name)
	}
	if spec.CreatedBy == "" {
		return models.AgentView{}, validationErr("created_by is required")
	}

	idle := spec.IdleTimeoutSeconds
	if idle <= 0 {
		idle = c.defaults.IdleTimeoutSeconds
	}
	busy := spec.BusyTimeoutSeconds
	if busy <= 0 {
		busy = c.defaults.BusyTimeoutSeconds
	}

	a, err := c.store.CreateAgent(ctx, store.CreateAgentSpec{
		Name: spec.Name, Description: spec.Description, CreatedBy: spec.CreatedBy,
		IdleTimeoutSeconds: idle, BusyTimeoutSeconds: busy,
		Tags: spec.Tags, Metadata: spec.Metadata,
	})
	if err != nil {
		return models.AgentView{}, translateStoreErr(err, "creating agent %q", spec.Name)
	}
	return toAgentView(a), nil
}

// AgentFilters narrows list_agents (spec.md §4.7).
type AgentFilters struct {
	Query  string
	State  models.AgentState
	Tags   []string
	Limit  int
	Offset int
}

// ListAgents returns a page of agents matching filters, plus the total
// count across all pages.
func (c *Core) ListAgents(ctx context.Context, filters AgentFilters) ([]models.AgentView, int, error) {
	agents, total, err := c.store.ListAgents(ctx, store.AgentFilters{
		Query: filters.Query, State: filters.State, Tags: filters.Tags,
		Limit: filters.Limit, Offset: filters.Offset,
	})
	if err != nil {
		return nil, 0, internalErr("listing agents", err)
	}
	views := make([]models.AgentView, len(agents))
	for i, a := range agents {
		views[i] = toAgentView(a)
	}
	return views, total, nil
}

// GetAgent returns one agent by name.
func (c *Core) GetAgent(ctx context.Context, name string) (models.AgentView, error) {
	a, err := c.store.GetAgent(ctx, name)
	if err != nil {
		return models.AgentView{}, translateStoreErr(err, "getting agent %q", name)
	}
	return toAgentView(a), nil
}

// AgentPatch is the update_agent-mutable field set (spec.md §4.7).
type AgentPatch struct {
	Description        *string
	IdleTimeoutSeconds  *int
	BusyTimeoutSeconds  *int
	Tags                []string
	Metadata            map[string]any
}

// UpdateAgent applies patch to the named agent's mutable fields.
func (c *Core) UpdateAgent(ctx context.Context, name string, patch AgentPatch) (models.AgentView, error) {
	if patch.IdleTimeoutSeconds != nil && *patch.IdleTimeoutSeconds <= 0 {
		return models.AgentView{}, validationErr("idle_timeout_s must be positive")
	}
	if patch.BusyTimeoutSeconds != nil && *patch.BusyTimeoutSeconds <= 0 {
		return models.AgentView{}, validationErr("busy_timeout_s must be positive")
	}
	a, err := c.store.UpdateAgent(ctx, name, store.AgentPatch{
		Description: patch.Description, IdleTimeoutSeconds: patch.IdleTimeoutSeconds,
		BusyTimeoutSeconds: patch.BusyTimeoutSeconds, Tags: patch.Tags, Metadata: patch.Metadata,
	})
	if err != nil {
		return models.AgentView{}, translateStoreErr(err, "updating agent %q", name)
	}
	return toAgentView(a), nil
}

// DeleteAgent marks the agent terminated; the Reconciler tears the
// container and volume down on its next tick (spec.md §4.7).
func (c *Core) DeleteAgent(ctx context.Context, name string) error {
	if _, err := c.store.MarkTerminated(ctx, name); err != nil {
		return translateStoreErr(err, "deleting agent %q", name)
	}
	return nil
}

// Sleep requests the Reconciler honour a delay_s-deferred sleep of the
// agent, cancelling an in-flight task when the delay has elapsed or the
// agent is currently busy (spec.md §4.6, open question resolved in
// DESIGN.md).
func (c *Core) Sleep(ctx context.Context, name string, delaySeconds int) error {
	if delaySeconds < 0 {
		return validationErr("delay_s must not be negative")
	}
	if err := c.reconciler.Sleep(ctx, name, time.Duration(delaySeconds)*time.Second); err != nil {
		return translateStoreErr(err, "sleeping agent %q", name)
	}
	return nil
}

// Wake clears a recorded sleep and returns the agent to init so the
// Reconciler restarts its container.
func (c *Core) Wake(ctx context.Context, name string) error {
	if err := c.reconciler.Wake(ctx, name); err != nil {
		return translateStoreErr(err, "waking agent %q", name)
	}
	return nil
}

// Remix creates dst as a permissioned clone of src (spec.md §4.6, P7).
func (c *Core) Remix(ctx context.Context, src, dst string, perms models.PublishPermissions, createdBy string) (models.AgentView, error) {
	if !models.ValidAgentName(dst) {
		return models.AgentView{}, validationErr("agent name %q does not match the required pattern", dst)
	}
	if err := c.reconciler.Remix(ctx, src, dst, perms, createdBy); err != nil {
		return models.AgentView{}, translateStoreErr(err, "remixing %q into %q", src, dst)
	}
	a, err := c.store.GetAgent(ctx, dst)
	if err != nil {
		return models.AgentView{}, translateStoreErr(err, "getting remixed agent %q", dst)
	}
	return toAgentView(a), nil
}

// Publish copies /agent/content/ into the content store (spec.md §4.6, P6).
func (c *Core) Publish(ctx context.Context, name string, perms models.PublishPermissions) error {
	if err := c.reconciler.Publish(ctx, name, perms); err != nil {
		return translateStoreErr(err, "publishing agent %q", name)
	}
	return nil
}

// Unpublish removes the agent's published content.
func (c *Core) Unpublish(ctx context.Context, name string) error {
	if err := c.reconciler.Unpublish(ctx, name); err != nil {
		return translateStoreErr(err, "unpublishing agent %q", name)
	}
	return nil
}

// Snapshot declares a content-addressed snapshot request for the agent's
// volume; the Reconciler's tick performs the copy_out, computes the
// sha256 digest, and records it (spec.md §4.1: API Core never blocks on
// the container engine).
func (c *Core) Snapshot(ctx context.Context, name string, trigger models.SnapshotTrigger) error {
	if err := c.store.RequestSnapshot(ctx, name, trigger); err != nil {
		return translateStoreErr(err, "snapshotting agent %q", name)
	}
	return nil
}

func toAgentView(a *ent.Agent) models.AgentView {
	v := models.AgentView{
		Name: a.Name, Description: a.Description, State: models.AgentState(a.State),
		CreatedBy: a.CreatedBy, CreatedAt: a.CreatedAt,
		IdleTimeoutSeconds: a.IdleTimeoutS, BusyTimeoutSeconds: a.BusyTimeoutS,
		Tags: a.Tags, Metadata: a.Metadata,
		IsPublished: a.IsPublished, PublishedAt: a.PublishedAt,
	}
	if a.ParentAgentName != nil {
		v.ParentAgentName = *a.ParentAgentName
	}
	if a.ContentPort != nil {
		v.ContentPort = a.ContentPort
	}
	if a.LastError != nil {
		v.LastError = *a.LastError
	}
	return v
}

// translateStoreErr classifies a Store sentinel error into the §7 taxonomy,
// leaving already-classified *Error values (from the reconciler, which
// wraps Store errors the same way) untouched.
func translateStoreErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFoundErr("%s: not found", msg)
	case errors.Is(err, store.ErrConflict):
		return conflictErr("%s: conflict", msg)
	case errors.Is(err, store.ErrTaskSlotOccupied):
		return conflictErr("%s: task slot occupied", msg)
	default:
		return internalErr(msg, err)
	}
}
