// Package store is the transactional relational Store (spec.md §2 item 1,
// §4.1): the source of truth for declared agent state, secrets, tasks,
// segments, chat history, snapshots, operators and tokens. It is the only
// component allowed to mutate Agent.state; all multi-field transitions are
// conditional on expected-current-state (spec.md §5 "conditional writes").
package store

import (
	"context"
	"time"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/pkg/models"
)

// AgentFilters narrows list_agents (spec.md §4.7).
type AgentFilters struct {
	Query  string
	State  models.AgentState
	Tags   []string
	Limit  int
	Offset int
}

// AgentPatch is the set of update_agent-mutable fields (spec.md §4.7).
type AgentPatch struct {
	Description        *string
	IdleTimeoutSeconds  *int
	BusyTimeoutSeconds  *int
	Tags                []string
	Metadata            map[string]any
}

// CreateAgentSpec is the input to create_agent.
type CreateAgentSpec struct {
	Name               string
	Description        string
	CreatedBy          string
	IdleTimeoutSeconds int
	BusyTimeoutSeconds int
	Tags               []string
	Metadata           map[string]any
}

// Store is the transactional interface the API Core, Reconciler, and Agent
// Task Runtime share. The concrete implementation is ent/pgx-backed
// (EntStore); tests may substitute a fake satisfying this interface.
type Store interface {
	// Agent lifecycle (§4.1, §4.7).
	CreateAgent(ctx context.Context, spec CreateAgentSpec) (*ent.Agent, error)
	GetAgent(ctx context.Context, name string) (*ent.Agent, error)
	ListAgents(ctx context.Context, filters AgentFilters) ([]*ent.Agent, int, error)
	UpdateAgent(ctx context.Context, name string, patch AgentPatch) (*ent.Agent, error)
	MarkTerminated(ctx context.Context, name string) (*ent.Agent, error)

	// ClaimIdleAgent transitions init|busy -> idle, sets idle_from=now,
	// busy_from=null. Fails with ErrConflict if the current state is
	// terminal or already idle/slept.
	ClaimIdleAgent(ctx context.Context, name string) (*ent.Agent, error)
	// ClaimBusyAgent transitions idle -> busy, sets busy_from=now,
	// idle_from=null. Fails with ErrConflict otherwise.
	ClaimBusyAgent(ctx context.Context, name string) (*ent.Agent, error)
	// MarkSlept transitions idle|busy|init -> slept.
	MarkSlept(ctx context.Context, name string) (*ent.Agent, error)
	// MarkInit transitions slept -> init (wake).
	MarkInit(ctx context.Context, name string) (*ent.Agent, error)

	SetSleepDeadline(ctx context.Context, name string, deadline time.Time) error
	ClearSleepDeadline(ctx context.Context, name string) error
	SetLastObservedState(ctx context.Context, name string, observed string) error
	SetLastError(ctx context.Context, name string, msg string) error
	ClearLastError(ctx context.Context, name string) error
	// SetContextUsage persists the runtime's last context-window estimate,
	// read back by API Core's create_task budget check (spec.md §4.7).
	SetContextUsage(ctx context.Context, name string, usedEstimated, softLimit int) error

	SetPublished(ctx context.Context, name string, published bool, perms *models.PublishPermissions) (*ent.Agent, error)
	SetParent(ctx context.Context, name, parentName string) error
	SetContentPort(ctx context.Context, name string, port int) error

	// RequestPublish/RequestUnpublish/SetRemixPermissions/RequestSnapshot
	// stage a declarative intent for the Reconciler's tick to fulfill; the
	// Clear* counterparts are called by the Reconciler once fulfilled
	// (spec.md §4.1: API Core and these Store writes never block on the
	// container engine).
	RequestPublish(ctx context.Context, name string, perms models.PublishPermissions) error
	ClearPublishRequest(ctx context.Context, name string) error
	RequestUnpublish(ctx context.Context, name string) error
	ClearUnpublishRequest(ctx context.Context, name string) error
	SetRemixPermissions(ctx context.Context, name string, perms models.PublishPermissions) error
	ClearRemixPermissions(ctx context.Context, name string) error
	RequestSnapshot(ctx context.Context, name string, trigger models.SnapshotTrigger) error
	ClearSnapshotRequest(ctx context.Context, name string) error

	// ListAgentsNeedingReconcile implements the cheap query of spec.md §4.1.
	ListAgentsNeedingReconcile(ctx context.Context, now time.Time) ([]*ent.Agent, error)
	// ListLiveAgentNames returns the names of all non-terminal agents, used
	// by the Reconciler's orphan-reaping sweep.
	ListLiveAgentNames(ctx context.Context) ([]string, error)

	// Secrets.
	PutSecret(ctx context.Context, agentName, key, value string) error
	ListSecrets(ctx context.Context, agentName string) ([]*ent.Secret, error)

	// Tasks.
	CreateTask(ctx context.Context, agentName string, input []models.ContentItem) (*ent.Task, error)
	GetTask(ctx context.Context, taskID string) (*ent.Task, error)
	ListTasks(ctx context.Context, agentName string) ([]*ent.Task, error)
	// AcquireTaskSlot claims the oldest pending task for agentName and marks
	// it processing, enforcing I3 via FOR UPDATE SKIP LOCKED. Returns
	// ErrNoTaskAvailable if none is pending.
	AcquireTaskSlot(ctx context.Context, agentName string) (*ent.Task, error)
	RequestCancel(ctx context.Context, taskID string) error
	FinishTask(ctx context.Context, taskID string, status models.TaskStatus, failureReason string, output []models.ContentItem) (*ent.Task, error)
	HasInFlightTask(ctx context.Context, agentName string) (bool, error)

	// Segments (append-only, I4).
	AppendSegment(ctx context.Context, taskID string, seg NewSegment) (*ent.Segment, error)
	ListSegments(ctx context.Context, taskID string) ([]*ent.Segment, error)
	NextOrdinal(ctx context.Context, taskID string) (int, error)

	// Chat history.
	AppendMessage(ctx context.Context, agentName string, role models.MessageRole, content string) (*ent.AgentMessage, error)
	ListMessages(ctx context.Context, agentName string) ([]*ent.AgentMessage, error)

	// Snapshots.
	CreateSnapshot(ctx context.Context, agentName string, trigger models.SnapshotTrigger, digest string) (*ent.Snapshot, error)
	ListSnapshots(ctx context.Context, agentName string) ([]*ent.Snapshot, error)

	// Operators and tokens.
	CreateOperator(ctx context.Context, id, username string) (*ent.Operator, error)
	IssueToken(ctx context.Context, operatorID, tokenID, hash string, expiresAt *time.Time) (*ent.Token, error)
	ResolveToken(ctx context.Context, hash string) (*ent.Operator, error)
	RevokeToken(ctx context.Context, tokenID string) error
}

// NewSegment is the Store-facing shape of a segment to append; ordinal is
// assigned by the Store, never by the caller.
type NewSegment struct {
	Type           models.SegmentType
	ClientSeq      *int64
	Channel        models.Channel
	Tool           models.ToolName
	Args           map[string]any
	Output         map[string]any
	Text           string
	RuntimeSeconds *float64
	Reason         string
}
