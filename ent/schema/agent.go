package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Agent holds the schema definition for the Agent entity — the declared
// record the Reconciler converges against observed container state.
type Agent struct {
	ent.Schema
}

// Fields of the Agent.
func (Agent) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").
			StorageKey("agent_name").
			Unique().
			Immutable().
			Comment("Primary identifier; derives container/volume names (raworc_agent_<name>)"),
		field.String("description").
			Optional(),
		field.Enum("state").
			Values("init", "idle", "busy", "slept", "terminated").
			Default("init"),
		field.String("created_by").
			Comment("Operator id that created this agent"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Int("idle_timeout_s").
			Default(1800),
		field.Int("busy_timeout_s").
			Default(3600),
		field.Time("idle_from").
			Optional().
			Nillable(),
		field.Time("busy_from").
			Optional().
			Nillable(),
		field.Strings("tags").
			Optional().
			Comment("Lowercased alphanumeric tokens"),
		field.JSON("metadata", map[string]interface{}{}).
			Optional().
			Comment("Opaque to the core; must be valid JSON"),
		field.Bool("is_published").
			Default(false),
		field.JSON("publish_permissions", PublishPermissions{}).
			Optional(),
		field.Time("published_at").
			Optional().
			Nillable(),
		field.String("parent_agent_name").
			Optional().
			Nillable().
			Comment("Set by remix(src->dst)"),
		field.Int("content_port").
			Optional().
			Nillable(),
		field.String("last_observed_state").
			Optional().
			Nillable().
			Comment("Last container liveness the Reconciler observed; never authoritative"),
		field.String("last_error").
			Optional().
			Nillable().
			Comment("Permanent engine/provider error recorded by the Reconciler; blocks further transitions until state changes"),
		field.Time("sleep_deadline").
			Optional().
			Nillable().
			Comment("Delayed sleep(delay_s) deadline"),
		field.Int("context_used_estimated").
			Default(0).
			Comment("Last token estimate the runtime persisted after finishing a task; API Core checks this against context_soft_limit_tokens before accepting a new one"),
		field.Int("context_soft_limit_tokens").
			Default(128000),
		field.Bool("publish_requested").
			Default(false).
			Comment("Declared by publish(); the Reconciler performs copy_out/content.Put/CreateSnapshot on its own tick and clears this (API Core never blocks on the container engine, spec.md §4.1)"),
		field.JSON("requested_publish_permissions", PublishPermissions{}).
			Optional().
			Comment("Staged by publish(), consumed once publish_requested is fulfilled"),
		field.Bool("unpublish_requested").
			Default(false).
			Comment("Declared by unpublish(); the Reconciler deletes the content key and clears is_published on its own tick"),
		field.JSON("remix_permissions", PublishPermissions{}).
			Optional().
			Comment("Subtrees to copy from parent_agent_name into this (freshly created) agent's volume; consumed once by bringUp"),
		field.String("pending_snapshot_trigger").
			Optional().
			Nillable().
			Comment("Declared by snapshot(); the Reconciler takes the copy_out+sha256 and CreateSnapshot on its own tick, then clears this"),
	}
}

// PublishPermissions controls what a publish/remix operation copies.
type PublishPermissions struct {
	Code    bool `json:"code"`
	Secrets bool `json:"secrets"`
	Content bool `json:"content"`
}

// Edges of the Agent.
func (Agent) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("secrets", Secret.Type),
		edge.To("tasks", Task.Type),
		edge.To("messages", AgentMessage.Type),
		edge.To("snapshots", Snapshot.Type),
	}
}

// Indexes of the Agent.
func (Agent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("state"),
		index.Fields("is_published"),
		index.Fields("tags"),
	}
}
