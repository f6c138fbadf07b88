package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Task holds the schema definition for the Task entity: one user input and
// the agent's bounded response produced by one inference loop.
type Task struct {
	ent.Schema
}

// Fields of the Task.
func (Task) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("task_id").
			Unique().
			Immutable().
			Comment("UUID"),
		field.String("agent_name").
			Immutable(),
		field.Enum("status").
			Values("pending", "processing", "completed", "failed", "cancelled").
			Default("pending"),
		field.JSON("input_content", []ContentItem{}).
			Comment("[]{type, content}"),
		field.JSON("output_content", []ContentItem{}).
			Optional().
			Comment("Materialised projection of final segments (I5)"),
		field.String("failure_reason").
			Optional().
			Nillable().
			Comment("e.g. iteration_cap, provider_error, cancelled_by_user"),
		field.Bool("cancel_requested").
			Default(false).
			Comment("Set by cancel_task; polled or pushed to the runtime"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// ContentItem is a single task input/output content element (§6.2).
type ContentItem struct {
	Type    string `json:"type"`
	Title   string `json:"title,omitempty"`
	Content any    `json:"content"`
}

// Edges of the Task.
func (Task) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("agent", Agent.Type).
			Ref("tasks").
			Field("agent_name").
			Unique().
			Required().
			Immutable(),
		edge.To("segments", Segment.Type),
	}
}

// Indexes of the Task.
func (Task) Indexes() []ent.Index {
	return []ent.Index{
		// I3: at most one pending|processing task per agent. Enforced at the
		// query layer via a partial unique index created in a raw migration
		// (ent does not express partial indexes); see pkg/database migrations.
		index.Fields("agent_name", "status"),
		index.Fields("created_at"),
	}
}
