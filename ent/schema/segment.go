package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Segment holds the schema definition for the Segment entity: an ordered,
// immutable unit in a task's log. Append-only; never mutated or deleted
// once written (I4).
type Segment struct {
	ent.Schema
}

// Fields of the Segment.
func (Segment) Fields() []ent.Field {
	return []ent.Field{
		field.String("task_id").
			Immutable(),
		field.Int("ordinal").
			Immutable().
			Comment("Monotonically assigned per task by the Store"),
		field.Int64("client_seq").
			Optional().
			Nillable().
			Immutable().
			Comment("Caller-supplied dedup key; (task_id, client_seq) is unique when present"),
		field.Enum("type").
			Values(
				"commentary",
				"tool_call",
				"tool_result",
				"final",
				"compact_summary",
				"context_cleared",
				"context_compacted",
				"cancelled",
				"terminated",
				"restarted",
			).
			Immutable(),
		field.String("channel").
			Optional().
			Nillable().
			Immutable().
			Comment("analysis|commentary|final, for commentary/final segments"),
		field.String("tool").
			Optional().
			Nillable().
			Immutable(),
		field.JSON("args", map[string]interface{}{}).
			Optional().
			Immutable(),
		field.JSON("output", map[string]interface{}{}).
			Optional().
			Immutable().
			Comment("string or structured json, per tool_result.output"),
		field.Text("text").
			Optional().
			Immutable(),
		field.Float("runtime_seconds").
			Optional().
			Nillable().
			Immutable(),
		field.String("reason").
			Optional().
			Nillable().
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Segment.
func (Segment) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("task", Task.Type).
			Ref("segments").
			Field("task_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Segment.
func (Segment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("task_id", "ordinal").Unique(),
		index.Fields("task_id", "client_seq").Unique(),
	}
}
