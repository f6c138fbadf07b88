package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AgentMessage holds the schema definition for the AgentMessage entity:
// user<->agent chat history rendered into conversation context ahead of a
// task's own segments. Optional per deployment (spec.md §3); this repo
// implements it.
type AgentMessage struct {
	ent.Schema
}

// Fields of the AgentMessage.
func (AgentMessage) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("message_id").
			Unique().
			Immutable(),
		field.String("agent_name").
			Immutable(),
		field.Enum("role").
			Values("user", "assistant").
			Immutable(),
		field.Text("content").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the AgentMessage.
func (AgentMessage) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("agent", Agent.Type).
			Ref("messages").
			Field("agent_name").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the AgentMessage.
func (AgentMessage) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("agent_name", "created_at"),
	}
}
