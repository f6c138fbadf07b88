package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Secret holds the schema definition for the Secret entity: a confidential
// (agent, key) -> value pair, written to the agent's volume only by the
// Reconciler at container creation time.
type Secret struct {
	ent.Schema
}

// Fields of the Secret.
func (Secret) Fields() []ent.Field {
	return []ent.Field{
		field.String("agent_name").
			Immutable(),
		field.String("key").
			Immutable(),
		field.String("value").
			Sensitive().
			Comment("Opaque; never logged or returned by the API"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Secret.
func (Secret) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("agent", Agent.Type).
			Ref("secrets").
			Field("agent_name").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Secret.
func (Secret) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("agent_name", "key").Unique(),
	}
}
