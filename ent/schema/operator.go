package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
)

// Operator holds the schema definition for the Operator entity: a human or
// service account that creates and manages agents. Named in spec.md §2 as
// one of the Store's owned entities but left undetailed there; supplemented
// here since agent.created_by and token ownership both need a concrete type.
type Operator struct {
	ent.Schema
}

// Fields of the Operator.
func (Operator) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("operator_id").
			Unique().
			Immutable(),
		field.String("username").
			Unique(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Operator.
func (Operator) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("tokens", Token.Type),
	}
}
