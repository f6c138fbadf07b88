package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Token holds the schema definition for the Token entity: a bearer
// credential issued to an Operator. The HTTP auth transport itself is out
// of scope (spec.md §1); the Store only needs to resolve a token hash to
// its owning Operator and revocation state.
type Token struct {
	ent.Schema
}

// Fields of the Token.
func (Token) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("token_id").
			Unique().
			Immutable(),
		field.String("operator_id").
			Immutable(),
		field.String("hash").
			Unique().
			Immutable().
			Comment("sha256 of the bearer token; the raw token is never stored"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("expires_at").
			Optional().
			Nillable(),
		field.Time("revoked_at").
			Optional().
			Nillable(),
	}
}

// Edges of the Token.
func (Token) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("operator", Operator.Type).
			Ref("tokens").
			Field("operator_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Token.
func (Token) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("hash").Unique(),
	}
}
