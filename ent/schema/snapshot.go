package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Snapshot holds the schema definition for the Snapshot entity: an
// immutable, point-in-time capture of an agent volume's state, taken
// explicitly (API snapshot()) or implicitly as part of remix().
type Snapshot struct {
	ent.Schema
}

// Fields of the Snapshot.
func (Snapshot) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("snapshot_id").
			Unique().
			Immutable(),
		field.String("agent_name").
			Immutable(),
		field.Enum("trigger_type").
			Values("manual", "remix", "publish").
			Immutable(),
		field.String("digest").
			Optional().
			Nillable().
			Immutable().
			Comment("sha256 of the tar stream copied out of the volume; lets P7 be verified by comparison"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Snapshot.
func (Snapshot) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("agent", Agent.Type).
			Ref("snapshots").
			Field("agent_name").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the Snapshot.
func (Snapshot) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("agent_name", "created_at"),
	}
}
