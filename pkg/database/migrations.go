package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateSupplementaryIndexes creates indexes and constraints that Ent's
// schema DSL cannot express directly.
func CreateSupplementaryIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	// GIN index for tag-containment queries (agent.tags @> '{"x"}') used by
	// list_agents filtering (spec.md §6.2).
	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_agents_tags_gin
		ON agents USING gin(tags)`)
	if err != nil {
		return fmt.Errorf("failed to create tags GIN index: %w", err)
	}

	// Partial unique index enforcing I3: at most one in-flight task
	// (pending or processing) per agent. Ent's schema DSL has no predicate
	// support for unique indexes, so this is hand-authored SQL applied
	// after the generated migrations.
	_, err = db.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_one_inflight_per_agent
		ON tasks (agent_name)
		WHERE status IN ('pending', 'processing')`)
	if err != nil {
		return fmt.Errorf("failed to create in-flight task partial unique index: %w", err)
	}

	return nil
}
