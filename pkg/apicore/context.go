package apicore

import (
	"context"

	"github.com/raworc/raworc/pkg/models"
)

// Context reports context-window usage (spec.md §4.7). When the agent's
// runtime is live, the figure comes straight from its in-memory estimator;
// otherwise the Store's last-persisted snapshot (written after the
// runtime's most recent task) is used.
func (c *Core) Context(ctx context.Context, name string) (models.ContextView, error) {
	if c.runtimes != nil {
		if v, err := c.runtimes.ContextUsage(ctx, name); err == nil {
			return v, nil
		}
	}
	a, err := c.store.GetAgent(ctx, name)
	if err != nil {
		return models.ContextView{}, translateStoreErr(err, "getting agent %q", name)
	}
	var pct float64
	if a.ContextSoftLimitTokens > 0 {
		pct = 100 * float64(a.ContextUsedEstimated) / float64(a.ContextSoftLimitTokens)
	}
	return models.ContextView{SoftLimit: a.ContextSoftLimitTokens, UsedEstimated: a.ContextUsedEstimated, UsedPercent: pct}, nil
}

// ContextClear drops the agent's prior conversation history, keeping only
// the system prompt (spec.md §4.5.3). Requires a live runtime collaborator.
func (c *Core) ContextClear(ctx context.Context, name string) error {
	if c.runtimes == nil {
		return internalErr("no runtime control client configured", nil)
	}
	if err := c.runtimes.ClearContext(ctx, name); err != nil {
		return internalErr("clearing context for agent "+name, err)
	}
	return nil
}

// ContextCompact replaces the agent's conversation with a synthesised
// summary (spec.md §4.5.3, L2). Requires a live runtime collaborator.
func (c *Core) ContextCompact(ctx context.Context, name string) error {
	if c.runtimes == nil {
		return internalErr("no runtime control client configured", nil)
	}
	if err := c.runtimes.CompactContext(ctx, name); err != nil {
		return internalErr("compacting context for agent "+name, err)
	}
	return nil
}
