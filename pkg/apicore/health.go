package apicore

import (
	"context"
	"time"

	"github.com/raworc/raworc/pkg/store"
)

// HealthView aggregates the control plane's overall health (SPEC_FULL.md
// §4, grounded on tarsy's pkg/queue/types.go PoolHealth and
// pkg/services/system_warnings.go).
type HealthView struct {
	StoreReachable  bool              `json:"store_reachable"`
	ReconcilerAgeMS int64             `json:"reconciler_age_ms"`
	AgentErrors     map[string]string `json:"agent_errors,omitempty"`
}

// maxReconcilerAge is the staleness threshold past which the reconciler is
// considered unhealthy, sized generously against the default tick interval.
const maxReconcilerAge = 30 * time.Second

// SystemHealth reports Store reachability, Reconciler tick staleness, and
// any agents carrying a recorded permanent error.
func (c *Core) SystemHealth(ctx context.Context) HealthView {
	v := HealthView{AgentErrors: make(map[string]string)}

	agents, _, err := c.store.ListAgents(ctx, store.AgentFilters{Limit: 1000})
	v.StoreReachable = err == nil
	if err == nil {
		for _, a := range agents {
			if a.LastError != nil && *a.LastError != "" {
				v.AgentErrors[a.Name] = *a.LastError
			}
		}
	}

	if c.reconciler != nil {
		v.ReconcilerAgeMS = time.Since(c.reconciler.LastTick()).Milliseconds()
	}
	return v
}

// Healthy reports whether the aggregate view represents a healthy control
// plane (no agent errors, reconciler within its staleness budget).
func (v HealthView) Healthy() bool {
	return v.StoreReachable && v.ReconcilerAgeMS < maxReconcilerAge.Milliseconds() && len(v.AgentErrors) == 0
}
