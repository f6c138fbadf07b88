// Package reconciler implements the Control-Plane Reconciler (spec.md
// §4.6): a single-writer loop converging declared Agent rows against
// observed container state.
package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/pkg/config"
	"github.com/raworc/raworc/pkg/contentstore"
	"github.com/raworc/raworc/pkg/engine"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
)

// Reconciler owns the tick loop that drives every agent's declared state
// toward its observed container state.
type Reconciler struct {
	store   store.Store
	engine  engine.Adapter
	content contentstore.Store
	cfg     config.ReconcilerConfig
	limiter *rate.Limiter
	log     *slog.Logger

	agentDefaults config.AgentDefaults

	mu       sync.Mutex
	backoffs map[string]*agentBackoff
	lastTick time.Time
}

// New builds a Reconciler. content may be nil if publish/unpublish are not
// exercised by the deployment.
func New(st store.Store, eng engine.Adapter, content contentstore.Store, cfg config.ReconcilerConfig, agentDefaults config.AgentDefaults, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{
		store:         st,
		engine:        eng,
		content:       content,
		cfg:           cfg,
		agentDefaults: agentDefaults,
		limiter:       rate.NewLimiter(rate.Limit(cfg.EngineCallsPerSecond), cfg.EngineCallsBurst),
		log:           log.With("component", "reconciler"),
		backoffs:      make(map[string]*agentBackoff),
	}
}

// Run ticks until ctx is cancelled, reconciling every agent needing
// attention on the main tick and reaping orphaned containers on a slower
// cadence.
func (rc *Reconciler) Run(ctx context.Context) error {
	tick := time.NewTicker(rc.cfg.TickInterval)
	defer tick.Stop()
	orphanScan := time.NewTicker(rc.cfg.OrphanScanInterval)
	defer orphanScan.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			rc.tick(ctx)
		case <-orphanScan.C:
			rc.reapOrphans(ctx)
		}
	}
}

// LastTick reports when the tick loop last ran, for system_health's
// staleness check (SPEC_FULL.md §4, grounded on tarsy's PoolHealth).
func (rc *Reconciler) LastTick() time.Time {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.lastTick
}

func (rc *Reconciler) tick(ctx context.Context) {
	rc.mu.Lock()
	rc.lastTick = time.Now().UTC()
	rc.mu.Unlock()

	agents, err := rc.store.ListAgentsNeedingReconcile(ctx, time.Now().UTC())
	if err != nil {
		rc.log.Error("list agents needing reconcile", "error", err)
		return
	}

	for _, a := range agents {
		if rc.inBackoff(a.Name) {
			continue
		}
		if err := rc.reconcileOne(ctx, a); err != nil {
			rc.handleError(ctx, a.Name, err)
			continue
		}
		rc.clearBackoff(a.Name)
		_ = rc.store.ClearLastError(ctx, a.Name)
	}
}

// reconcileOne resolves and applies one intent for a single agent, per the
// declared×observed table in spec.md §4.6.
func (rc *Reconciler) reconcileOne(ctx context.Context, a *ent.Agent) error {
	if err := rc.limiter.Wait(ctx); err != nil {
		return err
	}

	status, err := rc.engine.Inspect(ctx, models.ContainerName(a.Name))
	if err != nil {
		return err
	}
	if err := rc.store.SetLastObservedState(ctx, a.Name, observedLabel(status)); err != nil {
		return err
	}

	// Orthogonal to the state-keyed switch below: a declared publish,
	// unpublish, or snapshot intent can be pending regardless of which
	// lifecycle state the agent is in. Publish and snapshot need the
	// container running to copy_out of it; unpublish does not.
	if a.UnpublishRequested {
		if err := rc.fulfillUnpublish(ctx, a); err != nil {
			return err
		}
	}
	if status.Running {
		if a.PublishRequested {
			if err := rc.fulfillPublish(ctx, a); err != nil {
				return err
			}
		}
		if a.PendingSnapshotTrigger != nil {
			if err := rc.fulfillSnapshot(ctx, a); err != nil {
				return err
			}
		}
	}

	switch string(a.State) {
	case "init":
		if !status.Exists {
			return rc.bringUp(ctx, a)
		}
		if !status.Running {
			return rc.engine.Start(ctx, models.ContainerName(a.Name))
		}
		return nil // running, waiting for the runtime's claim_idle_agent
	case "idle", "busy":
		return rc.enforceTimeouts(ctx, a, status)
	case "slept":
		return rc.converge(ctx, a, status)
	case "terminated":
		return rc.teardown(ctx, a, status)
	}
	return nil
}

func observedLabel(s engine.Status) string {
	switch {
	case !s.Exists:
		return "missing"
	case s.Running:
		return "running"
	default:
		return "stopped"
	}
}
