package reconciler

import (
	"context"
	"strings"
)

// reapOrphans stops and removes any agent-owned container that has no
// live, non-terminated Store row behind it (spec.md §4.6 Orphan reaping).
func (rc *Reconciler) reapOrphans(ctx context.Context) {
	owned, err := rc.engine.ListOwnedContainers(ctx)
	if err != nil {
		rc.log.Error("list owned containers for orphan sweep", "error", err)
		return
	}
	if len(owned) == 0 {
		return
	}

	live, err := rc.store.ListLiveAgentNames(ctx)
	if err != nil {
		rc.log.Error("list live agent names for orphan sweep", "error", err)
		return
	}
	liveSet := make(map[string]struct{}, len(live))
	for _, name := range live {
		liveSet[name] = struct{}{}
	}

	for _, container := range owned {
		agentName := agentNameFromContainer(container)
		if _, ok := liveSet[agentName]; ok {
			continue
		}
		rc.log.Warn("reaping orphaned container", "container", container, "agent", agentName)
		if err := rc.limiter.Wait(ctx); err != nil {
			return
		}
		_ = rc.engine.Stop(ctx, container, int(rc.cfg.StopGracePeriod.Seconds()))
		_ = rc.engine.Remove(ctx, container, true)
	}
}

const containerNamePrefix = "raworc_agent_"

func agentNameFromContainer(container string) string {
	return strings.TrimPrefix(container, containerNamePrefix)
}
