package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
)

// Sleep schedules a delayed sleep for an agent (API Core's sleep(name,
// delay_s)). Per spec.md §4.6 "Delayed sleep", a zero delay or a busy agent
// cancels the in-flight task immediately so the deadline is honored even
// while busy.
func (rc *Reconciler) Sleep(ctx context.Context, agentName string, delay time.Duration) error {
	a, err := rc.store.GetAgent(ctx, agentName)
	if err != nil {
		return err
	}
	if delay <= 0 || string(a.State) == "busy" {
		if err := rc.cancelInFlightTask(ctx, agentName); err != nil {
			return err
		}
	}
	return rc.store.SetSleepDeadline(ctx, agentName, time.Now().UTC().Add(delay))
}

// Wake clears the sleep deadline and moves a slept agent back to init; the
// next tick starts its stopped container, or brings up a new one via
// bringUp if the container is gone.
func (rc *Reconciler) Wake(ctx context.Context, agentName string) error {
	if err := rc.store.ClearSleepDeadline(ctx, agentName); err != nil {
		return err
	}
	_, err := rc.store.MarkInit(ctx, agentName)
	return err
}

// Remix declares dst as src's permissioned clone (API Core's remix(name,
// new_name, permissions)): it only creates dst's init row and stages the
// parent link and subtree permissions. All container-engine work — the
// volume/container creation and the subtree copy out of src — happens
// later, in bringUp, the first time the Reconciler's tick picks dst up
// (spec.md §4.1: these methods never block on the container engine).
func (rc *Reconciler) Remix(ctx context.Context, srcName, dstName string, perms models.PublishPermissions, createdBy string) error {
	if _, err := rc.store.CreateAgent(ctx, store.CreateAgentSpec{Name: dstName, CreatedBy: createdBy}); err != nil {
		return fmt.Errorf("creating remix target %q: %w", dstName, err)
	}
	if err := rc.store.SetParent(ctx, dstName, srcName); err != nil {
		return err
	}
	return rc.store.SetRemixPermissions(ctx, dstName, perms)
}

func remixSubtrees(perms models.PublishPermissions) []string {
	var dirs []string
	if perms.Code {
		dirs = append(dirs, models.WorkspaceCodeDir)
	}
	if perms.Secrets {
		dirs = append(dirs, models.WorkspaceSecretsDir)
	}
	if perms.Content {
		dirs = append(dirs, models.WorkspaceContentDir)
	}
	return dirs
}

// Publish declares a publish(agent) intent (spec.md §4.6, I6): staging it
// on the agent row for the Reconciler's tick to fulfill (copy_out,
// content.Put, CreateSnapshot). Re-publishing overwrites the prior bundle
// once fulfilled.
func (rc *Reconciler) Publish(ctx context.Context, agentName string, perms models.PublishPermissions) error {
	if rc.content == nil {
		return fmt.Errorf("reconciler: no content store configured")
	}
	return rc.store.RequestPublish(ctx, agentName, perms)
}

// Unpublish declares an unpublish(agent) intent; the Reconciler's tick
// deletes the content key and clears is_published.
func (rc *Reconciler) Unpublish(ctx context.Context, agentName string) error {
	return rc.store.RequestUnpublish(ctx, agentName)
}
