package reconciler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/pkg/models"
)

// fulfillPublish performs the container-engine half of a staged publish()
// request: copy_out the content subtree, store it, record a digested
// snapshot, and mark the agent published. Requires the container running.
func (rc *Reconciler) fulfillPublish(ctx context.Context, a *ent.Agent) error {
	if rc.content == nil {
		return fmt.Errorf("reconciler: no content store configured")
	}

	container := models.ContainerName(a.Name)
	path := fmt.Sprintf("%s/%s", rc.agentDefaults.WorkspaceRoot, models.WorkspaceContentDir)
	tarball, err := rc.engine.CopyOut(ctx, container, path)
	if err != nil {
		return fmt.Errorf("copy_out %q: %w", path, err)
	}
	defer tarball.Close()

	hasher := sha256.New()
	if err := rc.content.Put(ctx, a.Name, io.TeeReader(tarball, hasher)); err != nil {
		return err
	}
	digest := hex.EncodeToString(hasher.Sum(nil))

	perms := models.PublishPermissions{
		Code:    a.RequestedPublishPermissions.Code,
		Secrets: a.RequestedPublishPermissions.Secrets,
		Content: a.RequestedPublishPermissions.Content,
	}
	if _, err := rc.store.SetPublished(ctx, a.Name, true, &perms); err != nil {
		return err
	}
	if _, err := rc.store.CreateSnapshot(ctx, a.Name, models.SnapshotTriggerPublish, digest); err != nil {
		return err
	}
	return rc.store.ClearPublishRequest(ctx, a.Name)
}

// fulfillUnpublish performs the half of a staged unpublish() request that
// doesn't need the container running: delete the content key and clear
// is_published.
func (rc *Reconciler) fulfillUnpublish(ctx context.Context, a *ent.Agent) error {
	if rc.content != nil {
		if err := rc.content.Delete(ctx, a.Name); err != nil {
			return err
		}
	}
	if _, err := rc.store.SetPublished(ctx, a.Name, false, nil); err != nil {
		return err
	}
	return rc.store.ClearUnpublishRequest(ctx, a.Name)
}

// fulfillSnapshot performs the container-engine half of a staged
// snapshot() request: copy_out the whole workspace root, digest the tar
// stream, and record it. Requires the container running.
func (rc *Reconciler) fulfillSnapshot(ctx context.Context, a *ent.Agent) error {
	container := models.ContainerName(a.Name)
	tarball, err := rc.engine.CopyOut(ctx, container, rc.agentDefaults.WorkspaceRoot)
	if err != nil {
		return fmt.Errorf("copy_out %q: %w", rc.agentDefaults.WorkspaceRoot, err)
	}
	defer tarball.Close()

	hasher := sha256.New()
	if _, err := io.Copy(io.Discard, io.TeeReader(tarball, hasher)); err != nil {
		return fmt.Errorf("reading tar stream: %w", err)
	}
	digest := hex.EncodeToString(hasher.Sum(nil))

	trigger := models.SnapshotTrigger(*a.PendingSnapshotTrigger)
	if _, err := rc.store.CreateSnapshot(ctx, a.Name, trigger, digest); err != nil {
		return err
	}
	return rc.store.ClearSnapshotRequest(ctx, a.Name)
}

// remixFromParent performs the container-engine half of a staged Remix():
// copy the permissioned subtrees out of the parent agent's volume into
// this freshly created one, then record a digested snapshot of the parent
// and clear the staged permissions. Called once from bringUp, keyed off
// parent_agent_name being set.
func (rc *Reconciler) remixFromParent(ctx context.Context, a *ent.Agent, container string) error {
	srcName := *a.ParentAgentName
	srcContainer := models.ContainerName(srcName)
	perms := models.PublishPermissions{
		Code:    a.RemixPermissions.Code,
		Secrets: a.RemixPermissions.Secrets,
		Content: a.RemixPermissions.Content,
	}

	hasher := sha256.New()
	for _, dir := range remixSubtrees(perms) {
		path := fmt.Sprintf("%s/%s", rc.agentDefaults.WorkspaceRoot, dir)
		tarball, err := rc.engine.CopyOut(ctx, srcContainer, path)
		if err != nil {
			continue // nothing to copy for this subtree; not fatal to the remix
		}
		copyErr := rc.engine.CopyInto(ctx, container, path, io.TeeReader(tarball, hasher))
		tarball.Close()
		if copyErr != nil {
			return fmt.Errorf("copying %q into %q: %w", dir, a.Name, copyErr)
		}
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if _, err := rc.store.CreateSnapshot(ctx, srcName, models.SnapshotTriggerRemix, digest); err != nil {
		return err
	}
	return rc.store.ClearRemixPermissions(ctx, a.Name)
}
