package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Boot implements spec.md §4.5's boot sequence: run optional setup.sh
// once, then claim_idle_agent. Secrets are already on the volume by the
// time this runs — the Reconciler's bringUp seeds them into
// models.WorkspaceSecretsDir before starting the container (spec.md §5:
// "Secrets are written to the volume only by the Reconciler during
// container creation; never from the API while the container is
// running."), so the runtime has no secrets-seeding step of its own.
func (r *Runtime) Boot(ctx context.Context) error {
	if err := r.runSetupScript(ctx); err != nil {
		return fmt.Errorf("running setup.sh: %w", err)
	}
	if _, err := r.store.ClaimIdleAgent(ctx, r.AgentName); err != nil {
		return fmt.Errorf("claiming idle: %w", err)
	}
	return nil
}

// runSetupScript runs workspace/setup.sh once, if present, discarding its
// output but propagating a non-zero exit as a boot failure.
func (r *Runtime) runSetupScript(ctx context.Context) error {
	path := filepath.Join(r.WorkspaceRoot, "setup.sh")
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	setupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(setupCtx, "/bin/sh", path)
	cmd.Dir = r.WorkspaceRoot
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("setup.sh failed: %w: %s", err, out)
	}
	return nil
}
