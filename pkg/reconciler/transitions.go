package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/pkg/engine"
	"github.com/raworc/raworc/pkg/models"
)

// bringUp implements the `init`/missing row: ensure the volume, seed
// secrets onto it, ensure and start the container. It does not flip the
// agent to idle — the runtime does that itself via claim_idle_agent once
// booted.
func (rc *Reconciler) bringUp(ctx context.Context, a *ent.Agent) error {
	volume := models.VolumeName(a.Name)
	container := models.ContainerName(a.Name)

	if err := rc.engine.EnsureVolume(ctx, volume); err != nil {
		return fmt.Errorf("ensure_volume %q: %w", volume, err)
	}

	if err := rc.engine.EnsureContainer(ctx, engine.ContainerSpec{
		Name:          container,
		Image:         rc.agentDefaults.AgentImage,
		VolumeName:    volume,
		VolumeMount:   rc.agentDefaults.WorkspaceRoot,
		Labels:        map[string]string{models.AgentOwnedLabel: a.Name},
		Env:           map[string]string{"RAWORC_AGENT_NAME": a.Name},
		CPULimit:      1.0,
		MemoryLimitMB: 1024,
	}); err != nil {
		return fmt.Errorf("ensure_container %q: %w", container, err)
	}

	if a.ParentAgentName != nil {
		if err := rc.remixFromParent(ctx, a, container); err != nil {
			return fmt.Errorf("remix from %q: %w", *a.ParentAgentName, err)
		}
	}

	if err := rc.seedSecrets(ctx, a.Name, container); err != nil {
		return fmt.Errorf("seed secrets: %w", err)
	}

	if err := rc.engine.Start(ctx, container); err != nil {
		return fmt.Errorf("start %q: %w", container, err)
	}
	return nil
}

// seedSecrets writes the agent's secrets as files under the container's
// secrets directory, before the runtime process starts (spec.md §5:
// "Secrets are written to the volume only by the Reconciler during
// container creation; never from the API while the container is
// running.").
func (rc *Reconciler) seedSecrets(ctx context.Context, agentName, container string) error {
	secrets, err := rc.store.ListSecrets(ctx, agentName)
	if err != nil {
		return err
	}
	if len(secrets) == 0 {
		return nil
	}

	values := make(map[string]string, len(secrets))
	for _, s := range secrets {
		values[s.Key] = s.Value
	}

	tarball, err := secretsTar(values)
	if err != nil {
		return err
	}
	dest := fmt.Sprintf("%s/%s", rc.agentDefaults.WorkspaceRoot, models.WorkspaceSecretsDir)
	return rc.engine.CopyInto(ctx, container, dest, tarball)
}

// enforceTimeouts implements the `init|idle|busy`/running row: schedule
// sleep once an idle or busy agent has exceeded its configured timeout.
func (rc *Reconciler) enforceTimeouts(ctx context.Context, a *ent.Agent, status engine.Status) error {
	if !status.Exists || !status.Running {
		return nil
	}

	now := time.Now().UTC()
	switch string(a.State) {
	case "idle":
		if a.IdleFrom != nil && now.Sub(*a.IdleFrom) >= time.Duration(a.IdleTimeoutS)*time.Second {
			return rc.scheduleSleep(ctx, a, 0)
		}
	case "busy":
		if a.BusyFrom != nil && now.Sub(*a.BusyFrom) >= time.Duration(a.BusyTimeoutS)*time.Second {
			if err := rc.cancelInFlightTask(ctx, a.Name); err != nil {
				return err
			}
			return rc.scheduleSleep(ctx, a, 0)
		}
	}

	if a.SleepDeadline != nil && !a.SleepDeadline.After(now) {
		return rc.completeSleep(ctx, a)
	}
	return nil
}

// cancelInFlightTask finds the agent's processing task, if any, and
// requests its cancellation ahead of a busy-timeout or delayed sleep.
func (rc *Reconciler) cancelInFlightTask(ctx context.Context, agentName string) error {
	tasks, err := rc.store.ListTasks(ctx, agentName)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if string(t.Status) == "processing" {
			return rc.store.RequestCancel(ctx, t.ID)
		}
	}
	return nil
}

func (rc *Reconciler) scheduleSleep(ctx context.Context, a *ent.Agent, delay time.Duration) error {
	deadline := time.Now().UTC().Add(delay)
	return rc.store.SetSleepDeadline(ctx, a.Name, deadline)
}

func (rc *Reconciler) completeSleep(ctx context.Context, a *ent.Agent) error {
	if string(a.State) == "busy" {
		if err := rc.cancelInFlightTask(ctx, a.Name); err != nil {
			return err
		}
	}
	if _, err := rc.store.MarkSlept(ctx, a.Name); err != nil {
		return err
	}
	return rc.converge(ctx, a, engine.Status{Exists: true, Running: true})
}

// converge implements the `slept` rows: stop (with grace), force-remove if
// still running, no-op once stopped or gone.
func (rc *Reconciler) converge(ctx context.Context, a *ent.Agent, status engine.Status) error {
	container := models.ContainerName(a.Name)
	if !status.Exists {
		return nil
	}
	if !status.Running {
		return nil
	}

	if err := rc.engine.Stop(ctx, container, int(rc.cfg.StopGracePeriod.Seconds())); err != nil {
		return err
	}

	recheck, err := rc.engine.Inspect(ctx, container)
	if err != nil {
		return err
	}
	if recheck.Running {
		return rc.engine.Remove(ctx, container, true)
	}
	return nil
}

// teardown implements the any→terminated row: cancel tasks, stop+remove
// the container, remove the volume. It is idempotent.
func (rc *Reconciler) teardown(ctx context.Context, a *ent.Agent, status engine.Status) error {
	container := models.ContainerName(a.Name)
	volume := models.VolumeName(a.Name)

	if err := rc.cancelAllTasks(ctx, a.Name); err != nil {
		return err
	}

	if status.Exists {
		if status.Running {
			if err := rc.engine.Stop(ctx, container, int(rc.cfg.StopGracePeriod.Seconds())); err != nil {
				return err
			}
		}
		if err := rc.engine.Remove(ctx, container, true); err != nil && !isNotFoundish(err) {
			return err
		}
	}

	if err := rc.engine.RemoveVolume(ctx, volume); err != nil && !isNotFoundish(err) {
		return err
	}
	return nil
}

// cancelAllTasks requests cancellation of every non-terminal task for an
// agent, used when tearing down to `terminated`.
func (rc *Reconciler) cancelAllTasks(ctx context.Context, agentName string) error {
	tasks, err := rc.store.ListTasks(ctx, agentName)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		switch string(t.Status) {
		case "pending", "processing":
			if err := rc.store.RequestCancel(ctx, t.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNotFoundish(err error) bool {
	return err != nil && errors.Is(err, engine.ErrPermanent)
}
