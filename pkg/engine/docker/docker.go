// Package docker implements the Container Engine Adapter (pkg/engine) on
// top of the Docker Engine API, the same client testcontainers-go wraps
// for the store package's integration tests, now driven directly.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"

	"github.com/raworc/raworc/pkg/engine"
	"github.com/raworc/raworc/pkg/models"
)

// Adapter wraps a Docker Engine API client.
type Adapter struct {
	cli *client.Client
}

// New dials the Docker daemon using the standard DOCKER_HOST/DOCKER_* env
// vars, negotiating the API version against the daemon.
func New() (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: dialing docker: %v", engine.ErrPermanent, err)
	}
	return &Adapter{cli: cli}, nil
}

var _ engine.Adapter = (*Adapter)(nil)

// classify maps a docker client error onto the Adapter's transient/
// permanent taxonomy (spec.md §4.2).
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errdefs.IsNotFound(err):
		return fmt.Errorf("%w: %s: %v", engine.ErrPermanent, op, err)
	case errdefs.IsConflict(err), errdefs.IsInvalidParameter(err), errdefs.IsForbidden(err):
		return fmt.Errorf("%w: %s: %v", engine.ErrPermanent, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", engine.ErrTransient, op, err)
	}
}

// EnsureVolume creates the named volume if absent; idempotent.
func (a *Adapter) EnsureVolume(ctx context.Context, name string) error {
	if _, err := a.cli.VolumeInspect(ctx, name); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return classify(err, "inspect volume")
	}
	if _, err := a.cli.VolumeCreate(ctx, volume.CreateOptions{Name: name}); err != nil {
		return classify(err, "create volume")
	}
	return nil
}

// RemoveVolume removes the named volume; not an error if already gone.
func (a *Adapter) RemoveVolume(ctx context.Context, name string) error {
	if err := a.cli.VolumeRemove(ctx, name, true); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return classify(err, "remove volume")
	}
	return nil
}

// EnsureContainer creates the named container if it does not already
// exist; idempotent on spec.Name (spec.md §4.2).
func (a *Adapter) EnsureContainer(ctx context.Context, spec engine.ContainerSpec) error {
	if _, err := a.cli.ContainerInspect(ctx, spec.Name); err == nil {
		return nil
	} else if !errdefs.IsNotFound(err) {
		return classify(err, "inspect container")
	}

	if _, _, err := a.cli.ImageInspectWithRaw(ctx, spec.Image); err != nil {
		rc, pullErr := a.cli.ImagePull(ctx, spec.Image, image.PullOptions{})
		if pullErr != nil {
			return classify(pullErr, "pull image")
		}
		_, _ = io.Copy(io.Discard, rc)
		_ = rc.Close()
	}

	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}

	exposed, bindings := containerPorts(spec.ExposedPorts)

	hostConfig := &container.HostConfig{
		PortBindings: bindings,
	}
	if spec.VolumeName != "" {
		hostConfig.Binds = []string{spec.VolumeName + ":" + spec.VolumeMount}
	}
	if spec.MemoryLimitMB > 0 {
		hostConfig.Resources.Memory = spec.MemoryLimitMB * 1024 * 1024
	}
	if spec.CPULimit > 0 {
		hostConfig.Resources.NanoCPUs = int64(spec.CPULimit * 1e9)
	}

	cfg := &container.Config{
		Image:        spec.Image,
		Env:          env,
		Labels:       spec.Labels,
		ExposedPorts: exposed,
	}

	_, err := a.cli.ContainerCreate(ctx, cfg, hostConfig, &network.NetworkingConfig{}, nil, spec.Name)
	if err != nil {
		return classify(err, "create container")
	}
	return nil
}

// Start starts a previously-ensured container.
func (a *Adapter) Start(ctx context.Context, name string) error {
	if err := a.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return classify(err, "start container")
	}
	return nil
}

// Stop stops a running container, giving it graceSeconds to exit cleanly
// before SIGKILL (spec.md §4.6 stop(grace=10s)).
func (a *Adapter) Stop(ctx context.Context, name string, graceSeconds int) error {
	timeout := graceSeconds
	if err := a.cli.ContainerStop(ctx, name, container.StopOptions{Timeout: &timeout}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return classify(err, "stop container")
	}
	return nil
}

// Remove deletes a container; force kills it first if still running.
func (a *Adapter) Remove(ctx context.Context, name string, force bool) error {
	if err := a.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: force}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return classify(err, "remove container")
	}
	return nil
}

// Inspect reports existence, liveness, and exit details of a container.
func (a *Adapter) Inspect(ctx context.Context, name string) (engine.Status, error) {
	info, err := a.cli.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return engine.Status{Exists: false}, nil
		}
		return engine.Status{}, classify(err, "inspect container")
	}
	if info.State == nil {
		return engine.Status{Exists: true}, nil
	}

	st := engine.Status{Exists: true, Running: info.State.Running}
	if !info.State.Running && info.State.FinishedAt != "" {
		code := info.State.ExitCode
		st.ExitCode = &code
	}
	if startedAt, perr := parseDockerTime(info.State.StartedAt); perr == nil {
		st.StartedAt = &startedAt
	}
	return st, nil
}

// ListOwnedContainers lists running containers labeled as agent-owned, for
// the Reconciler's orphan-reaping sweep (spec.md §4.6).
func (a *Adapter) ListOwnedContainers(ctx context.Context) ([]string, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("label", models.AgentOwnedLabel)),
	})
	if err != nil {
		return nil, classify(err, "list owned containers")
	}

	names := make([]string, 0, len(containers))
	for _, c := range containers {
		for _, n := range c.Names {
			names = append(names, strings.TrimPrefix(n, "/"))
		}
	}
	return names, nil
}

// CopyInto streams content into a container at path (spec.md §4.2, used
// for secrets seeding and snapshot restore).
func (a *Adapter) CopyInto(ctx context.Context, name, path string, content io.Reader) error {
	if err := a.cli.CopyToContainer(ctx, name, path, content, container.CopyToContainerOptions{}); err != nil {
		return classify(err, "copy into container")
	}
	return nil
}

// CopyOut streams a tar archive of path out of a container (used for
// snapshot creation's content digest, spec.md's Remix %P7).
func (a *Adapter) CopyOut(ctx context.Context, name, path string) (io.ReadCloser, error) {
	rc, _, err := a.cli.CopyFromContainer(ctx, name, path)
	if err != nil {
		return nil, classify(err, "copy out of container")
	}
	return rc, nil
}

var errBadTime = errors.New("docker: unparseable timestamp")
