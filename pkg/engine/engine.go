// Package engine defines the Container Engine Adapter (spec.md §4.2): the
// boundary the Reconciler and Agent Task Runtime use to drive per-agent
// sandboxes without depending on a concrete engine. The concrete
// implementation lives in pkg/engine/docker.
package engine

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrTransient marks an engine error the caller should retry (network
// blip, engine momentarily unreachable). ErrPermanent marks one that will
// not succeed on retry (no such container, name already in use).
var (
	ErrTransient = errors.New("engine: transient error")
	ErrPermanent = errors.New("engine: permanent error")
)

// ContainerSpec describes the desired state of one agent's container,
// passed to EnsureContainer (spec.md §4.2 "idempotent on name").
type ContainerSpec struct {
	Name          string
	Image         string
	Env           map[string]string
	VolumeName    string
	VolumeMount   string
	ExposedPorts  []int
	Labels        map[string]string
	CPULimit      float64 // fractional CPUs, 0 = unlimited
	MemoryLimitMB int64   // 0 = unlimited
}

// Status is the result of Inspect.
type Status struct {
	Exists    bool
	Running   bool
	ExitCode  *int
	StartedAt *time.Time
}

// Adapter is the Container Engine Adapter interface of spec.md §4.2.
// Every method must classify its error as ErrTransient or ErrPermanent
// (via errors.Is) so callers in the Reconciler can decide whether to
// retry with backoff or surface a permanent last_error.
type Adapter interface {
	EnsureVolume(ctx context.Context, name string) error
	RemoveVolume(ctx context.Context, name string) error

	EnsureContainer(ctx context.Context, spec ContainerSpec) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string, graceSeconds int) error
	Remove(ctx context.Context, name string, force bool) error

	Inspect(ctx context.Context, name string) (Status, error)

	// ListOwnedContainers returns the names of all running containers
	// carrying models.AgentOwnedLabel, for the Reconciler's orphan-reaping
	// sweep (spec.md §4.6).
	ListOwnedContainers(ctx context.Context) ([]string, error)

	CopyInto(ctx context.Context, name, path string, content io.Reader) error
	CopyOut(ctx context.Context, name, path string) (io.ReadCloser, error)
}
