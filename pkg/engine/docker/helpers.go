package docker

import (
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
)

// containerPorts builds the exposed-port set and host binding map for
// ContainerCreate, binding each container port to the same port number on
// all host interfaces, 0.0.0.0 (used for a published agent's content port,
// spec.md §4.6 publish).
func containerPorts(ports []int) (nat.PortSet, nat.PortMap) {
	exposed := make(nat.PortSet, len(ports))
	bindings := make(nat.PortMap, len(ports))
	for _, p := range ports {
		port := nat.Port(fmt.Sprintf("%d/tcp", p))
		exposed[port] = struct{}{}
		bindings[port] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: fmt.Sprintf("%d", p)}}
	}
	return exposed, bindings
}

// parseDockerTime parses the RFC3339Nano timestamps the Engine API returns
// for container State.StartedAt/FinishedAt.
func parseDockerTime(s string) (time.Time, error) {
	if s == "" || s == "0001-01-01T00:00:00Z" {
		return time.Time{}, errBadTime
	}
	return time.Parse(time.RFC3339Nano, s)
}
