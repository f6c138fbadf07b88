package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainerPorts(t *testing.T) {
	exposed, bindings := containerPorts([]int{8080, 9090})

	assert.Len(t, exposed, 2)
	assert.Len(t, bindings, 2)

	b, ok := bindings["8080/tcp"]
	assert.True(t, ok)
	assert.Equal(t, "8080", b[0].HostPort)
}

func TestParseDockerTime(t *testing.T) {
	_, err := parseDockerTime("")
	assert.ErrorIs(t, err, errBadTime)

	_, err = parseDockerTime("0001-01-01T00:00:00Z")
	assert.ErrorIs(t, err, errBadTime)

	ts, err := parseDockerTime("2026-07-31T12:00:00.123456789Z")
	assert.NoError(t, err)
	assert.Equal(t, 2026, ts.Year())
}
