package contentstore

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTar(t *testing.T, files map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body))}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return &buf
}

func TestFSStore_PutAndExists(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Exists("agent-a"))

	tarball := buildTar(t, map[string]string{"index.html": "<h1>hi</h1>"})
	require.NoError(t, store.Put(context.Background(), "agent-a", tarball))
	assert.True(t, store.Exists("agent-a"))

	b, err := os.ReadFile(filepath.Join(store.Root("agent-a"), "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", string(b))
}

func TestFSStore_PutReplacesPriorContent(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "agent-a", buildTar(t, map[string]string{"old.txt": "old"})))
	require.NoError(t, store.Put(context.Background(), "agent-a", buildTar(t, map[string]string{"new.txt": "new"})))

	_, err = os.Stat(filepath.Join(store.Root("agent-a"), "old.txt"))
	assert.True(t, os.IsNotExist(err))
	b, err := os.ReadFile(filepath.Join(store.Root("agent-a"), "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
}

func TestFSStore_Delete(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "agent-a", buildTar(t, map[string]string{"f.txt": "x"})))
	require.NoError(t, store.Delete(context.Background(), "agent-a"))
	assert.False(t, store.Exists("agent-a"))
}

func TestFSStore_RejectsPathEscape(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../../escape.txt", Mode: 0o644, Size: 1}))
	_, _ = tw.Write([]byte("x"))
	require.NoError(t, tw.Close())

	err = store.Put(context.Background(), "agent-a", &buf)
	assert.Error(t, err)
}
