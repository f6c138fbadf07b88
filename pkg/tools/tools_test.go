package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raworc/raworc/pkg/config"
	"github.com/raworc/raworc/pkg/models"
)

func newTestExecutor(t *testing.T) (*LocalExecutor, string) {
	root := t.TempDir()
	return NewLocalExecutor(config.DefaultToolsConfig()), root
}

func TestResolvePath_RejectsEscape(t *testing.T) {
	root := t.TempDir()
	_, err := resolvePath(root, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrPathEscapesWorkspace)

	ok, err := resolvePath(root, "sub/file.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(ok))
}

func TestCreateFileAndOpenFile(t *testing.T) {
	exec, root := newTestExecutor(t)
	ctx := context.Background()

	_, err := exec.Execute(ctx, root, models.ToolCreateFile, map[string]any{"path": "hello.txt", "content": "line1\nline2\nline3"})
	require.NoError(t, err)

	res, err := exec.Execute(ctx, root, models.ToolOpenFile, map[string]any{"path": "hello.txt", "start_line": float64(2), "end_line": float64(3)})
	require.NoError(t, err)
	assert.Equal(t, "line2\nline3", res.Output)
}

func TestStrReplace_RejectsAmbiguousMatch(t *testing.T) {
	exec, root := newTestExecutor(t)
	ctx := context.Background()

	_, err := exec.Execute(ctx, root, models.ToolCreateFile, map[string]any{"path": "f.txt", "content": "a b a"})
	require.NoError(t, err)

	res, err := exec.Execute(ctx, root, models.ToolStrReplace, map[string]any{"path": "f.txt", "old_str": "a", "new_str": "x"})
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = exec.Execute(ctx, root, models.ToolStrReplace, map[string]any{"path": "f.txt", "old_str": "a", "new_str": "x", "many": true})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	data, _ := os.ReadFile(filepath.Join(root, "f.txt"))
	assert.Equal(t, "x b x", string(data))
}

func TestRunBash_ReportsExitCode(t *testing.T) {
	exec, root := newTestExecutor(t)
	ctx := context.Background()

	res, err := exec.Execute(ctx, root, models.ToolRunBash, map[string]any{"commands": "exit 3"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Output, "[exit_code:3]")
}

func TestValidator_RejectsMissingRequired(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	err = v.Validate(models.ToolRunBash, map[string]any{})
	assert.Error(t, err)

	err = v.Validate(models.ToolRunBash, map[string]any{"commands": "echo hi"})
	assert.NoError(t, err)
}
