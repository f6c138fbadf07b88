package apicore

import (
	"archive/tar"
	"context"
	"io"
	"path"
	"strings"

	"github.com/raworc/raworc/pkg/models"
)

// maxReadFileBytes is the 25 MiB file-read ceiling (spec.md §8 boundary
// behaviours).
const maxReadFileBytes = 25 * 1024 * 1024

// FileEntry is one directory entry returned by list_files.
type FileEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

// ListFiles lists the immediate children of path inside the agent's
// workspace volume, read-only, via the Container Engine Adapter's copy_out
// (spec.md §4.7: "read-only bridge into the agent volume"; writes are not
// exposed by the API).
func (c *Core) ListFiles(ctx context.Context, name, dir string, offset, limit int) ([]FileEntry, error) {
	cleanDir := cleanWorkspacePath(dir)
	rc, err := c.engine.CopyOut(ctx, models.ContainerName(name), cleanDir)
	if err != nil {
		return nil, newError(models.ErrorKindEngine, "listing files for agent "+name, err)
	}
	defer rc.Close()

	var entries []FileEntry
	tr := tar.NewReader(rc)
	base := path.Base(cleanDir)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, internalErr("reading tar stream for list_files", err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(hdr.Name, base+"/"), base)
		rel = strings.Trim(rel, "/")
		if rel == "" || strings.Contains(rel, "/") {
			continue // only immediate children
		}
		entries = append(entries, FileEntry{Name: rel, IsDir: hdr.Typeflag == tar.TypeDir, Size: hdr.Size})
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return []FileEntry{}, nil
	}
	end := len(entries)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return entries[offset:end], nil
}

// ReadFile returns the content of one file inside the agent's workspace
// volume, rejecting anything over the 25 MiB ceiling.
func (c *Core) ReadFile(ctx context.Context, name, filePath string) ([]byte, error) {
	cleanPath := cleanWorkspacePath(filePath)
	rc, err := c.engine.CopyOut(ctx, models.ContainerName(name), cleanPath)
	if err != nil {
		return nil, newError(models.ErrorKindEngine, "reading file for agent "+name, err)
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	hdr, err := tr.Next()
	if err != nil {
		return nil, notFoundErr("file %q not found on agent %q", filePath, name)
	}
	if hdr.Size > maxReadFileBytes {
		return nil, validationErr("file %q exceeds the 25 MiB read ceiling", filePath)
	}
	data, err := io.ReadAll(io.LimitReader(tr, maxReadFileBytes+1))
	if err != nil {
		return nil, internalErr("reading file content", err)
	}
	if len(data) > maxReadFileBytes {
		return nil, validationErr("file %q exceeds the 25 MiB read ceiling", filePath)
	}
	return data, nil
}

func cleanWorkspacePath(p string) string {
	if p == "" {
		return "/agent"
	}
	return path.Clean(p)
}
