package tools

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// findFileContent regex-searches files under path (relative to the
// workspace root), reporting matches with line numbers.
func findFileContent(workspaceRoot string, args map[string]any) (Result, error) {
	p, _ := args["path"].(string)
	pattern, _ := args["regex"].(string)

	resolved, err := resolvePath(workspaceRoot, p)
	if err != nil {
		return Result{}, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Result{IsError: true, Output: "invalid regex: " + err.Error()}, nil
	}

	var sb strings.Builder
	matches := 0
	walkErr := filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				rel, _ := filepath.Rel(workspaceRoot, path)
				fmt.Fprintf(&sb, "%s:%d: %s\n", rel, i+1, line)
				matches++
			}
		}
		return nil
	})
	if walkErr != nil {
		return Result{IsError: true, Output: walkErr.Error()}, nil
	}
	if matches == 0 {
		return Result{Output: "no matches"}, nil
	}
	return Result{Output: sb.String()}, nil
}

// findFilename lists paths under path whose base name matches glob
// (stdlib path/filepath.Match: no corpus library covers simple shell-style
// basename globbing, and the richer doublestar matcher elsewhere in the
// example pack is unwired infrastructure-config tooling, not a fit here).
func findFilename(workspaceRoot string, args map[string]any) (Result, error) {
	p, _ := args["path"].(string)
	glob, _ := args["glob"].(string)

	resolved, err := resolvePath(workspaceRoot, p)
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	found := 0
	walkErr := filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		ok, merr := filepath.Match(glob, d.Name())
		if merr == nil && ok {
			rel, _ := filepath.Rel(workspaceRoot, path)
			sb.WriteString(rel)
			sb.WriteString("\n")
			found++
		}
		return nil
	})
	if walkErr != nil {
		return Result{IsError: true, Output: walkErr.Error()}, nil
	}
	if found == 0 {
		return Result{Output: "no matches"}, nil
	}
	return Result{Output: sb.String()}, nil
}
