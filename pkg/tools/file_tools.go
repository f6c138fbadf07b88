package tools

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func readWithinCeiling(path string, ceiling int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tools: stat %s: %w", path, err)
	}
	if info.Size() > ceiling {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, info.Size())
	}
	return os.ReadFile(path)
}

// readTruncated reads path, silently truncating to ceiling bytes rather
// than failing — open_file's documented oversized-file behavior, distinct
// from the file-editing tools' hard too_large failure.
func readTruncated(path string, ceiling int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tools: open %s: %w", path, err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, ceiling))
}

// openFile reads path, optionally restricted to [start_line, end_line]
// (1-indexed, inclusive). Unlike the file-editing tools, an oversized file
// is truncated to readCeiling rather than rejected.
func openFile(workspaceRoot string, args map[string]any, readCeiling int64) (Result, error) {
	p, _ := args["path"].(string)
	resolved, err := resolvePath(workspaceRoot, p)
	if err != nil {
		return Result{}, err
	}

	data, err := readTruncated(resolved, readCeiling)
	if err != nil {
		return Result{}, err
	}

	start, hasStart := intArg(args, "start_line")
	end, hasEnd := intArg(args, "end_line")
	if !hasStart && !hasEnd {
		return Result{Output: string(data)}, nil
	}

	lines := strings.Split(string(data), "\n")
	if !hasStart {
		start = 1
	}
	if !hasEnd || end > len(lines) {
		end = len(lines)
	}
	if start < 1 {
		start = 1
	}
	if start > end {
		return Result{Output: ""}, nil
	}
	return Result{Output: strings.Join(lines[start-1:end], "\n")}, nil
}

func intArg(args map[string]any, key string) (int, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// createFile writes content to path verbatim, creating parent directories
// as needed.
func createFile(workspaceRoot string, args map[string]any) (Result, error) {
	p, _ := args["path"].(string)
	content, _ := args["content"].(string)
	resolved, err := resolvePath(workspaceRoot, p)
	if err != nil {
		return Result{}, err
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return Result{IsError: true, Output: err.Error()}, nil
	}
	return Result{Output: "created " + p}, nil
}

// strReplace performs an exact-match replacement, failing if old_str is
// not found or (when many is false) appears more than once.
func strReplace(workspaceRoot string, args map[string]any, readCeiling int64) (Result, error) {
	p, _ := args["path"].(string)
	oldStr, _ := args["old_str"].(string)
	newStr, _ := args["new_str"].(string)
	many, _ := args["many"].(bool)

	resolved, err := resolvePath(workspaceRoot, p)
	if err != nil {
		return Result{}, err
	}
	data, err := readWithinCeiling(resolved, readCeiling)
	if err != nil {
		return Result{}, err
	}
	text := string(data)

	count := strings.Count(text, oldStr)
	if count == 0 {
		return Result{IsError: true, Output: "old_str not found"}, nil
	}
	if count > 1 && !many {
		return Result{IsError: true, Output: fmt.Sprintf("old_str matches %d times; pass many=true to replace all", count)}, nil
	}

	replaced := count
	if many {
		text = strings.ReplaceAll(text, oldStr, newStr)
	} else {
		text = strings.Replace(text, oldStr, newStr, 1)
	}

	if err := os.WriteFile(resolved, []byte(text), 0o644); err != nil {
		return Result{IsError: true, Output: err.Error()}, nil
	}
	return Result{Output: "replaced " + strconv.Itoa(replaced) + " occurrence(s) in " + p}, nil
}

// insertContent inserts content after insert_line (0 = start of file).
func insertContent(workspaceRoot string, args map[string]any, readCeiling int64) (Result, error) {
	p, _ := args["path"].(string)
	content, _ := args["content"].(string)
	line, _ := intArg(args, "insert_line")

	resolved, err := resolvePath(workspaceRoot, p)
	if err != nil {
		return Result{}, err
	}
	data, err := readWithinCeiling(resolved, readCeiling)
	if err != nil {
		return Result{}, err
	}

	lines := strings.Split(string(data), "\n")
	if line < 0 {
		line = 0
	}
	if line > len(lines) {
		line = len(lines)
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:line]...)
	out = append(out, content)
	out = append(out, lines[line:]...)

	if err := os.WriteFile(resolved, []byte(strings.Join(out, "\n")), 0o644); err != nil {
		return Result{IsError: true, Output: err.Error()}, nil
	}
	return Result{Output: fmt.Sprintf("inserted at line %d in %s", line, p)}, nil
}

// removeStr deletes an exact match.
func removeStr(workspaceRoot string, args map[string]any, readCeiling int64) (Result, error) {
	p, _ := args["path"].(string)
	content, _ := args["content"].(string)
	many, _ := args["many"].(bool)

	resolved, err := resolvePath(workspaceRoot, p)
	if err != nil {
		return Result{}, err
	}
	data, err := readWithinCeiling(resolved, readCeiling)
	if err != nil {
		return Result{}, err
	}
	text := string(data)

	count := strings.Count(text, content)
	if count == 0 {
		return Result{IsError: true, Output: "content not found"}, nil
	}
	if count > 1 && !many {
		return Result{IsError: true, Output: fmt.Sprintf("content matches %d times; pass many=true to remove all", count)}, nil
	}

	removed := count
	if many {
		text = strings.ReplaceAll(text, content, "")
	} else {
		text = strings.Replace(text, content, "", 1)
	}

	if err := os.WriteFile(resolved, []byte(text), 0o644); err != nil {
		return Result{IsError: true, Output: err.Error()}, nil
	}
	return Result{Output: "removed " + strconv.Itoa(removed) + " occurrence(s) from " + p}, nil
}
