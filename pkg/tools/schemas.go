package tools

var runBashSchema = map[string]any{
	"type":     "object",
	"required": []any{"commands"},
	"properties": map[string]any{
		"commands":  map[string]any{"type": "string"},
		"exec_dir":  map[string]any{"type": "string"},
		"timeout_s": map[string]any{"type": "integer", "minimum": 1},
	},
}

var openFileSchema = map[string]any{
	"type":     "object",
	"required": []any{"path"},
	"properties": map[string]any{
		"path":       map[string]any{"type": "string"},
		"start_line": map[string]any{"type": "integer", "minimum": 1},
		"end_line":   map[string]any{"type": "integer", "minimum": 1},
	},
}

var createFileSchema = map[string]any{
	"type":     "object",
	"required": []any{"path", "content"},
	"properties": map[string]any{
		"path":    map[string]any{"type": "string"},
		"content": map[string]any{"type": "string"},
	},
}

var strReplaceSchema = map[string]any{
	"type":     "object",
	"required": []any{"path", "old_str", "new_str"},
	"properties": map[string]any{
		"path":    map[string]any{"type": "string"},
		"old_str": map[string]any{"type": "string"},
		"new_str": map[string]any{"type": "string"},
		"many":    map[string]any{"type": "boolean"},
	},
}

var insertSchema = map[string]any{
	"type":     "object",
	"required": []any{"path", "insert_line", "content"},
	"properties": map[string]any{
		"path":        map[string]any{"type": "string"},
		"insert_line": map[string]any{"type": "integer", "minimum": 0},
		"content":     map[string]any{"type": "string"},
	},
}

var removeStrSchema = map[string]any{
	"type":     "object",
	"required": []any{"path", "content"},
	"properties": map[string]any{
		"path":    map[string]any{"type": "string"},
		"content": map[string]any{"type": "string"},
		"many":    map[string]any{"type": "boolean"},
	},
}

var findFileContentSchema = map[string]any{
	"type":     "object",
	"required": []any{"path", "regex"},
	"properties": map[string]any{
		"path":  map[string]any{"type": "string"},
		"regex": map[string]any{"type": "string"},
	},
}

var findFilenameSchema = map[string]any{
	"type":     "object",
	"required": []any{"path", "glob"},
	"properties": map[string]any{
		"path": map[string]any{"type": "string"},
		"glob": map[string]any{"type": "string"},
	},
}

var outputSchema = map[string]any{
	"type":     "object",
	"required": []any{"type", "content"},
	"properties": map[string]any{
		"type":    map[string]any{"type": "string", "enum": []any{"markdown", "json", "url"}},
		"title":   map[string]any{"type": "string"},
		"content": map[string]any{},
	},
}

var stopSandboxSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"delay_seconds": map[string]any{"type": "integer", "minimum": 0},
		"note":          map[string]any{"type": "string"},
	},
}
