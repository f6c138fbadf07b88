// Package tools implements the Tool Catalog (spec.md §4.4): the fixed,
// whitelisted set of in-container tools the Agent Task Runtime exposes to
// the Inference Provider, plus workspace-root sandboxing and argument
// schema validation.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/raworc/raworc/pkg/models"
)

// Spec is one catalog entry: name, JSON-Schema for its arguments, and
// side-effect class (spec.md §4.4).
type Spec struct {
	Name        models.ToolName
	Description string
	Schema      map[string]any
	SideEffect  models.SideEffectClass
}

// Result is a tool's output fed back into the conversation as the
// corresponding tool_result segment.
type Result struct {
	Output  string
	IsError bool
}

// ErrPathEscapesWorkspace is the typed error for §4.4's "runtime rejects
// arguments whose canonicalised path escapes the workspace".
var ErrPathEscapesWorkspace = errors.New("tools: path escapes workspace root")

// ErrTooLarge is the typed error for §4.5.2's file-size ceiling.
var ErrTooLarge = errors.New("tools: file too large")

// Catalog returns the fixed tool list (spec.md §4.4 table).
func Catalog() []Spec {
	return []Spec{
		{Name: models.ToolRunBash, Description: "Execute a shell command inside the agent's workspace", Schema: runBashSchema, SideEffect: models.SideEffectExec},
		{Name: models.ToolOpenFile, Description: "Read a file range", Schema: openFileSchema, SideEffect: models.SideEffectRead},
		{Name: models.ToolCreateFile, Description: "Create a file with exact content", Schema: createFileSchema, SideEffect: models.SideEffectWrite},
		{Name: models.ToolStrReplace, Description: "Exact-match single or all replacement", Schema: strReplaceSchema, SideEffect: models.SideEffectWrite},
		{Name: models.ToolInsert, Description: "Insert content at a line", Schema: insertSchema, SideEffect: models.SideEffectWrite},
		{Name: models.ToolRemoveStr, Description: "Delete exact match", Schema: removeStrSchema, SideEffect: models.SideEffectWrite},
		{Name: models.ToolFindFileContent, Description: "Regex search inside files", Schema: findFileContentSchema, SideEffect: models.SideEffectRead},
		{Name: models.ToolFindFilename, Description: "Glob by name", Schema: findFilenameSchema, SideEffect: models.SideEffectRead},
		{Name: models.ToolOutput, Description: "Emit a structured final output", Schema: outputSchema, SideEffect: models.SideEffectTerminal},
		{Name: models.ToolStopSandbox, Description: "Request graceful agent stop", Schema: stopSandboxSchema, SideEffect: models.SideEffectTerminal},
	}
}

// Validator validates tool-call arguments against the catalog's JSON
// schemas at the runtime boundary (spec.md §4.3).
type Validator struct {
	schemas map[models.ToolName]*jsonschema.Schema
}

// NewValidator compiles the catalog's schemas once at startup.
func NewValidator() (*Validator, error) {
	v := &Validator{schemas: make(map[models.ToolName]*jsonschema.Schema)}
	for _, spec := range Catalog() {
		c := jsonschema.NewCompiler()
		resourceName := string(spec.Name) + ".json"
		if err := c.AddResource(resourceName, spec.Schema); err != nil {
			return nil, fmt.Errorf("adding schema resource for %s: %w", spec.Name, err)
		}
		sch, err := c.Compile(resourceName)
		if err != nil {
			return nil, fmt.Errorf("compiling schema for %s: %w", spec.Name, err)
		}
		v.schemas[spec.Name] = sch
	}
	return v, nil
}

// Validate checks args against tool's declared schema.
func (v *Validator) Validate(tool models.ToolName, args map[string]any) error {
	sch, ok := v.schemas[tool]
	if !ok {
		return fmt.Errorf("tools: unknown tool %q", tool)
	}
	if err := sch.Validate(args); err != nil {
		return fmt.Errorf("tools: invalid arguments for %s: %w", tool, err)
	}
	return nil
}

// Executor runs one tool call rooted at workspaceRoot.
type Executor interface {
	Execute(ctx context.Context, workspaceRoot string, tool models.ToolName, args map[string]any) (Result, error)
}
