package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raworc/raworc/pkg/config"
	"github.com/raworc/raworc/pkg/models"
)

// LocalExecutor runs tools directly against the local filesystem/process
// table; inside an agent container this is the filesystem/process table of
// the container itself.
type LocalExecutor struct {
	cfg config.ToolsConfig
}

// NewLocalExecutor builds an Executor bound to the given tool-execution
// policy (timeouts, output/read ceilings, spec.md §4.5.2).
func NewLocalExecutor(cfg config.ToolsConfig) *LocalExecutor {
	return &LocalExecutor{cfg: cfg}
}

var _ Executor = (*LocalExecutor)(nil)

// Execute dispatches tool by name, sandboxing every path argument under
// workspaceRoot.
func (e *LocalExecutor) Execute(ctx context.Context, workspaceRoot string, tool models.ToolName, args map[string]any) (Result, error) {
	readCeiling := int64(e.cfg.FileReadCeiling)

	switch tool {
	case models.ToolRunBash:
		parsed, err := parseRunBash(args, workspaceRoot, e.cfg.RunBashDefaultTimeout, e.cfg.RunBashMaxTimeout)
		if err != nil {
			return Result{}, err
		}
		return runBash(ctx, parsed, e.cfg.RunBashOutputCeiling), nil
	case models.ToolOpenFile:
		return openFile(workspaceRoot, args, readCeiling)
	case models.ToolCreateFile:
		return createFile(workspaceRoot, args)
	case models.ToolStrReplace:
		return strReplace(workspaceRoot, args, readCeiling)
	case models.ToolInsert:
		return insertContent(workspaceRoot, args, readCeiling)
	case models.ToolRemoveStr:
		return removeStr(workspaceRoot, args, readCeiling)
	case models.ToolFindFileContent:
		return findFileContent(workspaceRoot, args)
	case models.ToolFindFilename:
		return findFilename(workspaceRoot, args)
	case models.ToolOutput:
		return outputTool(args)
	case models.ToolStopSandbox:
		return stopSandbox(args)
	default:
		return Result{}, fmt.Errorf("tools: unknown tool %q", tool)
	}
}

// outputTool echoes the structured item back as its tool_result (spec.md
// §4.4). It does not feed the task's output_content, which the runtime
// builds from final segments only.
func outputTool(args map[string]any) (Result, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return Result{IsError: true, Output: err.Error()}, nil
	}
	return Result{Output: string(b)}, nil
}

// stopSandbox returns a pending stop marker as its tool_result. No other
// component reads the marker back: the agent is not stopped by this call.
func stopSandbox(args map[string]any) (Result, error) {
	note, _ := args["note"].(string)
	delay, _ := intArg(args, "delay_seconds")
	b, _ := json.Marshal(map[string]any{"pending_stop": true, "delay_seconds": delay, "note": note})
	return Result{Output: string(b)}, nil
}
