package runtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/tools"
)

// sideEffects maps each catalog tool to its concurrency class, computed
// once from tools.Catalog().
var sideEffects = func() map[models.ToolName]models.SideEffectClass {
	m := make(map[models.ToolName]models.SideEffectClass)
	for _, t := range tools.Catalog() {
		m[t.Name] = t.SideEffect
	}
	return m
}()

// toolOutcome is one tool_call's execution result, keyed back to its
// ToolCallID for pairing with the tool_result segment.
type toolOutcome struct {
	callID  string
	tool    models.ToolName
	output  string
	isError bool
}

// executeToolCalls runs calls in declaration order, dispatching read-class
// calls concurrently and serialising write/exec/terminal ones (spec.md
// §4.5.1): a run of consecutive read calls executes in parallel, then the
// loop waits on that run before moving past a write/exec/terminal call.
func (r *Runtime) executeToolCalls(ctx context.Context, calls []inference.Event) []toolOutcome {
	outcomes := make([]toolOutcome, len(calls))

	i := 0
	for i < len(calls) {
		if sideEffects[calls[i].Tool] != models.SideEffectRead {
			outcomes[i] = r.executeOne(ctx, calls[i])
			i++
			continue
		}

		j := i
		for j < len(calls) && sideEffects[calls[j].Tool] == models.SideEffectRead {
			j++
		}

		var wg sync.WaitGroup
		for k := i; k < j; k++ {
			wg.Add(1)
			go func(k int) {
				defer wg.Done()
				outcomes[k] = r.executeOne(ctx, calls[k])
			}(k)
		}
		wg.Wait()
		i = j
	}

	return outcomes
}

func (r *Runtime) executeOne(ctx context.Context, call inference.Event) toolOutcome {
	outcome := toolOutcome{callID: call.ToolCallID, tool: call.Tool}

	if err := r.validator.Validate(call.Tool, call.Arguments); err != nil {
		b, _ := json.Marshal(map[string]string{"error": "invalid_arguments", "detail": err.Error()})
		outcome.output = string(b)
		outcome.isError = true
		return outcome
	}

	res, err := r.executor.Execute(ctx, r.WorkspaceRoot, call.Tool, call.Arguments)
	if err != nil {
		b, _ := json.Marshal(map[string]string{"error": "execution_error", "detail": err.Error()})
		outcome.output = string(b)
		outcome.isError = true
		return outcome
	}

	outcome.output = res.Output
	outcome.isError = res.IsError
	return outcome
}
