package runtime

import (
	"context"
	"errors"

	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
)

// runInferenceLoop drives spec.md §4.5.1 until a final segment is
// emitted, the iteration cap is reached, or cancellation fires. The
// returned []models.ContentItem is the task's output_content (I5/P5): the
// final segments emitted along the way, collected as they're appended
// rather than re-read back from the Store.
func (r *Runtime) runInferenceLoop(ctx context.Context, taskID string) (models.TaskStatus, string, []models.ContentItem) {
	task, err := r.store.GetTask(ctx, taskID)
	if err != nil {
		return models.TaskStatusFailed, "task_lookup_failed", nil
	}

	for iter := 0; iter < r.agentCfg.IterationCap; iter++ {
		if ctx.Err() != nil {
			r.appendSegment(context.Background(), taskID, store.NewSegment{Type: models.SegmentCancelled, Reason: "cancelled_by_user"})
			return models.TaskStatusCancelled, "", nil
		}

		conv, err := r.buildConversation(ctx, task)
		if err != nil {
			return models.TaskStatusFailed, "conversation_build_failed", nil
		}

		finalSeen, output, pendingCalls, streamErr := r.runOneIteration(ctx, taskID, conv)
		if streamErr != nil {
			if errors.Is(streamErr, inference.ErrCancelled) || ctx.Err() != nil {
				r.appendSegment(context.Background(), taskID, store.NewSegment{Type: models.SegmentCancelled, Reason: "cancelled_by_user"})
				return models.TaskStatusCancelled, "", nil
			}
			return models.TaskStatusFailed, "provider_error", nil
		}
		if finalSeen {
			return models.TaskStatusCompleted, "", output
		}
		if len(pendingCalls) == 0 {
			continue
		}

		outcomes := r.executeToolCalls(ctx, pendingCalls)
		for _, o := range outcomes {
			r.appendSegment(ctx, taskID, store.NewSegment{
				Type: models.SegmentToolResult,
				Tool: o.tool,
				Text: o.output,
			})
		}
	}

	capText := "iteration cap reached before a final answer was produced"
	r.appendSegment(context.Background(), taskID, store.NewSegment{
		Type: models.SegmentFinal,
		Text: capText,
	})
	return models.TaskStatusFailed, "iteration_cap", []models.ContentItem{{Type: "text", Content: capText}}
}

// runOneIteration streams one provider turn, appending commentary/
// tool_call/final segments as events arrive, and returns whether a final
// segment was emitted, the content items built from any final segments,
// and any tool_call events to execute next.
func (r *Runtime) runOneIteration(ctx context.Context, taskID string, conv inference.Conversation) (bool, []models.ContentItem, []inference.Event, error) {
	events, errs := r.provider.Stream(ctx, conv)

	finalSeen := false
	var output []models.ContentItem
	var pendingCalls []inference.Event

	for ev := range events {
		switch ev.Kind {
		case inference.EventCommentary:
			r.appendSegment(ctx, taskID, store.NewSegment{Type: models.SegmentCommentary, Channel: ev.Channel, Text: ev.Text})
		case inference.EventToolCall:
			r.appendSegment(ctx, taskID, store.NewSegment{Type: models.SegmentToolCall, Tool: ev.Tool, Args: ev.Arguments})
			pendingCalls = append(pendingCalls, ev)
		case inference.EventFinal:
			r.appendSegment(ctx, taskID, store.NewSegment{Type: models.SegmentFinal, Channel: ev.Channel, Text: ev.Text})
			output = append(output, models.ContentItem{Type: "text", Content: ev.Text})
			finalSeen = true
		case inference.EventUsage:
			r.estimator.SetSoftLimit(ev.SoftLimitTokens)
			r.estimator.SetUsage(ev.PromptTokens)
		}
	}

	if err := <-errs; err != nil {
		return finalSeen, output, pendingCalls, err
	}
	return finalSeen, output, pendingCalls, nil
}

// appendSegment appends, logging nothing on failure: a segment that fails
// to persist is dropped, and neither the in-progress iteration nor the
// task's terminal status is affected.
func (r *Runtime) appendSegment(ctx context.Context, taskID string, seg store.NewSegment) {
	_, _ = r.store.AppendSegment(ctx, taskID, seg)
}
