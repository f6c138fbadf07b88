package runtime

import (
	"context"
	"fmt"

	"github.com/raworc/raworc/ent"
	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/tools"
)

const systemPrompt = `You are an autonomous coding and operations agent running inside a sandboxed container. Use the provided tools to accomplish the user's task. Call the output tool to produce your final structured result, then stop.`

// buildConversation assembles system prompt, developer tool schemas,
// compacted chat history, prior segments of a resumed task, and the new
// user input (spec.md §4.5).
func (r *Runtime) buildConversation(ctx context.Context, task *ent.Task) (inference.Conversation, error) {
	history, err := r.store.ListMessages(ctx, r.AgentName)
	if err != nil {
		return inference.Conversation{}, fmt.Errorf("loading chat history: %w", err)
	}

	segments, err := r.store.ListSegments(ctx, task.ID)
	if err != nil {
		return inference.Conversation{}, fmt.Errorf("loading prior segments: %w", err)
	}

	conv := inference.Conversation{
		System:          systemPrompt,
		DeveloperTools:  toolSpecs(),
		SoftLimitTokens: r.estimator.SoftLimit(),
	}

	cutoff := r.getHistoryCutoff()
	for _, m := range history {
		if m.CreatedAt.Before(cutoff) {
			continue
		}
		role := inference.RoleUser
		if m.Role == "assistant" {
			role = inference.RoleAssistant
		}
		conv.Messages = append(conv.Messages, inference.Message{Role: role, Text: m.Content})
	}

	conv.Messages = append(conv.Messages, segmentsToMessages(segments)...)

	for _, item := range task.InputContent {
		conv.Messages = append(conv.Messages, inference.Message{Role: inference.RoleUser, Text: fmt.Sprintf("%v", item.Content)})
	}

	return conv, nil
}

// segmentsToMessages replays a resumed task's prior tool_call/tool_result
// pairs and commentary/final text back into conversation form, so a
// restarted runtime can continue an in-progress iteration loop.
func segmentsToMessages(segments []*ent.Segment) []inference.Message {
	msgs := make([]inference.Message, 0, len(segments))
	var pending []string
	for _, s := range segments {
		switch models.SegmentType(s.Type) {
		case models.SegmentCommentary, models.SegmentFinal:
			msgs = append(msgs, inference.Message{Role: inference.RoleAssistant, Text: s.Text})
		case models.SegmentToolCall:
			var tool models.ToolName
			if s.Tool != nil {
				tool = models.ToolName(*s.Tool)
			}
			id := fmt.Sprintf("%d", s.Ordinal)
			pending = append(pending, id)
			msgs = append(msgs, inference.Message{
				Role: inference.RoleToolCall, ToolCallID: id,
				Tool: tool, Arguments: s.Args,
			})
		case models.SegmentToolResult:
			var id string
			if len(pending) > 0 {
				id, pending = pending[0], pending[1:]
			}
			var result any = s.Text
			if s.Output != nil {
				result = s.Output
			}
			msgs = append(msgs, inference.Message{
				Role: inference.RoleToolResult, ToolCallID: id,
				Result: result,
			})
		}
	}
	return msgs
}

func toolSpecs() []inference.ToolSpec {
	catalog := tools.Catalog()
	specs := make([]inference.ToolSpec, len(catalog))
	for i, t := range catalog {
		specs[i] = inference.ToolSpec{Name: t.Name, Description: t.Description, Schema: t.Schema}
	}
	return specs
}
