// Package anthropic adapts the Anthropic Messages API to the
// inference.Provider contract (spec.md §4.3), following tarsy's
// llm.Client.GenerateStream channel-pair streaming convention.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/models"
)

// Adapter streams completions from the Anthropic Messages API.
type Adapter struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// New builds an Adapter for the given model (e.g. anthropic.ModelClaudeOpus4_5).
func New(apiKey, model string) *Adapter {
	return &Adapter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: 8192,
	}
}

var _ inference.Provider = (*Adapter)(nil)

func toParams(conv inference.Conversation) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeOpus4_5,
		MaxTokens: 8192,
	}
	if conv.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: conv.System}}
	}

	for _, t := range conv.DeveloperTools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        string(t.Name),
				Description: anthropic.String(t.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: t.Schema["properties"],
				},
			},
		})
	}

	for _, m := range conv.Messages {
		switch m.Role {
		case inference.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case inference.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		case inference.RoleToolCall:
			args, _ := json.Marshal(m.Arguments)
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(
				anthropic.NewToolUseBlock(m.ToolCallID, json.RawMessage(args), string(m.Tool)),
			))
		case inference.RoleToolResult:
			content, _ := json.Marshal(m.Result)
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, string(content), false),
			))
		}
	}
	return params
}

// Stream implements inference.Provider.
func (a *Adapter) Stream(ctx context.Context, conv inference.Conversation) (<-chan inference.Event, <-chan error) {
	events := make(chan inference.Event, 64)
	errs := make(chan error, 1)

	params := toParams(conv)
	if a.model != "" {
		params.Model = a.model
	}
	if a.maxTokens != 0 {
		params.MaxTokens = a.maxTokens
	}

	go func() {
		defer close(events)
		defer close(errs)

		stream := a.client.Messages.NewStreaming(ctx, params)
		message := anthropic.Message{}

		for stream.Next() {
			event := stream.Current()
			if err := message.Accumulate(event); err != nil {
				errs <- fmt.Errorf("accumulating stream event: %w", err)
				return
			}

			switch variant := event.AsAny().(type) {
			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if !emit(ctx, events, errs, inference.Event{
						Kind: inference.EventCommentary, Channel: models.ChannelAnalysis, Text: delta.Text,
					}) {
						return
					}
				}
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				errs <- inference.ErrCancelled
				return
			}
			errs <- fmt.Errorf("anthropic stream: %w", err)
			return
		}

		for _, block := range message.Content {
			switch b := block.AsAny().(type) {
			case anthropic.TextBlock:
				if !emit(ctx, events, errs, inference.Event{
					Kind: inference.EventFinal, Channel: models.ChannelFinal, Text: b.Text,
				}) {
					return
				}
			case anthropic.ToolUseBlock:
				var args map[string]any
				_ = json.Unmarshal([]byte(b.Input), &args)
				if !emit(ctx, events, errs, inference.Event{
					Kind: inference.EventToolCall, ToolCallID: b.ID, Tool: models.ToolName(b.Name), Arguments: args,
				}) {
					return
				}
			}
		}

		emit(ctx, events, errs, inference.Event{
			Kind:             inference.EventUsage,
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
			SoftLimitTokens:  conv.SoftLimitTokens,
		})
	}()

	return events, errs
}

// emit delivers ev, returning false if ctx was cancelled first (mirroring
// tarsy's GenerateStream select-on-ctx.Done pattern).
func emit(ctx context.Context, events chan<- inference.Event, errs chan<- error, ev inference.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		errs <- inference.ErrCancelled
		return false
	}
}
