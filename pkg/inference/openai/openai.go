// Package openai adapts the OpenAI Chat Completions API to the
// inference.Provider contract (spec.md §4.3).
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/models"
)

// Adapter streams completions from the OpenAI Chat Completions API.
type Adapter struct {
	client openai.Client
	model  openai.ChatModel
}

// New builds an Adapter for the given model (e.g. openai.ChatModelGPT4o).
func New(apiKey, model string) *Adapter {
	return &Adapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModel(model),
	}
}

var _ inference.Provider = (*Adapter)(nil)

func toParams(model openai.ChatModel, conv inference.Conversation) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: model}

	if conv.System != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(conv.System))
	}
	for _, t := range conv.DeveloperTools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        string(t.Name),
				Description: openai.String(t.Description),
				Parameters:  t.Schema,
			},
		})
	}

	for _, m := range conv.Messages {
		switch m.Role {
		case inference.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(m.Text))
		case inference.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Text))
		case inference.RoleToolCall:
			args, _ := json.Marshal(m.Arguments)
			params.Messages = append(params.Messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
						ID: m.ToolCallID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      string(m.Tool),
							Arguments: string(args),
						},
					}},
				},
			})
		case inference.RoleToolResult:
			content, _ := json.Marshal(m.Result)
			params.Messages = append(params.Messages, openai.ToolMessage(string(content), m.ToolCallID))
		}
	}
	return params
}

// Stream implements inference.Provider.
func (a *Adapter) Stream(ctx context.Context, conv inference.Conversation) (<-chan inference.Event, <-chan error) {
	events := make(chan inference.Event, 64)
	errs := make(chan error, 1)

	params := toParams(a.model, conv)

	go func() {
		defer close(events)
		defer close(errs)

		stream := a.client.Chat.Completions.NewStreaming(ctx, params)
		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					if !emit(ctx, events, errs, inference.Event{
						Kind: inference.EventCommentary, Channel: models.ChannelCommentary, Text: choice.Delta.Content,
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
			errs <- fmt.Errorf("openai stream: %w", err)
			return
		}

		if len(acc.Choices) > 0 {
			choice := acc.Choices[0]
			if choice.Message.Content != "" {
				if !emit(ctx, events, errs, inference.Event{
					Kind: inference.EventFinal, Channel: models.ChannelFinal, Text: choice.Message.Content,
				}) {
					return
				}
			}
			for _, tc := range choice.Message.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
				if !emit(ctx, events, errs, inference.Event{
					Kind: inference.EventToolCall, ToolCallID: tc.ID, Tool: models.ToolName(tc.Function.Name), Arguments: args,
				}) {
					return
				}
			}
		}

		emit(ctx, events, errs, inference.Event{
			Kind:             inference.EventUsage,
			PromptTokens:     int(acc.Usage.PromptTokens),
			CompletionTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:      int(acc.Usage.TotalTokens),
			SoftLimitTokens:  conv.SoftLimitTokens,
		})
	}()

	return events, errs
}

func emit(ctx context.Context, events chan<- inference.Event, errs chan<- error, ev inference.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		errs <- inference.ErrCancelled
		return false
	}
}
