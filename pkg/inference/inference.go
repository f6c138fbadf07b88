// Package inference defines the Inference Provider Adapter (spec.md §4.3):
// the boundary the Agent Task Runtime uses to drive an LLM without
// depending on a concrete provider's SDK. Concrete adapters live in
// pkg/inference/anthropic and pkg/inference/openai.
package inference

import (
	"context"
	"errors"

	"github.com/raworc/raworc/pkg/models"
)

// ErrCancelled is returned on the error channel when the caller's
// cancellation token fired mid-stream, distinguishable from transport
// errors (spec.md §4.3).
var ErrCancelled = errors.New("inference: cancelled")

// MessageRole is the role of one Conversation message. Unlike
// models.MessageRole (chat-history persistence, user|assistant only) this
// spans the full set a provider request accepts.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleDeveloper MessageRole = "developer"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleToolCall  MessageRole = "tool_call"
	RoleToolResult MessageRole = "tool_result"
)

// Message is one turn of the conversation sent to the provider (spec.md
// §4.3's system/developer/user/assistant/tool_call/tool_result list).
type Message struct {
	Role MessageRole
	// Text carries system/developer/user/assistant/commentary content.
	Text string
	// ToolCallID/Tool/Arguments populate a RoleToolCall message: exactly
	// what a prior assistant turn requested.
	ToolCallID string
	Tool       models.ToolName
	Arguments  map[string]any
	// Result populates a RoleToolResult message: what the runtime got
	// back from executing ToolCallID.
	Result any
}

// ToolSpec is one entry of the tool catalog schema passed in the
// developer message (spec.md §4.4).
type ToolSpec struct {
	Name        models.ToolName
	Description string
	Schema      map[string]any // JSON Schema for the tool's arguments
}

// Conversation is the full request to Stream.
type Conversation struct {
	System          string
	DeveloperTools  []ToolSpec
	SoftLimitTokens int
	Messages        []Message
}

// EventKind tags one Event (spec.md §4.3).
type EventKind string

const (
	EventCommentary EventKind = "commentary"
	EventToolCall   EventKind = "tool_call"
	EventFinal      EventKind = "final"
	EventUsage      EventKind = "usage"
)

// Event is one channel-tagged item of the inference stream.
type Event struct {
	Kind EventKind

	// Commentary / Final.
	Channel models.Channel
	Text    string

	// ToolCall.
	ToolCallID string
	Tool       models.ToolName
	Arguments  map[string]any

	// Usage; possibly repeated, final value wins (spec.md §4.3).
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	SoftLimitTokens  int
}

// Provider streams a model response for one Conversation, following
// tarsy's channel-pair streaming convention: events on the first channel,
// a single terminal error (possibly ErrCancelled) on the second. Both
// channels are closed when the stream ends.
type Provider interface {
	Stream(ctx context.Context, conv Conversation) (<-chan Event, <-chan error)
}
