package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/store"
)

// ClearContext drops all prior chat history from future conversations,
// keeping only the system prompt (spec.md §4.5.3). taskID may be empty if
// no task is in flight.
func (r *Runtime) ClearContext(ctx context.Context, taskID string) error {
	r.setHistoryCutoff(time.Now().UTC())
	r.estimator.Reset()
	_ = r.store.SetContextUsage(ctx, r.AgentName, r.estimator.Used(), r.estimator.SoftLimit())
	if taskID != "" {
		r.recordContextOp(ctx, taskID, models.SegmentContextCleared, "")
	}
	return nil
}

// CompactContext issues a summarisation call and replaces the prior
// conversation with [system, compact_summary(text)] (spec.md §4.5.3).
func (r *Runtime) CompactContext(ctx context.Context, taskID string) error {
	history, err := r.store.ListMessages(ctx, r.AgentName)
	if err != nil {
		return fmt.Errorf("loading history to compact: %w", err)
	}

	conv := inference.Conversation{
		System: "Summarise the conversation so far into a compact briefing a continuation of this task can resume from. Be terse; preserve decisions and open threads.",
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

	events, errs := r.provider.Stream(ctx, conv)
	var summary string
	for ev := range events {
		if ev.Kind == inference.EventFinal {
			summary = ev.Text
		}
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("summarising context: %w", err)
	}

	r.setHistoryCutoff(time.Now().UTC())
	if _, err := r.store.AppendMessage(ctx, r.AgentName, models.MessageRoleAssistant, summary); err != nil {
		return fmt.Errorf("recording compact summary: %w", err)
	}
	r.estimator.Reset()
	_ = r.store.SetContextUsage(ctx, r.AgentName, r.estimator.Used(), r.estimator.SoftLimit())
	if taskID != "" {
		r.recordContextOp(ctx, taskID, models.SegmentContextCompacted, "")
	}
	return nil
}

// recordContextOp appends the context_cleared/context_compacted marker
// segment (spec.md §4.5.3).
func (r *Runtime) recordContextOp(ctx context.Context, taskID string, kind models.SegmentType, reason string) {
	_, _ = r.store.AppendSegment(ctx, taskID, store.NewSegment{Type: kind, Reason: reason})
}

func (r *Runtime) setHistoryCutoff(t time.Time) {
	r.mu.Lock()
	r.historyCutoff = t
	r.mu.Unlock()
}

func (r *Runtime) getHistoryCutoff() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.historyCutoff
}
