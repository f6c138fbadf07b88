package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/raworc/raworc/pkg/engine"
)

// agentBackoff tracks one agent's retry state after a transient engine
// error (spec.md §4.6 Failure semantics).
type agentBackoff struct {
	b         *backoff.ExponentialBackOff
	nextRetry time.Time
}

func newAgentBackoff(cfg backoffConfig) *agentBackoff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.initial
	b.MaxInterval = cfg.max
	b.MaxElapsedTime = 0 // never gives up; permanent errors are classified separately
	return &agentBackoff{b: b}
}

type backoffConfig struct {
	initial time.Duration
	max     time.Duration
}

func (rc *Reconciler) inBackoff(agentName string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	ab, ok := rc.backoffs[agentName]
	if !ok {
		return false
	}
	return time.Now().Before(ab.nextRetry)
}

func (rc *Reconciler) clearBackoff(agentName string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.backoffs, agentName)
}

// handleError classifies an engine error: transient errors schedule a
// bounded exponential retry; permanent errors are recorded on the agent row
// and left for an operator or a declared-state change to clear.
func (rc *Reconciler) handleError(ctx context.Context, agentName string, err error) {
	if errors.Is(err, engine.ErrPermanent) {
		_ = rc.store.SetLastError(ctx, agentName, err.Error())
		rc.log.Warn("permanent engine error, skipping further transitions", "agent", agentName, "error", err)
		return
	}

	rc.mu.Lock()
	ab, ok := rc.backoffs[agentName]
	if !ok {
		ab = newAgentBackoff(backoffConfig{initial: rc.cfg.BackoffInitial, max: rc.cfg.BackoffMax})
		rc.backoffs[agentName] = ab
	}
	ab.nextRetry = time.Now().Add(ab.b.NextBackOff())
	rc.mu.Unlock()

	rc.log.Warn("transient engine error, backing off", "agent", agentName, "error", err, "next_retry", ab.nextRetry)
}
