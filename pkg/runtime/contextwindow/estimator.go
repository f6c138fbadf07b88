// Package contextwindow implements the rolling prompt-token estimate of
// spec.md §4.5.3: a soft_limit_tokens budget reported by the provider,
// tracked across clear/compact cycles.
package contextwindow

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// charsPerToken is a conservative estimate used before the provider's
// first usage event arrives for a given message.
const charsPerToken = 4

// Estimator caches per-message token counts so repeated estimation across
// compaction cycles does not re-scan unchanged history.
type Estimator struct {
	cache     *lru.Cache[string, int]
	softLimit int
	used      int
}

// New builds an Estimator with softLimit tokens of headroom and a bounded
// per-message count cache (cacheSize entries).
func New(softLimit, cacheSize int) *Estimator {
	cache, _ := lru.New[string, int](cacheSize)
	return &Estimator{cache: cache, softLimit: softLimit}
}

// EstimateMessage returns a cached or freshly-estimated token count for
// one message's text, keyed by its content.
func (e *Estimator) EstimateMessage(text string) int {
	if n, ok := e.cache.Get(text); ok {
		return n
	}
	n := (len(text) + charsPerToken - 1) / charsPerToken
	e.cache.Add(text, n)
	return n
}

// Accumulate records additional estimated-or-actual prompt tokens for the
// current task.
func (e *Estimator) Accumulate(tokens int) {
	e.used += tokens
}

// SetUsage replaces the running total with a provider-reported exact value
// (spec.md §4.3 "final value wins").
func (e *Estimator) SetUsage(promptTokens int) {
	e.used = promptTokens
}

// Used returns the current running total.
func (e *Estimator) Used() int {
	return e.used
}

// SoftLimit returns the configured budget.
func (e *Estimator) SoftLimit() int {
	return e.softLimit
}

// SetSoftLimit updates the budget from a provider usage event.
func (e *Estimator) SetSoftLimit(limit int) {
	if limit > 0 {
		e.softLimit = limit
	}
}

// UsedPercent reports used/soft_limit as a percentage (API Core's
// context(name) operation, spec.md §4.7).
func (e *Estimator) UsedPercent() float64 {
	if e.softLimit == 0 {
		return 0
	}
	return float64(e.used) / float64(e.softLimit) * 100
}

// WouldExceed reports whether adding promptEstimate tokens would exceed
// the soft limit (spec.md §4.5.3 context_full check).
func (e *Estimator) WouldExceed(promptEstimate int) bool {
	return e.used+promptEstimate > e.softLimit
}

// Reset zeroes the running total, used after clear/compact (spec.md
// §4.5.3 "Accounting resets").
func (e *Estimator) Reset() {
	e.used = 0
}
