// Package apicore implements the API Core (spec.md §4.7): the pure
// in-process service a thin HTTP transport calls into. It owns no state of
// its own — every operation is a validated, error-classified call into the
// Store (directly, or via the Reconciler's Store-only declarative helpers
// for sleep/wake/remix/publish/unpublish), or the Container Engine Adapter
// directly for the one read-only file bridge. Per spec.md §4.1, API Core
// never blocks on the container engine: anything that needs a copy_out,
// copy_into, or container lifecycle call is staged as a declaration the
// Reconciler's tick fulfills on its own cadence.
package apicore

import (
	"log/slog"

	"github.com/raworc/raworc/pkg/config"
	"github.com/raworc/raworc/pkg/engine"
	"github.com/raworc/raworc/pkg/reconciler"
	"github.com/raworc/raworc/pkg/store"
)

// Core is the API Core. It is safe for concurrent use; all mutation is
// delegated to the Store's conditional updates.
type Core struct {
	store      store.Store
	reconciler *reconciler.Reconciler
	engine     engine.Adapter
	runtimes   RuntimeClient
	defaults   config.AgentDefaults
	log        *slog.Logger
}

// New builds a Core wiring the Store, Reconciler, Container Engine Adapter,
// and per-agent Runtime control client it delegates to. runtimes may be nil:
// context(name) then falls back to the Store's last-persisted estimate and
// context_clear/context_compact report an internal error (no live collaborator
// configured) rather than silently no-op.
func New(st store.Store, rc *reconciler.Reconciler, eng engine.Adapter, runtimes RuntimeClient, defaults config.AgentDefaults, log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	return &Core{store: st, reconciler: rc, engine: eng, runtimes: runtimes, defaults: defaults, log: log.With("component", "apicore")}
}
