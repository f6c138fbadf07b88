// Package runtime implements the Agent Task Runtime (spec.md §4.5): the
// single process that runs inside each agent container, driving the
// inference loop and tool execution against the Store.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raworc/raworc/pkg/config"
	"github.com/raworc/raworc/pkg/inference"
	"github.com/raworc/raworc/pkg/models"
	"github.com/raworc/raworc/pkg/runtime/contextwindow"
	"github.com/raworc/raworc/pkg/store"
	"github.com/raworc/raworc/pkg/tools"
)

const defaultSoftLimitTokens = 128000

// Runtime drives one agent container's boot sequence, task polling, and
// inference loop.
type Runtime struct {
	AgentName     string
	WorkspaceRoot string

	store     store.Store
	provider  inference.Provider
	executor  tools.Executor
	validator *tools.Validator
	agentCfg  config.AgentDefaults
	estimator *contextwindow.Estimator

	mu            sync.Mutex
	active        *activeTask
	pollPeriod    time.Duration
	historyCutoff time.Time
}

// activeTask tracks the in-flight task's cancellation plumbing for
// spec.md §4.5.4.
type activeTask struct {
	taskID string
	cancel context.CancelFunc
}

// New builds a Runtime for one agent container.
func New(agentName, workspaceRoot string, st store.Store, provider inference.Provider, executor tools.Executor, validator *tools.Validator, agentCfg config.AgentDefaults) *Runtime {
	return &Runtime{
		AgentName:     agentName,
		WorkspaceRoot: workspaceRoot,
		store:         st,
		provider:      provider,
		executor:      executor,
		validator:     validator,
		agentCfg:      agentCfg,
		estimator:     contextwindow.New(defaultSoftLimitTokens, 4096),
		pollPeriod:    500 * time.Millisecond,
	}
}

// RequestCancel cancels the in-flight task, if any, implementing the
// runtime half of spec.md §4.5.4 (the Store half, RequestCancel, is called
// by the API Core; runtimeapi relays it here).
func (r *Runtime) RequestCancel(taskID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil || r.active.taskID != taskID {
		return false
	}
	r.active.cancel()
	return true
}

// ContextUsage reports the runtime's current context-window accounting
// (API Core's context(name) operation, spec.md §4.7).
func (r *Runtime) ContextUsage() (used, softLimit int, usedPercent float64) {
	return r.estimator.Used(), r.estimator.SoftLimit(), r.estimator.UsedPercent()
}

// Run is the container's main loop: boot, then poll for and process tasks
// until ctx is cancelled (container stop/terminate).
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Boot(ctx); err != nil {
		return fmt.Errorf("runtime: boot: %w", err)
	}

	ticker := time.NewTicker(r.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			task, err := r.store.AcquireTaskSlot(ctx, r.AgentName)
			if err != nil {
				if err == store.ErrNoTaskAvailable {
					continue
				}
				continue
			}
			r.processTask(ctx, task.ID)
		}
	}
}

func (r *Runtime) beginTask(taskID string) context.Context {
	taskCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.active = &activeTask{taskID: taskID, cancel: cancel}
	r.mu.Unlock()
	return taskCtx
}

func (r *Runtime) endTask() {
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()
}

// processTask runs the full task lifecycle: claim_busy_agent, the
// inference loop, terminal transition, claim_idle_agent (spec.md §4.5).
func (r *Runtime) processTask(parent context.Context, taskID string) {
	if _, err := r.store.ClaimBusyAgent(parent, r.AgentName); err != nil {
		return
	}

	taskCtx := r.beginTask(taskID)
	defer r.endTask()

	watchCtx, stopWatch := context.WithCancel(parent)
	defer stopWatch()
	go func() {
		for {
			select {
			case <-watchCtx.Done():
				return
			case <-time.After(r.pollPeriod):
			}
			if t, err := r.store.GetTask(watchCtx, taskID); err == nil && t.CancelRequested {
				r.RequestCancel(taskID)
				return
			}
		}
	}()

	status, failureReason, output := r.runInferenceLoop(taskCtx, taskID)

	_, _ = r.store.FinishTask(parent, taskID, status, failureReason, output)
	_, _ = r.store.ClaimIdleAgent(parent, r.AgentName)
	_ = r.store.SetContextUsage(parent, r.AgentName, r.estimator.Used(), r.estimator.SoftLimit())
	r.estimator.Reset()
}
