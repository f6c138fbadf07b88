package store

import "errors"

// Sentinel errors surfaced by Store operations; callers classify them into
// the domain error taxonomy (spec.md §7) at the API Core / Runtime boundary.
var (
	// ErrNotFound indicates the requested agent/task/snapshot does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict indicates a conditional update's expected-state precondition
	// did not hold (spec.md §4.1, §5 "conditional writes").
	ErrConflict = errors.New("store: conflict")

	// ErrTaskSlotOccupied indicates I3: the agent already has a pending or
	// processing task.
	ErrTaskSlotOccupied = errors.New("store: task slot occupied")

	// ErrNoTaskAvailable indicates acquire_task_slot found no pending task.
	ErrNoTaskAvailable = errors.New("store: no pending task available")
)
