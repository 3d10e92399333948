package coordinator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrTimeout indicates the wall-clock deadline for the run expired.
var ErrTimeout = errors.New("coordination timed out")

// ErrWatchdog indicates the iteration-count safety cap was exceeded.
var ErrWatchdog = errors.New("coordination iteration cap exceeded")

// ErrDeadlock indicates the run stopped with incomplete tasks that can never
// become ready.
var ErrDeadlock = errors.New("coordination deadlocked")

// DeadlockError reports why the run could make no further progress.
type DeadlockError struct {
	// Blocked maps each incomplete task to its unmet dependencies.
	Blocked map[int64][]int64
	// GateHeld lists ready tasks held indefinitely by pending SYNC blockers.
	GateHeld []int64
}

// Error describes the deadlock.
func (e *DeadlockError) Error() string {
	var parts []string
	if len(e.Blocked) > 0 {
		ids := make([]int64, 0, len(e.Blocked))
		for id := range e.Blocked {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		parts = append(parts, fmt.Sprintf("%d tasks with unmet dependencies %v", len(ids), ids))
	}
	if len(e.GateHeld) > 0 {
		parts = append(parts, fmt.Sprintf("%d tasks held by pending blockers %v", len(e.GateHeld), e.GateHeld))
	}
	if len(parts) == 0 {
		return "coordination deadlocked"
	}
	return "coordination deadlocked: " + strings.Join(parts, ", ")
}

// Unwrap allows errors.Is(err, ErrDeadlock) checks.
func (e *DeadlockError) Unwrap() error { return ErrDeadlock }
