package coordinator

import (
	"github.com/forgeworks/conductor/pkg/models"
)

// BlockerGate holds tasks back from dispatch while they, or any task in
// their dependency chain, have a pending SYNC blocker. ASYNC blockers never
// gate. The gate is rebuilt from the store at the top of each coordination
// iteration so answers take effect on the next pass.
type BlockerGate struct {
	// gated holds task IDs with at least one gating blocker.
	gated map[int64]bool
	// deps returns the dependency IDs for a task.
	deps func(taskID int64) []int64
	// verdicts caches per-task results for this gate's snapshot.
	verdicts map[int64]gateVerdict
}

type gateVerdict int

const (
	verdictUnknown gateVerdict = iota
	verdictChecking
	verdictAllowed
	verdictHeld
)

// NewBlockerGate builds a gate from the current pending blockers. The deps
// function is consulted to walk each task's dependency chain.
func NewBlockerGate(blockers []*models.Blocker, deps func(taskID int64) []int64) *BlockerGate {
	gated := make(map[int64]bool)
	for _, b := range blockers {
		if b.Gates() {
			gated[b.TaskID] = true
		}
	}
	return &BlockerGate{
		gated:    gated,
		deps:     deps,
		verdicts: make(map[int64]gateVerdict),
	}
}

// CanAssign reports whether a task may be dispatched. A task is held if it
// has a gating blocker itself or if any task reachable through its
// dependencies does. Dependency cycles encountered during the walk resolve
// to held.
func (g *BlockerGate) CanAssign(taskID int64) bool {
	return g.check(taskID)
}

// HeldTasks filters the given task IDs down to the ones the gate holds.
func (g *BlockerGate) HeldTasks(taskIDs []int64) []int64 {
	var held []int64
	for _, id := range taskIDs {
		if !g.CanAssign(id) {
			held = append(held, id)
		}
	}
	return held
}

func (g *BlockerGate) check(taskID int64) bool {
	switch g.verdicts[taskID] {
	case verdictChecking:
		// Revisiting a task already on the walk means a cycle.
		return false
	case verdictAllowed:
		return true
	case verdictHeld:
		return false
	}

	g.verdicts[taskID] = verdictChecking
	allowed := !g.gated[taskID]
	if allowed {
		for _, dep := range g.deps(taskID) {
			if !g.check(dep) {
				allowed = false
				break
			}
		}
	}

	if allowed {
		g.verdicts[taskID] = verdictAllowed
	} else {
		g.verdicts[taskID] = verdictHeld
	}
	return allowed
}
