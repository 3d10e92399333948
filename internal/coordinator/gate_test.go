package coordinator

import (
	"testing"

	"github.com/forgeworks/conductor/pkg/models"
)

func depsFrom(m map[int64][]int64) func(int64) []int64 {
	return func(id int64) []int64 { return m[id] }
}

func blocker(taskID int64, typ models.BlockerType, status models.BlockerStatus) *models.Blocker {
	return &models.Blocker{ID: "b", TaskID: taskID, ProjectID: 1, Type: typ, Status: status}
}

func TestGateAllowsWithoutBlockers(t *testing.T) {
	g := NewBlockerGate(nil, depsFrom(map[int64][]int64{2: {1}}))
	if !g.CanAssign(1) || !g.CanAssign(2) {
		t.Error("tasks without blockers must be assignable")
	}
}

func TestSyncBlockerGatesTask(t *testing.T) {
	g := NewBlockerGate(
		[]*models.Blocker{blocker(1, models.BlockerTypeSync, models.BlockerStatusPending)},
		depsFrom(nil),
	)
	if g.CanAssign(1) {
		t.Error("task with pending SYNC blocker must be held")
	}
}

func TestSyncBlockerGatesDependencyChain(t *testing.T) {
	deps := map[int64][]int64{2: {1}, 3: {2}}
	g := NewBlockerGate(
		[]*models.Blocker{blocker(1, models.BlockerTypeSync, models.BlockerStatusPending)},
		depsFrom(deps),
	)

	for _, id := range []int64{1, 2, 3} {
		if g.CanAssign(id) {
			t.Errorf("task %d must be held by the blocker on task 1", id)
		}
	}
}

func TestAsyncBlockerNeverGates(t *testing.T) {
	g := NewBlockerGate(
		[]*models.Blocker{blocker(1, models.BlockerTypeAsync, models.BlockerStatusPending)},
		depsFrom(map[int64][]int64{2: {1}}),
	)
	if !g.CanAssign(1) || !g.CanAssign(2) {
		t.Error("ASYNC blockers must not gate assignment")
	}
}

func TestResolvedBlockerDoesNotGate(t *testing.T) {
	g := NewBlockerGate(
		[]*models.Blocker{
			blocker(1, models.BlockerTypeSync, models.BlockerStatusResolved),
			blocker(2, models.BlockerTypeSync, models.BlockerStatusExpired),
		},
		depsFrom(nil),
	)
	if !g.CanAssign(1) || !g.CanAssign(2) {
		t.Error("resolved and expired blockers must not gate assignment")
	}
}

func TestGateDiamondDependencies(t *testing.T) {
	// 4 depends on 2 and 3, both of which depend on 1. The shared
	// dependency must not be mistaken for a cycle.
	deps := map[int64][]int64{2: {1}, 3: {1}, 4: {2, 3}}

	g := NewBlockerGate(nil, depsFrom(deps))
	if !g.CanAssign(4) {
		t.Error("diamond without blockers must be assignable")
	}

	g = NewBlockerGate(
		[]*models.Blocker{blocker(1, models.BlockerTypeSync, models.BlockerStatusPending)},
		depsFrom(deps),
	)
	if g.CanAssign(4) {
		t.Error("blocker at the root of a diamond must hold the sink")
	}
}

func TestGateFailsClosedOnCycle(t *testing.T) {
	deps := map[int64][]int64{1: {2}, 2: {1}}
	g := NewBlockerGate(nil, depsFrom(deps))
	if g.CanAssign(1) {
		t.Error("dependency cycle must resolve to held")
	}
}

func TestHeldTasks(t *testing.T) {
	g := NewBlockerGate(
		[]*models.Blocker{blocker(2, models.BlockerTypeSync, models.BlockerStatusPending)},
		depsFrom(map[int64][]int64{3: {2}}),
	)

	held := g.HeldTasks([]int64{1, 2, 3})
	if len(held) != 2 || held[0] != 2 || held[1] != 3 {
		t.Errorf("held = %v, want [2 3]", held)
	}
}
