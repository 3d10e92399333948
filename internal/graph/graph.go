// Package graph provides the task dependency graph used for scheduling.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/forgeworks/conductor/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task graph.
var ErrCycleDetected = errors.New("circular dependency detected")

// CycleError reports the task IDs forming a circular dependency.
type CycleError struct {
	// Cycle lists the IDs along the cycle; the first and last entries are the
	// same task.
	Cycle []int64
}

// Error returns a description of the cycle.
func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "circular dependency detected: " + strings.Join(parts, " -> ")
}

// Unwrap allows errors.Is(err, ErrCycleDetected) checks.
func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// DependencyGraph is a directed acyclic graph of task dependencies built once
// per coordination run from a snapshot of the task store. Tasks are nodes,
// and edges represent "blocked by" relationships.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to the task itself.
	nodes map[int64]*models.Task
	// dependencies maps task ID to the IDs of tasks it depends on.
	dependencies map[int64]map[int64]bool
	// dependents maps task ID to the IDs of tasks that depend on it.
	dependents map[int64]map[int64]bool
	// completed tracks which tasks count as done for unblocking purposes.
	completed map[int64]bool
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:        make(map[int64]*models.Task),
		dependencies: make(map[int64]map[int64]bool),
		dependents:   make(map[int64]map[int64]bool),
		completed:    make(map[int64]bool),
		debugLog:     func(format string, args ...interface{}) {}, // no-op by default
	}
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// Build constructs the dependency graph from a snapshot of tasks. The raw
// depends_on encoding of each task is parsed once here; references that do
// not resolve within the snapshot are logged and dropped. Tasks already
// completed in the snapshot seed the completed set. Returns a *CycleError if
// the dependency relation is cyclic.
func (g *DependencyGraph) Build(tasks []*models.Task) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[int64]*models.Task, len(tasks))
	g.dependencies = make(map[int64]map[int64]bool, len(tasks))
	g.dependents = make(map[int64]map[int64]bool)
	g.completed = make(map[int64]bool)

	// First pass: register all tasks and index by task number for resolution.
	byNumber := make(map[string]int64, len(tasks))
	for _, task := range tasks {
		g.nodes[task.ID] = task
		g.dependencies[task.ID] = make(map[int64]bool)
		if task.TaskNumber != "" {
			byNumber[task.TaskNumber] = task.ID
		}
		if task.Status == models.TaskStatusCompleted {
			g.completed[task.ID] = true
		}
	}

	// Second pass: parse depends_on and build edges.
	for _, task := range tasks {
		refs := parseDependsOn(task.DependsOn)
		for _, ref := range refs {
			depID, ok := ref.resolve(g.nodes, byNumber)
			if !ok {
				g.debugLog("[graph.Build] task %d: dependency %q does not resolve in snapshot, ignoring", task.ID, ref)
				continue
			}
			if depID == task.ID {
				return &CycleError{Cycle: []int64{task.ID, task.ID}}
			}
			g.dependencies[task.ID][depID] = true
			if g.dependents[depID] == nil {
				g.dependents[depID] = make(map[int64]bool)
			}
			g.dependents[depID][task.ID] = true
		}
	}

	if cycle := g.findCycleLocked(); cycle != nil {
		return &CycleError{Cycle: cycle}
	}

	g.debugLog("[graph.Build] built graph: %d tasks, %d edges", len(g.nodes), g.edgeCountLocked())
	return nil
}

// edgeCountLocked returns the total number of dependency edges.
func (g *DependencyGraph) edgeCountLocked() int {
	n := 0
	for _, deps := range g.dependencies {
		n += len(deps)
	}
	return n
}

// findCycleLocked returns the IDs along a dependency cycle, or nil if the
// graph is acyclic. Depth-first search with a recursion stack; the returned
// slice starts and ends with the same task.
func (g *DependencyGraph) findCycleLocked() []int64 {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	colors := make(map[int64]int, len(g.nodes))
	var stack []int64

	var visit func(id int64) []int64
	visit = func(id int64) []int64 {
		colors[id] = gray
		stack = append(stack, id)

		for depID := range g.dependencies[id] {
			switch colors[depID] {
			case gray:
				// Back edge: slice the cycle out of the current path.
				start := 0
				for i, sid := range stack {
					if sid == depID {
						start = i
						break
					}
				}
				cycle := append([]int64{}, stack[start:]...)
				return append(cycle, depID)
			case white:
				if cycle := visit(depID); cycle != nil {
					return cycle
				}
			}
		}

		colors[id] = black
		stack = stack[:len(stack)-1]
		return nil
	}

	for id := range g.nodes {
		if colors[id] == white {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// ReadyTasks returns the IDs of tasks whose full dependency set is completed.
// When excludeCompleted is true, tasks already completed are omitted. The
// result is sorted so repeated calls against unchanged state are identical.
func (g *DependencyGraph) ReadyTasks(excludeCompleted bool) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []int64
	for id := range g.nodes {
		if excludeCompleted && g.completed[id] {
			continue
		}
		if g.depsSatisfiedLocked(id) {
			ready = append(ready, id)
		}
	}

	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
	return ready
}

// depsSatisfiedLocked reports whether every dependency of id is completed.
func (g *DependencyGraph) depsSatisfiedLocked(id int64) bool {
	for depID := range g.dependencies[id] {
		if !g.completed[depID] {
			return false
		}
	}
	return true
}

// MarkComplete adds taskID to the completed set and returns the dependents
// whose full dependency sets are now satisfied. This is the sole mechanism by
// which new work becomes eligible.
func (g *DependencyGraph) MarkComplete(taskID int64) []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.completed[taskID] = true

	var unblocked []int64
	for depID := range g.dependents[taskID] {
		if g.depsSatisfiedLocked(depID) {
			unblocked = append(unblocked, depID)
		}
	}

	sort.Slice(unblocked, func(i, j int) bool { return unblocked[i] < unblocked[j] })
	g.debugLog("[graph.MarkComplete] task %d completion unblocked %d tasks: %v", taskID, len(unblocked), unblocked)
	return unblocked
}

// IsComplete returns true if the task has been marked complete.
func (g *DependencyGraph) IsComplete(taskID int64) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.completed[taskID]
}

// AllComplete returns true once every task in the graph is marked complete.
func (g *DependencyGraph) AllComplete() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for id := range g.nodes {
		if !g.completed[id] {
			return false
		}
	}
	return true
}

// BlockedTasks returns, for every task that is neither completed nor ready,
// the subset of its dependencies that are not yet complete. An empty result
// means nothing is waiting on an unmet dependency.
func (g *DependencyGraph) BlockedTasks() map[int64][]int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	blocked := make(map[int64][]int64)
	for id := range g.nodes {
		if g.completed[id] {
			continue
		}
		var incomplete []int64
		for depID := range g.dependencies[id] {
			if !g.completed[depID] {
				incomplete = append(incomplete, depID)
			}
		}
		if len(incomplete) > 0 {
			sort.Slice(incomplete, func(i, j int) bool { return incomplete[i] < incomplete[j] })
			blocked[id] = incomplete
		}
	}
	return blocked
}

// Task returns the task for a given ID, or nil if not found.
func (g *DependencyGraph) Task(taskID int64) *models.Task {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[taskID]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs of tasks the given task depends on, sorted.
func (g *DependencyGraph) Dependencies(taskID int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	deps := make([]int64, 0, len(g.dependencies[taskID]))
	for depID := range g.dependencies[taskID] {
		deps = append(deps, depID)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	return deps
}

// Dependents returns the IDs of tasks that depend on the given task, sorted.
func (g *DependencyGraph) Dependents(taskID int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	deps := make([]int64, 0, len(g.dependents[taskID]))
	for depID := range g.dependents[taskID] {
		deps = append(deps, depID)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	return deps
}

// TopologicalSort returns task IDs ordered so that every task follows all of
// its dependencies. Uses Kahn's algorithm. Returns an error if the graph
// contains a cycle.
func (g *DependencyGraph) TopologicalSort() ([]int64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	inDegree := make(map[int64]int, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = len(g.dependencies[id])
	}

	var queue []int64
	for id, d := range inDegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	sort.Slice(queue, func(i, j int) bool { return queue[i] < queue[j] })

	result := make([]int64, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, id)

		var freed []int64
		for depID := range g.dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				freed = append(freed, depID)
			}
		}
		sort.Slice(freed, func(i, j int) bool { return freed[i] < freed[j] })
		queue = append(queue, freed...)
	}

	if len(result) != len(g.nodes) {
		if cycle := g.findCycleLocked(); cycle != nil {
			return nil, &CycleError{Cycle: cycle}
		}
		return nil, ErrCycleDetected
	}
	return result, nil
}

// DependencyDepth returns the length of the longest dependency chain below
// the given task: 0 for no dependencies, N for N levels deep.
func (g *DependencyGraph) DependencyDepth(taskID int64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.depthLocked(taskID, make(map[int64]bool))
}

func (g *DependencyGraph) depthLocked(taskID int64, seen map[int64]bool) int {
	if seen[taskID] {
		return 0
	}
	seen[taskID] = true

	max := 0
	for depID := range g.dependencies[taskID] {
		if d := 1 + g.depthLocked(depID, seen); d > max {
			max = d
		}
	}
	return max
}
