package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgeworks/conductor/internal/graph"
	"github.com/forgeworks/conductor/internal/store"
	"github.com/forgeworks/conductor/pkg/models"
)

// completion is posted by a worker goroutine when its execution finishes.
type completion struct {
	taskID  int64
	agentID string
	err     error
}

// run holds the mutable state of a single coordination invocation. Only the
// loop goroutine touches it.
type run struct {
	c         *Coordinator
	projectID int64
	graph     *graph.DependencyGraph

	retryCounts map[int64]int
	// running maps in-flight task IDs to the agent working them.
	running      map[int64]string
	completionCh chan completion
	// lastBlockers is the most recent successfully loaded blocker set,
	// reused when a refresh fails mid-run.
	lastBlockers []*models.Blocker

	iterations int
	stalled    int
	completed  int
	failed     int
	retries    int
	start      time.Time
}

// loop runs coordination iterations until the graph is complete or an abort
// condition fires. Per task, within one run: ready, then dispatched, then
// completed, retry-pending, or terminally failed.
func (r *run) loop(ctx context.Context) (*Summary, error) {
	c := r.c
	for {
		if r.graph.AllComplete() {
			c.logger.Log("[coordinator] all tasks complete after %d iterations", r.iterations)
			c.emit(Event{Type: EventRunCompleted})
			return r.summary(), nil
		}

		r.iterations++
		if r.iterations > c.maxIterations {
			c.logger.Log("[coordinator] watchdog: iteration cap %d exceeded", c.maxIterations)
			r.shutdown()
			return r.summary(), fmt.Errorf("watchdog fired after %d iterations: %w", c.maxIterations, ErrWatchdog)
		}

		gate := r.refreshGate()
		ready := r.readyTasks()

		dispatched := 0
		failedNow := 0
		var gateHeld []int64
		for _, id := range ready {
			if len(r.running) >= c.maxConcurrent {
				break
			}
			if r.retryCounts[id] >= c.maxRetries {
				r.failTask(id)
				failedNow++
				continue
			}
			if !gate.CanAssign(id) {
				gateHeld = append(gateHeld, id)
				c.emit(Event{Type: EventTaskGated, TaskID: id})
				continue
			}
			if err := r.dispatch(ctx, id); err != nil {
				c.logger.Log("[coordinator] dispatch task %d: %v", id, err)
				r.retryCounts[id]++
				r.retries++
				continue
			}
			dispatched++
		}

		if dispatched > 0 || failedNow > 0 {
			r.stalled = 0
		}

		if len(r.running) > 0 {
			select {
			case done := <-r.completionCh:
				r.stalled = 0
				r.handleCompletion(done)
			case <-ctx.Done():
				r.shutdown()
				return r.summary(), r.ctxError(ctx)
			}
			continue
		}

		if failedNow > 0 {
			// MarkComplete on the failed tasks may have made dependents
			// ready; re-evaluate immediately.
			continue
		}

		// Nothing running and nothing dispatched.
		blocked := r.graph.BlockedTasks()
		if len(ready) == 0 && len(blocked) > 0 {
			return r.deadlock(blocked, nil)
		}
		if len(gateHeld) > 0 {
			r.stalled++
			c.logger.Log("[coordinator] stalled iteration %d/%d: tasks %v held by pending blockers",
				r.stalled, c.stallLimit, gateHeld)
			if r.stalled >= c.stallLimit {
				return r.deadlock(blocked, gateHeld)
			}
		}

		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			r.shutdown()
			return r.summary(), r.ctxError(ctx)
		}
	}
}

// readyTasks returns graph-ready tasks that are not already in flight.
func (r *run) readyTasks() []int64 {
	ready := r.graph.ReadyTasks(true)
	if len(r.running) == 0 {
		return ready
	}
	eligible := ready[:0]
	for _, id := range ready {
		if _, inFlight := r.running[id]; !inFlight {
			eligible = append(eligible, id)
		}
	}
	return eligible
}

// refreshGate rebuilds the blocker gate from the store so answers given
// since the last iteration take effect.
func (r *run) refreshGate() *BlockerGate {
	blockers, err := r.c.store.ListPendingBlockers(r.projectID)
	if err != nil {
		r.c.logger.Log("[coordinator] list pending blockers: %v", err)
		blockers = r.lastBlockers
	} else {
		r.lastBlockers = blockers
	}
	return NewBlockerGate(blockers, r.graph.Dependencies)
}

// dispatch hands a task to a pooled agent and launches its execution. The
// worker goroutine reports back on the completion channel, which is buffered
// to maxConcurrent so abandoned workers never block.
func (r *run) dispatch(ctx context.Context, id int64) error {
	c := r.c
	task := r.graph.Task(id)
	if task == nil {
		return fmt.Errorf("task %d not in graph", id)
	}

	agentType := c.classifier.ClassifyAgentType(task)
	agentID, err := c.pool.GetOrCreateAgent(agentType)
	if err != nil {
		return err
	}
	if err := c.pool.MarkBusy(agentID, id); err != nil {
		return err
	}

	status := models.TaskStatusInProgress
	if err := c.store.UpdateTask(id, store.TaskUpdate{Status: &status, AssignedTo: &agentID}); err != nil {
		c.pool.MarkIdle(agentID)
		return fmt.Errorf("persist assignment: %w", err)
	}

	exec := c.pool.GetInstance(agentID)
	if exec == nil {
		c.pool.MarkIdle(agentID)
		return fmt.Errorf("no executor instance for agent %s", agentID)
	}

	r.running[id] = agentID
	c.logger.Log("[coordinator] dispatched task %d (%s) to %s", id, task.Title, agentID)
	c.emit(Event{Type: EventTaskDispatched, TaskID: id, AgentID: agentID})

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.completionCh <- completion{taskID: id, agentID: agentID, err: fmt.Errorf("executor panic: %v", rec)}
			}
		}()
		_, err := exec.Execute(ctx, task)
		r.completionCh <- completion{taskID: id, agentID: agentID, err: err}
	}()
	return nil
}

// handleCompletion processes one finished execution. Failures increment the
// retry counter and leave the task in a non-terminal store status, so it is
// naturally reconsidered as ready next iteration.
func (r *run) handleCompletion(done completion) {
	c := r.c
	delete(r.running, done.taskID)
	if err := c.pool.MarkIdle(done.agentID); err != nil {
		c.logger.Log("[coordinator] mark agent %s idle: %v", done.agentID, err)
	}

	if done.err != nil {
		r.retryCounts[done.taskID]++
		r.retries++
		c.logger.Log("[coordinator] task %d attempt %d failed: %v",
			done.taskID, r.retryCounts[done.taskID], done.err)
		c.emit(Event{Type: EventTaskRetried, TaskID: done.taskID, AgentID: done.agentID, Err: done.err})
		return
	}

	now := time.Now()
	status := models.TaskStatusCompleted
	if err := c.store.UpdateTask(done.taskID, store.TaskUpdate{Status: &status, CompletedAt: &now}); err != nil {
		c.logger.Log("[coordinator] persist completion for task %d: %v", done.taskID, err)
	}
	r.completed++
	unblocked := r.graph.MarkComplete(done.taskID)
	if len(unblocked) > 0 {
		c.logger.Log("[coordinator] task %d completed, unblocked %v", done.taskID, unblocked)
	} else {
		c.logger.Log("[coordinator] task %d completed", done.taskID)
	}
	c.emit(Event{Type: EventTaskCompleted, TaskID: done.taskID, AgentID: done.agentID, Unblocked: unblocked})
}

// failTask marks a retry-exhausted task as permanently failed. The task is
// still marked complete in the graph so dependents are unblocked; downstream
// work therefore proceeds past a failed prerequisite.
func (r *run) failTask(id int64) {
	c := r.c
	status := models.TaskStatusFailed
	msg := fmt.Sprintf("retries exhausted after %d attempts", r.retryCounts[id])
	if err := c.store.UpdateTask(id, store.TaskUpdate{Status: &status, Error: &msg}); err != nil {
		c.logger.Log("[coordinator] persist failure for task %d: %v", id, err)
	}
	r.failed++
	unblocked := r.graph.MarkComplete(id)
	c.logger.Log("[coordinator] task %d failed permanently, unblocked %v", id, unblocked)
	c.emit(Event{Type: EventTaskFailed, TaskID: id, Message: msg, Unblocked: unblocked})
}

// deadlock terminates the run reporting tasks that can never become ready.
func (r *run) deadlock(blocked map[int64][]int64, gateHeld []int64) (*Summary, error) {
	derr := &DeadlockError{Blocked: blocked, GateHeld: gateHeld}
	r.c.logger.Log("[coordinator] %v", derr)
	r.c.emit(Event{Type: EventRunDeadlocked, Err: derr})
	s := r.summary()
	s.Deadlocked = true
	s.Blocked = blocked
	return s, derr
}

// shutdown retires every pooled agent and abandons in-flight executions.
// Best-effort: retirement failures are logged inside the pool and skipped.
func (r *run) shutdown() {
	r.c.logger.Log("[coordinator] emergency shutdown: retiring %d agents, abandoning %d in-flight tasks",
		r.c.pool.Count(), len(r.running))
	r.c.pool.RetireAll()
}

func (r *run) ctxError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("run exceeded %s deadline: %w", r.c.timeout, ErrTimeout)
	}
	return ctx.Err()
}

func (r *run) summary() *Summary {
	return &Summary{
		TotalTasks: r.graph.Size(),
		Completed:  r.completed,
		Failed:     r.failed,
		Retries:    r.retries,
		Iterations: r.iterations,
		Elapsed:    time.Since(r.start),
	}
}
