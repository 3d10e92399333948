// Package coordinator drives multi-agent execution of a project's task
// graph. A single goroutine owns the graph and all store writes; dispatched
// task executions run concurrently and report back over a completion
// channel, so the loop itself needs no locking.
package coordinator

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/forgeworks/conductor/internal/graph"
	"github.com/forgeworks/conductor/internal/pool"
	"github.com/forgeworks/conductor/internal/store"
	"github.com/forgeworks/conductor/pkg/models"
)

// Default coordination limits.
const (
	DefaultMaxConcurrent = 3
	DefaultMaxRetries    = 3
	DefaultTimeout       = 300 * time.Second
	DefaultPollInterval  = 200 * time.Millisecond
	// DefaultMaxIterations bounds runaway loops caused by logic errors,
	// independent of the wall-clock timeout.
	DefaultMaxIterations = 1000
	// DefaultStallLimit is how many consecutive iterations may pass with
	// ready tasks held by unanswered blockers and nothing running before
	// the run is declared deadlocked.
	DefaultStallLimit = 25
)

// Store is the persistence surface the coordinator needs. *store.DB
// satisfies it.
type Store interface {
	GetProjectTasks(projectID int64) ([]*models.Task, error)
	UpdateTask(id int64, upd store.TaskUpdate) error
	ListPendingBlockers(projectID int64) ([]*models.Blocker, error)
}

// Summary reports the outcome of a coordination run.
type Summary struct {
	// TotalTasks is the number of tasks in the project graph.
	TotalTasks int
	// Completed is the number of tasks that finished successfully.
	Completed int
	// Failed is the number of tasks that exhausted their retry budget.
	Failed int
	// Retries is the total number of failed attempts across all tasks.
	Retries int
	// Iterations is the number of loop iterations the run took.
	Iterations int
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
	// Deadlocked is true if the run terminated without progress being
	// possible. Blocked holds the unmet dependencies in that case.
	Deadlocked bool
	Blocked    map[int64][]int64
}

// Coordinator schedules a project's tasks across a pool of agents,
// respecting dependency order, blocker gates, and concurrency and retry
// limits. A Coordinator is reusable; all per-run state is scoped to Run.
type Coordinator struct {
	store      Store
	pool       *pool.Pool
	classifier Classifier
	logger     *DebugLogger

	maxConcurrent int
	maxRetries    int
	timeout       time.Duration
	pollInterval  time.Duration
	maxIterations int
	stallLimit    int

	events        chan Event
	droppedEvents int64
}

// New creates a coordinator over the given store and agent pool.
func New(st Store, p *pool.Pool, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:         st,
		pool:          p,
		classifier:    NewKeywordClassifier(),
		logger:        NopLogger(),
		maxConcurrent: DefaultMaxConcurrent,
		maxRetries:    DefaultMaxRetries,
		timeout:       DefaultTimeout,
		pollInterval:  DefaultPollInterval,
		maxIterations: DefaultMaxIterations,
		stallLimit:    DefaultStallLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the event channel, or nil if WithEventBuffer was not set.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// DroppedEvents returns how many events were discarded because the event
// channel was full.
func (c *Coordinator) DroppedEvents() int64 {
	return atomic.LoadInt64(&c.droppedEvents)
}

// emit delivers an event without blocking the loop.
func (c *Coordinator) emit(e Event) {
	if c.events == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case c.events <- e:
	default:
		atomic.AddInt64(&c.droppedEvents, 1)
	}
}

// Run executes all tasks of a project to completion or abort. It loads the
// project's tasks, builds the dependency graph (rejecting cycles before any
// dispatch), then drives the coordination loop under the configured
// wall-clock timeout.
func (c *Coordinator) Run(ctx context.Context, projectID int64) (*Summary, error) {
	start := time.Now()

	tasks, err := c.store.GetProjectTasks(projectID)
	if err != nil {
		return nil, fmt.Errorf("load tasks for project %d: %w", projectID, err)
	}

	g := graph.New()
	g.SetDebugLog(c.logger.Log)
	if err := g.Build(tasks); err != nil {
		return nil, fmt.Errorf("build dependency graph: %w", err)
	}

	c.pool.SetDebugLog(c.logger.Log)
	c.logger.Log("[coordinator] run start: project=%d tasks=%d maxConcurrent=%d maxRetries=%d timeout=%s",
		projectID, g.Size(), c.maxConcurrent, c.maxRetries, c.timeout)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	r := &run{
		c:            c,
		projectID:    projectID,
		graph:        g,
		retryCounts:  make(map[int64]int),
		running:      make(map[int64]string),
		completionCh: make(chan completion, c.maxConcurrent),
		start:        start,
	}

	summary, err := r.loop(ctx)
	summary.Elapsed = time.Since(start)
	c.logger.Log("[coordinator] run end: completed=%d failed=%d retries=%d iterations=%d elapsed=%s err=%v",
		summary.Completed, summary.Failed, summary.Retries, summary.Iterations, summary.Elapsed, err)
	return summary, err
}

// RunCoordination is a convenience wrapper that runs a project's tasks with
// explicit limits.
func RunCoordination(ctx context.Context, st Store, p *pool.Pool, projectID int64, maxRetries, maxConcurrent int, timeout time.Duration) (*Summary, error) {
	c := New(st, p,
		WithMaxRetries(maxRetries),
		WithMaxConcurrent(maxConcurrent),
		WithTimeout(timeout),
	)
	return c.Run(ctx, projectID)
}
