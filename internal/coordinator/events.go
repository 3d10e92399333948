package coordinator

import "time"

// EventType represents the type of coordination event.
type EventType string

const (
	// EventTaskDispatched indicates a task was handed to an agent.
	EventTaskDispatched EventType = "task_dispatched"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskRetried indicates a task attempt failed and will be retried.
	EventTaskRetried EventType = "task_retried"
	// EventTaskFailed indicates a task exhausted its retry budget.
	EventTaskFailed EventType = "task_failed"
	// EventTaskGated indicates a task was held back by a pending SYNC blocker.
	EventTaskGated EventType = "task_gated"
	// EventRunCompleted indicates the run finished with no work remaining.
	EventRunCompleted EventType = "run_completed"
	// EventRunDeadlocked indicates the run terminated because no progress
	// was possible.
	EventRunDeadlocked EventType = "run_deadlocked"
)

// Event is emitted by the coordinator as the run progresses. Delivery is
// best-effort: events are dropped rather than blocking the loop.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID int64
	// AgentID is the ID of the related agent, if applicable.
	AgentID string
	// Message provides additional context about the event.
	Message string
	// Err contains error details for failure events.
	Err error
	// Unblocked lists task IDs newly eligible after a completion.
	Unblocked []int64
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
