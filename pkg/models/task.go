package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAssigned indicates the task has been handed to an agent but
	// execution has not begun.
	TaskStatusAssigned TaskStatus = "assigned"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task completed successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task exhausted its retry budget.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusBlocked indicates the task cannot proceed.
	TaskStatusBlocked TaskStatus = "blocked"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status will not change for the rest of a run.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task represents a unit of work in the system. Executors always receive the
// full record, never a partial projection of it.
type Task struct {
	// ID is the unique identifier for this task.
	ID int64 `json:"id"`
	// ProjectID identifies the project this task belongs to.
	ProjectID int64 `json:"project_id"`
	// TaskNumber is the human-readable code for the task (e.g. "2.1.1").
	TaskNumber string `json:"task_number,omitempty"`
	// ParentID is the ID of the parent task, if any.
	ParentID int64 `json:"parent_id,omitempty"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// Description provides detailed information about the task.
	Description string `json:"description,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// Priority orders tasks for display purposes only.
	Priority int `json:"priority,omitempty"`
	// CanParallelize records whether the planner considered this task safe to
	// run alongside others. Informational; scheduling is driven by DependsOn.
	CanParallelize bool `json:"can_parallelize,omitempty"`
	// WorkflowStep is the plan phase this task belongs to.
	WorkflowStep string `json:"workflow_step,omitempty"`
	// AssignedTo is the ID of the agent working on this task.
	AssignedTo string `json:"assigned_to,omitempty"`
	// DependsOn is the raw dependency encoding as stored: empty, a JSON array
	// of IDs ("[3, 5]"), a comma-separated ID list, or a single task number.
	// The dependency graph parses it once per run.
	DependsOn string `json:"depends_on,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task was completed, if applicable.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Error contains the error message if the task failed.
	Error string `json:"error,omitempty"`
}
