package models

import "time"

// BlockerType distinguishes blockers that halt assignment from informational ones.
type BlockerType string

const (
	// BlockerTypeSync halts assignment of the affected task and everything
	// that transitively depends on it until resolved.
	BlockerTypeSync BlockerType = "SYNC"
	// BlockerTypeAsync is informational and never gates assignment.
	BlockerTypeAsync BlockerType = "ASYNC"
)

// Valid returns true if the type is a known value.
func (t BlockerType) Valid() bool {
	return t == BlockerTypeSync || t == BlockerTypeAsync
}

// BlockerStatus represents the lifecycle state of a blocker.
type BlockerStatus string

const (
	// BlockerStatusPending indicates the question is awaiting a human answer.
	BlockerStatusPending BlockerStatus = "PENDING"
	// BlockerStatusResolved indicates the question has been answered.
	BlockerStatusResolved BlockerStatus = "RESOLVED"
	// BlockerStatusExpired indicates the question lapsed without an answer.
	BlockerStatusExpired BlockerStatus = "EXPIRED"
)

// Valid returns true if the status is a known value.
func (s BlockerStatus) Valid() bool {
	switch s {
	case BlockerStatusPending, BlockerStatusResolved, BlockerStatusExpired:
		return true
	default:
		return false
	}
}

// Blocker is a pending question raised against a task. SYNC blockers gate
// task assignment; ASYNC blockers are informational only.
type Blocker struct {
	// ID is the unique identifier for this blocker.
	ID string `json:"id"`
	// TaskID is the task this blocker was raised against.
	TaskID int64 `json:"task_id"`
	// ProjectID identifies the project the task belongs to.
	ProjectID int64 `json:"project_id"`
	// Type is SYNC or ASYNC.
	Type BlockerType `json:"blocker_type"`
	// Status is the lifecycle state of the blocker.
	Status BlockerStatus `json:"status"`
	// Question is the text put to the human.
	Question string `json:"question,omitempty"`
	// Answer is the human's response, once resolved.
	Answer string `json:"answer,omitempty"`
	// CreatedAt is when the blocker was raised.
	CreatedAt time.Time `json:"created_at"`
	// ResolvedAt is when the blocker was answered, if it has been.
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// Gates returns true if this blocker currently prevents assignment.
func (b *Blocker) Gates() bool {
	return b.Type == BlockerTypeSync && b.Status == BlockerStatusPending
}
