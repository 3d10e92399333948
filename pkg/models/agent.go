package models

import "time"

// AgentStatus represents the current state of a pooled agent.
type AgentStatus string

const (
	// AgentStatusIdle indicates the agent is available for work.
	AgentStatusIdle AgentStatus = "idle"
	// AgentStatusBusy indicates the agent is executing a task.
	AgentStatusBusy AgentStatus = "busy"
	// AgentStatusRetired indicates the agent has been removed from the pool.
	AgentStatusRetired AgentStatus = "retired"
)

// Valid returns true if the status is a known value.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusIdle, AgentStatusBusy, AgentStatusRetired:
		return true
	default:
		return false
	}
}

// Agent represents a pooled worker instance of a particular type.
type Agent struct {
	// ID is the unique identifier for this agent (e.g. "backend-a1b2c3d4").
	ID string `json:"id"`
	// Type is the worker type this agent was created for.
	Type string `json:"type"`
	// Status is the current state of the agent.
	Status AgentStatus `json:"status"`
	// TaskID is the task the agent is currently executing, if busy.
	TaskID int64 `json:"task_id,omitempty"`
	// CreatedAt is when the agent was created.
	CreatedAt time.Time `json:"created_at"`
	// TasksCompleted counts tasks this agent has finished.
	TasksCompleted int `json:"tasks_completed"`
}
