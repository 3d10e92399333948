// Package agent defines the executor contract implemented per worker type
// and the Claude-backed executor used in production.
package agent

import (
	"context"

	"github.com/forgeworks/conductor/pkg/models"
)

// Result is the outcome of a single task execution.
type Result struct {
	// Output is the worker's final output for the task.
	Output string
	// TokensUsed is the total token count consumed, if the executor tracks it.
	TokensUsed int64
}

// Executor runs a single task to completion. Implementations receive the full
// task record. A non-nil error marks the attempt as failed; the coordinator
// applies its retry policy.
type Executor interface {
	Execute(ctx context.Context, task *models.Task) (*Result, error)
}

// ExecutorFactory creates executors for a given worker type. The agent pool
// calls this lazily the first time a type is needed.
type ExecutorFactory interface {
	NewExecutor(agentType string) (Executor, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, task *models.Task) (*Result, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, task *models.Task) (*Result, error) {
	return f(ctx, task)
}

// FactoryFunc adapts a function to the ExecutorFactory interface.
type FactoryFunc func(agentType string) (Executor, error)

// NewExecutor calls f.
func (f FactoryFunc) NewExecutor(agentType string) (Executor, error) {
	return f(agentType)
}
