package store

import (
	"io"
	"time"

	"github.com/forgeworks/conductor/pkg/models"
)

// TaskUpdate describes a partial update to a task. Nil fields are left
// untouched.
type TaskUpdate struct {
	Status      *models.TaskStatus
	AssignedTo  *string
	Error       *string
	CompletedAt *time.Time
}

// TaskStore handles task-related persistence operations.
type TaskStore interface {
	CreateTask(t *models.Task) error
	GetTask(id int64) (*models.Task, error)
	GetProjectTasks(projectID int64) ([]*models.Task, error)
	UpdateTask(id int64, upd TaskUpdate) error
}

// BlockerStore handles blocker-related persistence operations.
type BlockerStore interface {
	CreateBlocker(b *models.Blocker) error
	GetBlocker(id string) (*models.Blocker, error)
	ListPendingBlockers(projectID int64) ([]*models.Blocker, error)
	AnswerBlocker(id, answer string) error
	CountBlockersByStatus(projectID int64) (map[models.BlockerStatus]int, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// Store defines the interface for state persistence. It allows the
// coordinator to work with any backend without depending on the concrete
// SQLite implementation. It composes focused sub-interfaces for modularity.
type Store interface {
	io.Closer
	Migrator
	TaskStore
	BlockerStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ Store        = (*DB)(nil)
	_ Migrator     = (*DB)(nil)
	_ TaskStore    = (*DB)(nil)
	_ BlockerStore = (*DB)(nil)
)
