package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/forgeworks/conductor/pkg/models"
)

// CreateTask inserts a new task and fills in its assigned ID.
func (db *DB) CreateTask(t *models.Task) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if t.Status == "" {
		t.Status = models.TaskStatusPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	res, err := db.conn.Exec(`
		INSERT INTO tasks (project_id, task_number, parent_id, title, description,
			status, priority, can_parallelize, workflow_step, assigned_to,
			depends_on, created_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ProjectID, t.TaskNumber, t.ParentID, t.Title, t.Description,
		string(t.Status), t.Priority, boolToInt(t.CanParallelize), t.WorkflowStep,
		t.AssignedTo, t.DependsOn, formatTime(t.CreatedAt), t.Error)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("task insert id: %w", err)
	}
	t.ID = id
	return nil
}

// GetTask retrieves a task by ID.
func (db *DB) GetTask(id int64) (*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(taskSelect+" WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task %d not found", id)
	}
	return t, err
}

// GetProjectTasks returns every task in the project, ordered by ID. This is
// the snapshot the dependency graph is built from.
func (db *DB) GetProjectTasks(projectID int64) ([]*models.Task, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(taskSelect+" WHERE project_id = ? ORDER BY id", projectID)
	if err != nil {
		return nil, fmt.Errorf("query project tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies a partial update to a task. Only non-nil fields of upd
// are written.
func (db *DB) UpdateTask(id int64, upd TaskUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var sets []string
	var args []any

	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.AssignedTo != nil {
		sets = append(sets, "assigned_to = ?")
		args = append(args, *upd.AssignedTo)
	}
	if upd.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *upd.Error)
	}
	if upd.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, formatTime(*upd.CompletedAt))
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := db.conn.Exec("UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("task %d not found", id)
	}
	return nil
}

const taskSelect = `
	SELECT id, project_id, task_number, parent_id, title, description, status,
		priority, can_parallelize, workflow_step, assigned_to, depends_on,
		created_at, completed_at, error
	FROM tasks`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var t models.Task
	var taskNumber, description, workflowStep, assignedTo, dependsOn, errMsg sql.NullString
	var parentID sql.NullInt64
	var canParallelize int
	var createdAt string
	var completedAt sql.NullString

	err := row.Scan(&t.ID, &t.ProjectID, &taskNumber, &parentID, &t.Title,
		&description, (*string)(&t.Status), &t.Priority, &canParallelize,
		&workflowStep, &assignedTo, &dependsOn, &createdAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	t.TaskNumber = taskNumber.String
	t.ParentID = parentID.Int64
	t.Description = description.String
	t.CanParallelize = canParallelize != 0
	t.WorkflowStep = workflowStep.String
	t.AssignedTo = assignedTo.String
	t.DependsOn = dependsOn.String
	t.Error = errMsg.String

	if ts, err := parseTime(createdAt); err == nil {
		t.CreatedAt = ts
	}
	t.CompletedAt = parseNullableTime(completedAt)

	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
