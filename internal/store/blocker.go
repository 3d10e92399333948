package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forgeworks/conductor/pkg/models"
)

// CreateBlocker inserts a new blocker. An ID is generated if not provided;
// the status defaults to PENDING.
func (db *DB) CreateBlocker(b *models.Blocker) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if b.ID == "" {
		b.ID = uuid.New().String()[:8]
	}
	if b.Status == "" {
		b.Status = models.BlockerStatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if !b.Type.Valid() {
		return fmt.Errorf("invalid blocker type %q", b.Type)
	}

	_, err := db.conn.Exec(`
		INSERT INTO blockers (id, task_id, project_id, blocker_type, status,
			question, answer, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.TaskID, b.ProjectID, string(b.Type), string(b.Status),
		b.Question, b.Answer, formatTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert blocker: %w", err)
	}
	return nil
}

// GetBlocker retrieves a blocker by ID.
func (db *DB) GetBlocker(id string) (*models.Blocker, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(blockerSelect+" WHERE id = ?", id)
	b, err := scanBlocker(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("blocker %s not found", id)
	}
	return b, err
}

// ListPendingBlockers returns every PENDING blocker for the project, both
// SYNC and ASYNC. The blocker gate filters for the SYNC ones.
func (db *DB) ListPendingBlockers(projectID int64) ([]*models.Blocker, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(blockerSelect+" WHERE project_id = ? AND status = ? ORDER BY created_at",
		projectID, string(models.BlockerStatusPending))
	if err != nil {
		return nil, fmt.Errorf("query pending blockers: %w", err)
	}
	defer rows.Close()

	var blockers []*models.Blocker
	for rows.Next() {
		b, err := scanBlocker(rows)
		if err != nil {
			return nil, err
		}
		blockers = append(blockers, b)
	}
	return blockers, rows.Err()
}

// AnswerBlocker records a human answer and transitions the blocker from
// PENDING to RESOLVED. Answering a non-pending blocker is an error.
func (db *DB) AnswerBlocker(id, answer string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	res, err := db.conn.Exec(`
		UPDATE blockers SET status = ?, answer = ?, resolved_at = ?
		WHERE id = ? AND status = ?
	`, string(models.BlockerStatusResolved), answer, formatTime(time.Now()),
		id, string(models.BlockerStatusPending))
	if err != nil {
		return fmt.Errorf("answer blocker %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("answer blocker %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("blocker %s is not pending", id)
	}
	return nil
}

// CountBlockersByStatus returns blocker counts per status for the project.
func (db *DB) CountBlockersByStatus(projectID int64) (map[models.BlockerStatus]int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT status, COUNT(*) FROM blockers WHERE project_id = ? GROUP BY status
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("count blockers: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.BlockerStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.BlockerStatus(status)] = n
	}
	return counts, rows.Err()
}

const blockerSelect = `
	SELECT id, task_id, project_id, blocker_type, status, question, answer,
		created_at, resolved_at
	FROM blockers`

func scanBlocker(row rowScanner) (*models.Blocker, error) {
	var b models.Blocker
	var question, answer sql.NullString
	var createdAt string
	var resolvedAt sql.NullString

	err := row.Scan(&b.ID, &b.TaskID, &b.ProjectID, (*string)(&b.Type),
		(*string)(&b.Status), &question, &answer, &createdAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	b.Question = question.String
	b.Answer = answer.String
	if ts, err := parseTime(createdAt); err == nil {
		b.CreatedAt = ts
	}
	b.ResolvedAt = parseNullableTime(resolvedAt)

	return &b, nil
}
