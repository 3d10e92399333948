package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/forgeworks/conductor/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetTask(t *testing.T) {
	db := openTestDB(t)

	task := &models.Task{
		ProjectID:   1,
		TaskNumber:  "1.1",
		Title:       "Implement login endpoint",
		Description: "POST /login with session cookie",
		DependsOn:   "[2, 3]",
		Priority:    2,
	}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.ID == 0 {
		t.Fatal("expected assigned task ID")
	}

	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title {
		t.Errorf("title = %q, want %q", got.Title, task.Title)
	}
	if got.Status != models.TaskStatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.DependsOn != "[2, 3]" {
		t.Errorf("depends_on = %q, want raw encoding preserved", got.DependsOn)
	}
	if got.TaskNumber != "1.1" {
		t.Errorf("task_number = %q, want 1.1", got.TaskNumber)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetTask(12345); err == nil {
		t.Fatal("expected error for missing task")
	}
}

func TestGetProjectTasks(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.CreateTask(&models.Task{ProjectID: 1, Title: "t"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := db.CreateTask(&models.Task{ProjectID: 2, Title: "other"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, err := db.GetProjectTasks(1)
	if err != nil {
		t.Fatalf("get project tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("expected 3 tasks for project 1, got %d", len(tasks))
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].ID <= tasks[i-1].ID {
			t.Errorf("tasks not ordered by ID: %d after %d", tasks[i].ID, tasks[i-1].ID)
		}
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	db := openTestDB(t)

	task := &models.Task{ProjectID: 1, Title: "t"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("create: %v", err)
	}

	status := models.TaskStatusInProgress
	agent := "backend-a1b2c3d4"
	if err := db.UpdateTask(task.ID, TaskUpdate{Status: &status, AssignedTo: &agent}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := db.GetTask(task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.TaskStatusInProgress {
		t.Errorf("status = %q, want in_progress", got.Status)
	}
	if got.AssignedTo != agent {
		t.Errorf("assigned_to = %q, want %q", got.AssignedTo, agent)
	}
	if got.Title != "t" {
		t.Errorf("partial update clobbered title: %q", got.Title)
	}

	done := models.TaskStatusCompleted
	now := time.Now()
	if err := db.UpdateTask(task.ID, TaskUpdate{Status: &done, CompletedAt: &now}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = db.GetTask(task.ID)
	if got.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
}

func TestUpdateTaskMissing(t *testing.T) {
	db := openTestDB(t)
	status := models.TaskStatusFailed
	if err := db.UpdateTask(999, TaskUpdate{Status: &status}); err == nil {
		t.Fatal("expected error updating missing task")
	}
}

func TestBlockerLifecycle(t *testing.T) {
	db := openTestDB(t)

	b := &models.Blocker{
		TaskID:    1,
		ProjectID: 1,
		Type:      models.BlockerTypeSync,
		Question:  "Which auth provider should the login task target?",
	}
	if err := db.CreateBlocker(b); err != nil {
		t.Fatalf("create blocker: %v", err)
	}
	if b.ID == "" {
		t.Fatal("expected generated blocker ID")
	}

	pending, err := db.ListPendingBlockers(1)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != b.ID {
		t.Fatalf("expected the pending blocker, got %v", pending)
	}
	if !pending[0].Gates() {
		t.Error("pending SYNC blocker should gate")
	}

	if err := db.AnswerBlocker(b.ID, "Use the internal OIDC provider"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	got, err := db.GetBlocker(b.ID)
	if err != nil {
		t.Fatalf("get blocker: %v", err)
	}
	if got.Status != models.BlockerStatusResolved {
		t.Errorf("status = %q, want RESOLVED", got.Status)
	}
	if got.Answer == "" || got.ResolvedAt == nil {
		t.Error("expected answer text and resolved_at to be recorded")
	}

	pending, _ = db.ListPendingBlockers(1)
	if len(pending) != 0 {
		t.Errorf("expected no pending blockers after answer, got %d", len(pending))
	}

	// Answering twice is an error.
	if err := db.AnswerBlocker(b.ID, "again"); err == nil {
		t.Error("expected error answering a resolved blocker")
	}
}

func TestCreateBlockerInvalidType(t *testing.T) {
	db := openTestDB(t)
	err := db.CreateBlocker(&models.Blocker{TaskID: 1, ProjectID: 1, Type: "NOPE"})
	if err == nil {
		t.Fatal("expected error for invalid blocker type")
	}
}

func TestCountBlockersByStatus(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 2; i++ {
		if err := db.CreateBlocker(&models.Blocker{TaskID: int64(i), ProjectID: 1, Type: models.BlockerTypeSync}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	b := &models.Blocker{TaskID: 9, ProjectID: 1, Type: models.BlockerTypeAsync}
	if err := db.CreateBlocker(b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.AnswerBlocker(b.ID, "ok"); err != nil {
		t.Fatalf("answer: %v", err)
	}

	counts, err := db.CountBlockersByStatus(1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[models.BlockerStatusPending] != 2 {
		t.Errorf("pending = %d, want 2", counts[models.BlockerStatusPending])
	}
	if counts[models.BlockerStatusResolved] != 1 {
		t.Errorf("resolved = %d, want 1", counts[models.BlockerStatusResolved])
	}
}
