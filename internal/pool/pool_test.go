package pool

import (
	"context"
	"strings"
	"testing"

	"github.com/forgeworks/conductor/internal/agent"
	"github.com/forgeworks/conductor/pkg/models"
)

func noopFactory() agent.ExecutorFactory {
	return agent.FactoryFunc(func(agentType string) (agent.Executor, error) {
		return agent.ExecutorFunc(func(ctx context.Context, task *models.Task) (*agent.Result, error) {
			return &agent.Result{Output: "done"}, nil
		}), nil
	})
}

func TestGetOrCreateAgent(t *testing.T) {
	p := New(noopFactory())

	id, err := p.GetOrCreateAgent("backend")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(id, "backend-") {
		t.Errorf("expected backend- prefix, got %q", id)
	}
	if p.Count() != 1 {
		t.Errorf("expected 1 agent, got %d", p.Count())
	}
	if p.GetInstance(id) == nil {
		t.Error("expected executor instance for created agent")
	}
}

func TestIdleAgentIsReused(t *testing.T) {
	p := New(noopFactory())

	id1, _ := p.GetOrCreateAgent("backend")
	if err := p.MarkBusy(id1, 1); err != nil {
		t.Fatalf("mark busy: %v", err)
	}

	// A busy agent must not be reused.
	id2, _ := p.GetOrCreateAgent("backend")
	if id2 == id1 {
		t.Fatal("busy agent was handed out again")
	}

	if err := p.MarkIdle(id1); err != nil {
		t.Fatalf("mark idle: %v", err)
	}
	id3, _ := p.GetOrCreateAgent("backend")
	if id3 != id1 {
		t.Errorf("expected idle agent %s to be reused, got %s", id1, id3)
	}
	if p.Count() != 2 {
		t.Errorf("expected 2 agents, got %d", p.Count())
	}
}

func TestAgentTypesAreSeparate(t *testing.T) {
	p := New(noopFactory())

	backend, _ := p.GetOrCreateAgent("backend")
	p.MarkIdle(backend)

	frontend, _ := p.GetOrCreateAgent("frontend")
	if frontend == backend {
		t.Error("idle backend agent must not serve a frontend request")
	}
}

func TestMarkBusyUnknownAgent(t *testing.T) {
	p := New(noopFactory())
	if err := p.MarkBusy("missing", 1); err == nil {
		t.Fatal("expected error for unknown agent")
	}
	if err := p.MarkIdle("missing"); err == nil {
		t.Fatal("expected error for unknown agent")
	}
}

func TestGetStatus(t *testing.T) {
	p := New(noopFactory())

	id, _ := p.GetOrCreateAgent("test")
	p.MarkBusy(id, 7)

	status := p.GetStatus()
	a, ok := status[id]
	if !ok {
		t.Fatalf("expected agent %s in status", id)
	}
	if a.Status != models.AgentStatusBusy || a.TaskID != 7 {
		t.Errorf("status = %+v, want busy on task 7", a)
	}
}

func TestTasksCompletedCount(t *testing.T) {
	p := New(noopFactory())

	id, _ := p.GetOrCreateAgent("backend")
	p.MarkBusy(id, 1)
	p.MarkIdle(id)
	p.MarkBusy(id, 2)
	p.MarkIdle(id)

	if got := p.GetStatus()[id].TasksCompleted; got != 2 {
		t.Errorf("tasks completed = %d, want 2", got)
	}
}

func TestRetireAgent(t *testing.T) {
	p := New(noopFactory())

	id, _ := p.GetOrCreateAgent("backend")
	if err := p.RetireAgent(id); err != nil {
		t.Fatalf("retire: %v", err)
	}
	if p.Count() != 0 {
		t.Errorf("expected empty pool, got %d", p.Count())
	}
	if p.GetInstance(id) != nil {
		t.Error("expected instance to be removed")
	}

	// A retired agent is never reused.
	id2, _ := p.GetOrCreateAgent("backend")
	if id2 == id {
		t.Error("retired agent was handed out again")
	}
}

func TestRetireAllIsBestEffort(t *testing.T) {
	p := New(noopFactory())

	for i := 0; i < 3; i++ {
		id, _ := p.GetOrCreateAgent("backend")
		if i == 0 {
			p.MarkBusy(id, int64(i+1))
		}
	}

	p.RetireAll()
	if p.Count() != 0 {
		t.Errorf("expected all agents retired, got %d", p.Count())
	}
}
