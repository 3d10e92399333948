// Package pool manages a set of reusable worker agents keyed by type.
package pool

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgeworks/conductor/internal/agent"
	"github.com/forgeworks/conductor/pkg/models"
)

// Pool lazily creates worker agents by type and reuses idle ones. Executor
// instances are built by the injected factory the first time an agent of a
// type is needed.
type Pool struct {
	mu sync.RWMutex
	// factory builds executor instances per agent type.
	factory agent.ExecutorFactory
	// agents maps agent ID to its record.
	agents map[string]*models.Agent
	// instances maps agent ID to its executor.
	instances map[string]agent.Executor
	// idleByType maps agent type to the IDs of idle agents of that type.
	idleByType map[string][]string
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates an empty pool backed by the given executor factory.
func New(factory agent.ExecutorFactory) *Pool {
	return &Pool{
		factory:    factory,
		agents:     make(map[string]*models.Agent),
		instances:  make(map[string]agent.Executor),
		idleByType: make(map[string][]string),
		debugLog:   func(format string, args ...interface{}) {},
	}
}

// SetDebugLog sets the debug logging function.
func (p *Pool) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		p.debugLog = fn
	}
}

// GetOrCreateAgent returns an idle agent of the given type, creating one if
// none is available.
func (p *Pool) GetOrCreateAgent(agentType string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if idle := p.idleByType[agentType]; len(idle) > 0 {
		id := idle[len(idle)-1]
		p.idleByType[agentType] = idle[:len(idle)-1]
		p.debugLog("[pool] reusing idle agent %s", id)
		return id, nil
	}

	inst, err := p.factory.NewExecutor(agentType)
	if err != nil {
		return "", fmt.Errorf("create %s executor: %w", agentType, err)
	}

	id := fmt.Sprintf("%s-%s", agentType, uuid.New().String()[:8])
	p.agents[id] = &models.Agent{
		ID:        id,
		Type:      agentType,
		Status:    models.AgentStatusIdle,
		CreatedAt: time.Now(),
	}
	p.instances[id] = inst
	p.debugLog("[pool] created agent %s", id)
	return id, nil
}

// MarkBusy records that an agent has been assigned a task.
func (p *Pool) MarkBusy(agentID string, taskID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.agents[agentID]
	if !ok {
		return fmt.Errorf("unknown agent %s", agentID)
	}
	a.Status = models.AgentStatusBusy
	a.TaskID = taskID
	p.removeFromIdleLocked(agentID, a.Type)
	return nil
}

// MarkIdle returns an agent to the idle set after its task finishes.
func (p *Pool) MarkIdle(agentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	a, ok := p.agents[agentID]
	if !ok {
		return fmt.Errorf("unknown agent %s", agentID)
	}
	if a.Status == models.AgentStatusBusy {
		a.TasksCompleted++
	}
	a.Status = models.AgentStatusIdle
	a.TaskID = 0
	p.idleByType[a.Type] = append(p.idleByType[a.Type], agentID)
	return nil
}

// GetInstance returns the executor for an agent, or nil if unknown.
func (p *Pool) GetInstance(agentID string) agent.Executor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.instances[agentID]
}

// GetStatus returns a snapshot of every agent in the pool.
func (p *Pool) GetStatus() map[string]models.Agent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := make(map[string]models.Agent, len(p.agents))
	for id, a := range p.agents {
		status[id] = *a
	}
	return status
}

// RetireAgent removes an agent from the pool, closing its executor if it
// holds resources.
func (p *Pool) RetireAgent(agentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.retireLocked(agentID)
}

func (p *Pool) retireLocked(agentID string) error {
	a, ok := p.agents[agentID]
	if !ok {
		return fmt.Errorf("unknown agent %s", agentID)
	}

	a.Status = models.AgentStatusRetired
	p.removeFromIdleLocked(agentID, a.Type)

	inst := p.instances[agentID]
	delete(p.agents, agentID)
	delete(p.instances, agentID)

	if closer, ok := inst.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("close executor for %s: %w", agentID, err)
		}
	}
	return nil
}

// RetireAll retires every agent regardless of state. Best-effort: individual
// failures are logged and skipped, never returned. Used during emergency
// shutdown.
func (p *Pool) RetireAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id := range p.agents {
		if err := p.retireLocked(id); err != nil {
			p.debugLog("[pool] retire %s: %v", id, err)
		}
	}
}

// Count returns the number of agents currently in the pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.agents)
}

// removeFromIdleLocked drops an agent ID from its type's idle list.
func (p *Pool) removeFromIdleLocked(agentID, agentType string) {
	idle := p.idleByType[agentType]
	for i, id := range idle {
		if id == agentID {
			p.idleByType[agentType] = append(idle[:i], idle[i+1:]...)
			return
		}
	}
}
