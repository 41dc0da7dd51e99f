package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Case Manager
//
// Tracks investigations across their lifetime so the API can start a run,
// poll its status, and fetch the final state later. Each case owns its
// InvestigationState exclusively; the manager only guards the case map.
//
// Case lifecycle:
//   running   → pipeline executing
//   completed → final state available
//   failed    → run cancelled or aborted before reaching End

// Case is one tracked investigation.
type Case struct {
	ID        string              `json:"id"`
	Target    string              `json:"target"`
	Status    string              `json:"status"` // "running"/"completed"/"failed"
	State     *InvestigationState `json:"state,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// CaseManager handles CRUD for cases.
type CaseManager struct {
	mu    sync.RWMutex
	cases map[string]*Case
}

// NewCaseManager creates an empty case manager.
func NewCaseManager() *CaseManager {
	return &CaseManager{cases: make(map[string]*Case)}
}

// Open registers a new running case for a target.
func (m *CaseManager) Open(target string) *Case {
	now := time.Now()
	c := &Case{
		ID:        uuid.NewString(),
		Target:    target,
		Status:    "running",
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.cases[c.ID] = c
	m.mu.Unlock()
	return c
}

// Get retrieves a case by ID, or nil.
func (m *CaseManager) Get(id string) *Case {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cases[id]
}

// List returns all known cases.
func (m *CaseManager) List() []*Case {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Case, 0, len(m.cases))
	for _, c := range m.cases {
		out = append(out, c)
	}
	return out
}

// Complete attaches the final state to a case. A run that was cancelled
// before reaching the terminal stage is marked failed but keeps whatever
// partial state it produced.
func (m *CaseManager) Complete(id string, st *InvestigationState, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cases[id]
	if !ok {
		return
	}

	c.State = st
	c.UpdatedAt = time.Now()
	if runErr != nil {
		c.Status = "failed"
	} else {
		c.Status = "completed"
	}
}

// RunAsync executes the pipeline for an open case in the background.
// done, if non-nil, runs after the case is marked complete; callers use
// it for persistence and alerting.
func (m *CaseManager) RunAsync(ctx context.Context, p *Pipeline, c *Case, done func(*InvestigationState, error)) {
	go func() {
		st, err := p.Run(ctx, c.Target)
		m.Complete(c.ID, st, err)
		if done != nil {
			done(st, err)
		}
	}()
}
