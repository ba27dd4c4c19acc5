package storage

import (
	"context"
	"sync"

	"factory/internal/models"
)

// Memory implements all three storage tiers in process memory. It backs tests
// and local runs; production deployments point the instance and persistent
// tiers at Postgres instead.
type Memory struct {
	mu sync.RWMutex

	states  map[string]models.FactoryState
	records map[string][]models.DeploymentRecord
	salts   map[string]map[models.Salt]bool
	windows map[string]map[uint32]uint32

	// windowRetention bounds how many window keys are kept per factory before
	// stale ones are evicted; the temporary tier models host-side expiry
	// explicitly rather than growing without bound.
	windowRetention uint32
}

// NewMemory creates an in-memory store for all tiers
func NewMemory() *Memory {
	return &Memory{
		states:          make(map[string]models.FactoryState),
		records:         make(map[string][]models.DeploymentRecord),
		salts:           make(map[string]map[models.Salt]bool),
		windows:         make(map[string]map[uint32]uint32),
		windowRetention: 16,
	}
}

// GetState loads the factory state snapshot
func (m *Memory) GetState(ctx context.Context, factory string) (models.FactoryState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[factory]
	if !ok {
		return models.FactoryState{}, false, nil
	}
	return state.Clone(), true, nil
}

// PutState overwrites the factory state snapshot
func (m *Memory) PutState(ctx context.Context, factory string, state models.FactoryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states[factory] = state.Clone()
	return nil
}

// AppendRecord appends one deployment record to the registry
func (m *Memory) AppendRecord(ctx context.Context, factory string, rec models.DeploymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[factory] = append(m.records[factory], rec)
	return nil
}

// Records returns the registry in append order
func (m *Memory) Records(ctx context.Context, factory string) ([]models.DeploymentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.DeploymentRecord, len(m.records[factory]))
	copy(out, m.records[factory])
	return out, nil
}

// HasSalt reports whether the salt was already consumed
func (m *Memory) HasSalt(ctx context.Context, factory string, salt models.Salt) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.salts[factory][salt], nil
}

// MarkSalt records a consumed salt; membership is never reset
func (m *Memory) MarkSalt(ctx context.Context, factory string, salt models.Salt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.salts[factory] == nil {
		m.salts[factory] = make(map[models.Salt]bool)
	}
	m.salts[factory][salt] = true
	return nil
}

// WindowCount returns the rate counter for a window key
func (m *Memory) WindowCount(ctx context.Context, factory string, window uint32) (uint32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.windows[factory][window], nil
}

// IncrWindow increments the rate counter for a window key and evicts counters
// from windows older than the retention horizon
func (m *Memory) IncrWindow(ctx context.Context, factory string, window uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.windows[factory] == nil {
		m.windows[factory] = make(map[uint32]uint32)
	}
	m.windows[factory][window]++

	// evict expired windows
	for w := range m.windows[factory] {
		if w+m.windowRetention < window {
			delete(m.windows[factory], w)
		}
	}

	return m.windows[factory][window], nil
}
