package machines

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// MEMORY REPOSITORY - In-memory implementation (tests/dev)
// =============================================================================

// Memory is an in-memory Repository.
type Memory struct {
	mu       sync.RWMutex
	machines map[string]Machine
}

// NewMemory creates an empty repository.
func NewMemory() *Memory {
	return &Memory{machines: make(map[string]Machine)}
}

func (m *Memory) List(_ context.Context) ([]Machine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Machine, 0, len(m.machines))
	for _, mc := range m.machines {
		out = append(out, mc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (*Machine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mc, ok := m.machines[id]
	if !ok {
		return nil, nil
	}
	return &mc, nil
}

func (m *Memory) Create(_ context.Context, mc Machine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.machines[mc.ID]; ok {
		return ErrExists
	}
	m.machines[mc.ID] = mc
	return nil
}

func (m *Memory) Update(_ context.Context, mc Machine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.machines[mc.ID]; !ok {
		return ErrNotFound
	}
	m.machines[mc.ID] = mc
	return nil
}
