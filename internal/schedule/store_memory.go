package schedule

import (
	"context"
	"sort"
	"sync"
)

type MemoryStore struct {
	mu      sync.Mutex
	tasks   map[string]Task
	claimed map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]Task), claimed: make(map[string]bool)}
}

func (m *MemoryStore) Put(ctx context.Context, t Task) error {
	if !t.valid() {
		return ErrInvalidTask
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.CallID] = t
	delete(m.claimed, t.CallID)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, callID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[callID]
	delete(m.tasks, callID)
	delete(m.claimed, callID)
	return ok, nil
}

func (m *MemoryStore) Claim(ctx context.Context, callID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[callID]; !ok || m.claimed[callID] {
		return false, nil
	}
	m.claimed[callID] = true
	return true, nil
}

func (m *MemoryStore) Done(ctx context.Context, callID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed[callID] {
		delete(m.tasks, callID)
		delete(m.claimed, callID)
	}
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Task, 0, len(m.tasks))
	for id, t := range m.tasks {
		if !m.claimed[id] {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].CallID < out[j].CallID
		}
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out, nil
}
