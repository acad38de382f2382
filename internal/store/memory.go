package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is a process-local KV. It is the default backend and the one used in
// tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	return Entry{Value: slices.Clone(e.Value), Version: e.Version}, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.entries[key].Version
	if expected != AnyVersion && expected != current {
		return current, ErrVersionConflict
	}
	next := current + 1
	m.entries[key] = Entry{Value: slices.Clone(value), Version: next}
	return next, nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
