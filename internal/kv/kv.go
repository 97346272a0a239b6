package kv

import (
	"context"
	"encoding/json"
	"sync"
)

// Store persists arbitrary JSON-serializable values under string keys.
// Get returns (nil, nil) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value any) error
}

// Memory is the in-process Store used by tests and as a last-resort fallback
// when neither redis nor a local database file is available.
type Memory struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(_ context.Context, key string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.values[key]
	if !ok {
		return nil, nil
	}
	out := make(json.RawMessage, len(val))
	copy(out, val)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = payload
	return nil
}
