package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Memory is the in-process document store used in tests and when no
// DATABASE_URL is configured. SetOffline makes every operation fail with
// ErrUnavailable, which is how tests drive the offline/cache paths.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
	offline     bool
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]Document)}
}

func (m *Memory) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

func (m *Memory) Collection(name string) Collection {
	return &memoryCollection{store: m, name: name}
}

type memoryCollection struct {
	store *Memory
	name  string
}

func (c *memoryCollection) docs() map[string]Document {
	docs, ok := c.store.collections[c.name]
	if !ok {
		docs = make(map[string]Document)
		c.store.collections[c.name] = docs
	}
	return docs
}

func (c *memoryCollection) GetAllDocs(_ context.Context) ([]Document, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	if c.store.offline {
		return nil, ErrUnavailable
	}

	out := make([]Document, 0, len(c.store.collections[c.name]))
	for _, doc := range c.store.collections[c.name] {
		out = append(out, cloneDocument(doc))
	}
	return out, nil
}

func (c *memoryCollection) GetDoc(_ context.Context, id string) (*Document, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	if c.store.offline {
		return nil, ErrUnavailable
	}

	doc, ok := c.store.collections[c.name][id]
	if !ok {
		return nil, ErrNotFound
	}
	cloned := cloneDocument(doc)
	return &cloned, nil
}

func (c *memoryCollection) SetDoc(_ context.Context, id string, data json.RawMessage) (*Document, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.offline {
		return nil, ErrUnavailable
	}

	now := time.Now().UTC()
	doc := Document{ID: id, Data: append(json.RawMessage(nil), data...), CreatedAt: now, UpdatedAt: now}
	if existing, ok := c.docs()[id]; ok {
		doc.CreatedAt = existing.CreatedAt
	}
	c.docs()[id] = doc

	cloned := cloneDocument(doc)
	return &cloned, nil
}

func (c *memoryCollection) UpdateDoc(_ context.Context, id string, partial json.RawMessage) (*Document, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.offline {
		return nil, ErrUnavailable
	}

	existing, ok := c.docs()[id]
	if !ok {
		return nil, ErrNotFound
	}

	merged, err := mergeJSON(existing.Data, partial)
	if err != nil {
		return nil, fmt.Errorf("merge document %s/%s: %w", c.name, id, err)
	}

	existing.Data = merged
	existing.UpdatedAt = time.Now().UTC()
	c.docs()[id] = existing

	cloned := cloneDocument(existing)
	return &cloned, nil
}

func (c *memoryCollection) DeleteDoc(_ context.Context, id string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.offline {
		return ErrUnavailable
	}

	delete(c.docs(), id)
	return nil
}

func cloneDocument(doc Document) Document {
	cloned := doc
	cloned.Data = append(json.RawMessage(nil), doc.Data...)
	return cloned
}

// mergeJSON overlays the top-level fields of partial onto base, matching the
// jsonb || merge the postgres store performs.
func mergeJSON(base json.RawMessage, partial json.RawMessage) (json.RawMessage, error) {
	var baseMap map[string]json.RawMessage
	if err := json.Unmarshal(base, &baseMap); err != nil {
		return nil, err
	}
	var partialMap map[string]json.RawMessage
	if err := json.Unmarshal(partial, &partialMap); err != nil {
		return nil, err
	}
	for key, val := range partialMap {
		baseMap[key] = val
	}
	return json.Marshal(baseMap)
}
