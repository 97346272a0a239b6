// Package syncer keeps one entity family consistent between the remote
// document store and the local key-value cache. Reads prefer whichever side
// answers, writes go remote-first and fall back to the cache with a
// pendingSync mark, and SyncWithServer replays the backlog.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"artisanal/backend/internal/docstore"
	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/kv"
	"artisanal/backend/internal/xid"
)

// Entity is implemented by any record that embeds domain.Meta.
type Entity interface {
	DocMeta() *domain.Meta
}

// Collection manages one entity family. The cache holds the full list under
// the family name; ids of locally-deleted records queue under the tombstone
// key until a sync pass confirms the remote deletes.
type Collection[T any, PT interface {
	*T
	Entity
}] struct {
	name     string
	idPrefix string
	remote   docstore.Collection
	cache    kv.Store

	mu sync.Mutex
}

func NewCollection[T any, PT interface {
	*T
	Entity
}](name, idPrefix string, remote docstore.Collection, cache kv.Store) *Collection[T, PT] {
	return &Collection[T, PT]{name: name, idPrefix: idPrefix, remote: remote, cache: cache}
}

func (c *Collection[T, PT]) Name() string { return c.name }

func (c *Collection[T, PT]) tombstoneKey() string { return c.name + "_deleted" }

// GetAll returns the cached list when one exists, otherwise fetches the
// remote collection and caches it. When the remote is down and the cache is
// cold it returns an empty list so the caller can keep operating.
func (c *Collection[T, PT]) GetAll(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok, err := c.readCache(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	docs, err := c.remote.GetAllDocs(ctx)
	if err != nil {
		log.Printf("[syncer] WARN: fetch %s failed, serving empty list: %v", c.name, err)
		return []T{}, nil
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		item, err := decode[T, PT](doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	if err := c.writeCache(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID asks the remote first so a fresh copy wins, then falls back to
// scanning the cached list when the remote cannot answer.
func (c *Collection[T, PT]) GetByID(ctx context.Context, id string) (*T, error) {
	doc, err := c.remote.GetDoc(ctx, id)
	if err == nil {
		return decode[T, PT](*doc)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok, cacheErr := c.readCache(ctx)
	if cacheErr != nil {
		return nil, cacheErr
	}
	if ok {
		for i := range cached {
			if PT(&cached[i]).DocMeta().ID == id {
				item := cached[i]
				return &item, nil
			}
		}
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, docstore.ErrNotFound
	}
	return nil, fmt.Errorf("get %s/%s: %w", c.name, id, err)
}

// Add assigns an id and timestamps, writes the record remotely and appends it
// to the cached list. A remote failure is not an error: the record is kept
// locally with pendingSync set and replayed on the next sync pass.
func (c *Collection[T, PT]) Add(ctx context.Context, item PT) (PT, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta := item.DocMeta()
	if meta.ID == "" {
		meta.ID = xid.New(c.idPrefix)
	}
	now := time.Now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.PendingSync = false

	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}

	if doc, err := c.remote.SetDoc(ctx, meta.ID, body); err != nil {
		log.Printf("[syncer] WARN: add %s/%s failed remotely, queued for sync: %v", c.name, meta.ID, err)
		meta.PendingSync = true
	} else {
		meta.CreatedAt = doc.CreatedAt
		meta.UpdatedAt = doc.UpdatedAt
	}

	cached, _, err := c.readCache(ctx)
	if err != nil {
		return nil, err
	}
	cached = append(cached, *(*T)(item))
	if err := c.writeCache(ctx, cached); err != nil {
		return nil, err
	}
	return item, nil
}

// Update merges the partial into the record on both sides. Only the fields
// present in the partial's JSON form change; a remote failure marks the
// record pendingSync instead of failing the call.
func (c *Collection[T, PT]) Update(ctx context.Context, id string, partial any) (*T, error) {
	partialJSON, err := json.Marshal(partial)
	if err != nil {
		return nil, fmt.Errorf("encode %s update: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok, err := c.readCache(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	if ok {
		for i := range cached {
			if PT(&cached[i]).DocMeta().ID == id {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		doc, err := c.remote.GetDoc(ctx, id)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, docstore.ErrNotFound
			}
			return nil, fmt.Errorf("update %s/%s: %w", c.name, id, err)
		}
		item, err := decode[T, PT](*doc)
		if err != nil {
			return nil, err
		}
		cached = append(cached, *item)
		idx = len(cached) - 1
	}

	current, err := json.Marshal(&cached[idx])
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	merged, err := mergeJSON(current, partialJSON)
	if err != nil {
		return nil, fmt.Errorf("merge %s/%s: %w", c.name, id, err)
	}

	var updated T
	if err := json.Unmarshal(merged, &updated); err != nil {
		return nil, fmt.Errorf("decode merged %s/%s: %w", c.name, id, err)
	}
	meta := PT(&updated).DocMeta()
	meta.UpdatedAt = time.Now().UTC()
	meta.PendingSync = false

	if doc, err := c.remote.UpdateDoc(ctx, id, partialJSON); err != nil {
		log.Printf("[syncer] WARN: update %s/%s failed remotely, queued for sync: %v", c.name, id, err)
		meta.PendingSync = true
	} else {
		meta.UpdatedAt = doc.UpdatedAt
	}

	cached[idx] = updated
	if err := c.writeCache(ctx, cached); err != nil {
		return nil, err
	}
	item := cached[idx]
	return &item, nil
}

// Delete removes the record from the cached list, then attempts the remote
// delete. When the remote fails the id is queued as a tombstone for the next
// sync pass and the error is returned so the caller can surface it; the
// local removal stands either way.
func (c *Collection[T, PT]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok, err := c.readCache(ctx)
	if err != nil {
		return err
	}
	if ok {
		kept := cached[:0]
		for i := range cached {
			if PT(&cached[i]).DocMeta().ID != id {
				kept = append(kept, cached[i])
			}
		}
		if err := c.writeCache(ctx, kept); err != nil {
			return err
		}
	}

	if err := c.remote.DeleteDoc(ctx, id); err != nil {
		log.Printf("[syncer] WARN: delete %s/%s failed remotely, tombstone queued: %v", c.name, id, err)
		tombstones, tombErr := c.readTombstones(ctx)
		if tombErr != nil {
			return tombErr
		}
		if tombErr := c.cache.Set(ctx, c.tombstoneKey(), append(tombstones, id)); tombErr != nil {
			return tombErr
		}
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	return nil
}

// SyncWithServer replays pending upserts one record at a time, then replays
// queued deletes. Records whose upsert still fails keep their pendingSync
// mark; the tombstone list is cleared after the delete pass.
func (c *Collection[T, PT]) SyncWithServer(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok, err := c.readCache(ctx)
	if err != nil {
		return err
	}
	if ok {
		dirty := false
		for i := range cached {
			meta := PT(&cached[i]).DocMeta()
			if !meta.PendingSync {
				continue
			}
			body, err := json.Marshal(&cached[i])
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", c.name, meta.ID, err)
			}
			doc, err := c.remote.SetDoc(ctx, meta.ID, body)
			if err != nil {
				log.Printf("[syncer] WARN: replay %s/%s failed, still pending: %v", c.name, meta.ID, err)
				continue
			}
			meta.PendingSync = false
			meta.UpdatedAt = doc.UpdatedAt
			dirty = true
		}
		if dirty {
			if err := c.writeCache(ctx, cached); err != nil {
				return err
			}
		}
	}

	tombstones, err := c.readTombstones(ctx)
	if err != nil {
		return err
	}
	if len(tombstones) == 0 {
		return nil
	}
	for _, id := range tombstones {
		if err := c.remote.DeleteDoc(ctx, id); err != nil {
			log.Printf("[syncer] WARN: replay delete %s/%s failed: %v", c.name, id, err)
		}
	}
	return c.cache.Set(ctx, c.tombstoneKey(), []string{})
}

// PendingCount reports how many cached records still await a remote write.
func (c *Collection[T, PT]) PendingCount(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, _, err := c.readCache(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range cached {
		if PT(&cached[i]).DocMeta().PendingSync {
			n++
		}
	}
	return n, nil
}

func (c *Collection[T, PT]) readCache(ctx context.Context) ([]T, bool, error) {
	raw, err := c.cache.Get(ctx, c.name)
	if err != nil {
		return nil, false, fmt.Errorf("read %s cache: %w", c.name, err)
	}
	if raw == nil {
		return nil, false, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, fmt.Errorf("decode %s cache: %w", c.name, err)
	}
	return items, true, nil
}

func (c *Collection[T, PT]) writeCache(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	if err := c.cache.Set(ctx, c.name, items); err != nil {
		return fmt.Errorf("write %s cache: %w", c.name, err)
	}
	return nil
}

func (c *Collection[T, PT]) readTombstones(ctx context.Context) ([]string, error) {
	raw, err := c.cache.Get(ctx, c.tombstoneKey())
	if err != nil {
		return nil, fmt.Errorf("read %s tombstones: %w", c.name, err)
	}
	if raw == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode %s tombstones: %w", c.name, err)
	}
	return ids, nil
}

func decode[T any, PT interface {
	*T
	Entity
}](doc docstore.Document) (*T, error) {
	var item T
	if err := json.Unmarshal(doc.Data, &item); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	meta := PT(&item).DocMeta()
	meta.ID = doc.ID
	meta.CreatedAt = doc.CreatedAt
	meta.UpdatedAt = doc.UpdatedAt
	return &item, nil
}

func mergeJSON(base, partial json.RawMessage) (json.RawMessage, error) {
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
