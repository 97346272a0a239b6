package state

import (
	"context"
	"testing"

	"artisanal/backend/internal/docstore"
	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/kv"
)

func newBackends() (*docstore.Memory, *kv.Memory) {
	return docstore.NewMemory(), kv.NewMemory()
}

func newTestApp(t *testing.T) (*App, *docstore.Memory, *kv.Memory) {
	t.Helper()
	docs, cache := newBackends()
	return NewApp(docs, cache, NopNotifier{}), docs, cache
}

type notifyFunc func(title, message string)

func (f notifyFunc) Notify(_ context.Context, title, message string) { f(title, message) }

func mustAddProduct(t *testing.T, app *App, product domain.Product) *domain.Product {
	t.Helper()
	added, err := app.Products.Add(context.Background(), product)
	if err != nil {
		t.Fatalf("add product %s: %v", product.Name, err)
	}
	return added
}

func TestLoadWarmsCachesForOfflineReads(t *testing.T) {
	app, docs, _ := newTestApp(t)
	ctx := context.Background()

	mustAddProduct(t, app, domain.Product{Name: "Espresso", Price: 3.5, Category: "beverage", Stock: 20})

	if err := app.Load(ctx); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	docs.SetOffline(true)
	products, err := app.Products.All(ctx)
	if err != nil {
		t.Fatalf("offline read failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected cached product offline, got %d", len(products))
	}
}

func TestSyncReplaysOfflineWrites(t *testing.T) {
	app, docs, _ := newTestApp(t)
	ctx := context.Background()

	docs.SetOffline(true)
	added := mustAddProduct(t, app, domain.Product{Name: "Croissant", Price: 2.75, Category: "bakery", Stock: 12})
	if !added.PendingSync {
		t.Fatal("offline add should be pending")
	}

	docs.SetOffline(false)
	app.Sync(ctx)

	if _, err := docs.Collection("products").GetDoc(ctx, added.ID); err != nil {
		t.Fatalf("expected product replayed to remote: %v", err)
	}
}
