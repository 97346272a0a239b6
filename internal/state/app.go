// Package state owns the application's working data. Each container wraps a
// synced collection with the business rules for its entity family; App wires
// the containers to a document store, a key-value cache and a notifier.
package state

import (
	"context"
	"log"

	"artisanal/backend/internal/docstore"
	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/kv"
	"artisanal/backend/internal/syncer"
)

// Notifier receives operational alerts: low stock, new sales, reorder
// suggestions. Delivery beyond the process boundary is up to the
// implementation.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, title, message string) {
	log.Printf("[notify] %s: %s", title, message)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) {}

type syncable interface {
	Name() string
	SyncWithServer(ctx context.Context) error
}

// App is the composition root for the back office. All state flows through
// it; nothing is package-global.
type App struct {
	Products  *Products
	Sales     *Sales
	Purchases *Purchases
	Customers *Customers
	Inventory *Inventory
	Invoices  *Invoices
	Settings  *Settings

	collections []syncable
}

func NewApp(docs docstore.Store, cache kv.Store, notifier Notifier) *App {
	if notifier == nil {
		notifier = NopNotifier{}
	}

	settings := NewSettings(cache)

	products := NewProducts(
		syncer.NewCollection[domain.Product, *domain.Product]("products", "prod", docs.Collection("products"), cache),
		settings, notifier,
	)
	inventory := NewInventory(
		syncer.NewCollection[domain.InventoryItem, *domain.InventoryItem]("inventory", "inv", docs.Collection("inventory"), cache),
		syncer.NewCollection[domain.Recipe, *domain.Recipe]("recipes", "recipe", docs.Collection("recipes"), cache),
		syncer.NewCollection[domain.WasteRecord, *domain.WasteRecord]("waste", "waste", docs.Collection("waste"), cache),
		products, settings, notifier,
	)
	sales := NewSales(
		syncer.NewCollection[domain.Sale, *domain.Sale]("sales", "sale", docs.Collection("sales"), cache),
		products, settings, notifier,
	)
	purchases := NewPurchases(
		syncer.NewCollection[domain.Purchase, *domain.Purchase]("purchases", "purch", docs.Collection("purchases"), cache),
		products,
	)
	customers := NewCustomers(
		syncer.NewCollection[domain.Customer, *domain.Customer]("customers", "cust", docs.Collection("customers"), cache),
		settings,
	)
	invoices := NewInvoices(
		syncer.NewCollection[domain.Invoice, *domain.Invoice]("invoices", "invc", docs.Collection("invoices"), cache),
		cache, settings,
	)

	return &App{
		Products:  products,
		Sales:     sales,
		Purchases: purchases,
		Customers: customers,
		Inventory: inventory,
		Invoices:  invoices,
		Settings:  settings,
		collections: []syncable{
			products.coll,
			inventory.items,
			inventory.recipes,
			inventory.waste,
			sales.coll,
			purchases.coll,
			customers.coll,
			invoices.coll,
		},
	}
}

// Load warms every collection cache so the app can serve reads even if the
// remote goes away afterwards.
func (a *App) Load(ctx context.Context) error {
	if _, err := a.Products.All(ctx); err != nil {
		return err
	}
	if _, err := a.Inventory.Items(ctx); err != nil {
		return err
	}
	if _, err := a.Inventory.Recipes(ctx); err != nil {
		return err
	}
	if _, err := a.Inventory.WasteRecords(ctx); err != nil {
		return err
	}
	if _, err := a.Sales.All(ctx); err != nil {
		return err
	}
	if _, err := a.Purchases.All(ctx); err != nil {
		return err
	}
	if _, err := a.Customers.All(ctx); err != nil {
		return err
	}
	if _, err := a.Invoices.All(ctx); err != nil {
		return err
	}
	return nil
}

// Sync replays every collection's backlog. Per-collection failures are
// logged and do not stop the pass.
func (a *App) Sync(ctx context.Context) {
	for _, coll := range a.collections {
		if err := coll.SyncWithServer(ctx); err != nil {
			log.Printf("[state] WARN: sync %s failed: %v", coll.Name(), err)
		}
	}
}
