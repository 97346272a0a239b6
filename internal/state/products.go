package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/syncer"
)

// Products manages the product catalog. Stock is the live quantity;
// InitialStock is snapshotted at creation and never changes afterwards, it
// feeds the usage-rate estimate behind reorder suggestions.
type Products struct {
	coll     *syncer.Collection[domain.Product, *domain.Product]
	settings *Settings
	notifier Notifier
}

func NewProducts(coll *syncer.Collection[domain.Product, *domain.Product], settings *Settings, notifier Notifier) *Products {
	return &Products{coll: coll, settings: settings, notifier: notifier}
}

func (p *Products) All(ctx context.Context) ([]domain.Product, error) {
	return p.coll.GetAll(ctx)
}

func (p *Products) Get(ctx context.Context, id string) (*domain.Product, error) {
	return p.coll.GetByID(ctx, id)
}

func (p *Products) Add(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if strings.TrimSpace(product.Name) == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if product.Price < 0 || product.Cost < 0 {
		return nil, fmt.Errorf("%w: price and cost must not be negative", ErrInvalidInput)
	}
	if product.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	if product.InitialStock == 0 {
		product.InitialStock = product.Stock
	}
	return p.coll.Add(ctx, &product)
}

func (p *Products) Update(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if update.Price != nil && *update.Price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if update.Cost != nil && *update.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}
	return p.coll.Update(ctx, id, update)
}

func (p *Products) Delete(ctx context.Context, id string) error {
	return p.coll.Delete(ctx, id)
}

type stockPatch struct {
	Stock           float64 `json:"stock"`
	LastRestockDate string  `json:"lastRestockDate,omitempty"`
}

// AdjustStock applies a signed delta to a product's stock. The resulting
// quantity must not go negative. Restocks stamp LastRestockDate; depletions
// past the low-stock threshold raise a notification.
func (p *Products) AdjustStock(ctx context.Context, id string, delta float64) (*domain.Product, error) {
	product, err := p.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newStock := product.Stock + delta
	if newStock < 0 {
		return nil, fmt.Errorf("%w: product %s has %.2f, requested %.2f", ErrInsufficientStock, product.Name, product.Stock, -delta)
	}

	patch := stockPatch{Stock: newStock}
	if delta > 0 {
		patch.LastRestockDate = time.Now().UTC().Format(domain.DateLayout)
	}

	updated, err := p.coll.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if delta < 0 {
		p.maybeNotifyLowStock(ctx, updated)
	}
	return updated, nil
}

func (p *Products) maybeNotifyLowStock(ctx context.Context, product *domain.Product) {
	settings, err := p.settings.Inventory(ctx)
	if err != nil || !settings.EnableAutoReorderAlerts {
		return
	}
	threshold := product.MinStock
	if threshold <= 0 {
		threshold = settings.LowStockThreshold
	}
	if product.Stock <= threshold {
		p.notifier.Notify(ctx, "Low stock",
			fmt.Sprintf("%s is down to %.2f %s", product.Name, product.Stock, product.Unit))
	}
}

func (p *Products) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	all, err := p.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	for _, product := range all {
		if strings.EqualFold(product.Category, category) {
			out = append(out, product)
		}
	}
	return out, nil
}

// LowStock lists products at or below their low-stock threshold.
func (p *Products) LowStock(ctx context.Context) ([]domain.Product, error) {
	settings, err := p.settings.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	all, err := p.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0)
	for _, product := range all {
		threshold := product.MinStock
		if threshold <= 0 {
			threshold = settings.LowStockThreshold
		}
		if product.Stock <= threshold {
			out = append(out, product)
		}
	}
	return out, nil
}

// TotalStockValue sums cost times quantity across the catalog.
func (p *Products) TotalStockValue(ctx context.Context) (float64, error) {
	all, err := p.coll.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, product := range all {
		total += product.Cost * product.Stock
	}
	return total, nil
}
