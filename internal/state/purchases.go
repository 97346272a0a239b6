package state

import (
	"context"
	"fmt"
	"log"
	"time"

	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/syncer"
)

// Purchases records supplier orders. Completed purchases add their items to
// product stock; deleting one takes the stock back out.
type Purchases struct {
	coll     *syncer.Collection[domain.Purchase, *domain.Purchase]
	products *Products
}

func NewPurchases(coll *syncer.Collection[domain.Purchase, *domain.Purchase], products *Products) *Purchases {
	return &Purchases{coll: coll, products: products}
}

func (p *Purchases) All(ctx context.Context) ([]domain.Purchase, error) {
	return p.coll.GetAll(ctx)
}

func (p *Purchases) Get(ctx context.Context, id string) (*domain.Purchase, error) {
	return p.coll.GetByID(ctx, id)
}

func (p *Purchases) Record(ctx context.Context, purchase domain.Purchase) (*domain.Purchase, error) {
	if len(purchase.Items) == 0 {
		return nil, fmt.Errorf("%w: a purchase needs at least one item", ErrInvalidInput)
	}
	total := 0.0
	for i := range purchase.Items {
		if purchase.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q quantity must be positive", ErrInvalidInput, purchase.Items[i].ItemName)
		}
		if purchase.Items[i].UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item %q unit price must not be negative", ErrInvalidInput, purchase.Items[i].ItemName)
		}
		purchase.Items[i].TotalCost = purchase.Items[i].Quantity * purchase.Items[i].UnitPrice
		total += purchase.Items[i].TotalCost
	}
	purchase.TotalAmount = total

	if purchase.Date == "" {
		purchase.Date = time.Now().UTC().Format(domain.DateLayout)
	}
	if purchase.Status == "" {
		purchase.Status = domain.PurchaseCompleted
	}

	recorded, err := p.coll.Add(ctx, &purchase)
	if err != nil {
		return nil, err
	}

	if recorded.Status == domain.PurchaseCompleted {
		p.applyStock(ctx, recorded, 1)
	}
	return recorded, nil
}

// Complete marks a pending purchase received and adds its items to stock.
func (p *Purchases) Complete(ctx context.Context, id string) (*domain.Purchase, error) {
	purchase, err := p.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase.Status == domain.PurchaseCompleted {
		return purchase, nil
	}
	if purchase.Status == domain.PurchaseCancelled {
		return nil, fmt.Errorf("%w: purchase %s is cancelled", ErrInvalidInput, id)
	}

	updated, err := p.coll.Update(ctx, id, struct {
		Status domain.PurchaseStatus `json:"status"`
	}{domain.PurchaseCompleted})
	if err != nil {
		return nil, err
	}
	p.applyStock(ctx, updated, 1)
	return updated, nil
}

// Cancel marks a purchase cancelled. Stock received from a completed
// purchase is taken back.
func (p *Purchases) Cancel(ctx context.Context, id string) (*domain.Purchase, error) {
	purchase, err := p.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase.Status == domain.PurchaseCancelled {
		return purchase, nil
	}
	if purchase.Status == domain.PurchaseCompleted {
		p.applyStock(ctx, purchase, -1)
	}
	return p.coll.Update(ctx, id, struct {
		Status domain.PurchaseStatus `json:"status"`
	}{domain.PurchaseCancelled})
}

// Delete removes a purchase, reversing its stock effect first when it had
// been received.
func (p *Purchases) Delete(ctx context.Context, id string) error {
	purchase, err := p.coll.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if purchase.Status == domain.PurchaseCompleted {
		p.applyStock(ctx, purchase, -1)
	}
	return p.coll.Delete(ctx, id)
}

func (p *Purchases) applyStock(ctx context.Context, purchase *domain.Purchase, sign float64) {
	for _, item := range purchase.Items {
		if item.ProductID == "" {
			continue
		}
		if _, err := p.products.AdjustStock(ctx, item.ProductID, sign*item.Quantity); err != nil {
			log.Printf("[state] WARN: stock for %s not adjusted from purchase %s: %v", item.ProductID, purchase.ID, err)
		}
	}
}

func (p *Purchases) ByDateRange(ctx context.Context, from, to string) ([]domain.Purchase, error) {
	all, err := p.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Purchase, 0)
	for _, purchase := range all {
		if purchase.Date >= from && purchase.Date <= to {
			out = append(out, purchase)
		}
	}
	return out, nil
}

func (p *Purchases) BySupplier(ctx context.Context, supplier string) ([]domain.Purchase, error) {
	all, err := p.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Purchase, 0)
	for _, purchase := range all {
		if purchase.Supplier == supplier {
			out = append(out, purchase)
		}
	}
	return out, nil
}

// TotalSpend sums non-cancelled purchases in the date range.
func (p *Purchases) TotalSpend(ctx context.Context, from, to string) (float64, error) {
	purchases, err := p.ByDateRange(ctx, from, to)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, purchase := range purchases {
		if purchase.Status == domain.PurchaseCancelled {
			continue
		}
		total += purchase.TotalAmount
	}
	return total, nil
}
