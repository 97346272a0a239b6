package state

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/syncer"
)

// Sales records point-of-sale transactions and keeps product stock in step
// with them.
type Sales struct {
	coll     *syncer.Collection[domain.Sale, *domain.Sale]
	products *Products
	settings *Settings
	notifier Notifier
}

func NewSales(coll *syncer.Collection[domain.Sale, *domain.Sale], products *Products, settings *Settings, notifier Notifier) *Sales {
	return &Sales{coll: coll, products: products, settings: settings, notifier: notifier}
}

func (s *Sales) All(ctx context.Context) ([]domain.Sale, error) {
	return s.coll.GetAll(ctx)
}

func (s *Sales) Get(ctx context.Context, id string) (*domain.Sale, error) {
	return s.coll.GetByID(ctx, id)
}

// SaleTotals is the derived money breakdown of a sale.
type SaleTotals struct {
	Subtotal   float64
	Discounted float64
	Tax        float64
	Total      float64
}

// ComputeSaleTotals derives the money fields from the line items. A fixed
// discount amount wins over a percentage when both are set; tax applies to
// the discounted subtotal only when the business settings enable it.
func ComputeSaleTotals(items []domain.SaleItem, discountAmount, discountPercentage, tipAmount float64, business domain.BusinessSettings) SaleTotals {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Quantity * item.PricePerUnit
	}

	discounted := subtotal
	switch {
	case discountAmount > 0:
		discounted = subtotal - discountAmount
	case discountPercentage > 0:
		discounted = subtotal * (1 - discountPercentage/100)
	}
	if discounted < 0 {
		discounted = 0
	}

	tax := 0.0
	if business.TaxApplicable && business.TaxRate > 0 {
		tax = discounted * business.TaxRate / 100
	}

	return SaleTotals{
		Subtotal:   subtotal,
		Discounted: discounted,
		Tax:        tax,
		Total:      discounted + tax + tipAmount,
	}
}

// Record validates the sale, derives its totals and writes it, then
// decrements stock per line. A line whose product is short is logged and
// skipped rather than failing the whole sale; the register already took the
// money.
func (s *Sales) Record(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: a sale needs at least one item", ErrInvalidInput)
	}
	for i := range sale.Items {
		if sale.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q quantity must be positive", ErrInvalidInput, sale.Items[i].ProductName)
		}
		if sale.Items[i].PricePerUnit < 0 {
			return nil, fmt.Errorf("%w: item %q price must not be negative", ErrInvalidInput, sale.Items[i].ProductName)
		}
		sale.Items[i].Total = sale.Items[i].Quantity * sale.Items[i].PricePerUnit
	}

	business, err := s.settings.Business(ctx)
	if err != nil {
		return nil, err
	}
	totals := ComputeSaleTotals(sale.Items, sale.DiscountAmount, sale.DiscountPercentage, sale.TipAmount, business)
	sale.Subtotal = totals.Subtotal
	sale.Tax = totals.Tax
	sale.TotalAmount = totals.Total

	if sale.Date == "" {
		sale.Date = time.Now().UTC().Format(domain.DateLayout)
	}
	if sale.Status == "" {
		sale.Status = domain.SaleCompleted
	}

	recorded, err := s.coll.Add(ctx, &sale)
	if err != nil {
		return nil, err
	}

	for _, item := range recorded.Items {
		if item.ProductID == "" {
			continue
		}
		if _, err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			log.Printf("[state] WARN: stock for %s not decremented after sale %s: %v", item.ProductID, recorded.ID, err)
		}
	}

	s.notifier.Notify(ctx, "New sale", fmt.Sprintf("Sale of $%.2f recorded", recorded.TotalAmount))
	return recorded, nil
}

// Delete removes a sale and returns its items to stock.
func (s *Sales) Delete(ctx context.Context, id string) error {
	sale, err := s.coll.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sale.Status == domain.SaleCompleted {
		s.restoreStock(ctx, sale)
	}
	return s.coll.Delete(ctx, id)
}

// UpdateStatus moves a sale between completed, cancelled and refunded.
// Leaving completed returns the items to stock; re-completing takes them
// back out.
func (s *Sales) UpdateStatus(ctx context.Context, id string, status domain.SaleStatus) (*domain.Sale, error) {
	switch status {
	case domain.SaleCompleted, domain.SaleCancelled, domain.SaleRefunded:
	default:
		return nil, fmt.Errorf("%w: unknown sale status %q", ErrInvalidInput, status)
	}

	sale, err := s.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale.Status == status {
		return sale, nil
	}
	if sale.Status == domain.SaleCompleted && status != domain.SaleCompleted {
		s.applyStock(ctx, sale, 1)
	}
	if sale.Status != domain.SaleCompleted && status == domain.SaleCompleted {
		s.applyStock(ctx, sale, -1)
	}
	return s.coll.Update(ctx, id, struct {
		Status domain.SaleStatus `json:"status"`
	}{status})
}

func (s *Sales) restoreStock(ctx context.Context, sale *domain.Sale) {
	s.applyStock(ctx, sale, 1)
}

func (s *Sales) applyStock(ctx context.Context, sale *domain.Sale, sign float64) {
	for _, item := range sale.Items {
		if item.ProductID == "" {
			continue
		}
		if _, err := s.products.AdjustStock(ctx, item.ProductID, sign*item.Quantity); err != nil {
			log.Printf("[state] WARN: stock for %s not adjusted from sale %s: %v", item.ProductID, sale.ID, err)
		}
	}
}

// ByDateRange returns completed-or-otherwise sales with from <= date <= to.
// Dates use domain.DateLayout, which compares correctly as strings.
func (s *Sales) ByDateRange(ctx context.Context, from, to string) ([]domain.Sale, error) {
	all, err := s.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Sale, 0)
	for _, sale := range all {
		if sale.Date >= from && sale.Date <= to {
			out = append(out, sale)
		}
	}
	return out, nil
}

// TotalForDay sums completed sales on the given date.
func (s *Sales) TotalForDay(ctx context.Context, date string) (float64, error) {
	return s.totalBetween(ctx, date, date)
}

// TotalForWeek sums completed sales for the 7 days ending at date.
func (s *Sales) TotalForWeek(ctx context.Context, date string) (float64, error) {
	end, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	start := end.AddDate(0, 0, -6)
	return s.totalBetween(ctx, start.Format(domain.DateLayout), date)
}

// TotalForMonth sums completed sales in date's calendar month.
func (s *Sales) TotalForMonth(ctx context.Context, date string) (float64, error) {
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("%w: bad date %q", ErrInvalidInput, date)
	}
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return s.totalBetween(ctx, first.Format(domain.DateLayout), last.Format(domain.DateLayout))
}

func (s *Sales) totalBetween(ctx context.Context, from, to string) (float64, error) {
	sales, err := s.ByDateRange(ctx, from, to)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, sale := range sales {
		if sale.Status != "" && sale.Status != domain.SaleCompleted {
			continue
		}
		total += sale.TotalAmount
	}
	return total, nil
}

// Profit estimates revenue minus product cost for completed sales in range.
// Products no longer in the catalog contribute their revenue at full margin.
func (s *Sales) Profit(ctx context.Context, from, to string) (float64, error) {
	sales, err := s.ByDateRange(ctx, from, to)
	if err != nil {
		return 0, err
	}
	costs := make(map[string]float64)
	products, err := s.products.All(ctx)
	if err != nil {
		return 0, err
	}
	for _, product := range products {
		costs[product.ID] = product.Cost
	}

	profit := 0.0
	for _, sale := range sales {
		if sale.Status != "" && sale.Status != domain.SaleCompleted {
			continue
		}
		profit += sale.TotalAmount - sale.Tax - sale.TipAmount
		for _, item := range sale.Items {
			profit -= costs[item.ProductID] * item.Quantity
		}
	}
	return profit, nil
}

// SellerRank is one row of the top-sellers report.
type SellerRank struct {
	ProductID   string
	ProductName string
	Quantity    float64
	Revenue     float64
}

// TopSellers aggregates completed sales by product, ordered by quantity.
func (s *Sales) TopSellers(ctx context.Context, n int) ([]SellerRank, error) {
	all, err := s.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*SellerRank)
	for _, sale := range all {
		if sale.Status != "" && sale.Status != domain.SaleCompleted {
			continue
		}
		for _, item := range sale.Items {
			key := item.ProductID
			if key == "" {
				key = item.ProductName
			}
			rank, ok := byProduct[key]
			if !ok {
				rank = &SellerRank{ProductID: item.ProductID, ProductName: item.ProductName}
				byProduct[key] = rank
			}
			rank.Quantity += item.Quantity
			rank.Revenue += item.Total
		}
	}

	out := make([]SellerRank, 0, len(byProduct))
	for _, rank := range byProduct {
		out = append(out, *rank)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity > out[j].Quantity })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}
