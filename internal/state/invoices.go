package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/kv"
	"artisanal/backend/internal/syncer"
)

const invoiceCounterKey = "lastInvoiceNumberSuffix"

// Invoices issues and tracks customer invoices. Numbers follow
// INV-YYYYMMDD-NNN; the suffix is one persisted counter that never resets,
// so neither restarts nor date changes can reissue a number.
type Invoices struct {
	coll     *syncer.Collection[domain.Invoice, *domain.Invoice]
	kv       kv.Store
	settings *Settings
}

func NewInvoices(coll *syncer.Collection[domain.Invoice, *domain.Invoice], store kv.Store, settings *Settings) *Invoices {
	return &Invoices{coll: coll, kv: store, settings: settings}
}

func (n *Invoices) All(ctx context.Context) ([]domain.Invoice, error) {
	return n.coll.GetAll(ctx)
}

func (n *Invoices) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return n.coll.GetByID(ctx, id)
}

// InvoiceTotals is the derived money breakdown of an invoice.
type InvoiceTotals struct {
	Subtotal   float64
	Discounted float64
	TaxAmount  float64
	Total      float64
}

// ComputeInvoiceTotals derives the money fields from the line items. A fixed
// discount amount wins over a percentage; tax applies to the discounted
// subtotal at the invoice's own rate, and only while the business setting
// has tax enabled.
func ComputeInvoiceTotals(items []domain.InvoiceItem, discountAmount, discountPercentage, taxRate float64, taxApplicable bool) InvoiceTotals {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Quantity * item.UnitPrice
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
	if taxApplicable && taxRate > 0 {
		tax = discounted * taxRate / 100
	}

	return InvoiceTotals{
		Subtotal:   subtotal,
		Discounted: discounted,
		TaxAmount:  tax,
		Total:      discounted + tax,
	}
}

// nextNumber hands out INV-YYYYMMDD-NNN. The suffix is loaded from the
// store, incremented, and persisted before the number is used.
func (n *Invoices) nextNumber(ctx context.Context, now time.Time) (string, error) {
	suffix := 0
	raw, err := n.kv.Get(ctx, invoiceCounterKey)
	if err != nil {
		return "", fmt.Errorf("read invoice counter: %w", err)
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &suffix); err != nil {
			return "", fmt.Errorf("decode invoice counter: %w", err)
		}
	}

	suffix++
	if err := n.kv.Set(ctx, invoiceCounterKey, suffix); err != nil {
		return "", fmt.Errorf("persist invoice counter: %w", err)
	}
	return fmt.Sprintf("INV-%s-%03d", now.UTC().Format("20060102"), suffix), nil
}

// Create numbers the invoice, derives its totals and writes it. The tax rate
// defaults from the business settings when the invoice carries none.
func (n *Invoices) Create(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	if len(invoice.Items) == 0 {
		return nil, fmt.Errorf("%w: an invoice needs at least one line", ErrInvalidInput)
	}
	for i := range invoice.Items {
		if invoice.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %q quantity must be positive", ErrInvalidInput, invoice.Items[i].Description)
		}
		if invoice.Items[i].UnitPrice < 0 {
			return nil, fmt.Errorf("%w: line %q unit price must not be negative", ErrInvalidInput, invoice.Items[i].Description)
		}
		invoice.Items[i].Total = invoice.Items[i].Quantity * invoice.Items[i].UnitPrice
	}

	now := time.Now().UTC()
	if invoice.IssueDate == "" {
		invoice.IssueDate = now.Format(domain.DateLayout)
	}
	if invoice.DueDate == "" {
		issued, err := time.Parse(domain.DateLayout, invoice.IssueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad issue date %q", ErrInvalidInput, invoice.IssueDate)
		}
		invoice.DueDate = issued.AddDate(0, 0, 30).Format(domain.DateLayout)
	}
	if invoice.Status == "" {
		invoice.Status = domain.InvoiceDraft
	}

	business, err := n.settings.Business(ctx)
	if err != nil {
		return nil, err
	}
	if invoice.TaxRate == 0 && business.TaxApplicable {
		invoice.TaxRate = business.TaxRate
	}

	totals := ComputeInvoiceTotals(invoice.Items, invoice.DiscountAmount, invoice.DiscountPercentage, invoice.TaxRate, business.TaxApplicable)
	invoice.Subtotal = totals.Subtotal
	invoice.TaxAmount = totals.TaxAmount
	invoice.TotalAmount = totals.Total

	if invoice.InvoiceNumber == "" {
		number, err := n.nextNumber(ctx, now)
		if err != nil {
			return nil, err
		}
		invoice.InvoiceNumber = number
	}

	return n.coll.Add(ctx, &invoice)
}

func (n *Invoices) Update(ctx context.Context, id string, update domain.InvoiceUpdate) (*domain.Invoice, error) {
	return n.coll.Update(ctx, id, update)
}

func (n *Invoices) Delete(ctx context.Context, id string) error {
	return n.coll.Delete(ctx, id)
}

func (n *Invoices) MarkSent(ctx context.Context, id string) (*domain.Invoice, error) {
	return n.setStatus(ctx, id, domain.InvoiceSent)
}

func (n *Invoices) MarkPaid(ctx context.Context, id string) (*domain.Invoice, error) {
	return n.setStatus(ctx, id, domain.InvoicePaid)
}

func (n *Invoices) Cancel(ctx context.Context, id string) (*domain.Invoice, error) {
	return n.setStatus(ctx, id, domain.InvoiceCancelled)
}

func (n *Invoices) setStatus(ctx context.Context, id string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	return n.coll.Update(ctx, id, struct {
		Status domain.InvoiceStatus `json:"status"`
	}{status})
}

// EffectiveStatus reports Overdue for a sent invoice past its due date; the
// stored status is not rewritten.
func EffectiveStatus(invoice *domain.Invoice, now time.Time) domain.InvoiceStatus {
	if invoice.Status != domain.InvoiceSent {
		return invoice.Status
	}
	if invoice.DueDate != "" && invoice.DueDate < now.UTC().Format(domain.DateLayout) {
		return domain.InvoiceOverdue
	}
	return invoice.Status
}

func (n *Invoices) ByStatus(ctx context.Context, status domain.InvoiceStatus, now time.Time) ([]domain.Invoice, error) {
	all, err := n.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0)
	for i := range all {
		if EffectiveStatus(&all[i], now) == status {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (n *Invoices) ByDateRange(ctx context.Context, from, to string) ([]domain.Invoice, error) {
	all, err := n.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0)
	for _, invoice := range all {
		if invoice.IssueDate >= from && invoice.IssueDate <= to {
			out = append(out, invoice)
		}
	}
	return out, nil
}

// Unpaid lists invoices still awaiting payment, drafts excluded.
func (n *Invoices) Unpaid(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	all, err := n.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0)
	for i := range all {
		switch EffectiveStatus(&all[i], now) {
		case domain.InvoiceSent, domain.InvoiceOverdue:
			out = append(out, all[i])
		}
	}
	return out, nil
}

// Overdue lists sent invoices past their due date.
func (n *Invoices) Overdue(ctx context.Context, now time.Time) ([]domain.Invoice, error) {
	return n.ByStatus(ctx, domain.InvoiceOverdue, now)
}

// OutstandingBalance sums the unpaid totals.
func (n *Invoices) OutstandingBalance(ctx context.Context, now time.Time) (float64, error) {
	unpaid, err := n.Unpaid(ctx, now)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, invoice := range unpaid {
		total += invoice.TotalAmount
	}
	return total, nil
}
