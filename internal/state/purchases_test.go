package state

import (
	"context"
	"errors"
	"testing"

	"artisanal/backend/internal/domain"
)

func TestRecordPurchaseAddsStock(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	beans := mustAddProduct(t, app, domain.Product{Name: "Coffee Beans", Cost: 10, Category: "ingredient", Stock: 5, Unit: "kg"})

	purchase, err := app.Purchases.Record(ctx, domain.Purchase{
		Supplier: "Roastery Co",
		Items:    []domain.PurchaseItem{{ProductID: beans.ID, ItemName: "Coffee Beans", Quantity: 20, UnitPrice: 9.5}},
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !approx(purchase.TotalAmount, 190) {
		t.Fatalf("expected total 190, got %v", purchase.TotalAmount)
	}
	if purchase.Status != domain.PurchaseCompleted {
		t.Fatalf("expected default completed, got %s", purchase.Status)
	}

	got, _ := app.Products.Get(ctx, beans.ID)
	if got.Stock != 25 {
		t.Fatalf("expected stock 25 after receiving 20, got %v", got.Stock)
	}
}

func TestPendingPurchaseAddsStockOnComplete(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	flour := mustAddProduct(t, app, domain.Product{Name: "Flour", Cost: 1, Category: "ingredient", Stock: 0, Unit: "kg"})

	purchase, err := app.Purchases.Record(ctx, domain.Purchase{
		Supplier: "Mill",
		Status:   domain.PurchasePending,
		Items:    []domain.PurchaseItem{{ProductID: flour.ID, ItemName: "Flour", Quantity: 50, UnitPrice: 0.9}},
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	got, _ := app.Products.Get(ctx, flour.ID)
	if got.Stock != 0 {
		t.Fatalf("pending purchase must not touch stock, got %v", got.Stock)
	}

	if _, err := app.Purchases.Complete(ctx, purchase.ID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	got, _ = app.Products.Get(ctx, flour.ID)
	if got.Stock != 50 {
		t.Fatalf("expected stock 50 after completion, got %v", got.Stock)
	}
}

func TestDeletePurchaseReversesStock(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	milk := mustAddProduct(t, app, domain.Product{Name: "Milk", Cost: 2, Category: "ingredient", Stock: 10, Unit: "l"})

	purchase, err := app.Purchases.Record(ctx, domain.Purchase{
		Supplier: "Dairy",
		Items:    []domain.PurchaseItem{{ProductID: milk.ID, ItemName: "Milk", Quantity: 15, UnitPrice: 1.8}},
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	if err := app.Purchases.Delete(ctx, purchase.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	got, _ := app.Products.Get(ctx, milk.ID)
	if got.Stock != 10 {
		t.Fatalf("expected stock back to 10, got %v", got.Stock)
	}
}

func TestCancelCompletedPurchaseTakesStockBack(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	sugar := mustAddProduct(t, app, domain.Product{Name: "Sugar", Cost: 1.5, Category: "ingredient", Stock: 2, Unit: "kg"})

	purchase, err := app.Purchases.Record(ctx, domain.Purchase{
		Supplier: "Grocer",
		Items:    []domain.PurchaseItem{{ProductID: sugar.ID, ItemName: "Sugar", Quantity: 8, UnitPrice: 1.2}},
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}

	cancelled, err := app.Purchases.Cancel(ctx, purchase.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != domain.PurchaseCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	got, _ := app.Products.Get(ctx, sugar.ID)
	if got.Stock != 2 {
		t.Fatalf("expected stock back to 2, got %v", got.Stock)
	}

	if _, err := app.Purchases.Complete(ctx, purchase.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("completing a cancelled purchase must fail, got %v", err)
	}
}

func TestPurchaseValidationAndSpend(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	if _, err := app.Purchases.Record(ctx, domain.Purchase{Supplier: "X"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty purchase, got %v", err)
	}

	if _, err := app.Purchases.Record(ctx, domain.Purchase{
		Date:     "2026-08-10",
		Supplier: "A",
		Items:    []domain.PurchaseItem{{ItemName: "Cups", Quantity: 100, UnitPrice: 0.1}},
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if _, err := app.Purchases.Record(ctx, domain.Purchase{
		Date:     "2026-08-20",
		Supplier: "B",
		Items:    []domain.PurchaseItem{{ItemName: "Lids", Quantity: 100, UnitPrice: 0.05}},
	}); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	spend, err := app.Purchases.TotalSpend(ctx, "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if !approx(spend, 15) {
		t.Fatalf("expected spend 15, got %v", spend)
	}
}
