package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"artisanal/backend/internal/docstore"
	"artisanal/backend/internal/domain"
)

func TestPrepareItemConsumesIngredientsAndAddsStock(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	beans := mustAddProduct(t, app, domain.Product{Name: "Coffee Beans", Cost: 0.10, Category: "ingredient", Stock: 100, Unit: "g"})
	milk := mustAddProduct(t, app, domain.Product{Name: "Milk", Cost: 0.02, Category: "ingredient", Stock: 50, Unit: "ml"})
	latte := mustAddProduct(t, app, domain.Product{Name: "Latte", Price: 4.5, Category: "beverage", Stock: 0})

	recipe, err := app.Inventory.AddRecipe(ctx, domain.Recipe{
		Name:      "Latte",
		ProductID: latte.ID,
		Ingredients: []domain.IngredientItem{
			{ProductID: beans.ID, Quantity: 18},
			{ProductID: milk.ID, Quantity: 10},
		},
	})
	if err != nil {
		t.Fatalf("add recipe failed: %v", err)
	}

	prepared, err := app.Inventory.PrepareItem(ctx, recipe.ID, 2)
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if prepared.Stock != 2 {
		t.Fatalf("expected 2 lattes in stock, got %v", prepared.Stock)
	}

	gotBeans, _ := app.Products.Get(ctx, beans.ID)
	gotMilk, _ := app.Products.Get(ctx, milk.ID)
	if gotBeans.Stock != 64 {
		t.Fatalf("expected 64g beans left, got %v", gotBeans.Stock)
	}
	if gotMilk.Stock != 30 {
		t.Fatalf("expected 30ml milk left, got %v", gotMilk.Stock)
	}
}

func TestPrepareItemReportsEveryShortageAndChangesNothing(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	beans := mustAddProduct(t, app, domain.Product{Name: "Coffee Beans", Cost: 0.10, Category: "ingredient", Stock: 10, Unit: "g"})
	milk := mustAddProduct(t, app, domain.Product{Name: "Milk", Cost: 0.02, Category: "ingredient", Stock: 5, Unit: "ml"})
	latte := mustAddProduct(t, app, domain.Product{Name: "Latte", Price: 4.5, Category: "beverage", Stock: 0})

	recipe, err := app.Inventory.AddRecipe(ctx, domain.Recipe{
		Name:      "Latte",
		ProductID: latte.ID,
		Ingredients: []domain.IngredientItem{
			{ProductID: beans.ID, Quantity: 18},
			{ProductID: milk.ID, Quantity: 10},
		},
	})
	if err != nil {
		t.Fatalf("add recipe failed: %v", err)
	}

	_, err = app.Inventory.PrepareItem(ctx, recipe.ID, 1)
	var shortage *InsufficientIngredientsError
	if !errors.As(err, &shortage) {
		t.Fatalf("expected InsufficientIngredientsError, got %v", err)
	}
	if len(shortage.Missing) != 2 {
		t.Fatalf("expected both shortages listed, got %+v", shortage.Missing)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatal("shortage error must unwrap to ErrInsufficientStock")
	}

	gotBeans, _ := app.Products.Get(ctx, beans.ID)
	gotMilk, _ := app.Products.Get(ctx, milk.ID)
	gotLatte, _ := app.Products.Get(ctx, latte.ID)
	if gotBeans.Stock != 10 || gotMilk.Stock != 5 || gotLatte.Stock != 0 {
		t.Fatalf("failed preparation must not move stock, got beans=%v milk=%v latte=%v",
			gotBeans.Stock, gotMilk.Stock, gotLatte.Stock)
	}
}

func TestPrepareItemSkipsShortOptionalIngredient(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	beans := mustAddProduct(t, app, domain.Product{Name: "Coffee Beans", Cost: 0.10, Category: "ingredient", Stock: 100, Unit: "g"})
	syrup := mustAddProduct(t, app, domain.Product{Name: "Vanilla Syrup", Cost: 0.05, Category: "ingredient", Stock: 0, Unit: "ml"})
	coffee := mustAddProduct(t, app, domain.Product{Name: "Vanilla Coffee", Price: 5.0, Category: "beverage", Stock: 0})

	recipe, err := app.Inventory.AddRecipe(ctx, domain.Recipe{
		Name:      "Vanilla Coffee",
		ProductID: coffee.ID,
		Ingredients: []domain.IngredientItem{
			{ProductID: beans.ID, Quantity: 18},
			{ProductID: syrup.ID, Quantity: 15, Optional: true},
		},
	})
	if err != nil {
		t.Fatalf("add recipe failed: %v", err)
	}

	prepared, err := app.Inventory.PrepareItem(ctx, recipe.ID, 1)
	if err != nil {
		t.Fatalf("prepare with short optional ingredient should succeed: %v", err)
	}
	if prepared.Stock != 1 {
		t.Fatalf("expected 1 prepared, got %v", prepared.Stock)
	}
}

func TestPrepareProductResolvesRecipe(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	beans := mustAddProduct(t, app, domain.Product{Name: "Coffee Beans", Cost: 0.10, Category: "ingredient", Stock: 100, Unit: "g"})
	espresso := mustAddProduct(t, app, domain.Product{Name: "Espresso", Price: 3.5, Category: "beverage", Stock: 0})

	if _, err := app.Inventory.AddRecipe(ctx, domain.Recipe{
		Name:        "Espresso",
		ProductID:   espresso.ID,
		Ingredients: []domain.IngredientItem{{ProductID: beans.ID, Quantity: 18}},
	}); err != nil {
		t.Fatalf("add recipe failed: %v", err)
	}

	prepared, err := app.Inventory.PrepareProduct(ctx, espresso.ID, 3)
	if err != nil {
		t.Fatalf("prepare by product failed: %v", err)
	}
	if prepared.Stock != 3 {
		t.Fatalf("expected 3 prepared, got %v", prepared.Stock)
	}

	gotBeans, _ := app.Products.Get(ctx, beans.ID)
	if gotBeans.Stock != 46 {
		t.Fatalf("expected 46g beans left, got %v", gotBeans.Stock)
	}
}

func TestPrepareProductWithoutRecipeIsNotFound(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	solo := mustAddProduct(t, app, domain.Product{Name: "Bottled Water", Price: 1.5, Category: "beverage", Stock: 10})

	_, err := app.Inventory.PrepareProduct(ctx, solo.ID, 1)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected not-found for missing recipe, got %v", err)
	}
}

func TestRecordWasteCapturesCostAndDecrementsStock(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	milk := mustAddProduct(t, app, domain.Product{Name: "Milk", Cost: 2.5, Category: "ingredient", Stock: 20, Unit: "l"})

	record, err := app.Inventory.RecordWaste(ctx, domain.WasteRecord{
		ProductID: milk.ID,
		Quantity:  4,
		Reason:    domain.WasteSpoiled,
	})
	if err != nil {
		t.Fatalf("record waste failed: %v", err)
	}
	if !approx(record.CostImpact, 10.0) {
		t.Fatalf("expected cost impact 10.0, got %v", record.CostImpact)
	}
	if record.Date == "" {
		t.Fatal("expected waste date defaulted")
	}

	got, err := app.Products.Get(ctx, milk.ID)
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if got.Stock != 16 {
		t.Fatalf("expected stock 16 after wasting 4, got %v", got.Stock)
	}

	// A later cost change must not rewrite the captured impact.
	newCost := 3.0
	if _, err := app.Products.Update(ctx, milk.ID, domain.ProductUpdate{Cost: &newCost}); err != nil {
		t.Fatalf("update cost failed: %v", err)
	}
	records, err := app.Inventory.WasteRecords(ctx)
	if err != nil {
		t.Fatalf("waste records failed: %v", err)
	}
	if len(records) != 1 || !approx(records[0].CostImpact, 10.0) {
		t.Fatalf("expected captured cost impact unchanged, got %+v", records)
	}
}

func TestRecordWasteRejectsMoreThanStock(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	milk := mustAddProduct(t, app, domain.Product{Name: "Milk", Cost: 2.5, Category: "ingredient", Stock: 2, Unit: "l"})

	_, err := app.Inventory.RecordWaste(ctx, domain.WasteRecord{
		ProductID: milk.ID,
		Quantity:  5,
		Reason:    domain.WasteExpired,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, _ := app.Products.Get(ctx, milk.ID)
	if got.Stock != 2 {
		t.Fatalf("rejected waste must not change stock, got %v", got.Stock)
	}
}

func TestWasteByReason(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	milk := mustAddProduct(t, app, domain.Product{Name: "Milk", Cost: 2.0, Category: "ingredient", Stock: 50, Unit: "l"})

	waste := func(qty float64, reason domain.WasteReason) {
		t.Helper()
		if _, err := app.Inventory.RecordWaste(ctx, domain.WasteRecord{ProductID: milk.ID, Quantity: qty, Reason: reason}); err != nil {
			t.Fatalf("record waste failed: %v", err)
		}
	}
	waste(3, domain.WasteSpoiled)
	waste(2, domain.WasteSpoiled)
	waste(1, domain.WasteDamaged)

	byReason, err := app.Inventory.WasteByReason(ctx)
	if err != nil {
		t.Fatalf("waste by reason failed: %v", err)
	}
	if !approx(byReason[domain.WasteSpoiled], 10.0) {
		t.Fatalf("expected spoiled cost 10.0, got %v", byReason[domain.WasteSpoiled])
	}
	if !approx(byReason[domain.WasteDamaged], 2.0) {
		t.Fatalf("expected damaged cost 2.0, got %v", byReason[domain.WasteDamaged])
	}
}

func TestReorderSuggestionsUsesConsumptionAndWaste(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	// Started at 100, now 4 in stock with 6 wasted: 102 consumed over the
	// window, about 3.4/day, so just over a day of cover left.
	fast := mustAddProduct(t, app, domain.Product{Name: "Croissant", Cost: 0.8, Category: "bakery", Stock: 100, InitialStock: 100, MinStock: 5})
	if _, err := app.Products.AdjustStock(ctx, fast.ID, -90); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if _, err := app.Inventory.RecordWaste(ctx, domain.WasteRecord{ProductID: fast.ID, Quantity: 6, Reason: domain.WasteExpired}); err != nil {
		t.Fatalf("waste failed: %v", err)
	}

	mustAddProduct(t, app, domain.Product{Name: "Tea Box", Cost: 4.0, Category: "ingredient", Stock: 100, InitialStock: 100, MinStock: 5})

	suggestions, err := app.Inventory.ReorderSuggestions(ctx)
	if err != nil {
		t.Fatalf("suggestions failed: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected only the fast mover suggested, got %+v", suggestions)
	}
	s := suggestions[0]
	if s.ProductID != fast.ID {
		t.Fatalf("expected %s suggested, got %s", fast.ID, s.ProductID)
	}
	if !approx(s.DailyUsage, 102.0/30.0) {
		t.Fatalf("expected daily usage 3.4, got %v", s.DailyUsage)
	}
	if s.SuggestedQuantity < 98 {
		t.Fatalf("expected a refill close to the window's usage, got %v", s.SuggestedQuantity)
	}
}

func TestExpiringItems(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()
	now := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	add := func(productID, expires string) {
		t.Helper()
		if _, err := app.Inventory.AddItem(ctx, domain.InventoryItem{ProductID: productID, Quantity: 1, ExpirationDate: expires}); err != nil {
			t.Fatalf("add item failed: %v", err)
		}
	}
	add("prod-a", "2026-09-03")
	add("prod-b", "2026-10-15")
	add("prod-c", "2026-08-30")
	add("prod-d", "")

	expiring, err := app.Inventory.ExpiringItems(ctx, now)
	if err != nil {
		t.Fatalf("expiring failed: %v", err)
	}
	if len(expiring) != 1 {
		t.Fatalf("expected only the soon-to-expire item, got %+v", expiring)
	}
	if expiring[0].ProductID != "prod-a" {
		t.Fatalf("expected the item inside the window, got %+v", expiring)
	}
	for _, item := range expiring {
		if item.ProductID == "prod-c" {
			t.Fatal("already-expired stock must not be reported as expiring soon")
		}
	}
}

func TestSetProductStockMirrorsInventoryItem(t *testing.T) {
	app, _, _ := newTestApp(t)
	ctx := context.Background()

	product := mustAddProduct(t, app, domain.Product{Name: "Flour", Cost: 1.0, Category: "ingredient", Stock: 10, Unit: "kg"})

	updated, err := app.Inventory.SetProductStock(ctx, product.ID, 25)
	if err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	if updated.Stock != 25 {
		t.Fatalf("expected stock 25, got %v", updated.Stock)
	}

	items, err := app.Inventory.Items(ctx)
	if err != nil {
		t.Fatalf("items failed: %v", err)
	}
	if len(items) != 1 || items[0].ProductID != product.ID || items[0].Quantity != 25 {
		t.Fatalf("expected mirroring inventory item, got %+v", items)
	}

	// Second set updates the existing mirror instead of adding another.
	if _, err := app.Inventory.SetProductStock(ctx, product.ID, 30); err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	items, _ = app.Inventory.Items(ctx)
	if len(items) != 1 || items[0].Quantity != 30 {
		t.Fatalf("expected single mirror at 30, got %+v", items)
	}
}
