package state

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"artisanal/backend/internal/docstore"
	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/syncer"
)

// usageWindowDays is the window the daily-usage estimate is averaged over.
const usageWindowDays = 30

// Inventory manages stock records, recipes and waste. Product stock in the
// catalog is authoritative; inventory items mirror it with batch and
// expiration detail.
type Inventory struct {
	items    *syncer.Collection[domain.InventoryItem, *domain.InventoryItem]
	recipes  *syncer.Collection[domain.Recipe, *domain.Recipe]
	waste    *syncer.Collection[domain.WasteRecord, *domain.WasteRecord]
	products *Products
	settings *Settings
	notifier Notifier
}

func NewInventory(
	items *syncer.Collection[domain.InventoryItem, *domain.InventoryItem],
	recipes *syncer.Collection[domain.Recipe, *domain.Recipe],
	waste *syncer.Collection[domain.WasteRecord, *domain.WasteRecord],
	products *Products,
	settings *Settings,
	notifier Notifier,
) *Inventory {
	return &Inventory{items: items, recipes: recipes, waste: waste, products: products, settings: settings, notifier: notifier}
}

func (v *Inventory) Items(ctx context.Context) ([]domain.InventoryItem, error) {
	return v.items.GetAll(ctx)
}

func (v *Inventory) AddItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	if item.ProductID == "" {
		return nil, fmt.Errorf("%w: inventory item needs a product id", ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}
	if item.LastUpdated == "" {
		item.LastUpdated = time.Now().UTC().Format(domain.DateLayout)
	}
	return v.items.Add(ctx, &item)
}

func (v *Inventory) DeleteItem(ctx context.Context, id string) error {
	return v.items.Delete(ctx, id)
}

type itemQuantityPatch struct {
	Quantity    float64 `json:"quantity"`
	LastUpdated string  `json:"lastUpdated"`
}

// SetProductStock sets a product's stock to an absolute quantity and brings
// the mirroring inventory item along, creating one when none exists.
func (v *Inventory) SetProductStock(ctx context.Context, productID string, quantity float64) (*domain.Product, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	product, err := v.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}

	updated, err := v.products.AdjustStock(ctx, productID, quantity-product.Stock)
	if err != nil {
		return nil, err
	}

	items, err := v.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	today := time.Now().UTC().Format(domain.DateLayout)
	mirrored := false
	for _, item := range items {
		if item.ProductID != productID {
			continue
		}
		if _, err := v.items.Update(ctx, item.ID, itemQuantityPatch{Quantity: quantity, LastUpdated: today}); err != nil {
			return nil, err
		}
		mirrored = true
		break
	}
	if !mirrored {
		if _, err := v.items.Add(ctx, &domain.InventoryItem{
			ProductID:   productID,
			Quantity:    quantity,
			UnitCost:    updated.Cost,
			LastUpdated: today,
		}); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (v *Inventory) Recipes(ctx context.Context) ([]domain.Recipe, error) {
	return v.recipes.GetAll(ctx)
}

func (v *Inventory) AddRecipe(ctx context.Context, recipe domain.Recipe) (*domain.Recipe, error) {
	if strings.TrimSpace(recipe.Name) == "" {
		return nil, fmt.Errorf("%w: recipe name is required", ErrInvalidInput)
	}
	if recipe.ProductID == "" {
		return nil, fmt.Errorf("%w: recipe needs the product it prepares", ErrInvalidInput)
	}
	if len(recipe.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: recipe needs at least one ingredient", ErrInvalidInput)
	}
	for _, ing := range recipe.Ingredients {
		if ing.Quantity <= 0 {
			return nil, fmt.Errorf("%w: ingredient %s quantity must be positive", ErrInvalidInput, ing.ProductID)
		}
	}
	return v.recipes.Add(ctx, &recipe)
}

func (v *Inventory) UpdateRecipe(ctx context.Context, id string, update domain.RecipeUpdate) (*domain.Recipe, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: recipe name is required", ErrInvalidInput)
	}
	if update.Ingredients != nil {
		if len(*update.Ingredients) == 0 {
			return nil, fmt.Errorf("%w: recipe needs at least one ingredient", ErrInvalidInput)
		}
		for _, ing := range *update.Ingredients {
			if ing.Quantity <= 0 {
				return nil, fmt.Errorf("%w: ingredient %s quantity must be positive", ErrInvalidInput, ing.ProductID)
			}
		}
	}
	return v.recipes.Update(ctx, id, update)
}

func (v *Inventory) DeleteRecipe(ctx context.Context, id string) error {
	return v.recipes.Delete(ctx, id)
}

// RecipeForProduct finds the recipe that prepares the given product.
func (v *Inventory) RecipeForProduct(ctx context.Context, productID string) (*domain.Recipe, error) {
	all, err := v.recipes.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ProductID == productID {
			recipe := all[i]
			return &recipe, nil
		}
	}
	return nil, fmt.Errorf("recipe for product %s: %w", productID, docstore.ErrNotFound)
}

// PrepareProduct prepares a quantity of the given product via its recipe.
func (v *Inventory) PrepareProduct(ctx context.Context, productID string, quantity float64) (*domain.Product, error) {
	recipe, err := v.RecipeForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return v.PrepareItem(ctx, recipe.ID, quantity)
}

// PrepareItem consumes a recipe's ingredients and adds the prepared quantity
// to the product's stock. Every required ingredient is checked before any
// stock moves; on a shortage nothing changes and the error lists every
// shortfall. Optional ingredients that are short are simply skipped.
func (v *Inventory) PrepareItem(ctx context.Context, recipeID string, quantity float64) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: prepared quantity must be positive", ErrInvalidInput)
	}
	recipe, err := v.recipes.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	type draw struct {
		productID string
		amount    float64
	}
	draws := make([]draw, 0, len(recipe.Ingredients))
	var missing []IngredientShortage

	for _, ing := range recipe.Ingredients {
		required := ing.Quantity * quantity
		product, err := v.products.Get(ctx, ing.ProductID)
		if err != nil {
			if ing.Optional {
				continue
			}
			return nil, fmt.Errorf("ingredient %s: %w", ing.ProductID, err)
		}
		if product.Stock < required {
			if ing.Optional {
				continue
			}
			missing = append(missing, IngredientShortage{
				ProductID: ing.ProductID,
				Name:      product.Name,
				Required:  required,
				Available: product.Stock,
			})
			continue
		}
		draws = append(draws, draw{productID: ing.ProductID, amount: required})
	}

	if len(missing) > 0 {
		return nil, &InsufficientIngredientsError{RecipeName: recipe.Name, Missing: missing}
	}

	for _, d := range draws {
		if _, err := v.products.AdjustStock(ctx, d.productID, -d.amount); err != nil {
			return nil, fmt.Errorf("consume ingredient %s: %w", d.productID, err)
		}
	}
	return v.products.AdjustStock(ctx, recipe.ProductID, quantity)
}

func (v *Inventory) WasteRecords(ctx context.Context) ([]domain.WasteRecord, error) {
	return v.waste.GetAll(ctx)
}

// RecordWaste writes a waste record and removes the quantity from stock.
// CostImpact is captured from the product's current cost; the record is not
// editable afterwards.
func (v *Inventory) RecordWaste(ctx context.Context, record domain.WasteRecord) (*domain.WasteRecord, error) {
	if record.Quantity <= 0 {
		return nil, fmt.Errorf("%w: waste quantity must be positive", ErrInvalidInput)
	}
	switch record.Reason {
	case domain.WasteExpired, domain.WasteDamaged, domain.WasteReturned, domain.WasteSpoiled, domain.WasteOther:
	default:
		return nil, fmt.Errorf("%w: unknown waste reason %q", ErrInvalidInput, record.Reason)
	}

	product, err := v.products.Get(ctx, record.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < record.Quantity {
		return nil, fmt.Errorf("%w: product %s has %.2f, wasting %.2f", ErrInsufficientStock, product.Name, product.Stock, record.Quantity)
	}

	record.CostImpact = product.Cost * record.Quantity
	if record.Date == "" {
		record.Date = time.Now().UTC().Format(domain.DateLayout)
	}

	recorded, err := v.waste.Add(ctx, &record)
	if err != nil {
		return nil, err
	}
	if _, err := v.products.AdjustStock(ctx, record.ProductID, -record.Quantity); err != nil {
		return nil, err
	}

	settings, err := v.settings.Inventory(ctx)
	if err == nil && settings.WastageAlertThreshold > 0 && record.Quantity >= settings.WastageAlertThreshold {
		v.notifier.Notify(ctx, "High wastage",
			fmt.Sprintf("%.2f %s of %s wasted (%s)", record.Quantity, product.Unit, product.Name, record.Reason))
	}
	return recorded, nil
}

// DeleteWasteRecord removes the record. The stock it consumed is gone and is
// not returned.
func (v *Inventory) DeleteWasteRecord(ctx context.Context, id string) error {
	return v.waste.Delete(ctx, id)
}

// TotalWasteCost sums cost impact over the date range.
func (v *Inventory) TotalWasteCost(ctx context.Context, from, to string) (float64, error) {
	all, err := v.waste.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, record := range all {
		if record.Date >= from && record.Date <= to {
			total += record.CostImpact
		}
	}
	return total, nil
}

// WasteByReason aggregates waste cost per reason.
func (v *Inventory) WasteByReason(ctx context.Context) (map[domain.WasteReason]float64, error) {
	all, err := v.waste.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.WasteReason]float64)
	for _, record := range all {
		out[record.Reason] += record.CostImpact
	}
	return out, nil
}

// ReorderSuggestion is one row of the reorder report.
type ReorderSuggestion struct {
	ProductID         string
	Name              string
	Stock             float64
	DailyUsage        float64
	DaysLeft          float64
	SuggestedQuantity float64
}

// ReorderSuggestions estimates each product's daily usage as consumption
// since its stock was initialized, wastage included, averaged over the usage
// window. Products below their threshold or projected to run out within the
// window make the list.
func (v *Inventory) ReorderSuggestions(ctx context.Context) ([]ReorderSuggestion, error) {
	settings, err := v.settings.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	products, err := v.products.All(ctx)
	if err != nil {
		return nil, err
	}
	wasteRecords, err := v.waste.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	wasteByProduct := make(map[string]float64)
	for _, record := range wasteRecords {
		wasteByProduct[record.ProductID] += record.Quantity
	}

	out := make([]ReorderSuggestion, 0)
	for _, product := range products {
		consumed := product.InitialStock - product.Stock + wasteByProduct[product.ID]
		if consumed < 0 {
			consumed = 0
		}
		dailyUsage := consumed / usageWindowDays

		threshold := product.MinStock
		if threshold <= 0 {
			threshold = settings.LowStockThreshold
		}

		daysLeft := math.Inf(1)
		if dailyUsage > 0 {
			daysLeft = product.Stock / dailyUsage
		}

		if product.Stock > threshold && daysLeft > usageWindowDays {
			continue
		}

		suggested := dailyUsage*usageWindowDays - product.Stock
		if suggested < threshold {
			suggested = threshold
		}
		out = append(out, ReorderSuggestion{
			ProductID:         product.ID,
			Name:              product.Name,
			Stock:             product.Stock,
			DailyUsage:        dailyUsage,
			DaysLeft:          daysLeft,
			SuggestedQuantity: math.Ceil(suggested),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DaysLeft < out[j].DaysLeft })
	return out, nil
}

// ExpiringItems lists inventory items whose expiration date falls between
// today and the configured look-ahead. Already-expired stock is not
// "expiring soon" and stays out.
func (v *Inventory) ExpiringItems(ctx context.Context, now time.Time) ([]domain.InventoryItem, error) {
	settings, err := v.settings.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	items, err := v.items.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	today := now.UTC().Format(domain.DateLayout)
	horizon := now.AddDate(0, 0, settings.ExpiringSoonDays).Format(domain.DateLayout)

	out := make([]domain.InventoryItem, 0)
	for _, item := range items {
		if item.ExpirationDate == "" {
			continue
		}
		if item.ExpirationDate >= today && item.ExpirationDate <= horizon {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpirationDate < out[j].ExpirationDate })
	return out, nil
}
