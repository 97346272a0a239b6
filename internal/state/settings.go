package state

import (
	"context"
	"encoding/json"
	"fmt"

	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/kv"
	"artisanal/backend/internal/loyalty"
)

const (
	businessSettingsKey  = "businessSettings"
	receiptSettingsKey   = "receiptSettings"
	inventorySettingsKey = "inventorySettings"
	loyaltySettingsKey   = "loyaltySettings"
)

// Settings persists the four settings groups in the key-value store and
// serves built-in defaults until the operator saves their own.
type Settings struct {
	kv kv.Store
}

func NewSettings(store kv.Store) *Settings {
	return &Settings{kv: store}
}

func defaultBusinessSettings() domain.BusinessSettings {
	return domain.BusinessSettings{
		Name:          "Renee's Artisinal",
		Address:       "123 Main Street",
		Phone:         "555-0100",
		Email:         "hello@renees-artisinal.example",
		TaxRate:       7,
		TaxApplicable: true,
	}
}

func defaultReceiptSettings() domain.ReceiptSettings {
	return domain.ReceiptSettings{
		ShowLogo:       true,
		DefaultMessage: "Thank you for your visit!",
	}
}

func defaultInventorySettings() domain.InventorySettings {
	return domain.InventorySettings{
		EnableAutoReorderAlerts: true,
		LowStockThreshold:       10,
		WastageAlertThreshold:   5,
		ExpiringSoonDays:        7,
	}
}

func defaultLoyaltySettings() domain.LoyaltySettings {
	return domain.LoyaltySettings{
		PointsPerDollar: 1,
		Tiers:           loyalty.DefaultLadder(),
	}
}

func (s *Settings) Business(ctx context.Context) (domain.BusinessSettings, error) {
	out := defaultBusinessSettings()
	err := s.load(ctx, businessSettingsKey, &out)
	return out, err
}

func (s *Settings) SaveBusiness(ctx context.Context, settings domain.BusinessSettings) error {
	if settings.TaxRate < 0 {
		return fmt.Errorf("%w: tax rate must not be negative", ErrInvalidInput)
	}
	return s.kv.Set(ctx, businessSettingsKey, settings)
}

func (s *Settings) Receipt(ctx context.Context) (domain.ReceiptSettings, error) {
	out := defaultReceiptSettings()
	err := s.load(ctx, receiptSettingsKey, &out)
	return out, err
}

func (s *Settings) SaveReceipt(ctx context.Context, settings domain.ReceiptSettings) error {
	return s.kv.Set(ctx, receiptSettingsKey, settings)
}

func (s *Settings) Inventory(ctx context.Context) (domain.InventorySettings, error) {
	out := defaultInventorySettings()
	err := s.load(ctx, inventorySettingsKey, &out)
	return out, err
}

func (s *Settings) SaveInventory(ctx context.Context, settings domain.InventorySettings) error {
	if settings.LowStockThreshold < 0 || settings.ExpiringSoonDays < 0 {
		return fmt.Errorf("%w: thresholds must not be negative", ErrInvalidInput)
	}
	return s.kv.Set(ctx, inventorySettingsKey, settings)
}

func (s *Settings) Loyalty(ctx context.Context) (domain.LoyaltySettings, error) {
	out := defaultLoyaltySettings()
	err := s.load(ctx, loyaltySettingsKey, &out)
	return out, err
}

func (s *Settings) SaveLoyalty(ctx context.Context, settings domain.LoyaltySettings) error {
	if settings.PointsPerDollar < 0 {
		return fmt.Errorf("%w: points per dollar must not be negative", ErrInvalidInput)
	}
	return s.kv.Set(ctx, loyaltySettingsKey, settings)
}

// LoyaltyEngine builds an engine from the saved loyalty settings.
func (s *Settings) LoyaltyEngine(ctx context.Context) (*loyalty.Engine, error) {
	settings, err := s.Loyalty(ctx)
	if err != nil {
		return nil, err
	}
	return loyalty.NewEngine(settings), nil
}

func (s *Settings) load(ctx context.Context, key string, out any) error {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
