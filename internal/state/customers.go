package state

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"artisanal/backend/internal/domain"
	"artisanal/backend/internal/syncer"
)

// Customers manages the customer list and its loyalty bookkeeping. The tier
// is always derived from the point balance, never set directly.
type Customers struct {
	coll     *syncer.Collection[domain.Customer, *domain.Customer]
	settings *Settings
}

func NewCustomers(coll *syncer.Collection[domain.Customer, *domain.Customer], settings *Settings) *Customers {
	return &Customers{coll: coll, settings: settings}
}

func (c *Customers) All(ctx context.Context) ([]domain.Customer, error) {
	return c.coll.GetAll(ctx)
}

func (c *Customers) Get(ctx context.Context, id string) (*domain.Customer, error) {
	return c.coll.GetByID(ctx, id)
}

func (c *Customers) Add(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(customer.Name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if customer.LoyaltyPoints < 0 {
		return nil, fmt.Errorf("%w: loyalty points must not be negative", ErrInvalidInput)
	}
	if customer.JoinDate == "" {
		customer.JoinDate = time.Now().UTC().Format(domain.DateLayout)
	}

	engine, err := c.settings.LoyaltyEngine(ctx)
	if err != nil {
		return nil, err
	}
	customer.LoyaltyTier = engine.TierFor(customer.LoyaltyPoints).Name

	return c.coll.Add(ctx, &customer)
}

func (c *Customers) Update(ctx context.Context, id string, update domain.CustomerUpdate) (*domain.Customer, error) {
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}
	if update.LoyaltyPoints != nil && *update.LoyaltyPoints < 0 {
		return nil, fmt.Errorf("%w: loyalty points must not be negative", ErrInvalidInput)
	}

	updated, err := c.coll.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}

	if update.LoyaltyPoints != nil {
		return c.rederiveTier(ctx, updated)
	}
	return updated, nil
}

func (c *Customers) Delete(ctx context.Context, id string) error {
	return c.coll.Delete(ctx, id)
}

type loyaltyPatch struct {
	LoyaltyPoints int             `json:"loyaltyPoints"`
	LoyaltyTier   domain.TierName `json:"loyaltyTier"`
}

// AddPoints credits points and promotes the tier when a threshold is
// crossed.
func (c *Customers) AddPoints(ctx context.Context, id string, points int) (*domain.Customer, error) {
	if points < 0 {
		return nil, fmt.Errorf("%w: points to add must not be negative", ErrInvalidInput)
	}
	customer, err := c.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.setPoints(ctx, id, customer.LoyaltyPoints+points)
}

// RedeemPoints debits points. On an insufficient balance the customer record
// is left untouched.
func (c *Customers) RedeemPoints(ctx context.Context, id string, points int) (*domain.Customer, error) {
	if points <= 0 {
		return nil, fmt.Errorf("%w: points to redeem must be positive", ErrInvalidInput)
	}
	customer, err := c.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.LoyaltyPoints < points {
		return nil, fmt.Errorf("%w: customer %s has %d, requested %d", ErrInsufficientPoints, customer.Name, customer.LoyaltyPoints, points)
	}
	return c.setPoints(ctx, id, customer.LoyaltyPoints-points)
}

func (c *Customers) setPoints(ctx context.Context, id string, points int) (*domain.Customer, error) {
	engine, err := c.settings.LoyaltyEngine(ctx)
	if err != nil {
		return nil, err
	}
	return c.coll.Update(ctx, id, loyaltyPatch{
		LoyaltyPoints: points,
		LoyaltyTier:   engine.TierFor(points).Name,
	})
}

func (c *Customers) rederiveTier(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	engine, err := c.settings.LoyaltyEngine(ctx)
	if err != nil {
		return nil, err
	}
	tier := engine.TierFor(customer.LoyaltyPoints).Name
	if tier == customer.LoyaltyTier {
		return customer, nil
	}
	return c.coll.Update(ctx, customer.ID, struct {
		LoyaltyTier domain.TierName `json:"loyaltyTier"`
	}{tier})
}

type visitPatch struct {
	LoyaltyPoints int             `json:"loyaltyPoints"`
	LoyaltyTier   domain.TierName `json:"loyaltyTier"`
	TotalSpent    float64         `json:"totalSpent"`
	LastVisitDate string          `json:"lastVisitDate"`
}

// RecordPurchase credits the points a sale earns at the customer's current
// tier and rolls the spend totals forward.
func (c *Customers) RecordPurchase(ctx context.Context, id string, amountSpent float64) (*domain.Customer, error) {
	if amountSpent < 0 {
		return nil, fmt.Errorf("%w: amount spent must not be negative", ErrInvalidInput)
	}
	customer, err := c.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	engine, err := c.settings.LoyaltyEngine(ctx)
	if err != nil {
		return nil, err
	}

	points := customer.LoyaltyPoints + engine.PointsEarned(amountSpent, customer.LoyaltyTier)
	return c.coll.Update(ctx, id, visitPatch{
		LoyaltyPoints: points,
		LoyaltyTier:   engine.TierFor(points).Name,
		TotalSpent:    customer.TotalSpent + amountSpent,
		LastVisitDate: time.Now().UTC().Format(domain.DateLayout),
	})
}

// GrantBirthdayBonus credits the tier's birthday bonus when now falls in the
// customer's birth month. Granting is idempotent per call site, not per
// month; callers schedule it.
func (c *Customers) GrantBirthdayBonus(ctx context.Context, id string, now time.Time) (*domain.Customer, error) {
	customer, err := c.coll.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	engine, err := c.settings.LoyaltyEngine(ctx)
	if err != nil {
		return nil, err
	}
	bonus := engine.BirthdayBonus(customer.LoyaltyPoints, customer.BirthDate, now)
	if bonus == 0 {
		return customer, nil
	}
	return c.setPoints(ctx, id, customer.LoyaltyPoints+bonus)
}

// DiscountPercent returns the standing discount for the customer's tier.
func (c *Customers) DiscountPercent(ctx context.Context, id string) (float64, error) {
	customer, err := c.coll.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	engine, err := c.settings.LoyaltyEngine(ctx)
	if err != nil {
		return 0, err
	}
	return engine.DiscountPercent(customer.LoyaltyPoints), nil
}

// Search matches name, email or phone, case-insensitively.
func (c *Customers) Search(ctx context.Context, query string) ([]domain.Customer, error) {
	all, err := c.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all, nil
	}
	out := make([]domain.Customer, 0)
	for _, customer := range all {
		if strings.Contains(strings.ToLower(customer.Name), query) ||
			strings.Contains(strings.ToLower(customer.Email), query) ||
			strings.Contains(customer.Phone, query) {
			out = append(out, customer)
		}
	}
	return out, nil
}

// TopBySpend returns up to n customers ordered by lifetime spend.
func (c *Customers) TopBySpend(ctx context.Context, n int) ([]domain.Customer, error) {
	all, err := c.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TotalSpent > all[j].TotalSpent })
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// BirthdaysInMonth lists customers whose birthday falls in now's month.
func (c *Customers) BirthdaysInMonth(ctx context.Context, now time.Time) ([]domain.Customer, error) {
	all, err := c.coll.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0)
	for _, customer := range all {
		if customer.BirthDate == "" {
			continue
		}
		born, err := time.Parse(domain.DateLayout, customer.BirthDate)
		if err != nil {
			continue
		}
		if born.Month() == now.Month() {
			out = append(out, customer)
		}
	}
	return out, nil
}
