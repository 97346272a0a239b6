// Package loyalty derives customer tiers, discounts and point awards from a
// configurable tier ladder.
package loyalty

import (
	"math"
	"sort"
	"time"

	"artisanal/backend/internal/domain"
)

// DefaultLadder returns the stock tier ladder. Thresholds are lifetime
// points; the multiplier scales points earned per purchase.
func DefaultLadder() []domain.LoyaltyTier {
	return []domain.LoyaltyTier{
		{Name: domain.TierNone, PointsNeeded: 0, DiscountPercentage: 0, BirthdayBonus: 0, PointsMultiplier: 1},
		{Name: domain.TierBronze, PointsNeeded: 100, DiscountPercentage: 5, BirthdayBonus: 50, PointsMultiplier: 1},
		{Name: domain.TierSilver, PointsNeeded: 500, DiscountPercentage: 10, BirthdayBonus: 100, PointsMultiplier: 1.5},
		{Name: domain.TierGold, PointsNeeded: 1000, DiscountPercentage: 15, BirthdayBonus: 200, PointsMultiplier: 2},
		{Name: domain.TierPlatinum, PointsNeeded: 2000, DiscountPercentage: 20, BirthdayBonus: 500, PointsMultiplier: 3},
	}
}

// Engine evaluates the ladder for a given points configuration.
type Engine struct {
	Ladder          []domain.LoyaltyTier
	PointsPerDollar float64
}

func NewEngine(settings domain.LoyaltySettings) *Engine {
	ladder := settings.Tiers
	if len(ladder) == 0 {
		ladder = DefaultLadder()
	}
	ppd := settings.PointsPerDollar
	if ppd <= 0 {
		ppd = 1
	}
	return &Engine{Ladder: ladder, PointsPerDollar: ppd}
}

// TierFor returns the highest tier whose threshold the points reach.
func (e *Engine) TierFor(points int) domain.LoyaltyTier {
	sorted := make([]domain.LoyaltyTier, len(e.Ladder))
	copy(sorted, e.Ladder)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PointsNeeded > sorted[j].PointsNeeded })

	for _, tier := range sorted {
		if points >= tier.PointsNeeded {
			return tier
		}
	}
	return domain.LoyaltyTier{Name: domain.TierNone, PointsMultiplier: 1}
}

// TierByName looks a tier up by its name, falling back to the no-tier entry.
func (e *Engine) TierByName(name domain.TierName) domain.LoyaltyTier {
	for _, tier := range e.Ladder {
		if tier.Name == name {
			return tier
		}
	}
	return domain.LoyaltyTier{Name: domain.TierNone, PointsMultiplier: 1}
}

// PointsEarned converts an amount spent into points, scaled by the tier the
// customer currently holds and rounded down.
func (e *Engine) PointsEarned(amountSpent float64, current domain.TierName) int {
	if amountSpent <= 0 {
		return 0
	}
	multiplier := e.TierByName(current).PointsMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	return int(math.Floor(amountSpent * e.PointsPerDollar * multiplier))
}

// DiscountPercent returns the standing discount for the customer's tier.
func (e *Engine) DiscountPercent(points int) float64 {
	return e.TierFor(points).DiscountPercentage
}

// BirthdayBonus returns the tier's bonus points when now falls in the
// customer's birth month, zero otherwise. birthDate uses domain.DateLayout.
func (e *Engine) BirthdayBonus(points int, birthDate string, now time.Time) int {
	if birthDate == "" {
		return 0
	}
	born, err := time.Parse(domain.DateLayout, birthDate)
	if err != nil {
		return 0
	}
	if born.Month() != now.Month() {
		return 0
	}
	return e.TierFor(points).BirthdayBonus
}
