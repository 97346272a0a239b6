package loyalty

import (
	"testing"
	"time"

	"artisanal/backend/internal/domain"
)

func defaultEngine() *Engine {
	return NewEngine(domain.LoyaltySettings{PointsPerDollar: 1, Tiers: DefaultLadder()})
}

func TestTierForThresholds(t *testing.T) {
	engine := defaultEngine()

	cases := []struct {
		points int
		want   domain.TierName
	}{
		{0, domain.TierNone},
		{99, domain.TierNone},
		{100, domain.TierBronze},
		{450, domain.TierBronze},
		{500, domain.TierSilver},
		{999, domain.TierSilver},
		{1000, domain.TierGold},
		{2000, domain.TierPlatinum},
		{50000, domain.TierPlatinum},
	}
	for _, tc := range cases {
		if got := engine.TierFor(tc.points).Name; got != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.points, got, tc.want)
		}
	}
}

func TestPointsEarnedUsesTierMultiplier(t *testing.T) {
	engine := defaultEngine()

	if got := engine.PointsEarned(50, domain.TierBronze); got != 50 {
		t.Errorf("bronze earns at 1x: got %d, want 50", got)
	}
	if got := engine.PointsEarned(50, domain.TierSilver); got != 75 {
		t.Errorf("silver earns at 1.5x: got %d, want 75", got)
	}
	if got := engine.PointsEarned(33.40, domain.TierPlatinum); got != 100 {
		t.Errorf("platinum earns at 3x, floored: got %d, want 100", got)
	}
	if got := engine.PointsEarned(-5, domain.TierGold); got != 0 {
		t.Errorf("negative spend earns nothing: got %d", got)
	}
}

func TestCrossingTierBoundary(t *testing.T) {
	engine := defaultEngine()

	points := 450
	if engine.TierFor(points).Name != domain.TierBronze {
		t.Fatal("450 points should be bronze")
	}

	points += engine.PointsEarned(50, domain.TierBronze)
	if points != 500 {
		t.Fatalf("expected 500 points after $50 at bronze, got %d", points)
	}
	if engine.TierFor(points).Name != domain.TierSilver {
		t.Fatalf("500 points should promote to silver, got %s", engine.TierFor(points).Name)
	}
}

func TestDiscountPercent(t *testing.T) {
	engine := defaultEngine()

	if got := engine.DiscountPercent(50); got != 0 {
		t.Errorf("no tier has no discount, got %v", got)
	}
	if got := engine.DiscountPercent(1200); got != 15 {
		t.Errorf("gold discount should be 15, got %v", got)
	}
}

func TestBirthdayBonus(t *testing.T) {
	engine := defaultEngine()
	july := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)

	if got := engine.BirthdayBonus(600, "1990-07-02", july); got != 100 {
		t.Errorf("silver birthday in July: got %d, want 100", got)
	}
	if got := engine.BirthdayBonus(600, "1990-08-02", july); got != 0 {
		t.Errorf("birthday outside the month earns nothing, got %d", got)
	}
	if got := engine.BirthdayBonus(600, "", july); got != 0 {
		t.Errorf("missing birth date earns nothing, got %d", got)
	}
	if got := engine.BirthdayBonus(600, "not-a-date", july); got != 0 {
		t.Errorf("unparseable birth date earns nothing, got %d", got)
	}
}

func TestEngineDefaults(t *testing.T) {
	engine := NewEngine(domain.LoyaltySettings{})

	if engine.PointsPerDollar != 1 {
		t.Fatalf("expected default points-per-dollar 1, got %v", engine.PointsPerDollar)
	}
	if len(engine.Ladder) != 5 {
		t.Fatalf("expected stock ladder, got %d tiers", len(engine.Ladder))
	}
}
