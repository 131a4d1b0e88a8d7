package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

func newTestCache(t *testing.T) (*InsightCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := New("redis://"+mr.Addr(), 10*time.Minute)
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func sampleInsight() *models.CountryInsight {
	avg := 2.5
	return &models.CountryInsight{
		Country:       "France",
		AvgRiskScore:  &avg,
		RiskLevelText: "High",
		RiskGrade:     "C",
		NAdvisories:   3,
		Dos:           []string{"Register with your embassy."},
	}
}

func TestInsightCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if _, ok := c.GetInsight(ctx, "France"); ok {
		t.Fatalf("Expected miss on empty cache")
	}

	c.SetInsight(ctx, "France", sampleInsight())

	got, ok := c.GetInsight(ctx, "France")
	if !ok {
		t.Fatalf("Expected hit after set")
	}
	if got.Country != "France" || got.RiskGrade != "C" || got.NAdvisories != 3 {
		t.Errorf("Unexpected cached insight: %+v", got)
	}
	if got.AvgRiskScore == nil || *got.AvgRiskScore != 2.5 {
		t.Errorf("Expected avg 2.5 round-tripped, got %v", got.AvgRiskScore)
	}
}

func TestInsightCache_KeyNormalization(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetInsight(ctx, "France", sampleInsight())

	if _, ok := c.GetInsight(ctx, "  fRaNcE "); !ok {
		t.Errorf("Expected case-insensitive key lookup to hit")
	}
}

func TestInsightCache_TTLExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.SetInsight(ctx, "France", sampleInsight())
	mr.FastForward(11 * time.Minute)

	if _, ok := c.GetInsight(ctx, "France"); ok {
		t.Errorf("Expected miss after TTL expiry")
	}
}

func TestInsightCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.SetInsight(ctx, "France", sampleInsight())
	c.SetInsight(ctx, "Germany", sampleInsight())

	c.Invalidate(ctx)

	if _, ok := c.GetInsight(ctx, "France"); ok {
		t.Errorf("Expected France invalidated")
	}
	if _, ok := c.GetInsight(ctx, "Germany"); ok {
		t.Errorf("Expected Germany invalidated")
	}
}

func TestInsightCache_NilSafe(t *testing.T) {
	var c *InsightCache
	ctx := context.Background()

	if _, ok := c.GetInsight(ctx, "France"); ok {
		t.Errorf("Expected nil cache to miss")
	}
	c.SetInsight(ctx, "France", sampleInsight())
	c.Invalidate(ctx)
	if err := c.Close(); err != nil {
		t.Errorf("Expected nil Close error, got %v", err)
	}
}

func TestInsightCache_DisabledWhenNoURL(t *testing.T) {
	c, err := New("", time.Minute)
	if err != nil {
		t.Fatalf("Expected no error for empty URL, got %v", err)
	}
	if c != nil {
		t.Errorf("Expected nil cache when disabled")
	}
}
