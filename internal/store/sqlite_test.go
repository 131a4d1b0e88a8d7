package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "advisories.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	parsed := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	adv := testAdvisory("a1", "France", 3, now)
	adv.DateParsed = &parsed
	adv.Keywords = []string{"crime", "protest"}
	adv.HasSecurityConcerns = true
	adv.SentimentScore = -0.42

	if err := s.UpsertAdvisories(ctx, []models.CleanedAdvisory{adv}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := s.GetAdvisory(ctx, "a1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatalf("Expected advisory, got nil")
	}
	if got.CountryNormalized != "France" || got.RiskScore != 3 {
		t.Errorf("Unexpected fields: %+v", got)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "crime" {
		t.Errorf("Expected keywords round-tripped, got %v", got.Keywords)
	}
	if !got.HasSecurityConcerns {
		t.Errorf("Expected security flag round-tripped")
	}
	if got.SentimentScore != -0.42 {
		t.Errorf("Expected sentiment -0.42, got %f", got.SentimentScore)
	}
	if got.DateParsed == nil || !got.DateParsed.Equal(parsed) {
		t.Errorf("Expected parsed date %v, got %v", parsed, got.DateParsed)
	}
}

func TestSQLiteStore_NilDateParsed(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	adv := testAdvisory("a1", "France", 0, time.Now().UTC())
	adv.DateParsed = nil

	if err := s.UpsertAdvisories(ctx, []models.CleanedAdvisory{adv}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := s.GetAdvisory(ctx, "a1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.DateParsed != nil {
		t.Errorf("Expected nil parsed date, got %v", got.DateParsed)
	}
}

func TestSQLiteStore_UpsertUpdates(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	adv := testAdvisory("a1", "France", 2, now)
	if err := s.UpsertAdvisories(ctx, []models.CleanedAdvisory{adv}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	adv.RiskScore = 4
	adv.RiskLevelNormalized = "Do Not Travel"
	if err := s.UpsertAdvisories(ctx, []models.CleanedAdvisory{adv}); err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	got, _ := s.GetAdvisory(ctx, "a1")
	if got.RiskScore != 4 || got.RiskLevelNormalized != "Do Not Travel" {
		t.Errorf("Expected updated record, got %+v", got)
	}

	all, err := s.QueryAdvisories(ctx, models.AdvisoryQuery{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected 1 record after upsert, got %d", len(all))
	}
}

func TestSQLiteStore_QueryFilters(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seed := []models.CleanedAdvisory{
		testAdvisory("a1", "France", 2, base),
		testAdvisory("a2", "France", 4, base.Add(time.Hour)),
		testAdvisory("a3", "Germany", 1, base.Add(2*time.Hour)),
	}
	if err := s.UpsertAdvisories(ctx, seed); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	t.Run("By country", func(t *testing.T) {
		got, err := s.QueryAdvisories(ctx, models.AdvisoryQuery{Countries: []string{"France"}})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2, got %d", len(got))
		}
	})

	t.Run("By source and score", func(t *testing.T) {
		got, err := s.QueryAdvisories(ctx, models.AdvisoryQuery{
			Sources:    []string{"state_dept"},
			RiskScores: []int{1, 4},
		})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("Expected 2, got %d", len(got))
		}
	})

	t.Run("Newest first with limit", func(t *testing.T) {
		got, err := s.QueryAdvisories(ctx, models.AdvisoryQuery{Limit: 2})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(got) != 2 || got[0].ID != "a3" || got[1].ID != "a2" {
			t.Errorf("Expected a3,a2 got %+v", got)
		}
	})

	t.Run("Offset without limit", func(t *testing.T) {
		got, err := s.QueryAdvisories(ctx, models.AdvisoryQuery{Offset: 2})
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != "a1" {
			t.Errorf("Expected a1, got %+v", got)
		}
	})
}

func TestSQLiteStore_Health(t *testing.T) {
	s := newTestSQLiteStore(t)
	if err := s.Health(context.Background()); err != nil {
		t.Errorf("Expected healthy store, got %v", err)
	}
}
