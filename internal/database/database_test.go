package database

import (
	"context"
	"testing"

	"github.com/rajasatyajit/TravelAdvisor/config"
)

func TestNew_Unconfigured(t *testing.T) {
	db, err := New(context.Background(), config.DatabaseConfig{})
	if err != nil {
		t.Fatalf("Expected no error without DATABASE_URL, got %v", err)
	}

	if db.IsConfigured() {
		t.Errorf("Expected unconfigured DB")
	}

	ctx := context.Background()

	if err := db.Exec(ctx, "SELECT 1"); err != nil {
		t.Errorf("Expected Exec to be a no-op, got %v", err)
	}

	if _, err := db.Query(ctx, "SELECT 1"); err == nil {
		t.Errorf("Expected Query to fail without a pool")
	}

	if err := db.Health(ctx); err == nil {
		t.Errorf("Expected Health to fail without a pool")
	}

	db.Close(ctx)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "not-a-url\x00"})
	if err == nil {
		t.Errorf("Expected error for malformed URL")
	}
}
