package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Travel Advisories</title>
    <item>
      <title>Austria - Level 1: Exercise Normal Precautions</title>
      <description>Exercise normal precautions in Austria.</description>
      <link>https://example.com/advisories/austria</link>
      <pubDate>Mon, 17 Aug 2026 10:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Haiti - Level 4: Do Not Travel</title>
      <description>Do not travel due to kidnapping and civil unrest.</description>
      <link>https://example.com/advisories/haiti</link>
      <pubDate>Tue, 18 Aug 2026 10:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestRSSSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	src := NewRSSSource("state_dept", []string{server.URL}, time.Hour)

	advisories, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(advisories) != 2 {
		t.Fatalf("Expected 2 advisories, got %d", len(advisories))
	}

	first := advisories[0]
	if first.Country != "Austria" {
		t.Errorf("Expected Austria, got %q", first.Country)
	}
	if first.RiskLevel != "Level 1: Exercise Normal Precautions" {
		t.Errorf("Unexpected risk level %q", first.RiskLevel)
	}
	if first.Date != "2026-08-17" {
		t.Errorf("Expected normalized date 2026-08-17, got %q", first.Date)
	}
	if first.Source != "state_dept" {
		t.Errorf("Expected source set, got %q", first.Source)
	}
	if first.URL != "https://example.com/advisories/austria" {
		t.Errorf("Unexpected URL %q", first.URL)
	}
	if first.ScrapedAt.IsZero() {
		t.Errorf("Expected scraped_at set")
	}

	if advisories[1].Country != "Haiti" || advisories[1].RiskLevel != "Level 4: Do Not Travel" {
		t.Errorf("Unexpected second advisory: %+v", advisories[1])
	}
}

func TestRSSSource_FailedFeedSkipped(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer good.Close()

	src := NewRSSSource("state_dept", []string{bad.URL, good.URL}, time.Hour)

	advisories, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(advisories) != 2 {
		t.Errorf("Expected advisories from healthy feed, got %d", len(advisories))
	}
}

func TestParseAdvisoryTitle(t *testing.T) {
	tests := []struct {
		title   string
		country string
		risk    string
	}{
		{"Austria - Level 1: Exercise Normal Precautions", "Austria", "Level 1: Exercise Normal Precautions"},
		{"Bosnia and Herzegovina - Level 2: Exercise Increased Caution", "Bosnia and Herzegovina", "Level 2: Exercise Increased Caution"},
		{"Plain Country", "Plain Country", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			country, risk := ParseAdvisoryTitle(tt.title)
			if country != tt.country || risk != tt.risk {
				t.Errorf("ParseAdvisoryTitle(%q) = (%q, %q), want (%q, %q)",
					tt.title, country, risk, tt.country, tt.risk)
			}
		})
	}
}

func TestNormalizePubDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Mon, 17 Aug 2026 10:00:00 +0000", "2026-08-17"},
		{"Mon, 17 Aug 2026 10:00:00 GMT", "2026-08-17"},
		{"yesterday", "yesterday"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizePubDate(tt.input); got != tt.expected {
				t.Errorf("normalizePubDate(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
