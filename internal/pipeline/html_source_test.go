package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html><body>
<table id="advisories">
  <tr class="advisory">
    <td class="country"><a href="/advisories/france">France</a></td>
    <td class="level">Level 2: Exercise Increased Caution</td>
    <td class="date">2026-08-15</td>
    <td class="summary">Exercise increased caution due to terrorism and civil unrest.</td>
  </tr>
  <tr class="advisory">
    <td class="country"><a href="https://other.example.com/mali">Mali</a></td>
    <td class="level">Level 4: Do Not Travel</td>
    <td class="date">2026-08-10</td>
    <td class="summary">Do not travel due to crime, terrorism, and kidnapping.</td>
  </tr>
  <tr class="advisory">
    <td class="country"></td>
    <td class="level">Level 1</td>
    <td class="date"></td>
    <td class="summary">Row without a country is dropped.</td>
  </tr>
</table>
</body></html>`

func testSelectors() HTMLSelectors {
	return HTMLSelectors{
		Row:         "tr.advisory",
		Country:     "td.country",
		RiskLevel:   "td.level",
		Date:        "td.date",
		Description: "td.summary",
		Link:        "td.country a",
	}
}

func TestHTMLSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	src := NewHTMLSource("gov_uk", server.URL, testSelectors(), time.Hour)

	advisories, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(advisories) != 2 {
		t.Fatalf("Expected 2 advisories (empty-country row dropped), got %d", len(advisories))
	}

	first := advisories[0]
	if first.Country != "France" {
		t.Errorf("Expected France, got %q", first.Country)
	}
	if first.RiskLevel != "Level 2: Exercise Increased Caution" {
		t.Errorf("Unexpected risk level %q", first.RiskLevel)
	}
	if first.Date != "2026-08-15" {
		t.Errorf("Expected date from cell, got %q", first.Date)
	}
	if first.URL != server.URL+"/advisories/france" {
		t.Errorf("Expected relative link resolved, got %q", first.URL)
	}
	if first.Source != "gov_uk" {
		t.Errorf("Expected source set, got %q", first.Source)
	}

	if advisories[1].URL != "https://other.example.com/mali" {
		t.Errorf("Expected absolute link untouched, got %q", advisories[1].URL)
	}
}

func TestHTMLSource_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	src := NewHTMLSource("gov_uk", server.URL, testSelectors(), time.Hour)

	if _, err := src.Fetch(context.Background()); err == nil {
		t.Errorf("Expected error for HTTP 404")
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		page     string
		href     string
		expected string
	}{
		{"https://example.com/list", "/advisories/x", "https://example.com/advisories/x"},
		{"https://example.com/list", "advisories/x", "https://example.com/advisories/x"},
		{"https://example.com", "https://other.com/y", "https://other.com/y"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			if got := absoluteURL(tt.page, tt.href); got != tt.expected {
				t.Errorf("absoluteURL(%q, %q) = %q, want %q", tt.page, tt.href, got, tt.expected)
			}
		})
	}
}
