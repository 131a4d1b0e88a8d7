package insights

import (
	"strings"
	"testing"
	"time"

	"github.com/rajasatyajit/TravelAdvisor/config"
	"github.com/rajasatyajit/TravelAdvisor/internal/classifier"
	"github.com/rajasatyajit/TravelAdvisor/internal/lexicon"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

var testNow = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	c := classifier.New(lexicon.New(config.LexiconConfig{Dir: t.TempDir(), MaxKeywords: 10}))
	a := New(c)
	a.now = func() time.Time { return testNow }
	return a
}

func record(country string, daysAgo int, score int, desc string) models.CleanedAdvisory {
	date := testNow.AddDate(0, 0, -daysAgo)
	return models.CleanedAdvisory{
		RawAdvisory: models.RawAdvisory{
			Source:      "state_dept",
			Country:     country,
			Description: desc,
		},
		CountryNormalized:  country,
		RiskScore:          score,
		DescriptionCleaned: desc,
		DateParsed:         &date,
	}
}

func TestSummarizeCountry(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		record("France", 5, 2, "Protests expected in major cities. Avoid demonstrations."),
		record("France", 30, 3, "Crime has increased. You should carry copies of your documents."),
		record("Germany", 5, 1, "Exercise normal precautions."),
	}

	insight := a.SummarizeCountry(records, "France", 365)
	if insight == nil {
		t.Fatalf("Expected insight, got nil")
	}

	if insight.Country != "France" {
		t.Errorf("Expected France, got %q", insight.Country)
	}
	if insight.NAdvisories != 2 {
		t.Errorf("Expected 2 advisories, got %d", insight.NAdvisories)
	}
	if insight.AvgRiskScore == nil || *insight.AvgRiskScore != 2.5 {
		t.Errorf("Expected avg 2.5, got %v", insight.AvgRiskScore)
	}
	if insight.RiskLevelText != "High" {
		t.Errorf("Expected 'High', got %q", insight.RiskLevelText)
	}
	if insight.RiskGrade != "C" {
		t.Errorf("Expected grade C, got %q", insight.RiskGrade)
	}
	if !insight.HasSecurityIssues {
		t.Errorf("Expected security issues from 'crime'")
	}
	if !insight.HasSerenityIssues {
		t.Errorf("Expected serenity issues from 'protest'")
	}
	if insight.HasSafetyIssues {
		t.Errorf("Did not expect safety issues")
	}
	if insight.LatestDate == nil || !insight.LatestDate.Equal(testNow.AddDate(0, 0, -5)) {
		t.Errorf("Expected latest date 5 days ago, got %v", insight.LatestDate)
	}
	if !strings.HasPrefix(insight.LatestSummary, "Protests expected") {
		t.Errorf("Expected summary from latest record, got %q", insight.LatestSummary)
	}
	if len(insight.Donts) == 0 {
		t.Errorf("Expected donts from 'Avoid demonstrations.'")
	}
	if len(insight.Dos) == 0 {
		t.Errorf("Expected dos from 'You should carry copies of your documents.'")
	}
	if len(insight.SecurityHighlights) == 0 {
		t.Errorf("Expected highlights mentioning concern terms")
	}
}

func TestSummarizeCountry_NoMatch(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		record("France", 5, 2, "Protests expected."),
	}

	if got := a.SummarizeCountry(records, "Spain", 365); got != nil {
		t.Errorf("Expected nil for unknown country, got %+v", got)
	}
	if got := a.SummarizeCountry(nil, "France", 365); got != nil {
		t.Errorf("Expected nil for empty record set, got %+v", got)
	}
	if got := a.SummarizeCountry(records, "", 365); got != nil {
		t.Errorf("Expected nil for empty country, got %+v", got)
	}
}

func TestSummarizeCountry_LookbackWindow(t *testing.T) {
	a := newTestAnalyzer(t)

	old := record("France", 400, 4, "Do not travel.")
	recent := record("France", 10, 2, "Exercise increased caution.")
	dateless := record("France", 0, 3, "No usable date.")
	dateless.DateParsed = nil

	insight := a.SummarizeCountry([]models.CleanedAdvisory{old, recent, dateless}, "France", 365)
	if insight == nil {
		t.Fatalf("Expected insight")
	}
	if insight.NAdvisories != 1 {
		t.Errorf("Expected only the recent record counted, got %d", insight.NAdvisories)
	}
	if insight.AvgRiskScore == nil || *insight.AvgRiskScore != 2.0 {
		t.Errorf("Expected avg 2.0, got %v", insight.AvgRiskScore)
	}

	// everything outside the window
	if got := a.SummarizeCountry([]models.CleanedAdvisory{old, dateless}, "France", 365); got != nil {
		t.Errorf("Expected nil when no record in window, got %+v", got)
	}
}

func TestSummarizeCountry_AllZeroScores(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		record("France", 5, 0, "Situation update."),
		record("France", 6, 0, "Another update."),
	}

	insight := a.SummarizeCountry(records, "France", 365)
	if insight == nil {
		t.Fatalf("Expected insight")
	}
	if insight.AvgRiskScore != nil {
		t.Errorf("Expected nil average for all-zero scores, got %v", *insight.AvgRiskScore)
	}
	if insight.RiskLevelText != "Unknown" {
		t.Errorf("Expected 'Unknown', got %q", insight.RiskLevelText)
	}
	if insight.RiskGrade != "U" {
		t.Errorf("Expected grade U, got %q", insight.RiskGrade)
	}
	if insight.NAdvisories != 2 {
		t.Errorf("Expected 2 advisories counted, got %d", insight.NAdvisories)
	}
}

func TestSummarizeCountry_SummaryTruncated(t *testing.T) {
	a := newTestAnalyzer(t)

	long := strings.Repeat("word ", 100)
	records := []models.CleanedAdvisory{record("France", 1, 2, long)}

	insight := a.SummarizeCountry(records, "France", 365)
	if insight == nil {
		t.Fatalf("Expected insight")
	}
	if len(insight.LatestSummary) > 283 {
		t.Errorf("Expected truncated summary, got %d chars", len(insight.LatestSummary))
	}
	if !strings.HasSuffix(insight.LatestSummary, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", insight.LatestSummary)
	}
}

func TestSummarizeCountry_CaseInsensitiveCountry(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{record("France", 5, 2, "Protests expected.")}

	insight := a.SummarizeCountry(records, "fRaNcE", 365)
	if insight == nil {
		t.Fatalf("Expected insight for case-insensitive lookup")
	}
	if insight.Country != "France" {
		t.Errorf("Expected canonical casing in output, got %q", insight.Country)
	}
}

func TestHighlights_OneSnippetPerRecord(t *testing.T) {
	a := newTestAnalyzer(t)

	multi := "The situation is calm in the capital. Violent crime occurs in the north. Armed robbery has been reported near the border."
	records := []models.CleanedAdvisory{
		record("France", 1, 3, multi),
		record("France", 2, 3, multi),
		record("France", 3, 2, "Terrorist groups continue plotting attacks."),
		record("France", 4, 1, "Exercise normal precautions when visiting."),
	}

	insight := a.SummarizeCountry(records, "France", 365)
	if insight == nil {
		t.Fatalf("Expected insight")
	}

	if len(insight.SecurityHighlights) != 2 {
		t.Fatalf("Expected 2 highlights (duplicate record and no-concern record dropped), got %v", insight.SecurityHighlights)
	}
	if !strings.HasPrefix(insight.SecurityHighlights[0], "The situation is calm") {
		t.Errorf("Expected snippet from the start of the record text, got %q", insight.SecurityHighlights[0])
	}
	if !strings.HasPrefix(insight.SecurityHighlights[1], "Terrorist groups") {
		t.Errorf("Expected second record's snippet, got %q", insight.SecurityHighlights[1])
	}
}

func TestHighlights_SnippetTruncated(t *testing.T) {
	a := newTestAnalyzer(t)

	long := "Crime is widespread. " + strings.Repeat("More detail follows. ", 30)
	records := []models.CleanedAdvisory{record("France", 1, 3, long)}

	insight := a.SummarizeCountry(records, "France", 365)
	if insight == nil || len(insight.SecurityHighlights) != 1 {
		t.Fatalf("Expected 1 highlight, got %+v", insight)
	}
	got := insight.SecurityHighlights[0]
	if len(got) != 223 {
		t.Errorf("Expected 220 chars plus ellipsis, got %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
}

func TestAttachDimensions(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		record("France", 1, 3, "Violent crime and armed robbery occur."),
		record("France", 2, 2, "Flooding expected after the earthquake."),
		record("France", 3, 1, "Demonstrations occur near tourist sites."),
		record("France", 4, 1, "Nothing of note."),
	}
	records[3].Keywords = []string{"protest"}

	out := a.AttachDimensions(records)
	if len(out) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(out))
	}

	if !out[0].HasSecurityConcerns || out[0].HasSafetyConcerns || out[0].HasSerenityConcerns {
		t.Errorf("Expected security only, got %+v", out[0])
	}
	if !out[1].HasSafetyConcerns {
		t.Errorf("Expected safety flag from flooding/earthquake")
	}
	if !out[2].HasSerenityConcerns {
		t.Errorf("Expected serenity flag from demonstrations")
	}
	if !out[3].HasSerenityConcerns {
		t.Errorf("Expected keywords to count toward dimensions")
	}

	if records[0].HasSecurityConcerns {
		t.Errorf("Expected input slice untouched")
	}
}

func TestRiskGrade(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		avg      *float64
		expected string
	}{
		{"Grade A", f(1.0), "A"},
		{"Grade B boundary", f(1.5), "B"},
		{"Grade C boundary", f(2.5), "C"},
		{"Grade D boundary", f(3.5), "D"},
		{"Grade E", f(4.0), "E"},
		{"Clamped low", f(0.2), "A"},
		{"Clamped high", f(5.0), "E"},
		{"Nil average", nil, "U"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := riskGrade(tt.avg); got != tt.expected {
				t.Errorf("riskGrade = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGlobalRiskByCountry(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		record("France", 5, 2, ""),
		record("France", 6, 4, ""),
		record("Germany", 5, 1, ""),
		record("Spain", 5, 0, ""),
	}

	ranking := a.GlobalRiskByCountry(records)

	if len(ranking) != 3 {
		t.Fatalf("Expected 3 countries, got %d", len(ranking))
	}
	if ranking[0].Country != "France" || ranking[0].MeanRiskScore != 3.0 {
		t.Errorf("Expected France at 3.0 first, got %+v", ranking[0])
	}
	if ranking[1].Country != "Germany" || ranking[1].MeanRiskScore != 1.0 {
		t.Errorf("Expected Germany at 1.0 second, got %+v", ranking[1])
	}
	if ranking[2].Country != "Spain" || ranking[2].MeanRiskScore != 0.0 {
		t.Errorf("Expected Spain at 0.0 last, got %+v", ranking[2])
	}
}

func TestGlobalRiskByCountry_ZeroScoresCountTowardMean(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		record("France", 5, 4, ""),
		record("France", 6, 0, ""),
	}

	ranking := a.GlobalRiskByCountry(records)
	if len(ranking) != 1 {
		t.Fatalf("Expected 1 country, got %d", len(ranking))
	}
	if ranking[0].MeanRiskScore != 2.0 {
		t.Errorf("Expected mean 2.0 over all records, got %v", ranking[0].MeanRiskScore)
	}
}

func TestGlobalRiskByCountry_TiesAlphabetical(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		record("Zambia", 5, 2, ""),
		record("Austria", 5, 2, ""),
	}

	ranking := a.GlobalRiskByCountry(records)
	if len(ranking) != 2 || ranking[0].Country != "Austria" {
		t.Errorf("Expected alphabetical tie-break, got %+v", ranking)
	}
}

func TestKeywordFrequencies(t *testing.T) {
	a := newTestAnalyzer(t)

	records := []models.CleanedAdvisory{
		{Keywords: []string{"crime", "protest"}},
		{Keywords: []string{"crime"}},
		{Keywords: []string{"border"}},
	}

	counts := a.KeywordFrequencies(records, 0)
	if len(counts) != 3 {
		t.Fatalf("Expected 3 keywords, got %d", len(counts))
	}
	if counts[0].Keyword != "crime" || counts[0].Count != 2 {
		t.Errorf("Expected crime=2 first, got %+v", counts[0])
	}
	if counts[1].Keyword != "border" {
		t.Errorf("Expected alphabetical tie-break, got %+v", counts[1])
	}

	limited := a.KeywordFrequencies(records, 1)
	if len(limited) != 1 {
		t.Errorf("Expected limit applied, got %d", len(limited))
	}
}
