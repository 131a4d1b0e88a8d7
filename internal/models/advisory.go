package models

import "time"

// RawAdvisory is one travel-risk statement for a country as produced by a
// scraping source. Records are immutable once created.
type RawAdvisory struct {
	Source      string    `json:"source" db:"source"`
	Country     string    `json:"country" db:"country"`
	RiskLevel   string    `json:"risk_level" db:"risk_level"`
	Date        string    `json:"date,omitempty" db:"date"`
	Description string    `json:"description" db:"description"`
	URL         string    `json:"url" db:"url"`
	ScrapedAt   time.Time `json:"scraped_at" db:"scraped_at"`
}

// CleanedAdvisory is a RawAdvisory plus the fields derived by the cleaner.
// RiskScore is a deterministic function of RiskLevelNormalized; 0 means no
// known severity token was recognized.
type CleanedAdvisory struct {
	RawAdvisory

	ID                  string     `json:"id" db:"id"`
	CountryNormalized   string     `json:"country_normalized" db:"country_normalized"`
	RiskLevelNormalized string     `json:"risk_level_normalized" db:"risk_level_normalized"`
	RiskScore           int        `json:"risk_score" db:"risk_score"`
	DescriptionCleaned  string     `json:"description_cleaned" db:"description_cleaned"`
	Keywords            []string   `json:"keywords" db:"keywords"`
	HasSecurityConcerns bool       `json:"has_security_concerns" db:"has_security_concerns"`
	HasSafetyConcerns   bool       `json:"has_safety_concerns" db:"has_safety_concerns"`
	HasSerenityConcerns bool       `json:"has_serenity_concerns" db:"has_serenity_concerns"`
	SentimentScore      float64    `json:"sentiment_score" db:"sentiment_score"`
	DateParsed          *time.Time `json:"date_parsed,omitempty" db:"date_parsed"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// CountryInsight is the aggregated, human-readable summary for one country.
// It is ephemeral: recomputed on demand, never persisted.
type CountryInsight struct {
	Country            string     `json:"country"`
	AvgRiskScore       *float64   `json:"avg_risk_score"`
	RiskLevelText      string     `json:"risk_level_text"`
	RiskGrade          string     `json:"risk_grade"`
	NAdvisories        int        `json:"n_advisories"`
	HasSecurityIssues  bool       `json:"has_security_issues"`
	HasSafetyIssues    bool       `json:"has_safety_issues"`
	HasSerenityIssues  bool       `json:"has_serenity_issues"`
	LatestDate         *time.Time `json:"latest_date,omitempty"`
	LatestSummary      string     `json:"latest_summary"`
	SecurityHighlights []string   `json:"security_highlights"`
	Dos                []string   `json:"dos"`
	Donts              []string   `json:"donts"`
}

// CountryRisk is one row of the global risk ranking.
type CountryRisk struct {
	Country       string  `json:"country"`
	MeanRiskScore float64 `json:"mean_risk_score"`
}

// AdvisoryQuery represents query parameters for filtering advisories
type AdvisoryQuery struct {
	IDs        []string  `json:"ids"`
	Sources    []string  `json:"sources"`
	Countries  []string  `json:"countries"`
	RiskScores []int     `json:"risk_scores"`
	Since      time.Time `json:"since"`
	Until      time.Time `json:"until"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
}

// Matches checks if an advisory matches the query criteria. Country filters
// compare against the normalized country name.
func (q AdvisoryQuery) Matches(a CleanedAdvisory) bool {
	if len(q.IDs) > 0 && !contains(q.IDs, a.ID) {
		return false
	}
	if len(q.Sources) > 0 && !contains(q.Sources, a.Source) {
		return false
	}
	if len(q.Countries) > 0 && !contains(q.Countries, a.CountryNormalized) {
		return false
	}
	if len(q.RiskScores) > 0 && !containsInt(q.RiskScores, a.RiskScore) {
		return false
	}
	if !q.Since.IsZero() && a.ScrapedAt.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && a.ScrapedAt.After(q.Until) {
		return false
	}
	return true
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func containsInt(slice []int, item int) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
