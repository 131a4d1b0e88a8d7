// Package sdk provides a minimal Go client for the TravelAdvisor API.
package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.traveladvisor.example.com"
	}
	return &Client{BaseURL: baseURL, HTTP: http.DefaultClient}
}

// Advisory mirrors the API's advisory resource.
type Advisory struct {
	ID                  string     `json:"id"`
	Source              string     `json:"source"`
	Country             string     `json:"country"`
	CountryNormalized   string     `json:"country_normalized"`
	RiskLevel           string     `json:"risk_level"`
	RiskLevelNormalized string     `json:"risk_level_normalized"`
	RiskScore           int        `json:"risk_score"`
	Date                string     `json:"date,omitempty"`
	DateParsed          *time.Time `json:"date_parsed,omitempty"`
	Description         string     `json:"description"`
	DescriptionCleaned  string     `json:"description_cleaned"`
	Keywords            []string   `json:"keywords"`
	HasSecurityConcerns bool       `json:"has_security_concerns"`
	HasSafetyConcerns   bool       `json:"has_safety_concerns"`
	HasSerenityConcerns bool       `json:"has_serenity_concerns"`
	SentimentScore      float64    `json:"sentiment_score"`
	URL                 string     `json:"url"`
	ScrapedAt           time.Time  `json:"scraped_at"`
}

// CountryInsight mirrors the API's aggregated country view.
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

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// Advisories lists advisories matching the given query parameters
// (country, source, risk_score, since, until, limit, offset).
func (c *Client) Advisories(ctx context.Context, params map[string]string) ([]Advisory, error) {
	u, err := url.Parse(c.BaseURL + "/v1/advisories")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	var out listResponse[Advisory]
	if err := c.getJSON(ctx, u.String(), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Advisory fetches a single advisory by ID.
func (c *Client) Advisory(ctx context.Context, id string) (*Advisory, error) {
	var out Advisory
	if err := c.getJSON(ctx, c.BaseURL+"/v1/advisories/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CountryInsight fetches the aggregated insight for one country. Aliases
// like "usa" are accepted.
func (c *Client) CountryInsight(ctx context.Context, country string) (*CountryInsight, error) {
	var out CountryInsight
	u := c.BaseURL + "/v1/countries/" + url.PathEscape(country) + "/insight"
	if err := c.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GlobalRisk fetches the ranking of countries by mean risk score.
func (c *Client) GlobalRisk(ctx context.Context) ([]CountryRisk, error) {
	var out listResponse[CountryRisk]
	if err := c.getJSON(ctx, c.BaseURL+"/v1/risk/by-country", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
