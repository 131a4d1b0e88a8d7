package pipeline

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// RSSSource implements Source for advisory RSS feeds. Feeds are expected to
// carry one item per country with titles like
// "Austria - Level 1: Exercise Normal Precautions".
type RSSSource struct {
	name     string
	urls     []string
	interval time.Duration
	client   *http.Client
}

// NewRSSSource creates a new RSS source polling at the given interval.
func NewRSSSource(name string, urls []string, interval time.Duration) *RSSSource {
	return &RSSSource{
		name:     name,
		urls:     urls,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the source name
func (r *RSSSource) Name() string {
	return r.name
}

// Interval returns the polling interval
func (r *RSSSource) Interval() time.Duration {
	return r.interval
}

// Fetch fetches advisories from all configured feeds. A failing feed is
// logged and skipped so the other feeds still land.
func (r *RSSSource) Fetch(ctx context.Context) ([]models.RawAdvisory, error) {
	var all []models.RawAdvisory

	for _, url := range r.urls {
		advisories, err := r.fetchFromURL(ctx, url)
		if err != nil {
			logger.Warn("Feed fetch failed", "source", r.name, "url", url, "error", err)
			continue
		}
		all = append(all, advisories...)
	}

	return all, nil
}

// fetchFromURL fetches and parses RSS from a single URL
func (r *RSSSource) fetchFromURL(ctx context.Context, url string) ([]models.RawAdvisory, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "TravelAdvisor-Monitor/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch RSS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var rss RSS
	if err := xml.NewDecoder(resp.Body).Decode(&rss); err != nil {
		return nil, fmt.Errorf("parse RSS: %w", err)
	}

	return r.convertToAdvisories(rss, url), nil
}

// convertToAdvisories converts RSS items to raw advisory records
func (r *RSSSource) convertToAdvisories(rss RSS, feedURL string) []models.RawAdvisory {
	now := time.Now().UTC()
	var advisories []models.RawAdvisory

	for _, item := range rss.Channel.Items {
		country, riskLevel := ParseAdvisoryTitle(item.Title)

		link := item.Link
		if link == "" {
			link = feedURL
		}

		advisories = append(advisories, models.RawAdvisory{
			Source:      r.name,
			Country:     country,
			RiskLevel:   riskLevel,
			Date:        normalizePubDate(item.PubDate),
			Description: item.Description,
			URL:         link,
			ScrapedAt:   now,
		})
	}

	return advisories
}

// ParseAdvisoryTitle splits feed titles of the form
// "Country - Level N: Label" into country and risk level. Titles without the
// separator are treated as country-only.
func ParseAdvisoryTitle(title string) (country, riskLevel string) {
	parts := strings.SplitN(title, " - ", 2)
	country = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		riskLevel = strings.TrimSpace(parts[1])
	}
	return country, riskLevel
}

// normalizePubDate converts an RSS pubDate to an ISO date the cleaner can
// parse directly; unrecognized formats pass through raw.
func normalizePubDate(pubDate string) string {
	pubDate = strings.TrimSpace(pubDate)
	if pubDate == "" {
		return ""
	}
	for _, layout := range []string{time.RFC1123Z, time.RFC1123} {
		if t, err := time.Parse(layout, pubDate); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}
	return pubDate
}

// RSS represents the RSS feed structure
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel Channel  `xml:"channel"`
}

// Channel represents the RSS channel
type Channel struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	Items       []Item `xml:"item"`
}

// Item represents an RSS item
type Item struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}
