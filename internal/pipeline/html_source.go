package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// HTMLSelectors configures how advisory fields are located in a scraped
// page. Row is matched first; the remaining selectors run within each row.
type HTMLSelectors struct {
	Row         string
	Country     string
	RiskLevel   string
	Date        string
	Description string
	Link        string
}

// HTMLSource implements Source by scraping an advisory listing page, for
// government sites that publish tables instead of feeds.
type HTMLSource struct {
	name      string
	url       string
	interval  time.Duration
	selectors HTMLSelectors
	client    *http.Client
}

// NewHTMLSource creates a scraping source for one listing page.
func NewHTMLSource(name, url string, selectors HTMLSelectors, interval time.Duration) *HTMLSource {
	return &HTMLSource{
		name:      name,
		url:       url,
		interval:  interval,
		selectors: selectors,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the source name
func (h *HTMLSource) Name() string {
	return h.name
}

// Interval returns the polling interval
func (h *HTMLSource) Interval() time.Duration {
	return h.interval
}

// Fetch scrapes the listing page into raw advisories. Rows without a country
// cell are dropped here; everything else is left for the cleaner to judge.
func (h *HTMLSource) Fetch(ctx context.Context) ([]models.RawAdvisory, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "TravelAdvisor-Monitor/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	now := time.Now().UTC()
	var advisories []models.RawAdvisory

	doc.Find(h.selectors.Row).Each(func(_ int, row *goquery.Selection) {
		country := text(row, h.selectors.Country)
		if country == "" {
			return
		}

		link := h.url
		if h.selectors.Link != "" {
			if href, ok := row.Find(h.selectors.Link).Attr("href"); ok {
				link = absoluteURL(h.url, href)
			}
		}

		advisories = append(advisories, models.RawAdvisory{
			Source:      h.name,
			Country:     country,
			RiskLevel:   text(row, h.selectors.RiskLevel),
			Date:        text(row, h.selectors.Date),
			Description: text(row, h.selectors.Description),
			URL:         link,
			ScrapedAt:   now,
		})
	})

	return advisories, nil
}

func text(row *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(row.Find(selector).First().Text())
}

// absoluteURL resolves relative hrefs against the page URL's origin.
func absoluteURL(pageURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base := pageURL
	if idx := strings.Index(base, "//"); idx != -1 {
		if slash := strings.Index(base[idx+2:], "/"); slash != -1 {
			base = base[:idx+2+slash]
		}
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}
