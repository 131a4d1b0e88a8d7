package cleaner

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/rajasatyajit/TravelAdvisor/internal/classifier"
	"github.com/rajasatyajit/TravelAdvisor/internal/errors"
	"github.com/rajasatyajit/TravelAdvisor/internal/lexicon"
	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
	"github.com/rajasatyajit/TravelAdvisor/internal/normalizer"
	"github.com/rajasatyajit/TravelAdvisor/internal/sentiment"
	"github.com/rajasatyajit/TravelAdvisor/pkg/utils"
)

// disallowedRe matches characters stripped from descriptions. Word
// characters, whitespace and basic punctuation survive cleaning.
var disallowedRe = regexp.MustCompile(`[^\w\s.,!?;:\-()]`)

// dateLayouts are tried in order after RFC 3339.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"January 2, 2006",
	"2 January 2006",
	"2006-01-02 15:04:05",
}

// Cleaner turns raw scraped advisories into cleaned, enriched records. All
// derivations are deterministic: the same raw record always cleans to the
// same output (timestamps aside).
type Cleaner struct {
	normalizer *normalizer.Normalizer
	classifier *classifier.Classifier
	sentiment  *sentiment.Analyzer
}

// New creates a cleaner whose keyword and category vocabulary comes from the
// given lexicon store.
func New(lex *lexicon.Store) *Cleaner {
	return &Cleaner{
		normalizer: normalizer.New(lex),
		classifier: classifier.New(lex),
		sentiment:  sentiment.New(),
	}
}

// Clean derives the full cleaned record from one raw advisory. It returns an
// error only for records missing required fields; every other derivation
// degrades (empty keywords, nil parsed date, zero sentiment) instead of
// failing.
func (c *Cleaner) Clean(raw models.RawAdvisory) (models.CleanedAdvisory, error) {
	if strings.TrimSpace(raw.Source) == "" {
		return models.CleanedAdvisory{}, fmt.Errorf("%w: missing source", errors.ErrInvalidInput)
	}
	if strings.TrimSpace(raw.Country) == "" {
		return models.CleanedAdvisory{}, fmt.Errorf("%w: missing country", errors.ErrInvalidInput)
	}

	now := time.Now().UTC()

	cleaned := models.CleanedAdvisory{
		RawAdvisory:         raw,
		CountryNormalized:   c.normalizer.NormalizeCountry(raw.Country),
		RiskLevelNormalized: c.normalizer.NormalizeRiskLevel(raw.RiskLevel),
		RiskScore:           c.normalizer.ExtractRiskScore(raw.RiskLevel),
		DescriptionCleaned:  CleanText(raw.Description),
		DateParsed:          ParseDate(raw.Date),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	keywordText := cleaned.DescriptionCleaned + " " + raw.RiskLevel
	cleaned.Keywords = c.normalizer.ExtractKeywords(keywordText)

	categoryText := cleaned.DescriptionCleaned + " " + strings.Join(cleaned.Keywords, " ")
	dims := c.classifier.Categorize(categoryText)
	cleaned.HasSecurityConcerns = dims.Security
	cleaned.HasSafetyConcerns = dims.Safety
	cleaned.HasSerenityConcerns = dims.Serenity

	cleaned.SentimentScore = c.scoreSentiment(cleaned.DescriptionCleaned, raw.Description)
	cleaned.ID = recordID(cleaned)

	return cleaned, nil
}

// CleanBatch cleans every record it can and reports the ones it skipped.
// A bad record never aborts the batch.
func (c *Cleaner) CleanBatch(raws []models.RawAdvisory) ([]models.CleanedAdvisory, []errors.SkipError) {
	cleaned := make([]models.CleanedAdvisory, 0, len(raws))
	var skipped []errors.SkipError

	for i, raw := range raws {
		rec, err := c.Clean(raw)
		if err != nil {
			skipped = append(skipped, errors.SkipError{
				Index:  i,
				Source: raw.Source,
				Reason: err.Error(),
			})
			logger.Debug("Skipping unclean record", "index", i, "source", raw.Source, "error", err)
			continue
		}
		cleaned = append(cleaned, rec)
	}

	return cleaned, skipped
}

// Deduplicate drops records sharing a natural key with an earlier record,
// keeping the first occurrence. Running it twice is a no-op.
func Deduplicate(records []models.CleanedAdvisory) []models.CleanedAdvisory {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.CleanedAdvisory, 0, len(records))

	for _, rec := range records {
		key := naturalKey(rec)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// CleanText normalizes unicode to NFKD form, strips characters outside the
// allowed set, and collapses whitespace runs to single spaces.
func CleanText(text string) string {
	text = norm.NFKD.String(text)
	text = disallowedRe.ReplaceAllString(text, "")
	return utils.CollapseWhitespace(text)
}

// ParseDate attempts RFC 3339 first, then a fixed list of common layouts.
// Unparseable or empty input yields nil; the raw string is always retained on
// the record regardless.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func (c *Cleaner) scoreSentiment(cleanedDesc, rawDesc string) float64 {
	if strings.TrimSpace(cleanedDesc) != "" {
		return c.sentiment.Compound(cleanedDesc)
	}
	if strings.TrimSpace(rawDesc) != "" {
		return c.sentiment.Compound(rawDesc)
	}
	return 0.0
}

// naturalKey identifies a record by source, country and date. The normalized
// country and parsed date are preferred; raw values fill in when derivation
// failed so that unparseable records still deduplicate.
func naturalKey(rec models.CleanedAdvisory) string {
	country := rec.CountryNormalized
	if country == "" {
		country = rec.Country
	}
	date := rec.Date
	if rec.DateParsed != nil {
		date = rec.DateParsed.Format("2006-01-02")
	}
	return strings.ToLower(rec.Source) + "|" + strings.ToLower(country) + "|" + date
}

func recordID(rec models.CleanedAdvisory) string {
	return utils.HashString(naturalKey(rec))
}
