package insights

import (
	"sort"
	"strings"
	"time"

	"github.com/rajasatyajit/TravelAdvisor/internal/classifier"
	"github.com/rajasatyajit/TravelAdvisor/internal/models"
	"github.com/rajasatyajit/TravelAdvisor/pkg/utils"
)

const (
	maxHighlights      = 5
	highlightScanDepth = 10
	highlightMaxLen    = 220
	summaryMaxLen      = 280
)

// Analyzer computes aggregated per-country and global views over cleaned
// advisories. All aggregation is done in memory over the caller-provided
// record set; nothing is persisted.
type Analyzer struct {
	classifier *classifier.Classifier
	now        func() time.Time
}

// New creates an analyzer. The clock is injectable for tests.
func New(c *classifier.Classifier) *Analyzer {
	return &Analyzer{classifier: c, now: time.Now}
}

// KeywordCount is one row of the keyword frequency ranking.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// SummarizeCountry aggregates all advisories for a country within the
// lookback window into a single insight. Records without a parsed date
// cannot be placed in the window and are excluded. Returns nil when no
// record qualifies.
func (a *Analyzer) SummarizeCountry(records []models.CleanedAdvisory, country string, lookbackDays int) *models.CountryInsight {
	filtered := a.filterCountry(records, country, lookbackDays)
	if len(filtered) == 0 {
		return nil
	}

	// newest first; stable so same-day records keep input order
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].DateParsed.After(*filtered[j].DateParsed)
	})

	insight := &models.CountryInsight{
		Country:     filtered[0].CountryNormalized,
		NAdvisories: len(filtered),
	}

	insight.AvgRiskScore = averageRisk(filtered)
	insight.RiskLevelText = riskLevelText(insight.AvgRiskScore)
	insight.RiskGrade = riskGrade(insight.AvgRiskScore)

	for _, rec := range filtered {
		dims := a.recordDimensions(rec)
		insight.HasSecurityIssues = insight.HasSecurityIssues || dims.Security
		insight.HasSafetyIssues = insight.HasSafetyIssues || dims.Safety
		insight.HasSerenityIssues = insight.HasSerenityIssues || dims.Serenity
	}

	latest := filtered[0]
	insight.LatestDate = latest.DateParsed
	insight.LatestSummary = utils.Truncate(description(latest), summaryMaxLen)

	insight.SecurityHighlights = a.highlights(filtered)

	descriptions := make([]string, 0, len(filtered))
	for _, rec := range filtered {
		descriptions = append(descriptions, description(rec))
	}
	insight.Dos, insight.Donts = a.classifier.ExtractDosDonts(descriptions)

	return insight
}

// GlobalRiskByCountry ranks countries by their mean risk score over all
// records, highest first (ties alphabetical). Zero scores count toward the
// mean here; only the per-country average in SummarizeCountry excludes them.
func (a *Analyzer) GlobalRiskByCountry(records []models.CleanedAdvisory) []models.CountryRisk {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, rec := range records {
		name := countryName(rec)
		sums[name] += rec.RiskScore
		counts[name]++
	}

	ranking := make([]models.CountryRisk, 0, len(sums))
	for name, sum := range sums {
		ranking = append(ranking, models.CountryRisk{
			Country:       name,
			MeanRiskScore: float64(sum) / float64(counts[name]),
		})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].MeanRiskScore != ranking[j].MeanRiskScore {
			return ranking[i].MeanRiskScore > ranking[j].MeanRiskScore
		}
		return ranking[i].Country < ranking[j].Country
	})
	return ranking
}

// KeywordFrequencies counts keyword occurrences across all records, most
// frequent first (ties alphabetical), capped at limit (0 means no cap).
func (a *Analyzer) KeywordFrequencies(records []models.CleanedAdvisory, limit int) []KeywordCount {
	freq := make(map[string]int)
	for _, rec := range records {
		for _, kw := range rec.Keywords {
			freq[kw]++
		}
	}

	counts := make([]KeywordCount, 0, len(freq))
	for kw, n := range freq {
		counts = append(counts, KeywordCount{Keyword: kw, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Keyword < counts[j].Keyword
	})

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// AttachDimensions recomputes the three concern flags on every record from
// the fixed dimension term lists, overwriting whatever the enrichment step
// set. Returns a new slice; the input is not modified.
func (a *Analyzer) AttachDimensions(records []models.CleanedAdvisory) []models.CleanedAdvisory {
	out := make([]models.CleanedAdvisory, len(records))
	for i, rec := range records {
		dims := a.recordDimensions(rec)
		rec.HasSecurityConcerns = dims.Security
		rec.HasSafetyConcerns = dims.Safety
		rec.HasSerenityConcerns = dims.Serenity
		out[i] = rec
	}
	return out
}

// filterCountry keeps records for the named country whose parsed date falls
// within the lookback window ending now.
func (a *Analyzer) filterCountry(records []models.CleanedAdvisory, country string, lookbackDays int) []models.CleanedAdvisory {
	target := strings.ToLower(strings.TrimSpace(country))
	if target == "" {
		return nil
	}
	cutoff := a.now().UTC().AddDate(0, 0, -lookbackDays)

	var filtered []models.CleanedAdvisory
	for _, rec := range records {
		if strings.ToLower(countryName(rec)) != target {
			continue
		}
		if rec.DateParsed == nil || rec.DateParsed.Before(cutoff) {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered
}

// highlights scans the most recent records for ones mentioning any concern
// term, emitting at most one snippet per record: the leading portion of its
// text, truncated for display. Duplicate snippets are dropped.
func (a *Analyzer) highlights(filtered []models.CleanedAdvisory) []string {
	terms := classifier.AllConcernTerms()

	scan := filtered
	if len(scan) > highlightScanDepth {
		scan = scan[:highlightScanDepth]
	}

	seen := make(map[string]struct{})
	var out []string
	for _, rec := range scan {
		text := description(rec)
		if !utils.ContainsAny(strings.ToLower(text), terms) {
			continue
		}
		snippet := utils.Truncate(text, highlightMaxLen)
		if _, ok := seen[snippet]; ok {
			continue
		}
		seen[snippet] = struct{}{}
		out = append(out, snippet)
		if len(out) >= maxHighlights {
			break
		}
	}
	return out
}

// recordDimensions classifies one record against the fixed concern term
// lists, using its cleaned description plus extracted keywords.
func (a *Analyzer) recordDimensions(rec models.CleanedAdvisory) classifier.Dimensions {
	text := description(rec) + " " + strings.Join(rec.Keywords, " ")
	return a.classifier.Dimensions(text)
}

// averageRisk is the mean over records carrying a nonzero risk score. Nil
// when no record does.
func averageRisk(records []models.CleanedAdvisory) *float64 {
	var sum, n int
	for _, rec := range records {
		if rec.RiskScore > 0 {
			sum += rec.RiskScore
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := float64(sum) / float64(n)
	return &avg
}

func riskLevelText(avg *float64) string {
	if avg == nil {
		return "Unknown"
	}
	switch {
	case *avg >= 3.5:
		return "Very High"
	case *avg >= 2.5:
		return "High"
	case *avg >= 1.5:
		return "Moderate"
	default:
		return "Low"
	}
}

// riskGrade maps the average score to a letter grade. The score is clamped
// to the valid 1-4 range first so that out-of-range inputs still grade.
func riskGrade(avg *float64) string {
	if avg == nil {
		return "U"
	}
	score := *avg
	if score < 1 {
		score = 1
	}
	if score > 4 {
		score = 4
	}
	switch {
	case score < 1.5:
		return "A"
	case score < 2.5:
		return "B"
	case score < 3.5:
		return "C"
	case score < 4.0:
		return "D"
	default:
		return "E"
	}
}

func description(rec models.CleanedAdvisory) string {
	if rec.DescriptionCleaned != "" {
		return rec.DescriptionCleaned
	}
	return rec.Description
}

func countryName(rec models.CleanedAdvisory) string {
	if rec.CountryNormalized != "" {
		return rec.CountryNormalized
	}
	return rec.Country
}
