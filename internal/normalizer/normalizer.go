package normalizer

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rajasatyajit/TravelAdvisor/internal/lexicon"
)

// countryAliases maps common country-name variations to canonical names.
// Lookup is case-insensitive on the whitespace-collapsed input.
var countryAliases = map[string]string{
	"usa":           "United States",
	"us":            "United States",
	"u.s.":          "United States",
	"u.s.a.":        "United States",
	"uk":            "United Kingdom",
	"u.k.":          "United Kingdom",
	"britain":       "United Kingdom",
	"great britain": "United Kingdom",
	"uae":           "United Arab Emirates",
	"russia":        "Russian Federation",
	"south korea":   "Republic of Korea",
	"north korea":   "Democratic People's Republic of Korea",
	"dprk":          "Democratic People's Republic of Korea",
}

// riskRule is one (substring, canonical label) normalization rule.
type riskRule struct {
	pattern string
	label   string
}

// riskRules is scanned in order; the first matching rule wins. Order is part
// of the contract, so this is a slice rather than a map.
var riskRules = []riskRule{
	{"level 1", "Low Risk"},
	{"level 2", "Exercise Increased Caution"},
	{"level 3", "Reconsider Travel"},
	{"level 4", "Do Not Travel"},
	{"exercise normal", "Low Risk"},
	{"exercise increased", "Exercise Increased Caution"},
	{"reconsider", "Reconsider Travel"},
	{"do not travel", "Do Not Travel"},
	{"avoid", "Do Not Travel"},
	{"high", "High Risk"},
	{"medium", "Medium Risk"},
	{"low", "Low Risk"},
	{"moderate", "Medium Risk"},
}

// stopwords excluded from frequency-based keyword extraction.
var stopwords = map[string]struct{}{
	"that": {}, "this": {}, "with": {}, "from": {},
	"have": {}, "been": {}, "will": {}, "were": {},
}

var (
	wordRe       = regexp.MustCompile(`\b[a-z]{4,}\b`)
	leadingTheRe = regexp.MustCompile(`(?i)^the\s+`)
)

// Normalizer maps raw country and risk-level strings to canonical forms and
// extracts keywords. Constructed once with its lexicon; no ambient state.
type Normalizer struct {
	corpus      []string
	maxKeywords int
	titler      cases.Caser
}

// New creates a normalizer backed by the given lexicon store. The corpus is
// pre-sorted longest term first (ties lexicographic) so that phrase matches
// beat their component words and output order is deterministic.
func New(lex *lexicon.Store) *Normalizer {
	corpus := lex.Corpus()
	sorted := make([]string, len(corpus))
	copy(sorted, corpus)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})

	return &Normalizer{
		corpus:      sorted,
		maxKeywords: lex.MaxKeywords(),
		titler:      cases.Title(language.English),
	}
}

// NormalizeCountry maps a raw country string to its canonical name.
// Unrecognized names are title-cased with any leading "the " stripped;
// empty input yields "Unknown".
func (n *Normalizer) NormalizeCountry(country string) string {
	country = strings.Join(strings.Fields(country), " ")
	if country == "" {
		return "Unknown"
	}

	if canonical, ok := countryAliases[strings.ToLower(country)]; ok {
		return canonical
	}

	country = leadingTheRe.ReplaceAllString(country, "")
	return n.titler.String(strings.ToLower(country))
}

// NormalizeRiskLevel maps a raw risk-level string onto the canonical label
// vocabulary. The rule table is scanned in priority order and the first
// substring match wins. Unmatched input is returned title-cased; empty input
// yields "".
func (n *Normalizer) NormalizeRiskLevel(riskLevel string) string {
	riskLevel = strings.TrimSpace(riskLevel)
	if riskLevel == "" {
		return ""
	}

	lower := strings.ToLower(riskLevel)
	for _, rule := range riskRules {
		if strings.Contains(lower, rule.pattern) {
			return rule.label
		}
	}

	return n.titler.String(lower)
}

// ExtractRiskScore derives the 1-4 numeric severity from a raw risk level.
// Returns 0 when no known severity token is recognized.
func (n *Normalizer) ExtractRiskScore(riskLevel string) int {
	normalized := n.NormalizeRiskLevel(riskLevel)
	if normalized == "" {
		return 0
	}

	lower := strings.ToLower(normalized)
	switch {
	case strings.Contains(lower, "do not travel") || strings.Contains(lower, "level 4"):
		return 4
	case strings.Contains(lower, "reconsider") || strings.Contains(lower, "level 3"):
		return 3
	case strings.Contains(lower, "exercise increased") || strings.Contains(lower, "level 2"):
		return 2
	case strings.Contains(lower, "low") || strings.Contains(lower, "level 1") || strings.Contains(lower, "normal"):
		return 1
	default:
		return 0
	}
}

// ExtractKeywords collects corpus terms contained in the text (longest term
// first), then alphabetic words of length >= 4 occurring more than once
// (highest frequency first, ties lexicographic). The union is deduplicated
// preserving first occurrence and capped at the configured maximum.
func (n *Normalizer) ExtractKeywords(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var found []string
	for _, term := range n.corpus {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}

	freq := make(map[string]int)
	for _, word := range wordRe.FindAllString(lower, -1) {
		if _, stop := stopwords[word]; stop {
			continue
		}
		freq[word]++
	}

	var repeated []string
	for word, count := range freq {
		if count > 1 {
			repeated = append(repeated, word)
		}
	}
	sort.Slice(repeated, func(i, j int) bool {
		if freq[repeated[i]] != freq[repeated[j]] {
			return freq[repeated[i]] > freq[repeated[j]]
		}
		return repeated[i] < repeated[j]
	})

	seen := make(map[string]struct{})
	var keywords []string
	for _, kw := range append(found, repeated...) {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
		if len(keywords) >= n.maxKeywords {
			break
		}
	}

	return keywords
}
