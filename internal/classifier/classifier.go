package classifier

import (
	"regexp"
	"strings"

	"github.com/rajasatyajit/TravelAdvisor/internal/lexicon"
	"github.com/rajasatyajit/TravelAdvisor/pkg/utils"
)

// Fixed concern-dimension term lists used by the aggregation path. The
// lexicon-driven Categorize below is the independently configurable twin
// used by the cleaning path; the two are deliberately separate.
var (
	securityTerms = []string{
		"crime", "terrorism", "kidnap", "kidnapping", "armed", "attack",
		"robbery", "violence", "gang", "cartel", "carjacking",
	}
	safetyTerms = []string{
		"health", "disease", "epidemic", "pandemic", "covid", "cholera",
		"earthquake", "flood", "hurricane", "storm", "tsunami", "landslide",
		"wildfire", "dengue",
	}
	serenityTerms = []string{
		"protest", "demonstration", "civil unrest", "riot", "strike",
		"political tension", "instability",
	}
)

// Ordered imperative-sentence pattern lists. Don't-patterns are tested first:
// a sentence matching both lists counts as a don't.
var (
	dontPatterns = []string{
		"do not", "don't ", "avoid", "refrain from", "you must not",
		"never ", "should not", "are advised against", "must not",
		"stay away from",
	}
	doPatterns = []string{
		"you should", "it is recommended to", "it is advisable to",
		"travelers should", "you are advised to", "ensure that you",
		"make sure you", "carry", "keep", "register with", "monitor",
		"stay informed", "be sure to",
	}
)

var sentenceRe = regexp.MustCompile(`([.!?])\s+`)

// Dimensions holds boolean membership in each concern dimension. A record
// may match none, one, or all three.
type Dimensions struct {
	Security bool `json:"security"`
	Safety   bool `json:"safety"`
	Serenity bool `json:"serenity"`
}

// Any reports whether at least one dimension is set.
func (d Dimensions) Any() bool {
	return d.Security || d.Safety || d.Serenity
}

// AllConcernTerms returns the union of the three fixed term lists, used by
// the aggregator's highlight scan.
func AllConcernTerms() []string {
	terms := make([]string, 0, len(securityTerms)+len(safetyTerms)+len(serenityTerms))
	terms = append(terms, securityTerms...)
	terms = append(terms, safetyTerms...)
	terms = append(terms, serenityTerms...)
	return terms
}

// Classifier assigns concern dimensions and extracts do/don't guidance
// sentences from advisory text.
type Classifier struct {
	securityKeywords map[string]struct{}
	safetyKeywords   map[string]struct{}
	serenityKeywords map[string]struct{}
}

// New creates a classifier whose Categorize sets are loaded from the lexicon
// store. Missing lexicon files leave the corresponding set empty.
func New(lex *lexicon.Store) *Classifier {
	return &Classifier{
		securityKeywords: lex.LoadCategory(lexicon.CategorySecurity),
		safetyKeywords:   lex.LoadCategory(lexicon.CategorySafety),
		serenityKeywords: lex.LoadCategory(lexicon.CategorySerenity),
	}
}

// Dimensions classifies text against the fixed term lists. The input should
// already contain everything to match on (description plus keywords); it is
// lowercased here.
func (c *Classifier) Dimensions(text string) Dimensions {
	lower := strings.ToLower(text)
	return Dimensions{
		Security: utils.ContainsAny(lower, securityTerms),
		Safety:   utils.ContainsAny(lower, safetyTerms),
		Serenity: utils.ContainsAny(lower, serenityTerms),
	}
}

// Categorize classifies text against the externally loaded category keyword
// sets. This drives the has_*_concerns flags on cleaned records.
func (c *Classifier) Categorize(text string) Dimensions {
	lower := strings.ToLower(text)
	return Dimensions{
		Security: containsAnyOf(lower, c.securityKeywords),
		Safety:   containsAnyOf(lower, c.safetyKeywords),
		Serenity: containsAnyOf(lower, c.serenityKeywords),
	}
}

// ExtractDosDonts scans all descriptions for imperative guidance sentences.
// Sentences are deduplicated by (kind, lowercased text) across the whole
// input and each list is capped at 10, preserving first-seen order.
func (c *Classifier) ExtractDosDonts(descriptions []string) (dos, donts []string) {
	seen := make(map[[2]string]struct{})

	for _, desc := range descriptions {
		for _, sent := range SplitSentences(desc) {
			lower := strings.ToLower(sent)
			switch {
			case utils.ContainsAny(lower, dontPatterns):
				key := [2]string{"dont", lower}
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					donts = append(donts, sent)
				}
			case utils.ContainsAny(lower, doPatterns):
				key := [2]string{"do", lower}
				if _, ok := seen[key]; !ok {
					seen[key] = struct{}{}
					dos = append(dos, sent)
				}
			}
		}
	}

	if len(dos) > 10 {
		dos = dos[:10]
	}
	if len(donts) > 10 {
		donts = donts[:10]
	}
	return dos, donts
}

// SplitSentences breaks text at sentence-ending punctuation followed by
// whitespace. Good enough for advisory prose; no abbreviation handling.
func SplitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		// loc spans punctuation plus trailing whitespace; keep the
		// punctuation with its sentence
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func containsAnyOf(text string, keywords map[string]struct{}) bool {
	for kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
