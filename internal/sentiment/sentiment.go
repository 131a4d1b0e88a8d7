package sentiment

import (
	"math"
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`[a-z']+`)

// negations flip the polarity of the following scored word.
var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "without": {}, "cannot": {},
	"don't": {}, "won't": {}, "isn't": {}, "aren't": {},
}

// Analyzer scores text polarity with a weighted lexicon. Scores are summed
// per word and squashed into [-1, 1], so it degrades to 0.0 on empty or
// unscorable text rather than failing.
type Analyzer struct {
	weights map[string]float64
}

// New creates an analyzer with the built-in travel-advisory lexicon.
func New() *Analyzer {
	return &Analyzer{weights: buildWeights()}
}

// Compound returns the aggregate polarity of the text in [-1, 1].
// Empty text scores 0.0.
func (a *Analyzer) Compound(text string) float64 {
	words := tokenRe.FindAllString(strings.ToLower(text), -1)
	if len(words) == 0 {
		return 0.0
	}

	var sum float64
	negate := false
	for _, w := range words {
		if _, ok := negations[w]; ok {
			negate = true
			continue
		}
		if weight, ok := a.weights[w]; ok {
			if negate {
				weight = -weight
			}
			sum += weight
		}
		negate = false
	}

	if sum == 0 {
		return 0.0
	}
	// squash the raw sum into (-1, 1); 15 keeps single strong words from
	// saturating the scale
	return sum / math.Sqrt(sum*sum+15)
}

func buildWeights() map[string]float64 {
	return map[string]float64{
		// negative
		"danger": -2.5, "dangerous": -2.5, "deadly": -3.0, "death": -3.0,
		"killed": -3.0, "attack": -2.5, "attacks": -2.5, "terrorism": -3.0,
		"terrorist": -3.0, "kidnapping": -3.0, "kidnap": -3.0, "crime": -2.0,
		"criminal": -2.0, "violence": -2.5, "violent": -2.5, "threat": -2.0,
		"threats": -2.0, "risk": -1.5, "risks": -1.5, "risky": -1.5,
		"unsafe": -2.0, "warning": -1.5, "unrest": -2.0, "riot": -2.5,
		"riots": -2.5, "protest": -1.0, "protests": -1.0, "disease": -2.0,
		"epidemic": -2.5, "pandemic": -2.5, "outbreak": -2.0, "disaster": -2.5,
		"earthquake": -2.0, "flood": -2.0, "hurricane": -2.0, "emergency": -2.0,
		"robbery": -2.5, "theft": -2.0, "scam": -2.0, "scams": -2.0,
		"armed": -2.0, "conflict": -2.5, "war": -3.0, "instability": -2.0,
		"avoid": -1.5, "restricted": -1.0, "banned": -1.5, "severe": -2.0,
		"critical": -2.0, "worsening": -2.0, "deteriorating": -2.0,

		// positive
		"safe": 2.0, "safely": 2.0, "safety": 1.0, "secure": 2.0,
		"stable": 1.5, "calm": 1.5, "peaceful": 2.0, "improved": 1.5,
		"improving": 1.5, "resolved": 1.5, "lifted": 1.0, "reopened": 1.5,
		"normal": 1.0, "welcoming": 1.5, "friendly": 1.5, "recovered": 1.5,
		"eased": 1.0, "relaxed": 1.0,
	}
}
