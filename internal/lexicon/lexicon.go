package lexicon

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/rajasatyajit/TravelAdvisor/config"
	"github.com/rajasatyajit/TravelAdvisor/internal/logger"
)

// Category file names expected under the configured lexicon directory.
const (
	CategorySecurity = "security"
	CategorySafety   = "safety"
	CategorySerenity = "serenity"
)

// defaultCorpus is used when no corpus.txt is present. Generic travel/risk
// terms matched by case-insensitive substring containment.
var defaultCorpus = []string{
	"terrorism", "crime", "violence", "civil unrest", "natural disaster",
	"epidemic", "pandemic", "health", "safety", "security", "travel ban",
	"quarantine", "visa", "border", "entry", "exit", "restriction",
	"warning", "alert", "advisory", "risk", "danger", "unsafe",
}

// Store provides the keyword lists used by the classifier and the keyword
// extractor. It is a pure data provider: loading never fails, missing files
// fall back to empty sets (category lists) or built-in defaults (corpus).
type Store struct {
	dir         string
	maxKeywords int
}

// New creates a lexicon store reading from the configured directory.
func New(cfg config.LexiconConfig) *Store {
	return &Store{dir: cfg.Dir, maxKeywords: cfg.MaxKeywords}
}

// MaxKeywords returns the configured keyword extraction cap.
func (s *Store) MaxKeywords() int {
	if s.maxKeywords <= 0 {
		return 10
	}
	return s.maxKeywords
}

// LoadCategory returns the lowercase term set for a category list
// (security, safety, serenity). Missing or unreadable files yield an empty
// set, never an error.
func (s *Store) LoadCategory(name string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, term := range s.readLines(name + ".txt") {
		terms[term] = struct{}{}
	}
	return terms
}

// Corpus returns the general keyword corpus in file order, with the built-in
// defaults appended after any file entries. Falls back entirely to the
// defaults when no corpus file is readable.
func (s *Store) Corpus() []string {
	lines := s.readLines("corpus.txt")

	seen := make(map[string]struct{}, len(lines)+len(defaultCorpus))
	corpus := make([]string, 0, len(lines)+len(defaultCorpus))
	for _, term := range lines {
		if _, ok := seen[term]; !ok {
			seen[term] = struct{}{}
			corpus = append(corpus, term)
		}
	}
	for _, term := range defaultCorpus {
		if _, ok := seen[term]; !ok {
			seen[term] = struct{}{}
			corpus = append(corpus, term)
		}
	}
	return corpus
}

// readLines reads a newline-delimited term file, lowercasing and trimming
// entries. Any failure yields nil.
func (s *Store) readLines(name string) []string {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("Lexicon file not available", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		term := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if term != "" {
			lines = append(lines, term)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("Lexicon file read failed", "path", path, "error", err)
		return nil
	}
	return lines
}
