package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rajasatyajit/TravelAdvisor/internal/models"
)

// InMemoryStore implements Store using in-memory storage.
type InMemoryStore struct {
	mu         sync.RWMutex
	advisories map[string]models.CleanedAdvisory
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		advisories: make(map[string]models.CleanedAdvisory),
	}
}

// UpsertAdvisories stores advisories in memory, keyed by ID.
func (s *InMemoryStore) UpsertAdvisories(ctx context.Context, advisories []models.CleanedAdvisory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, adv := range advisories {
		if existing, ok := s.advisories[adv.ID]; ok {
			adv.CreatedAt = existing.CreatedAt
		}
		s.advisories[adv.ID] = adv
	}

	return nil
}

// QueryAdvisories retrieves advisories matching the query, newest scrape
// first.
func (s *InMemoryStore) QueryAdvisories(ctx context.Context, q models.AdvisoryQuery) ([]models.CleanedAdvisory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.CleanedAdvisory
	for _, adv := range s.advisories {
		if q.Matches(adv) {
			result = append(result, adv)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ScrapedAt.Equal(result[j].ScrapedAt) {
			return result[i].ScrapedAt.After(result[j].ScrapedAt)
		}
		return result[i].ID < result[j].ID
	})

	if q.Offset > 0 && q.Offset < len(result) {
		result = result[q.Offset:]
	} else if q.Offset >= len(result) && q.Offset > 0 {
		result = []models.CleanedAdvisory{}
	}

	if q.Limit > 0 && q.Limit < len(result) {
		result = result[:q.Limit]
	}

	return result, nil
}

// GetAdvisory retrieves a single advisory by ID. Missing IDs yield (nil, nil).
func (s *InMemoryStore) GetAdvisory(ctx context.Context, id string) (*models.CleanedAdvisory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if adv, exists := s.advisories[id]; exists {
		return &adv, nil
	}

	return nil, nil
}

// Health always returns nil for the in-memory store.
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}
