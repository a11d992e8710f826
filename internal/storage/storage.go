package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/inspector/internal/models"
)

// BatchStore keeps the most recent batches in memory
type BatchStore struct {
	batches map[string]*models.Batch
	order   []string
	limit   int
	mu      sync.RWMutex
}

// New returns a store holding at most limit batches. A non-positive limit disables storage.
func New(limit int) *BatchStore {
	return &BatchStore{
		batches: make(map[string]*models.Batch),
		limit:   limit,
	}
}

func (s *BatchStore) Get(batchID string) (*models.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, exists := s.batches[batchID]
	return batch, exists
}

// Set stores batch, evicting the oldest batches beyond the limit
func (s *BatchStore) Set(batch *models.Batch) {
	if s.limit <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.batches[batch.ID]; !exists {
		s.order = append(s.order, batch.ID)
	}
	s.batches[batch.ID] = batch

	for len(s.order) > s.limit {
		delete(s.batches, s.order[0])
		s.order = s.order[1:]
	}
}

// List returns summaries of the stored batches, newest first
func (s *BatchStore) List() []models.BatchSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.BatchSummary, 0, len(s.batches))
	for _, b := range s.batches {
		failed := 0
		for _, r := range b.Results {
			if r.Analysis.Failed() {
				failed++
			}
		}
		result = append(result, models.BatchSummary{
			ID:        b.ID,
			CreatedAt: b.CreatedAt,
			Count:     b.Count,
			Failed:    failed,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *BatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}
