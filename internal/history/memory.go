package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Skufu/medirisk/internal/scoring"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record // newest first
	nextID  int64
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, predictionType string, input json.RawMessage, result scoring.Result) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		ID:             s.nextID,
		PredictionType: predictionType,
		InputData:      append(json.RawMessage(nil), input...),
		Result:         result,
		CreatedAt:      s.now().UTC(),
	}
	s.nextID++
	s.records = append([]Record{rec}, s.records...)
	return rec, nil
}

func (s *MemoryStore) All(_ context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record{}, s.records...), nil
}

func (s *MemoryStore) ByType(_ context.Context, predictionType string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Record{}
	for _, r := range s.records {
		if r.PredictionType == predictionType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.records {
		if r.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
