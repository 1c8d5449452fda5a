package store

import (
	"context"
	"sync"

	"github.com/shandysiswandi/orgjoin/internal/orgjoin/entity"
	"github.com/shandysiswandi/orgjoin/internal/pkg/pkgerror"
)

// DefaultHistorySize is used when NewInMemoryStore receives a non-positive size.
const DefaultHistorySize = 256

// InMemoryStore keeps the metadata of the most recent conversions.
//
// Once more than size records exist, the oldest one is evicted.
type InMemoryStore struct {
	mu          sync.RWMutex
	size        int
	order       []string
	conversions map[string]*conversionRecord
}

type conversionRecord struct {
	mu   sync.RWMutex
	meta entity.ConversionMeta
}

func NewInMemoryStore(size int) *InMemoryStore {
	if size < 1 {
		size = DefaultHistorySize
	}

	return &InMemoryStore{
		size:        size,
		conversions: make(map[string]*conversionRecord),
	}
}

func (s *InMemoryStore) CreateConversion(ctx context.Context, meta entity.ConversionMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversions[meta.ID]; exists {
		return pkgerror.NewBusiness("conversion already exists", pkgerror.CodeConflict)
	}

	s.conversions[meta.ID] = &conversionRecord{meta: meta}
	s.order = append(s.order, meta.ID)

	for len(s.order) > s.size {
		delete(s.conversions, s.order[0])
		s.order = s.order[1:]
	}

	return nil
}

func (s *InMemoryStore) UpdateMeta(ctx context.Context, conversionID string, fn func(meta *entity.ConversionMeta)) error {
	rec, err := s.get(conversionID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	fn(&rec.meta)

	return nil
}

func (s *InMemoryStore) GetConversion(ctx context.Context, conversionID string) (entity.ConversionMeta, error) {
	rec, err := s.get(conversionID)
	if err != nil {
		return entity.ConversionMeta{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.meta, nil
}

// ListRecent returns up to limit conversions, newest first.
func (s *InMemoryStore) ListRecent(ctx context.Context, limit int) ([]entity.ConversionMeta, error) {
	s.mu.RLock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	s.mu.RUnlock()

	if limit < 1 || limit > len(ids) {
		limit = len(ids)
	}

	items := make([]entity.ConversionMeta, 0, limit)
	for i := len(ids) - 1; i >= 0 && len(items) < limit; i-- {
		meta, err := s.GetConversion(ctx, ids[i])
		if err != nil {
			// evicted between the snapshot and the read
			continue
		}
		items = append(items, meta)
	}

	return items, nil
}

func (s *InMemoryStore) get(conversionID string) (*conversionRecord, error) {
	s.mu.RLock()
	rec, ok := s.conversions[conversionID]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}
