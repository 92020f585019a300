package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used in tests and single-node
// development setups.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]map[uuid.UUID]uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[uuid.UUID]map[uuid.UUID]uint)}
}

func (s *MemoryStore) Quantity(ctx context.Context, buyerID, skuID uuid.UUID) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[buyerID][skuID], nil
}

func (s *MemoryStore) All(ctx context.Context, buyerID uuid.UUID) (map[uuid.UUID]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]uint, len(s.carts[buyerID]))
	for k, v := range s.carts[buyerID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, buyerID, skuID uuid.UUID, qty uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if qty == 0 {
		delete(s.carts[buyerID], skuID)
		return nil
	}
	if s.carts[buyerID] == nil {
		s.carts[buyerID] = make(map[uuid.UUID]uint)
	}
	s.carts[buyerID][skuID] = qty
	return nil
}

func (s *MemoryStore) Add(ctx context.Context, buyerID, skuID uuid.UUID, qty uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[buyerID] == nil {
		s.carts[buyerID] = make(map[uuid.UUID]uint)
	}
	s.carts[buyerID][skuID] += qty
	return nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, buyerID uuid.UUID, skuIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range skuIDs {
		delete(s.carts[buyerID], id)
	}
	return nil
}
