package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/mkassab/orderlink/internal/domain/order"
)

// OrderStore keeps submitted orders in memory. Records are cloned on the way
// in and out so callers can never mutate a persisted order.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*domain.SubmittedOrder
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*domain.SubmittedOrder)}
}

func (s *OrderStore) Persist(ctx context.Context, o *domain.SubmittedOrder) error {
	_ = ctx
	if o == nil || o.Identifier == "" {
		return fmt.Errorf("order store: identifier is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.Identifier]; exists {
		return domain.ErrConflict
	}
	s.orders[o.Identifier] = o.Clone()
	return nil
}

func (s *OrderStore) Get(ctx context.Context, identifier string) (*domain.SubmittedOrder, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[identifier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

// Len reports the number of persisted orders.
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
