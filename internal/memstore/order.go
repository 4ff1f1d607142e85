package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/perkcart/perkcart/internal/domain/order"
)

var _ order.Repository = (*OrderStore)(nil)

// OrderStore is an in-memory order.Repository. Orders are immutable once
// created; item slices are cloned on read anyway so no caller can reach the
// stored state.
type OrderStore struct {
	mu   sync.RWMutex
	seq  idSeq
	byID map[int64]order.Order
}

// NewOrderStore returns an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{byID: make(map[int64]order.Order)}
}

// Create stores the order and assigns its ID.
func (s *OrderStore) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o.ID = s.seq.next()
	stored := *o
	stored.Items = slices.Clone(o.Items)
	s.byID[o.ID] = stored
	return nil
}

// GetByID returns a copy of the order or order.ErrNotFound.
func (s *OrderStore) GetByID(_ context.Context, id int64) (*order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Items = slices.Clone(o.Items)
	return &o, nil
}

// List returns orders in creation order with skip/limit pagination.
func (s *OrderStore) List(_ context.Context, skip, limit int) ([]order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := pageIDs(s.byID, skip, limit)
	out := make([]order.Order, 0, len(ids))
	for _, id := range ids {
		o := s.byID[id]
		o.Items = slices.Clone(o.Items)
		out = append(out, o)
	}
	return out, nil
}

// All returns every stored order in creation order.
func (s *OrderStore) All(ctx context.Context) ([]order.Order, error) {
	return s.List(ctx, 0, -1)
}
