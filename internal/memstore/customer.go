package memstore

import (
	"context"
	"sync"

	"github.com/perkcart/perkcart/internal/domain/customer"
)

var _ customer.Repository = (*CustomerStore)(nil)

// CustomerStore is an in-memory customer.Repository.
type CustomerStore struct {
	mu   sync.RWMutex
	seq  idSeq
	byID map[int64]customer.Customer
}

// NewCustomerStore returns an empty CustomerStore.
func NewCustomerStore() *CustomerStore {
	return &CustomerStore{byID: make(map[int64]customer.Customer)}
}

// Create stores the customer and assigns its ID.
func (s *CustomerStore) Create(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.seq.next()
	s.byID[c.ID] = *c
	return nil
}

// GetByID returns a copy of the customer or customer.ErrNotFound.
func (s *CustomerStore) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

// Update overwrites the stored customer.
func (s *CustomerStore) Update(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[c.ID]; !ok {
		return customer.ErrNotFound
	}
	s.byID[c.ID] = *c
	return nil
}

// List returns customers in creation order with skip/limit pagination.
func (s *CustomerStore) List(_ context.Context, skip, limit int) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := pageIDs(s.byID, skip, limit)
	out := make([]customer.Customer, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}
