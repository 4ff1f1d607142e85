package memstore

import (
	"context"
	"sync"

	"github.com/perkcart/perkcart/internal/domain/product"
)

var _ product.Repository = (*ProductStore)(nil)

// ProductStore is an in-memory product.Repository.
type ProductStore struct {
	mu   sync.RWMutex
	seq  idSeq
	byID map[int64]product.Product
}

// NewProductStore returns an empty ProductStore.
func NewProductStore() *ProductStore {
	return &ProductStore{byID: make(map[int64]product.Product)}
}

// Create stores the product and assigns its ID.
func (s *ProductStore) Create(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.seq.next()
	s.byID[p.ID] = *p
	return nil
}

// GetByID returns a copy of the product or product.ErrNotFound.
func (s *ProductStore) GetByID(_ context.Context, id int64) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// List returns products in creation order with skip/limit pagination.
func (s *ProductStore) List(_ context.Context, skip, limit int) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := pageIDs(s.byID, skip, limit)
	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}
