package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/perkcart/perkcart/internal/domain/cart"
)

var _ cart.Repository = (*CartStore)(nil)

// CartStore is an in-memory cart.Repository, keyed by customer ID. Item
// slices are cloned on both Save and Get so a cart handed to a caller never
// aliases stored state.
type CartStore struct {
	mu         sync.RWMutex
	byCustomer map[int64]cart.Cart
}

// NewCartStore returns an empty CartStore.
func NewCartStore() *CartStore {
	return &CartStore{byCustomer: make(map[int64]cart.Cart)}
}

// Get returns a copy of the customer's cart or cart.ErrNoCart.
func (s *CartStore) Get(_ context.Context, customerID int64) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byCustomer[customerID]
	if !ok {
		return nil, cart.ErrNoCart
	}
	c.Items = slices.Clone(c.Items)
	return &c, nil
}

// Save stores the cart, replacing any previous one for the customer.
func (s *CartStore) Save(_ context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	stored.Items = slices.Clone(c.Items)
	s.byCustomer[c.CustomerID] = stored
	return nil
}
