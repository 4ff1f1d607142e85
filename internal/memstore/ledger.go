package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/perkcart/perkcart/internal/domain/order"
)

var _ order.Ledger = (*LedgerStore)(nil)

// LedgerStore is an in-memory order.Ledger: consumed coupon code -> discount
// amount granted. Codes are unique per issuance so an append never collides
// with an earlier entry.
type LedgerStore struct {
	mu     sync.RWMutex
	byCode map[string]decimal.Decimal
}

// NewLedgerStore returns an empty LedgerStore.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{byCode: make(map[string]decimal.Decimal)}
}

// Append records the discount granted for a consumed code.
func (s *LedgerStore) Append(_ context.Context, code string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byCode[code] = amount
	return nil
}

// All returns a copy of the full ledger.
func (s *LedgerStore) All(_ context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.byCode), nil
}
