package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyCart is returned when placing an order for a customer whose
	// cart is missing or holds no lines.
	ErrEmptyCart = errors.New("cart is empty")
)

// Item is a snapshot of a cart line at placement time. The captured price is
// carried over as-is; there is no repricing against the catalog.
type Item struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// Order is the immutable record created from a cart at placement time.
// Total is the post-discount amount. CouponCode is the code actually
// consumed, empty when no discount applied.
type Order struct {
	ID         int64
	CustomerID int64
	Total      decimal.Decimal
	CouponCode string
	Items      []Item
	CreatedAt  time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores a new order and assigns its ID.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	// List returns up to limit orders in creation order, skipping the
	// first skip entries.
	List(ctx context.Context, skip, limit int) ([]Order, error)
	// All returns every stored order.
	All(ctx context.Context) ([]Order, error)
}

// Ledger is the append-only record of discounts granted per consumed coupon
// code, used for reporting.
type Ledger interface {
	Append(ctx context.Context, code string, amount decimal.Decimal) error
	// All returns the full code -> discount amount mapping.
	All(ctx context.Context) (map[string]decimal.Decimal, error)
}
