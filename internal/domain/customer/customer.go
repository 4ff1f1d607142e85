package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer represents a registered shopper.
//
// CouponCode is the single source of truth for "does this customer hold a
// redeemable code": at most one unredeemed code is outstanding at a time.
// An empty string means none. OrderCount is the number of orders the
// customer has completed; it drives loyalty coupon issuance.
type Customer struct {
	ID         int64
	Name       string
	Phone      string
	Address    string
	Email      string
	CouponCode string
	OrderCount int
}

// HasCoupon reports whether the customer holds an unredeemed coupon code.
func (c *Customer) HasCoupon() bool {
	return c.CouponCode != ""
}

// Repository defines persistence operations for customers.
type Repository interface {
	// Create stores a new customer and assigns its ID.
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id int64) (*Customer, error)
	// Update overwrites the stored customer. Returns ErrNotFound if the
	// customer was never created.
	Update(ctx context.Context, c *Customer) error
	// List returns up to limit customers in creation order, skipping the
	// first skip entries.
	List(ctx context.Context, skip, limit int) ([]Customer, error)
}
