package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNoCart is returned by Repository.Get when the customer has never
	// had a cart persisted. Callers usually substitute a fresh empty cart.
	ErrNoCart = errors.New("no cart")
	// ErrInvalidQuantity is returned when a line is added with a quantity
	// below 1.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Item is a single cart line. Price is the unit price captured from the
// catalog when the line was last touched, not a live join: a later catalog
// price change does not affect the line until it is added to again.
type Item struct {
	ProductID int64
	Quantity  int
	Price     decimal.Decimal
}

// Cart is the per-customer basket. CouponCode is only a claim: the code the
// cart intends to redeem. It takes effect at order time only if it still
// matches the code assigned to the customer.
//
// Invariant: Total equals the sum of Quantity*Price over Items after every
// mutation. All mutating paths go through recalc.
type Cart struct {
	CustomerID int64
	Items      []Item
	CouponCode string
	Total      decimal.Decimal
}

// Empty reports whether the cart holds no lines.
func (c *Cart) Empty() bool {
	return len(c.Items) == 0
}

func (c *Cart) recalc() {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.Total = total
}

// Repository defines persistence operations for carts, keyed by customer ID.
// Each customer owns at most one cart.
type Repository interface {
	// Get returns the customer's cart or ErrNoCart.
	Get(ctx context.Context, customerID int64) (*Cart, error)
	// Save stores the cart, replacing any previous one for the customer.
	Save(ctx context.Context, c *Cart) error
}
