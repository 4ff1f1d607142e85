package coupon

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/perkcart/perkcart/internal/domain/customer"
)

// ErrInvalidCoupon is returned when a submitted code does not match the
// coupon currently assigned to the customer, including when the customer
// holds no coupon at all.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Notifier delivers a freshly issued coupon code to the customer. Delivery
// is fire-and-forget: implementations must not block the caller and their
// failures never roll back the coupon assignment.
type Notifier interface {
	Notify(ctx context.Context, c customer.Customer, code string)
}
