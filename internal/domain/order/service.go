package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/perkcart/perkcart/internal/domain/cart"
	"github.com/perkcart/perkcart/internal/domain/coupon"
	"github.com/perkcart/perkcart/internal/domain/customer"
	"github.com/perkcart/perkcart/pkg/kmutex"
)

// discountRate is the fraction of the cart total taken off when a valid
// coupon is redeemed.
var discountRate = decimal.NewFromFloat(0.10)

// Service converts carts into orders. Placement for one customer runs as a
// critical section on the shared per-customer lock, so the order counter,
// coupon state, and cart cannot race against concurrent cart mutations.
type Service struct {
	customers customer.Repository
	carts     cart.Repository
	orders    Repository
	ledger    Ledger
	issuer    *coupon.Issuer
	locks     *kmutex.KMutex

	now func() time.Time
}

// NewService creates an order Service. locks must be the same instance used
// by the cart service.
func NewService(
	customers customer.Repository,
	carts cart.Repository,
	orders Repository,
	ledger Ledger,
	issuer *coupon.Issuer,
	locks *kmutex.KMutex,
) *Service {
	return &Service{
		customers: customers,
		carts:     carts,
		orders:    orders,
		ledger:    ledger,
		issuer:    issuer,
		locks:     locks,
		now:       time.Now,
	}
}

// Place converts the customer's cart into an immutable order.
//
// The cart is validated before the order counter ticks, so a failed
// placement never consumes a loyalty step. A coupon claim on the cart is
// redeemed only if it still matches the code assigned to the customer: the
// order total becomes 90% of the cart total, the withheld 10% is appended to
// the discount ledger under the consumed code, and the customer's coupon is
// cleared. The issuance check runs after redemption, so a customer whose
// counter lands on the threshold in the same cycle can immediately be
// granted a fresh code. The cart is fully reset afterwards.
func (s *Service) Place(ctx context.Context, customerID int64) (*Order, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	crt, err := s.carts.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, cart.ErrNoCart) {
			return nil, ErrEmptyCart
		}
		return nil, errors.Wrap(err, "get cart")
	}
	if crt.Empty() {
		return nil, ErrEmptyCart
	}

	cust.OrderCount++

	items := make([]Item, len(crt.Items))
	for i, it := range crt.Items {
		items[i] = Item{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}

	total := crt.Total
	consumed := ""
	discount := decimal.Zero
	if crt.CouponCode != "" && crt.CouponCode == cust.CouponCode {
		discount = crt.Total.Mul(discountRate).Round(2)
		total = crt.Total.Sub(discount)
		consumed = crt.CouponCode
		cust.CouponCode = ""
	}

	o := &Order{
		CustomerID: customerID,
		Total:      total,
		CouponCode: consumed,
		Items:      items,
		CreatedAt:  s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// Ledger entries reference persisted orders only; a failed creation
	// must not leave a phantom discount record.
	if consumed != "" {
		if err := s.ledger.Append(ctx, consumed, discount); err != nil {
			return nil, errors.Wrap(err, "append discount ledger")
		}
	}

	// Loyalty issuance. A generator failure must not lose the already
	// persisted order, so it only costs the customer this cycle's coupon.
	if _, err := s.issuer.IssueIfEligible(ctx, cust); err != nil {
		zctx.From(ctx).Error("coupon issuance failed",
			zap.Int64("customer_id", customerID),
			zap.Error(err),
		)
	}

	if err := s.customers.Update(ctx, cust); err != nil {
		return nil, errors.Wrap(err, "update customer")
	}

	crt.Items = nil
	crt.CouponCode = ""
	crt.Total = decimal.Zero
	if err := s.carts.Save(ctx, crt); err != nil {
		return nil, errors.Wrap(err, "reset cart")
	}

	return o, nil
}

// Get returns a stored order by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns stored orders with skip/limit pagination.
func (s *Service) List(ctx context.Context, skip, limit int) ([]Order, error) {
	return s.orders.List(ctx, skip, limit)
}
