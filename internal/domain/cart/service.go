package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/perkcart/perkcart/internal/domain/coupon"
	"github.com/perkcart/perkcart/internal/domain/customer"
	"github.com/perkcart/perkcart/internal/domain/product"
	"github.com/perkcart/perkcart/pkg/kmutex"
)

// Service implements the cart operations. All mutations for a given customer
// serialize on a per-customer lock shared with the order service, so the
// Total invariant cannot be violated by concurrent requests.
type Service struct {
	customers customer.Repository
	products  product.Repository
	carts     Repository
	locks     *kmutex.KMutex
}

// NewService creates a cart Service with the required dependencies. locks
// must be the same instance handed to the order service.
func NewService(
	customers customer.Repository,
	products product.Repository,
	carts Repository,
	locks *kmutex.KMutex,
) *Service {
	return &Service{
		customers: customers,
		products:  products,
		carts:     carts,
		locks:     locks,
	}
}

// AddItem adds quantity units of a product to the customer's cart. If a line
// for the product already exists its quantity accumulates and its captured
// price is refreshed to the product's current price; otherwise a new line is
// appended. The cart total is recomputed before the cart is persisted.
func (s *Service) AddItem(ctx context.Context, customerID, productID int64, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	unlock := s.locks.Lock(customerID)
	defer unlock()

	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	c, err := s.getOrFresh(ctx, customerID)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.Items[i].Price = p.Price
			found = true
			break
		}
	}
	if !found {
		c.Items = append(c.Items, Item{
			ProductID: productID,
			Quantity:  quantity,
			Price:     p.Price,
		})
	}

	c.recalc()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// RemoveItem decrements the product's line quantity by exactly one; the line
// is deleted once its quantity reaches zero. Removing from a missing cart or
// a missing line is a no-op. Callers wanting a full line removal call
// repeatedly, or use Clear.
func (s *Service) RemoveItem(ctx context.Context, customerID, productID int64) (*Cart, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return freshCart(customerID), nil
		}
		return nil, errors.Wrap(err, "get cart")
	}

	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		c.Items[i].Quantity--
		if c.Items[i].Quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		break
	}

	c.recalc()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

// Clear empties the customer's cart: no lines, no coupon claim, zero total.
// A customer without a persisted cart is left untouched.
func (s *Service) Clear(ctx context.Context, customerID int64) error {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return err
	}
	return s.reset(ctx, customerID)
}

// Get returns the customer's cart. When none has been persisted yet a fresh
// empty cart value is returned without creating stored state.
func (s *Service) Get(ctx context.Context, customerID int64) (*Cart, error) {
	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return freshCart(customerID), nil
		}
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// ApplyCoupon records code as the cart's coupon claim. The claim is accepted
// only when code exactly matches the coupon currently assigned to the
// customer; otherwise coupon.ErrInvalidCoupon is returned and the cart is
// unchanged. The discount itself is not applied here: redemption happens at
// order placement, where the claim is re-checked.
func (s *Service) ApplyCoupon(ctx context.Context, customerID int64, code string) (*Cart, error) {
	unlock := s.locks.Lock(customerID)
	defer unlock()

	cust, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !cust.HasCoupon() || cust.CouponCode != code {
		return nil, coupon.ErrInvalidCoupon
	}

	c, err := s.getOrFresh(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.CouponCode = code
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, errors.Wrap(err, "save cart")
	}
	return c, nil
}

func (s *Service) reset(ctx context.Context, customerID int64) error {
	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return nil
		}
		return errors.Wrap(err, "get cart")
	}

	c.Items = nil
	c.CouponCode = ""
	c.Total = decimal.Zero
	if err := s.carts.Save(ctx, c); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

func (s *Service) getOrFresh(ctx context.Context, customerID int64) (*Cart, error) {
	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNoCart) {
			return freshCart(customerID), nil
		}
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

func freshCart(customerID int64) *Cart {
	return &Cart{CustomerID: customerID, Total: decimal.Zero}
}
