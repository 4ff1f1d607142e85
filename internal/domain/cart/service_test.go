package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkcart/perkcart/internal/domain/coupon"
	"github.com/perkcart/perkcart/internal/domain/customer"
	"github.com/perkcart/perkcart/internal/domain/product"
	"github.com/perkcart/perkcart/pkg/kmutex"
)

// --- Mock implementations ---

type mockCustomerRepo struct {
	byID map[int64]*customer.Customer
}

func (m *mockCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	m.byID[c.ID] = c
	return nil
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCustomerRepo) Update(_ context.Context, c *customer.Customer) error {
	if _, ok := m.byID[c.ID]; !ok {
		return customer.ErrNotFound
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *mockCustomerRepo) List(_ context.Context, _, _ int) ([]customer.Customer, error) {
	return nil, nil
}

type mockProductRepo struct {
	byID map[int64]*product.Product
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) List(_ context.Context, _, _ int) ([]product.Product, error) {
	return nil, nil
}

type mockCartRepo struct {
	byCustomer map[int64]Cart
}

func (m *mockCartRepo) Get(_ context.Context, customerID int64) (*Cart, error) {
	c, ok := m.byCustomer[customerID]
	if !ok {
		return nil, ErrNoCart
	}
	c.Items = append([]Item(nil), c.Items...)
	return &c, nil
}

func (m *mockCartRepo) Save(_ context.Context, c *Cart) error {
	stored := *c
	stored.Items = append([]Item(nil), c.Items...)
	m.byCustomer[c.CustomerID] = stored
	return nil
}

// --- Helpers ---

type fixture struct {
	customers *mockCustomerRepo
	products  *mockProductRepo
	carts     *mockCartRepo
	svc       *Service
}

func newFixture(products ...product.Product) *fixture {
	f := &fixture{
		customers: &mockCustomerRepo{byID: make(map[int64]*customer.Customer)},
		products:  &mockProductRepo{byID: make(map[int64]*product.Product)},
		carts:     &mockCartRepo{byCustomer: make(map[int64]Cart)},
	}
	f.customers.byID[1] = &customer.Customer{ID: 1, Name: "Ada", Email: "ada@example.com"}
	for i := range products {
		f.products.byID[products[i].ID] = &products[i]
	}
	f.svc = NewService(f.customers, f.products, f.carts, kmutex.New())
	return f
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertTotal checks the cart total invariant against its lines.
func assertTotal(t *testing.T, c *Cart) {
	t.Helper()
	want := decimal.Zero
	for _, it := range c.Items {
		want = want.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, want.Equal(c.Total), "total %s != sum of lines %s", c.Total, want)
}

// --- Tests ---

func TestAddItem_NewLine(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Name: "Waffle", Price: money("10.00")})

	c, err := f.svc.AddItem(context.Background(), 1, 1, 2)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(1), c.Items[0].ProductID)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.True(t, money("20.00").Equal(c.Total))
	assertTotal(t, c)
}

func TestAddItem_AccumulatesQuantity(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Name: "Waffle", Price: money("10.00")})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)
	c, err := f.svc.AddItem(ctx, 1, 1, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1, "same product must not create a second line")
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, money("50.00").Equal(c.Total))
}

func TestAddItem_RefreshesCapturedPrice(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Name: "Waffle", Price: money("10.00")})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)

	// Catalog price changes after the line exists.
	f.products.byID[1].Price = money("12.00")

	c, err := f.svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)

	assert.True(t, money("12.00").Equal(c.Items[0].Price))
	assert.True(t, money("24.00").Equal(c.Total))
}

func TestAddItem_UnknownCustomer(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})

	_, err := f.svc.AddItem(context.Background(), 99, 1, 1)
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	f := newFixture()

	_, err := f.svc.AddItem(context.Background(), 1, 42, 1)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})

	_, err := f.svc.AddItem(context.Background(), 1, 1, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveItem_DecrementsByOne(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)

	c, err := f.svc.RemoveItem(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.True(t, money("10.00").Equal(c.Total))

	c, err = f.svc.RemoveItem(ctx, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items, "line must disappear once quantity reaches zero")
	assert.True(t, c.Total.IsZero())
}

func TestRemoveItem_NoCartIsNoop(t *testing.T) {
	f := newFixture()

	c, err := f.svc.RemoveItem(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.NotContains(t, f.carts.byCustomer, int64(1), "no-op must not persist a cart")
}

func TestRemoveItem_MissingLineIsNoop(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)

	c, err := f.svc.RemoveItem(ctx, 1, 42)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assertTotal(t, c)
}

func TestRemoveItem_UnknownCustomer(t *testing.T) {
	f := newFixture()

	_, err := f.svc.RemoveItem(context.Background(), 99, 1)
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestClear(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, 1, 1, 3)
	require.NoError(t, err)
	f.customers.byID[1].CouponCode = "SAVETEN"
	_, err = f.svc.ApplyCoupon(ctx, 1, "SAVETEN")
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, 1))

	c, err := f.svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Empty(t, c.CouponCode)
	assert.True(t, c.Total.IsZero())
}

func TestClear_UnknownCustomer(t *testing.T) {
	f := newFixture()

	err := f.svc.Clear(context.Background(), 99)
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestGet_NoCartReturnsFreshValue(t *testing.T) {
	f := newFixture()

	c, err := f.svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.CustomerID)
	assert.Empty(t, c.Items)
	assert.True(t, c.Total.IsZero())
	assert.NotContains(t, f.carts.byCustomer, int64(1), "read must not create stored state")
}

func TestApplyCoupon_Valid(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})
	ctx := context.Background()
	f.customers.byID[1].CouponCode = "SAVETEN"

	_, err := f.svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)

	c, err := f.svc.ApplyCoupon(ctx, 1, "SAVETEN")
	require.NoError(t, err)
	assert.Equal(t, "SAVETEN", c.CouponCode)
}

func TestApplyCoupon_Mismatch(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})
	ctx := context.Background()
	f.customers.byID[1].CouponCode = "SAVETEN"

	_, err := f.svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)

	_, err = f.svc.ApplyCoupon(ctx, 1, "BOGUS")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)

	c, err := f.svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, c.CouponCode, "failed apply must leave the cart claim unchanged")
}

func TestApplyCoupon_NoneAssigned(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ApplyCoupon(context.Background(), 1, "ANYTHING")
	require.ErrorIs(t, err, coupon.ErrInvalidCoupon)
}

func TestApplyCoupon_UnknownCustomer(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ApplyCoupon(context.Background(), 99, "CODE")
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestCartsAreIsolatedPerCustomer(t *testing.T) {
	f := newFixture(product.Product{ID: 1, Price: money("10.00")})
	f.customers.byID[2] = &customer.Customer{ID: 2}

	_, err := f.svc.AddItem(context.Background(), 1, 1, 1)
	require.NoError(t, err)

	c, err := f.svc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}
