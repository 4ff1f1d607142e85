package coupon

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perkcart/perkcart/internal/domain/customer"
	"github.com/perkcart/perkcart/pkg/kmutex"
)

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

type recordingNotifier struct {
	codes []string
}

func (n *recordingNotifier) Notify(_ context.Context, _ customer.Customer, code string) {
	n.codes = append(n.codes, code)
}

type silentNotifier struct{}

func (silentNotifier) Notify(context.Context, customer.Customer, string) {}

func newIssuer(nth int) (*Issuer, *mockCustomerRepo, *recordingNotifier) {
	repo := &mockCustomerRepo{byID: make(map[int64]*customer.Customer)}
	notifier := &recordingNotifier{}
	return NewIssuer(nth, repo, notifier, kmutex.New()), repo, notifier
}

func TestGenerateCode_Format(t *testing.T) {
	iss, _, _ := newIssuer(5)

	code, err := iss.GenerateCode()
	require.NoError(t, err)

	assert.Len(t, code, 10)
	for _, r := range code {
		assert.Truef(t, strings.ContainsRune(codeAlphabet, r),
			"unexpected rune %q in code %q", r, code)
	}
}

func TestGenerateCode_NoRepeats(t *testing.T) {
	iss, _, _ := newIssuer(5)

	seen := make(map[string]struct{})
	for range 500 {
		code, err := iss.GenerateCode()
		require.NoError(t, err)
		_, dup := seen[code]
		require.Falsef(t, dup, "code %q issued twice", code)
		seen[code] = struct{}{}
	}
}

func TestGenerateCode_UniformAlphabet(t *testing.T) {
	counts := make(map[rune]int, len(codeAlphabet))
	const codes = 3600 // 36000 draws, expected 1000 per character

	for range codes {
		code, err := randomCode()
		require.NoError(t, err)
		for _, r := range code {
			counts[r]++
		}
	}

	require.Len(t, counts, len(codeAlphabet))
	for r, n := range counts {
		assert.Greaterf(t, n, 700, "character %q drawn too rarely", r)
		assert.Lessf(t, n, 1300, "character %q drawn too often", r)
	}
}

func TestIssueIfEligible_ConcurrentCustomers(t *testing.T) {
	// Issuance for different customers runs in parallel under distinct
	// per-customer locks; the shared filter must still never hand out a
	// duplicate.
	locks := kmutex.New()
	repo := &mockCustomerRepo{byID: make(map[int64]*customer.Customer)}
	iss := NewIssuer(1, repo, &silentNotifier{}, locks)

	const (
		customers = 8
		perWorker = 200
	)
	results := make([][]string, customers)

	var wg sync.WaitGroup
	for w := range customers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			c := &customer.Customer{ID: int64(w + 1), OrderCount: 1}
			for range perWorker {
				unlock := locks.Lock(c.ID)
				c.CouponCode = ""
				code, err := iss.IssueIfEligible(context.Background(), c)
				unlock()
				if err != nil {
					t.Error(err)
					return
				}
				results[w] = append(results[w], code)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[string]struct{}, customers*perWorker)
	for _, codes := range results {
		require.Len(t, codes, perWorker)
		for _, code := range codes {
			_, dup := seen[code]
			require.Falsef(t, dup, "code %q issued twice", code)
			seen[code] = struct{}{}
		}
	}
}

func TestEligible(t *testing.T) {
	iss, _, _ := newIssuer(3)

	tests := []struct {
		orderCount int
		want       bool
	}{
		{0, false},
		{1, false},
		{2, false},
		{3, true},
		{4, false},
		{6, true},
		{9, true},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, iss.Eligible(tt.orderCount), "orderCount=%d", tt.orderCount)
	}
}

func TestIssueIfEligible_Grants(t *testing.T) {
	iss, _, notifier := newIssuer(2)
	c := &customer.Customer{ID: 1, Name: "Ada", OrderCount: 2}

	code, err := iss.IssueIfEligible(context.Background(), c)
	require.NoError(t, err)

	require.NotEmpty(t, code)
	assert.Equal(t, code, c.CouponCode)
	assert.Equal(t, []string{code}, notifier.codes)
}

func TestIssueIfEligible_OffBoundary(t *testing.T) {
	iss, _, notifier := newIssuer(2)
	c := &customer.Customer{ID: 1, OrderCount: 3}

	code, err := iss.IssueIfEligible(context.Background(), c)
	require.NoError(t, err)

	assert.Empty(t, code)
	assert.Empty(t, c.CouponCode)
	assert.Empty(t, notifier.codes)
}

func TestIssueIfEligible_OutstandingCouponBlocks(t *testing.T) {
	iss, _, notifier := newIssuer(2)
	c := &customer.Customer{ID: 1, OrderCount: 2, CouponCode: "UNSPENT"}

	code, err := iss.IssueIfEligible(context.Background(), c)
	require.NoError(t, err)

	assert.Empty(t, code)
	assert.Equal(t, "UNSPENT", c.CouponCode)
	assert.Empty(t, notifier.codes)
}

func TestAdminIssue_Eligible(t *testing.T) {
	iss, repo, notifier := newIssuer(2)
	repo.byID[1] = &customer.Customer{ID: 1, Name: "Ada", OrderCount: 4}

	issued, err := iss.AdminIssue(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, issued)
	code := repo.byID[1].CouponCode
	require.NotEmpty(t, code, "issued code must be persisted")
	assert.Equal(t, []string{code}, notifier.codes)
}

func TestAdminIssue_OffBoundary(t *testing.T) {
	iss, repo, notifier := newIssuer(2)
	repo.byID[1] = &customer.Customer{ID: 1, OrderCount: 3}

	issued, err := iss.AdminIssue(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, issued)
	assert.Empty(t, repo.byID[1].CouponCode)
	assert.Empty(t, notifier.codes)
}

func TestAdminIssue_OutstandingCoupon(t *testing.T) {
	iss, repo, _ := newIssuer(2)
	repo.byID[1] = &customer.Customer{ID: 1, OrderCount: 2, CouponCode: "UNSPENT"}

	issued, err := iss.AdminIssue(context.Background(), 1)
	require.NoError(t, err)

	assert.False(t, issued)
	assert.Equal(t, "UNSPENT", repo.byID[1].CouponCode)
}

func TestAdminIssue_UnknownCustomer(t *testing.T) {
	iss, _, _ := newIssuer(2)

	issued, err := iss.AdminIssue(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, issued)
}
