package coupon

import (
	"context"
	"crypto/rand"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"

	"github.com/perkcart/perkcart/internal/domain/customer"
	"github.com/perkcart/perkcart/pkg/kmutex"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 10
	maxAttempts  = 8

	// Sized for far more codes than a single store will ever issue; at this
	// false-positive rate a collision report costs one regeneration.
	bloomCapacity = 1 << 20
	bloomFPR      = 0.001
)

// Issuer generates loyalty coupon codes and decides issuance eligibility.
//
// A customer earns a coupon on every nth completed order, and only while
// holding no unredeemed code. The same eligibility rule applies to both the
// order-triggered and the admin-triggered path.
//
// Issued codes are tracked in a bloom filter so a candidate that may repeat
// an earlier code is regenerated. False positives only cost a retry; a code
// the filter has never seen is guaranteed fresh.
type Issuer struct {
	nth       int
	customers customer.Repository
	notifier  Notifier
	locks     *kmutex.KMutex

	// issuedMu guards issued. Per-customer locks serialize issuance for one
	// customer only; different customers issue in parallel and share the
	// filter.
	issuedMu sync.Mutex
	issued   *bloom.BloomFilter
}

// NewIssuer creates an Issuer granting a coupon on every nth order. locks
// must be the shared per-customer lock set.
func NewIssuer(nth int, customers customer.Repository, notifier Notifier, locks *kmutex.KMutex) *Issuer {
	return &Issuer{
		nth:       nth,
		customers: customers,
		notifier:  notifier,
		locks:     locks,
		issued:    bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// GenerateCode produces a random 10-character code of uppercase letters and
// digits that has not been issued before. Safe for concurrent use: the
// test-and-add on the filter is atomic under issuedMu.
func (i *Issuer) GenerateCode() (string, error) {
	for range maxAttempts {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		i.issuedMu.Lock()
		fresh := !i.issued.TestString(code)
		if fresh {
			i.issued.AddString(code)
		}
		i.issuedMu.Unlock()
		if fresh {
			return code, nil
		}
	}
	return "", errors.New("exhausted attempts generating a fresh coupon code")
}

// Eligible reports whether orderCount lands on an issuance boundary: a
// positive exact multiple of the configured threshold.
func (i *Issuer) Eligible(orderCount int) bool {
	return orderCount > 0 && orderCount%i.nth == 0
}

// IssueIfEligible assigns a new coupon to the customer when their order
// count sits on an issuance boundary and they hold no outstanding coupon.
// It mutates c and dispatches the notification but does not persist the
// customer; the caller owns persistence and must hold the customer lock.
// It returns the issued code, or "" when the customer was not eligible.
func (i *Issuer) IssueIfEligible(ctx context.Context, c *customer.Customer) (string, error) {
	if !i.Eligible(c.OrderCount) || c.HasCoupon() {
		return "", nil
	}

	code, err := i.GenerateCode()
	if err != nil {
		return "", errors.Wrap(err, "generate code")
	}
	c.CouponCode = code
	i.notifier.Notify(ctx, *c, code)
	return code, nil
}

// AdminIssue is the manually triggered issuance path. It reports whether a
// coupon was issued; ineligibility (wrong order count, outstanding coupon,
// unknown customer) is an ordinary false outcome, not an error.
func (i *Issuer) AdminIssue(ctx context.Context, customerID int64) (bool, error) {
	unlock := i.locks.Lock(customerID)
	defer unlock()

	c, err := i.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "get customer")
	}

	code, err := i.IssueIfEligible(ctx, c)
	if err != nil {
		return false, err
	}
	if code == "" {
		return false, nil
	}

	if err := i.customers.Update(ctx, c); err != nil {
		return false, errors.Wrap(err, "update customer")
	}
	return true, nil
}

func randomCode() (string, error) {
	// Bytes at or above the largest multiple of the alphabet size are
	// rejected; mapping them through modulo would over-weight the low
	// characters.
	const rejectAbove = 256 - 256%len(codeAlphabet)

	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "read random bytes")
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}
	return string(out), nil
}
