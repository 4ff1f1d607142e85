package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Statistics are read-only store-wide metrics derived from the order history
// and the discount ledger.
type Statistics struct {
	TotalItemsPurchased int
	TotalPurchaseAmount decimal.Decimal
	IssuedDiscountCodes []string
	TotalDiscountAmount decimal.Decimal
}

// Statistics recomputes the metrics from scratch on every call. Fine at the
// expected scale; revisit with an incremental aggregate if order volume ever
// makes this a hot path. The scan takes no snapshot across customers, which
// is acceptable for a reporting endpoint.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	all, err := s.orders.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load orders")
	}

	stats := &Statistics{
		TotalPurchaseAmount: decimal.Zero,
		TotalDiscountAmount: decimal.Zero,
	}
	for _, o := range all {
		for _, it := range o.Items {
			stats.TotalItemsPurchased += it.Quantity
		}
		stats.TotalPurchaseAmount = stats.TotalPurchaseAmount.Add(o.Total)
	}

	ledger, err := s.ledger.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load discount ledger")
	}
	stats.IssuedDiscountCodes = make([]string, 0, len(ledger))
	for code, amount := range ledger {
		stats.IssuedDiscountCodes = append(stats.IssuedDiscountCodes, code)
		stats.TotalDiscountAmount = stats.TotalDiscountAmount.Add(amount)
	}

	return stats, nil
}
