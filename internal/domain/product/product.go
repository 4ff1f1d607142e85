package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Products are
// immutable once created; there is no update or delete path.
type Product struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	// Create stores a new product and assigns its ID.
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	// List returns up to limit products in creation order, skipping the
	// first skip entries.
	List(ctx context.Context, skip, limit int) ([]Product, error)
}
