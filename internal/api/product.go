package api

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/perkcart/perkcart/internal/domain/product"
)

type productReq struct {
	Name  string
	Price decimal.Decimal
}

func decodeProductReq(data []byte) (*productReq, error) {
	var req productReq
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return err
			}
			req.Name = v
			return nil
		case "price":
			v, err := d.Float64()
			if err != nil {
				return err
			}
			req.Price = decimal.NewFromFloat(v)
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	return &req, nil
}

// CreateProduct adds a product to the catalog.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := decodeProductReq(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Price.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, "name required and price must not be negative")
		return
	}

	p := &product.Product{Name: req.Name, Price: req.Price}
	if err := h.products.Create(r.Context(), p); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeProduct(e, *p)
	})
}

// GetProduct returns a single catalog product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p)
	})
}

// ListProducts returns catalog products with skip/limit pagination.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	products, err := h.products.List(r.Context(), skip, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p)
			}
		})
	})
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Float64(p.Price.InexactFloat64()) })
	})
}
