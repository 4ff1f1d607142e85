package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/perkcart/perkcart/internal/domain/cart"
)

type addItemReq struct {
	ProductID int64
	Quantity  int
}

func decodeAddItemReq(data []byte) (*addItemReq, error) {
	req := addItemReq{Quantity: 1}
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Int64()
			if err != nil {
				return err
			}
			req.ProductID = v
			return nil
		case "quantity":
			v, err := d.Int()
			if err != nil {
				return err
			}
			req.Quantity = v
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return nil, err
	}
	return &req, nil
}

// AddCartItem adds product units to the customer's cart.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := decodeAddItemReq(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.AddItem(r.Context(), customerID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// RemoveCartItem decrements the product's cart line by one unit.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productID")
	if !ok {
		return
	}

	c, err := h.carts.RemoveItem(r.Context(), customerID, productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// GetCart returns the customer's cart, or an empty one if none exists yet.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.carts.Get(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

// ClearCart empties the customer's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.carts.Clear(r.Context(), customerID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplyCoupon claims a coupon code on the customer's cart.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	data, ok := readBody(w, r)
	if !ok {
		return
	}

	code := ""
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "coupon_code" {
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		code = v
		return nil
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.carts.ApplyCoupon(r.Context(), customerID, code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCart(e, c)
	})
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("customer_id", func(e *jx.Encoder) { e.Int64(c.CustomerID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range c.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product_id", func(e *jx.Encoder) { e.Int64(it.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("price", func(e *jx.Encoder) { e.Float64(it.Price.InexactFloat64()) })
					})
				}
			})
		})
		e.Field("coupon_code", func(e *jx.Encoder) { optStr(e, c.CouponCode) })
		e.Field("total_value", func(e *jx.Encoder) { e.Float64(c.Total.InexactFloat64()) })
	})
}
