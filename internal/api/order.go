package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/perkcart/perkcart/internal/domain/order"
)

// PlaceOrder converts the customer's cart into an order.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.orders.Place(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

// GetOrder returns a stored order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

// ListOrders returns orders with skip/limit pagination.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	orders, err := h.orders.List(r.Context(), skip, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				encodeOrder(e, o)
			}
		})
	})
}

// GetStatistics returns the store-wide purchase and discount metrics.
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Statistics(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("total_items_purchased", func(e *jx.Encoder) { e.Int(stats.TotalItemsPurchased) })
			e.Field("total_purchase_amount", func(e *jx.Encoder) { e.Float64(stats.TotalPurchaseAmount.InexactFloat64()) })
			e.Field("discount_codes", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, code := range stats.IssuedDiscountCodes {
						e.Str(code)
					}
				})
			})
			e.Field("total_discount_amount", func(e *jx.Encoder) { e.Float64(stats.TotalDiscountAmount.InexactFloat64()) })
		})
	})
}

// AdminIssueCoupon manually triggers loyalty coupon issuance for a customer.
// The outcome is reported in the body; ineligibility is not an error status.
func (h *Handler) AdminIssueCoupon(w http.ResponseWriter, r *http.Request) {
	customerID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	issued, err := h.issuer.AdminIssue(r.Context(), customerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("issued", func(e *jx.Encoder) { e.Bool(issued) })
		})
	})
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(o.ID) })
		e.Field("customer_id", func(e *jx.Encoder) { e.Int64(o.CustomerID) })
		e.Field("total_value", func(e *jx.Encoder) { e.Float64(o.Total.InexactFloat64()) })
		e.Field("coupon_code", func(e *jx.Encoder) { optStr(e, o.CouponCode) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("product_id", func(e *jx.Encoder) { e.Int64(it.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("price", func(e *jx.Encoder) { e.Float64(it.Price.InexactFloat64()) })
					})
				}
			})
		})
	})
}
