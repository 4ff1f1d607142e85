// Package api is the thin HTTP surface over the store core. Handlers decode
// with jx, delegate to the domain services, and translate typed domain
// failures to protocol responses; no business rule lives here.
package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/perkcart/perkcart/internal/domain/cart"
	"github.com/perkcart/perkcart/internal/domain/coupon"
	"github.com/perkcart/perkcart/internal/domain/customer"
	"github.com/perkcart/perkcart/internal/domain/order"
	"github.com/perkcart/perkcart/internal/domain/product"
)

// maxBodyBytes bounds request bodies; every payload here is tiny.
const maxBodyBytes = 1 << 20

// Handler holds the domain dependencies for all routes.
type Handler struct {
	products  product.Repository
	customers customer.Repository
	carts     *cart.Service
	orders    *order.Service
	issuer    *coupon.Issuer
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	customers customer.Repository,
	carts *cart.Service,
	orders *order.Service,
	issuer *coupon.Issuer,
) *Handler {
	return &Handler{
		products:  products,
		customers: customers,
		carts:     carts,
		orders:    orders,
		issuer:    issuer,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("GET /api/customers", h.ListCustomers)
	mux.HandleFunc("POST /api/customers", h.CreateCustomer)
	mux.HandleFunc("GET /api/customers/{id}", h.GetCustomer)

	mux.HandleFunc("GET /api/customers/{id}/cart", h.GetCart)
	mux.HandleFunc("DELETE /api/customers/{id}/cart", h.ClearCart)
	mux.HandleFunc("POST /api/customers/{id}/cart/items", h.AddCartItem)
	mux.HandleFunc("DELETE /api/customers/{id}/cart/items/{productID}", h.RemoveCartItem)
	mux.HandleFunc("POST /api/customers/{id}/cart/coupon", h.ApplyCoupon)

	mux.HandleFunc("POST /api/customers/{id}/orders", h.PlaceOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)

	mux.HandleFunc("GET /api/admin/statistics", h.GetStatistics)
	mux.HandleFunc("POST /api/admin/customers/{id}/coupon", h.AdminIssueCoupon)

	return mux
}

// pathID parses the named integer path segment. A malformed value reports
// false after writing a 400.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// pagination reads skip/limit query parameters with the defaults 0 and 10.
func pagination(r *http.Request) (skip, limit int) {
	skip, limit = 0, 10
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("skip")); err == nil && v >= 0 {
		skip = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v >= 0 {
		limit = v
	}
	return skip, limit
}

// readBody reads the bounded request body for decoding.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// writeDomainError maps typed domain failures to protocol responses.
// Anything unrecognized is a 500, logged with the ambient request logger.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coupon.ErrInvalidCoupon):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// optStr encodes a string field, emitting null for the empty string.
func optStr(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}
