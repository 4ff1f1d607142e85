package api

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/perkcart/perkcart/internal/domain/customer"
)

type customerReq struct {
	Name    string
	Phone   string
	Address string
	Email   string
}

func decodeCustomerReq(data []byte) (*customerReq, error) {
	var req customerReq
	d := jx.DecodeBytes(data)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "name":
			dst = &req.Name
		case "phone":
			dst = &req.Phone
		case "address":
			dst = &req.Address
		case "email":
			dst = &req.Email
		default:
			return d.Skip()
		}
		v, err := d.Str()
		if err != nil {
			return err
		}
		*dst = v
		return nil
	}); err != nil {
		return nil, err
	}
	return &req, nil
}

// CreateCustomer registers a new customer.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	data, ok := readBody(w, r)
	if !ok {
		return
	}
	req, err := decodeCustomerReq(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "name required")
		return
	}

	c := &customer.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Email:   req.Email,
	}
	if err := h.customers.Create(r.Context(), c); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeCustomer(e, *c)
	})
}

// GetCustomer returns a single customer.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCustomer(e, *c)
	})
}

// ListCustomers returns customers with skip/limit pagination.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	skip, limit := pagination(r)

	customers, err := h.customers.List(r.Context(), skip, limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range customers {
				encodeCustomer(e, c)
			}
		})
	})
}

func encodeCustomer(e *jx.Encoder, c customer.Customer) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(c.Phone) })
		e.Field("address", func(e *jx.Encoder) { e.Str(c.Address) })
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("coupon_code", func(e *jx.Encoder) { optStr(e, c.CouponCode) })
	})
}
