package app

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/perkcart/perkcart/internal/domain/customer"
	"github.com/perkcart/perkcart/internal/domain/product"
)

// loadSeed populates the catalog and customer registry from a JSON seed
// file, optionally gzip-compressed. Expected shape:
//
//	{
//	  "products":  [{"name": "Waffle", "price": 6.5}, ...],
//	  "customers": [{"name": "...", "phone": "...", "address": "...", "email": "..."}, ...]
//	}
func loadSeed(ctx context.Context, path string, products product.Repository, customers customer.Repository) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open seed file")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrap(err, "open gzip reader")
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	d := jx.DecodeBytes(data)
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "products":
			return d.Arr(func(d *jx.Decoder) error {
				return seedProduct(ctx, d, products)
			})
		case "customers":
			return d.Arr(func(d *jx.Decoder) error {
				return seedCustomer(ctx, d, customers)
			})
		default:
			return d.Skip()
		}
	})
}

func seedProduct(ctx context.Context, d *jx.Decoder, products product.Repository) error {
	var p product.Product
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return err
			}
			p.Name = v
			return nil
		case "price":
			v, err := d.Float64()
			if err != nil {
				return err
			}
			p.Price = decimal.NewFromFloat(v)
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return err
	}
	if p.Name == "" || p.Price.IsNegative() {
		return errors.Errorf("invalid seed product %q", p.Name)
	}
	return products.Create(ctx, &p)
}

func seedCustomer(ctx context.Context, d *jx.Decoder, customers customer.Repository) error {
	var c customer.Customer
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var dst *string
		switch key {
		case "name":
			dst = &c.Name
		case "phone":
			dst = &c.Phone
		case "address":
			dst = &c.Address
		case "email":
			dst = &c.Email
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
		return err
	}
	if c.Name == "" {
		return errors.New("seed customer missing name")
	}
	return customers.Create(ctx, &c)
}
