package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/pricing"
)

const maxBodyBytes = 64 << 10

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return newBadRequest("invalid request body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return errors.Wrap(err, "validate body")
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, newBadRequest("invalid id %q", raw)
	}
	return id, nil
}

// rawQuantity parses a quantity sent as a JSON number or string. Anything
// unusable, including an absent value, counts as 1.
func rawQuantity(raw json.RawMessage) int {
	s := strings.TrimSpace(string(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	return pricing.ParseQuantity(s)
}

// criteriaRequest is the filter bundle in JSON form.
type criteriaRequest struct {
	Category string           `json:"category" validate:"max=100"`
	Supplier string           `json:"supplier" validate:"max=100"`
	Search   string           `json:"q" validate:"max=200"`
	MinPrice *decimal.Decimal `json:"minPrice"`
	MaxPrice *decimal.Decimal `json:"maxPrice"`
	Sort     string           `json:"sort"`
}

func (c criteriaRequest) criteria() catalog.Criteria {
	return catalog.Criteria{
		Category: c.Category,
		Supplier: c.Supplier,
		Search:   c.Search,
		MinPrice: c.MinPrice,
		MaxPrice: c.MaxPrice,
		Sort:     catalog.ParseSortKey(c.Sort),
	}
}

// criteriaFromQuery reads criteria from URL parameters. A missing category
// means all categories.
func criteriaFromQuery(r *http.Request) (catalog.Criteria, error) {
	q := r.URL.Query()
	c := catalog.DefaultCriteria(catalog.ParseSortKey(q.Get("sort")))
	if v := q.Get("category"); v != "" {
		c.Category = v
	}
	c.Supplier = q.Get("supplier")
	c.Search = q.Get("q")

	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"minPrice", &c.MinPrice},
		{"maxPrice", &c.MaxPrice},
	} {
		raw := strings.TrimSpace(q.Get(bound.name))
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.Criteria{}, newBadRequest("invalid %s %q", bound.name, raw)
		}
		*bound.dst = &v
	}
	return c, nil
}
