package catalog

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-storefront/internal/domain/product"
)

var _ product.Repository = (*Repository)(nil)

// Repository is the read-only in-memory catalog.
type Repository struct {
	products []product.Product
	byID     map[int64]int
}

// NewRepository indexes products. Identifiers must be unique.
func NewRepository(products []product.Product) (*Repository, error) {
	byID := make(map[int64]int, len(products))
	for i, p := range products {
		if err := validate(p); err != nil {
			return nil, errors.Wrapf(err, "product %d", p.ID)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, errors.Errorf("duplicate product id %d", p.ID)
		}
		byID[p.ID] = i
	}
	return &Repository{products: products, byID: byID}, nil
}

// LoadFile reads a catalog JSON document from path.
func LoadFile(path string) (*Repository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	products, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return NewRepository(products)
}

// List returns every product in catalog order. The slice is a copy.
func (r *Repository) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(r.products), nil
}

// GetByID returns product.ErrNotFound for unknown identifiers.
func (r *Repository) GetByID(_ context.Context, id int64) (*product.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := r.products[i]
	return &p, nil
}

func validate(p product.Product) error {
	if p.BasePrice.IsNegative() {
		return errors.New("negative base price")
	}
	if p.Stock < 0 {
		return errors.New("negative stock")
	}
	for _, pb := range p.PriceBreaks {
		if pb.MinQty < 1 {
			return errors.Errorf("price break threshold %d must be positive", pb.MinQty)
		}
		if pb.Price.IsNegative() {
			return errors.New("negative price break")
		}
	}
	return nil
}

type productJSON struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	SKU         string           `json:"sku"`
	Category    string           `json:"category"`
	Supplier    string           `json:"supplier"`
	BasePrice   decimal.Decimal  `json:"basePrice"`
	Stock       int              `json:"stock"`
	Status      string           `json:"status"`
	PriceBreaks []priceBreakJSON `json:"priceBreaks,omitempty"`
}

type priceBreakJSON struct {
	MinQty   int              `json:"minQty"`
	Price    decimal.Decimal  `json:"price"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
}

// Decode parses a JSON array of catalog records.
func Decode(r io.Reader) ([]product.Product, error) {
	var records []productJSON
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}

	products := make([]product.Product, len(records))
	for i, rec := range records {
		products[i] = fromJSON(rec)
	}
	return products, nil
}

// Encode writes products in the format Decode reads.
func Encode(w io.Writer, products []product.Product) error {
	records := make([]productJSON, len(products))
	for i, p := range products {
		records[i] = toJSON(p)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// DecodeRecord parses a single catalog record, as found on one line of a
// JSON-lines supplier feed.
func DecodeRecord(data []byte) (product.Product, error) {
	var rec productJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return product.Product{}, errors.Wrap(err, "parse catalog record")
	}
	p := fromJSON(rec)
	if err := validate(p); err != nil {
		return product.Product{}, errors.Wrapf(err, "product %d", p.ID)
	}
	return p, nil
}

func fromJSON(rec productJSON) product.Product {
	p := product.Product{
		ID:        rec.ID,
		Name:      rec.Name,
		SKU:       rec.SKU,
		Category:  rec.Category,
		Supplier:  rec.Supplier,
		BasePrice: rec.BasePrice,
		Stock:     rec.Stock,
		Status:    product.Status(rec.Status),
	}
	for _, pb := range rec.PriceBreaks {
		p.PriceBreaks = append(p.PriceBreaks, product.PriceBreak{
			MinQty:   pb.MinQty,
			Price:    pb.Price,
			Discount: pb.Discount,
		})
	}
	return p
}

func toJSON(p product.Product) productJSON {
	rec := productJSON{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Category:  p.Category,
		Supplier:  p.Supplier,
		BasePrice: p.BasePrice,
		Stock:     p.Stock,
		Status:    string(p.Status),
	}
	for _, pb := range p.PriceBreaks {
		rec.PriceBreaks = append(rec.PriceBreaks, priceBreakJSON{
			MinQty:   pb.MinQty,
			Price:    pb.Price,
			Discount: pb.Discount,
		})
	}
	return rec
}
