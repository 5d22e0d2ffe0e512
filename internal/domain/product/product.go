package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrNotPurchasable is returned when a product is inactive or out of stock.
	ErrNotPurchasable = errors.New("product is not available for purchase")
)

// Status is the publication state of a catalog item.
type Status string

// StatusActive marks a product that can be added to the cart.
const StatusActive Status = "active"

// Product represents a promotional item in the static catalog.
type Product struct {
	ID          int64
	Name        string
	SKU         string
	Category    string
	Supplier    string
	BasePrice   decimal.Decimal
	Stock       int
	Status      Status
	PriceBreaks []PriceBreak
}

// PriceBreak is a quantity threshold at or above which Price applies per unit.
// Breaks of one product may be unordered and overlapping.
type PriceBreak struct {
	MinQty int
	Price  decimal.Decimal
	// Discount is the percentage shown to the customer, if any.
	Discount *decimal.Decimal
}

// Purchasable reports whether the product may be added to the cart.
func (p Product) Purchasable() bool {
	return p.Status == StatusActive && p.Stock > 0
}

// CheckPurchasable returns ErrNotPurchasable when Purchasable is false.
func (p Product) CheckPurchasable() error {
	if !p.Purchasable() {
		return ErrNotPurchasable
	}
	return nil
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
}
