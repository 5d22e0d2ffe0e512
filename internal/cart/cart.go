// Package cart implements the persisted cart: an ordered set of lines, at most
// one per product, written through to durable storage on every mutation.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Namespace is the storage key the cart record lives under.
const Namespace = "cart"

// ErrRecordNotFound is returned by Storage.Load when no record is stored.
var ErrRecordNotFound = errors.New("cart record not found")

// Line is one product entry in the cart. Name and Price are captured when
// the product is first added.
type Line struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	Qty       int
}

// Total is Price * Qty.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// ProductRef is the denormalized product data stored on a new line.
type ProductRef struct {
	ID    int64
	Name  string
	Price decimal.Decimal
}

// Storage is a durable key-value slot.
type Storage interface {
	// Load returns ErrRecordNotFound if key was never saved.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Notifier receives a short message after a successful addition.
type Notifier interface {
	Notify(msg string)
}
