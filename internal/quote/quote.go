// Package quote builds the offline quote document exported from the cart.
package quote

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContentType is the MIME type of an encoded Document.
const ContentType = "application/json"

var (
	// ErrEmptyCart is returned when exporting a cart without lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when an archived quote does not exist.
	ErrNotFound = errors.New("quote not found")
)

// Requester identifies who asked for the quote. All fields are optional.
type Requester struct {
	Company string `json:"company" validate:"max=200"`
	Contact string `json:"contact" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Notes   string `json:"notes" validate:"max=2000"`
}

// Item is one exported cart line. SKU and Supplier are nil when the product
// is no longer in the catalog.
type Item struct {
	ID       int64
	Name     string
	SKU      *string
	Supplier *string
	Qty      int
	Unit     decimal.Decimal
	Total    decimal.Decimal
}

// Document is the exported quote.
type Document struct {
	ID          uuid.UUID
	Requester   Requester
	Items       []Item
	Total       decimal.Decimal
	GeneratedAt time.Time
}

// Filename returns the download name for a quote generated at t.
func Filename(t time.Time) string {
	return "cotizacion-" + strconv.FormatInt(t.UnixMilli(), 10) + ".json"
}

// Archive stores exported documents.
type Archive interface {
	Save(ctx context.Context, doc Document, body []byte) error
}

// Summary is an archived quote without its document body.
type Summary struct {
	ID          uuid.UUID
	Company     string
	Contact     string
	Email       string
	ItemCount   int
	Total       decimal.Decimal
	GeneratedAt time.Time
}

// ArchiveReader is an Archive that can list and fetch stored documents.
type ArchiveReader interface {
	Archive
	List(ctx context.Context, limit int) ([]Summary, error)
	Document(ctx context.Context, id uuid.UUID) ([]byte, error)
}
