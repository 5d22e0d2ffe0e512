package quote

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/promo-storefront/internal/cart"
	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/pricing"
)

// Export is an encoded quote ready for download.
type Export struct {
	Document    Document
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter turns cart lines into quote documents, pricing each line against
// the live catalog.
type Exporter struct {
	products product.Repository
	archive  Archive
	validate *validator.Validate
	now      func() time.Time
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithArchive stores every exported document in a.
func WithArchive(a Archive) ExporterOption {
	return func(e *Exporter) { e.archive = a }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// NewExporter creates an Exporter reading products from repo.
func NewExporter(repo product.Repository, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		products: repo,
		validate: newValidator(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

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

// Validate checks the requester fields.
func (e *Exporter) Validate(req Requester) error {
	return e.validate.Struct(req)
}

// Build prices lines and assembles the document. Each unit price is
// re-evaluated with the price-break rule at the line quantity; a line whose
// product left the catalog exports unit 0 and no SKU or supplier.
func (e *Exporter) Build(ctx context.Context, req Requester, lines []cart.Line) (Document, error) {
	if len(lines) == 0 {
		return Document{}, ErrEmptyCart
	}
	if err := e.Validate(req); err != nil {
		return Document{}, errors.Wrap(err, "validate requester")
	}

	lg := zctx.From(ctx)
	doc := Document{
		ID:          uuid.New(),
		Requester:   req,
		Items:       make([]Item, 0, len(lines)),
		Total:       decimal.Zero,
		GeneratedAt: e.now(),
	}
	for _, l := range lines {
		it := Item{ID: l.ProductID, Name: l.Name, Qty: l.Qty, Unit: decimal.Zero}

		p, err := e.products.GetByID(ctx, l.ProductID)
		switch {
		case errors.Is(err, product.ErrNotFound):
			lg.Warn("Cart line references unknown product", zap.Int64("product_id", l.ProductID))
		case err != nil:
			return Document{}, errors.Wrapf(err, "get product %d", l.ProductID)
		default:
			it.SKU = &p.SKU
			it.Supplier = &p.Supplier
			it.Unit = pricing.BestUnitPrice(*p, l.Qty)
		}

		it.Total = it.Unit.Mul(decimal.NewFromInt(int64(l.Qty)))
		doc.Total = doc.Total.Add(it.Total)
		doc.Items = append(doc.Items, it)
	}
	return doc, nil
}

// Export builds and encodes a quote. Archive failures are logged and do not
// fail the export.
func (e *Exporter) Export(ctx context.Context, req Requester, lines []cart.Line) (*Export, error) {
	doc, err := e.Build(ctx, req, lines)
	if err != nil {
		return nil, err
	}
	body := Encode(doc)

	if e.archive != nil {
		if err := e.archive.Save(ctx, doc, body); err != nil {
			zctx.From(ctx).Warn("Archive quote",
				zap.Stringer("quote_id", doc.ID),
				zap.Error(err),
			)
		}
	}

	return &Export{
		Document:    doc,
		Filename:    Filename(doc.GeneratedAt),
		ContentType: ContentType,
		Body:        body,
	}, nil
}
