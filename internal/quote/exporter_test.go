package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/promo-storefront/internal/cart"
	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/domain/product"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func newExporter(t *testing.T, opts ...ExporterOption) *Exporter {
	t.Helper()
	repo, err := catalog.NewRepository([]product.Product{
		{
			ID: 1, Name: "Taza", SKU: "TZ-01", Supplier: "andes",
			BasePrice: d("1000"), Stock: 500, Status: product.StatusActive,
			PriceBreaks: []product.PriceBreak{
				{MinQty: 10, Price: d("900")},
				{MinQty: 50, Price: d("700")},
			},
		},
		{
			ID: 2, Name: "Gorra", SKU: "GR-02", Supplier: "pacifico",
			BasePrice: d("2500"), Stock: 20, Status: product.StatusActive,
		},
	})
	require.NoError(t, err)
	return NewExporter(repo, append([]ExporterOption{WithClock(func() time.Time { return fixedNow })}, opts...)...)
}

type archiveFunc func(ctx context.Context, doc Document, body []byte) error

func (f archiveFunc) Save(ctx context.Context, doc Document, body []byte) error {
	return f(ctx, doc, body)
}

func TestBuild(t *testing.T) {
	e := newExporter(t)
	lines := []cart.Line{
		// Frozen at base price, but 50 units qualify for the 700 break now.
		{ProductID: 1, Name: "Taza", Price: d("1000"), Qty: 50},
		{ProductID: 2, Name: "Gorra", Price: d("2500"), Qty: 2},
		{ProductID: 99, Name: "Descontinuado", Price: d("300"), Qty: 3},
	}

	doc, err := e.Build(context.Background(), Requester{Company: "ACME"}, lines)
	require.NoError(t, err)
	require.Len(t, doc.Items, 3)

	assert.True(t, d("700").Equal(doc.Items[0].Unit))
	assert.True(t, d("35000").Equal(doc.Items[0].Total))
	require.NotNil(t, doc.Items[0].SKU)
	assert.Equal(t, "TZ-01", *doc.Items[0].SKU)

	assert.True(t, d("5000").Equal(doc.Items[1].Total))

	missing := doc.Items[2]
	assert.Nil(t, missing.SKU)
	assert.Nil(t, missing.Supplier)
	assert.True(t, missing.Unit.IsZero())
	assert.True(t, missing.Total.IsZero())
	assert.Equal(t, "Descontinuado", missing.Name)

	assert.True(t, d("40000").Equal(doc.Total), "total %s", doc.Total)
	assert.Equal(t, fixedNow, doc.GeneratedAt)
}

func TestBuildErrors(t *testing.T) {
	e := newExporter(t)
	ctx := context.Background()

	_, err := e.Build(ctx, Requester{}, nil)
	require.ErrorIs(t, err, ErrEmptyCart)

	lines := []cart.Line{{ProductID: 1, Price: d("1"), Qty: 1}}
	_, err = e.Build(ctx, Requester{Email: "not-an-email"}, lines)
	require.Error(t, err)

	_, err = e.Build(ctx, Requester{}, lines)
	require.NoError(t, err, "requester fields are optional")
}

func TestExport(t *testing.T) {
	var archived []Document
	e := newExporter(t, WithArchive(archiveFunc(func(_ context.Context, doc Document, _ []byte) error {
		archived = append(archived, doc)
		return nil
	})))

	out, err := e.Export(context.Background(), Requester{
		Company: "ACME", Contact: "Ana", Email: "ana@acme.cl", Notes: "urgente",
	}, []cart.Line{
		{ProductID: 1, Name: "Taza", Price: d("900"), Qty: 10},
		{ProductID: 99, Name: "Descontinuado", Price: d("300"), Qty: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "cotizacion-1709649000000.json", out.Filename)
	assert.Equal(t, "application/json", out.ContentType)
	require.Len(t, archived, 1)
	assert.Equal(t, out.Document.ID, archived[0].ID)

	assert.JSONEq(t, `{
		"company": "ACME", "contact": "Ana", "email": "ana@acme.cl", "notes": "urgente",
		"items": [
			{"id": 1, "name": "Taza", "sku": "TZ-01", "supplier": "andes", "qty": 10, "unit": 900, "total": 9000},
			{"id": 99, "name": "Descontinuado", "sku": null, "supplier": null, "qty": 1, "unit": 0, "total": 0}
		],
		"total": 9000,
		"generatedAt": "2024-03-05T14:30:00Z"
	}`, string(out.Body))

	var keys []string
	dec := json.NewDecoder(bytes.NewReader(out.Body))
	_, err = dec.Token()
	require.NoError(t, err)
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	assert.Equal(t, []string{"company", "contact", "email", "notes", "items", "total", "generatedAt"}, keys)
}

func TestExportArchiveFailureIsNotFatal(t *testing.T) {
	e := newExporter(t, WithArchive(archiveFunc(func(context.Context, Document, []byte) error {
		return errors.New("db down")
	})))
	out, err := e.Export(context.Background(), Requester{}, []cart.Line{{ProductID: 2, Price: d("1"), Qty: 1}})
	require.NoError(t, err)
	assert.NotEmpty(t, out.Body)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "cotizacion-0.json", Filename(time.UnixMilli(0)))
	assert.Equal(t, "cotizacion-1700000000123.json", Filename(time.UnixMilli(1700000000123)))
}
