package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/promo-storefront/internal/cart"
	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/notify"
	"github.com/xenking/promo-storefront/internal/quote"
	"github.com/xenking/promo-storefront/internal/storage/memory"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func pct(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func fixture() []product.Product {
	return []product.Product{
		{
			ID: 1, Name: "Taza cerámica", SKU: "TZ-01", Category: "tazas", Supplier: "andes",
			BasePrice: d("1000"), Stock: 100, Status: product.StatusActive,
			PriceBreaks: []product.PriceBreak{
				{MinQty: 10, Price: d("900"), Discount: pct("10")},
				{MinQty: 50, Price: d("700"), Discount: pct("30")},
			},
		},
		{
			ID: 2, Name: "Bolígrafo", SKU: "BL-02", Category: "escritura", Supplier: "pacifico",
			BasePrice: d("500"), Stock: 1000, Status: product.StatusActive,
		},
		{
			ID: 3, Name: "Polera", SKU: "PL-03", Category: "textil", Supplier: "andes",
			BasePrice: d("5990"), Stock: 0, Status: product.StatusActive,
		},
		{
			ID: 4, Name: "Paraguas", SKU: "PR-04", Category: "accesorios", Supplier: "pacifico",
			BasePrice: d("9990"), Stock: 10, Status: "inactive",
		},
	}
}

type fakeArchive struct {
	saved []quote.Document
	docs  map[uuid.UUID][]byte
}

func (f *fakeArchive) Save(_ context.Context, doc quote.Document, body []byte) error {
	f.saved = append(f.saved, doc)
	if f.docs == nil {
		f.docs = make(map[uuid.UUID][]byte)
	}
	f.docs[doc.ID] = body
	return nil
}

func (f *fakeArchive) List(_ context.Context, limit int) ([]quote.Summary, error) {
	var out []quote.Summary
	for _, doc := range f.saved {
		out = append(out, quote.Summary{
			ID: doc.ID, Company: doc.Requester.Company, ItemCount: len(doc.Items),
			Total: doc.Total, GeneratedAt: doc.GeneratedAt,
		})
	}
	return out[:min(limit, len(out))], nil
}

func (f *fakeArchive) Document(_ context.Context, id uuid.UUID) ([]byte, error) {
	b, ok := f.docs[id]
	if !ok {
		return nil, quote.ErrNotFound
	}
	return b, nil
}

type env struct {
	srv   *httptest.Server
	store *cart.Store
}

func newEnv(t *testing.T, archive quote.ArchiveReader) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	repo, err := catalog.NewRepository(fixture())
	require.NoError(t, err)

	ch := notify.NewChannel(8)
	toast := notify.NewToast(ch, time.Minute)
	go func() { _ = toast.Run(ctx) }()

	store, err := cart.Open(ctx, memory.New(), cart.WithNotifier(ch))
	require.NoError(t, err)

	opts := []quote.ExporterOption{quote.WithClock(func() time.Time { return fixedNow })}
	if archive != nil {
		opts = append(opts, quote.WithArchive(archive))
	}

	h, err := New(Config{
		Products:       repo,
		Publisher:      catalog.NewPublisher(repo, 5*time.Millisecond),
		Cart:           store,
		Exporter:       quote.NewExporter(repo, opts...),
		Toast:          toast,
		Archive:        archive,
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &env{srv: srv, store: store}
}

func (e *env) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

type productJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	BasePrice   float64 `json:"basePrice"`
	Purchasable bool    `json:"purchasable"`
	MaxQty      int     `json:"maxQty"`
	PriceBreaks []struct {
		MinQty   int      `json:"minQty"`
		Price    float64  `json:"price"`
		Discount *float64 `json:"discount"`
	} `json:"priceBreaks"`
}

type cartJSON struct {
	Lines []struct {
		ID    int64   `json:"id"`
		Name  string  `json:"name"`
		Price float64 `json:"price"`
		Qty   int     `json:"qty"`
		Total float64 `json:"total"`
	} `json:"lines"`
	Count    int     `json:"count"`
	Subtotal float64 `json:"subtotal"`
}

type errorJSON struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ids(ps []productJSON) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestListProducts(t *testing.T) {
	e := newEnv(t, nil)

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{"All", "", []int64{2, 4, 3, 1}},
		{"Category", "?category=tazas", []int64{1}},
		{"CategoryAll", "?category=all&sort=price", []int64{2, 1, 3, 4}},
		{"Supplier", "?supplier=andes&sort=stock", []int64{1, 3}},
		{"SearchAccentInsensitive", "?q=BOLIGRAFO", []int64{2}},
		{"SearchSKU", "?q=pr-04", []int64{4}},
		{"PriceRange", "?minPrice=900&maxPrice=6000&sort=price", []int64{1, 3}},
		{"UnknownSort", "?sort=rating", []int64{2, 4, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := e.do(t, http.MethodGet, "/api/products"+tt.query, "")
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			out := decode[struct {
				Count    int           `json:"count"`
				Products []productJSON `json:"products"`
			}](t, body)
			assert.Equal(t, tt.want, ids(out.Products))
			assert.Equal(t, len(tt.want), out.Count)
		})
	}

	t.Run("BadPrice", func(t *testing.T) {
		resp, body := e.do(t, http.MethodGet, "/api/products?minPrice=abc", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, http.StatusBadRequest, decode[errorJSON](t, body).Code)
	})
}

func TestGetProduct(t *testing.T) {
	e := newEnv(t, nil)

	resp, body := e.do(t, http.MethodGet, "/api/products/1?qty=60", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[struct {
		productJSON
		DisplayTier struct {
			MinQty          int     `json:"minQty"`
			DiscountPercent float64 `json:"discountPercent"`
			Subtotal        float64 `json:"subtotal"`
			Total           float64 `json:"total"`
		} `json:"displayTier"`
	}](t, body)
	assert.Equal(t, "Taza cerámica", out.Name)
	assert.True(t, out.Purchasable)
	require.Len(t, out.PriceBreaks, 2)
	assert.Equal(t, 50, out.DisplayTier.MinQty)
	assert.Equal(t, 30.0, out.DisplayTier.DiscountPercent)
	assert.Equal(t, 60000.0, out.DisplayTier.Subtotal)
	assert.Equal(t, 42000.0, out.DisplayTier.Total)

	resp, _ = e.do(t, http.MethodGet, "/api/products/99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuoteProduct(t *testing.T) {
	e := newEnv(t, nil)

	type quoteJSON struct {
		Quote struct {
			Qty             int     `json:"qty"`
			MaxQty          int     `json:"maxQty"`
			UnitPrice       float64 `json:"unitPrice"`
			Total           float64 `json:"total"`
			DiscountPercent float64 `json:"discountPercent"`
			ActiveBreaks    []int   `json:"activeBreaks"`
		} `json:"quote"`
	}
	tests := []struct {
		qty       string
		wantQty   int
		wantUnit  float64
		wantPct   float64
		wantBreak []int
	}{
		{"", 1, 1000, 0, []int{}},
		{"abc", 1, 1000, 0, []int{}},
		{"-5", 1, 1000, 0, []int{}},
		{"10", 10, 900, 10, []int{0}},
		{"49", 49, 900, 10, []int{0}},
		{"50", 50, 700, 30, []int{0, 1}},
		{"100000", 100, 700, 30, []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run("qty="+tt.qty, func(t *testing.T) {
			resp, body := e.do(t, http.MethodGet, "/api/products/1/quote?qty="+tt.qty, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)
			out := decode[quoteJSON](t, body)
			assert.Equal(t, tt.wantQty, out.Quote.Qty)
			assert.Equal(t, 100, out.Quote.MaxQty)
			assert.Equal(t, tt.wantUnit, out.Quote.UnitPrice)
			assert.Equal(t, tt.wantUnit*float64(tt.wantQty), out.Quote.Total)
			assert.Equal(t, tt.wantPct, out.Quote.DiscountPercent)
			assert.Equal(t, tt.wantBreak, out.Quote.ActiveBreaks)
		})
	}
}

func TestGetFacets(t *testing.T) {
	e := newEnv(t, nil)
	resp, body := e.do(t, http.MethodGet, "/api/facets", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{
		"total": 4,
		"categories": [
			{"id":"tazas","count":1},{"id":"escritura","count":1},
			{"id":"textil","count":1},{"id":"accesorios","count":1}
		],
		"suppliers": [{"id":"andes","count":2},{"id":"pacifico","count":2}]
	}`, string(body))
}

func TestCartFlow(t *testing.T) {
	e := newEnv(t, nil)

	resp, body := e.do(t, http.MethodPost, "/api/cart/items", `{"productId":1,"qty":"2"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	resp, body = e.do(t, http.MethodPost, "/api/cart/items", `{"productId":1,"qty":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	c := decode[cartJSON](t, body)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Qty)
	assert.Equal(t, 1000.0, c.Lines[0].Price)

	resp, body = e.do(t, http.MethodPost, "/api/cart/items", `{"productId":2,"qty":"nope"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c = decode[cartJSON](t, body)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, 1, c.Lines[1].Qty)
	assert.Equal(t, 6, c.Count)
	assert.Equal(t, 5500.0, c.Subtotal)

	resp, body = e.do(t, http.MethodDelete, "/api/cart/items/42", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 6, decode[cartJSON](t, body).Count)

	resp, body = e.do(t, http.MethodDelete, "/api/cart/items/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c = decode[cartJSON](t, body)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(2), c.Lines[0].ID)

	resp, body = e.do(t, http.MethodDelete, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[cartJSON](t, body).Lines)

	resp, body = e.do(t, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"lines":[],"count":0,"subtotal":0}`, string(body))
}

func TestAddCartItemErrors(t *testing.T) {
	e := newEnv(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"OutOfStock", `{"productId":3,"qty":1}`, http.StatusUnprocessableEntity},
		{"Inactive", `{"productId":4,"qty":1}`, http.StatusUnprocessableEntity},
		{"UnknownProduct", `{"productId":99}`, http.StatusNotFound},
		{"MissingProduct", `{"qty":1}`, http.StatusBadRequest},
		{"UnknownField", `{"productId":1,"color":"red"}`, http.StatusBadRequest},
		{"Malformed", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := e.do(t, http.MethodPost, "/api/cart/items", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.status, decode[errorJSON](t, body).Code)
		})
	}
	assert.Zero(t, e.store.Count())
}

func TestExportQuote(t *testing.T) {
	archive := &fakeArchive{}
	e := newEnv(t, archive)

	resp, _ := e.do(t, http.MethodPost, "/api/quotes/export", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, _ = e.do(t, http.MethodPost, "/api/cart/items", `{"productId":1,"qty":10}`)

	resp, _ = e.do(t, http.MethodPost, "/api/quotes/export", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/quotes/export",
		`{"company":"ACME","contact":"Ana","email":"ana@acme.cl","notes":""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=cotizacion-1709649000000.json`, resp.Header.Get("Content-Disposition"))
	assert.JSONEq(t, `{
		"company":"ACME","contact":"Ana","email":"ana@acme.cl","notes":"",
		"items":[{"id":1,"name":"Taza cerámica","sku":"TZ-01","supplier":"andes","qty":10,"unit":900,"total":9000}],
		"total":9000,
		"generatedAt":"2024-03-05T14:30:00Z"
	}`, string(body))

	require.Len(t, archive.saved, 1)
	id := resp.Header.Get("X-Quote-ID")
	assert.Equal(t, archive.saved[0].ID.String(), id)

	resp, body = e.do(t, http.MethodGet, "/api/quotes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
	}](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 9000.0, list[0].Total)

	resp, _ = e.do(t, http.MethodGet, "/api/quotes/"+id, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/quotes/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/quotes/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/quotes?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuoteArchiveRoutesDisabled(t *testing.T) {
	e := newEnv(t, nil)
	resp, body := e.do(t, http.MethodGet, "/api/quotes", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, decode[errorJSON](t, body).Code)
}

func TestSearch(t *testing.T) {
	e := newEnv(t, nil)

	resp, body := e.do(t, http.MethodPost, "/api/catalog/search", `{"category":"all","q":"taza","sort":"price"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	seq := decode[struct {
		Seq uint64 `json:"seq"`
	}](t, body).Seq
	require.NotZero(t, seq)

	type resultJSON struct {
		Seq      uint64        `json:"seq"`
		Loading  bool          `json:"loading"`
		Failed   bool          `json:"failed"`
		Products []productJSON `json:"products"`
	}
	var res resultJSON
	require.Eventually(t, func() bool {
		_, body := e.do(t, http.MethodGet, "/api/catalog/results", "")
		res = decode[resultJSON](t, body)
		return res.Seq == seq && !res.Loading
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, res.Failed)
	assert.Equal(t, []int64{1}, ids(res.Products))
}

func TestGetNotification(t *testing.T) {
	e := newEnv(t, nil)

	_, body := e.do(t, http.MethodGet, "/api/notifications", "")
	assert.JSONEq(t, `{"toast":null}`, string(body))

	_, _ = e.do(t, http.MethodPost, "/api/cart/items", `{"productId":2}`)
	require.Eventually(t, func() bool {
		_, body := e.do(t, http.MethodGet, "/api/notifications", "")
		out := decode[struct {
			Toast *struct {
				Message string `json:"message"`
			} `json:"toast"`
		}](t, body)
		return out.Toast != nil && out.Toast.Message == cart.DefaultAddedMessage
	}, time.Second, 5*time.Millisecond)
}
