// Package handler exposes the storefront core over HTTP/JSON.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/promo-storefront/internal/cart"
	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/notify"
	"github.com/xenking/promo-storefront/internal/quote"
	"github.com/xenking/promo-storefront/pkg/httpmiddleware"
)

const instrumentationName = "github.com/xenking/promo-storefront/internal/handler"

// Config holds the Handler dependencies. Archive is optional.
type Config struct {
	Products  product.Repository
	Publisher *catalog.Publisher
	Cart      *cart.Store
	Exporter  *quote.Exporter
	Toast     *notify.Toast
	Archive   quote.ArchiveReader

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Handler serves the storefront API.
type Handler struct {
	products  product.Repository
	publisher *catalog.Publisher
	cart      *cart.Store
	exporter  *quote.Exporter
	toast     *notify.Toast
	archive   quote.ArchiveReader

	tracer    trace.Tracer
	additions metric.Int64Counter
	exports   metric.Int64Counter
}

// New constructs a Handler.
func New(cfg Config) (*Handler, error) {
	meter := cfg.MeterProvider.Meter(instrumentationName)
	additions, err := meter.Int64Counter("storefront.cart.additions",
		metric.WithDescription("Units added to the cart"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "additions counter")
	}
	exports, err := meter.Int64Counter("storefront.quote.exports",
		metric.WithDescription("Exported quote documents"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "exports counter")
	}

	return &Handler{
		products:  cfg.Products,
		publisher: cfg.Publisher,
		cart:      cfg.Cart,
		exporter:  cfg.Exporter,
		toast:     cfg.Toast,
		archive:   cfg.Archive,
		tracer:    cfg.TracerProvider.Tracer(instrumentationName),
		additions: additions,
		exports:   exports,
	}, nil
}

// Router mounts the API under /api. mw runs inside the router, after route
// matching.
func (h *Handler) Router(mw ...httpmiddleware.Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpmiddleware.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)
		r.Get("/products/{id}/quote", h.QuoteProduct)
		r.Get("/facets", h.GetFacets)

		r.Post("/catalog/search", h.SubmitSearch)
		r.Get("/catalog/results", h.SearchResults)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Delete("/items/{id}", h.RemoveCartItem)
		})

		r.Post("/quotes/export", h.ExportQuote)
		if h.archive != nil {
			r.Get("/quotes", h.ListQuotes)
			r.Get("/quotes/{id}", h.GetQuote)
		}

		r.Get("/notifications", h.GetNotification)
	})
	return r
}
