package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/pricing"
)

// filter runs the pipeline over the whole catalog inside a span.
func (h *Handler) filter(ctx context.Context, c catalog.Criteria) ([]product.Product, error) {
	ctx, span := h.tracer.Start(ctx, "catalog.Filter", trace.WithAttributes(
		attribute.String("catalog.category", c.Category),
		attribute.String("catalog.supplier", c.Supplier),
		attribute.String("catalog.sort", string(c.Sort)),
		attribute.Bool("catalog.search", c.Search != ""),
	))
	defer span.End()

	all, err := h.products.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "list products")
	}
	visible := catalog.Filter(all, c)
	span.SetAttributes(
		attribute.Int("catalog.total", len(all)),
		attribute.Int("catalog.visible", len(visible)),
	)
	return visible, nil
}

// ListProducts handles GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := criteriaFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	visible, err := h.filter(ctx, c)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("criteria", func(e *jx.Encoder) { encodeCriteria(e, c) })
			e.Field("count", func(e *jx.Encoder) { e.Int(len(visible)) })
			e.Field("products", func(e *jx.Encoder) { encodeProducts(e, visible) })
		})
	})
}

func (h *Handler) product(r *http.Request) (*product.Product, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	return h.products.GetByID(r.Context(), id)
}

// GetProduct handles GET /api/products/{id}. The displayTier field applies
// the highest-discount tier at the clamped ?qty= (default 1) for the badge
// shown next to the product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.product(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	qty := pricing.ClampQuantity(*p, pricing.ParseQuantity(r.URL.Query().Get("qty")))
	tiers := pricing.TiersFromBreaks(p.PriceBreaks)
	tier := pricing.BestTier(qty, tiers)
	price := pricing.CalcPrice(p.BasePrice, qty, tiers)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			encodeProductFields(e, *p)
			e.Field("displayTier", func(e *jx.Encoder) { encodeTier(e, tier, price) })
		})
	})
}

// QuoteProduct handles GET /api/products/{id}/quote?qty=. The quantity is
// coerced and clamped, never rejected.
func (h *Handler) QuoteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.product(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	b := pricing.Quote(*p, pricing.ParseQuantity(r.URL.Query().Get("qty")))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("productId", func(e *jx.Encoder) { e.Int64(p.ID) })
			e.Field("purchasable", func(e *jx.Encoder) { e.Bool(p.Purchasable()) })
			e.Field("quote", func(e *jx.Encoder) { encodeBreakdown(e, b) })
		})
	})
}

// GetFacets handles GET /api/facets.
func (h *Handler) GetFacets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	all, err := h.products.List(ctx)
	if err != nil {
		writeError(ctx, w, errors.Wrap(err, "list products"))
		return
	}
	f := catalog.BuildFacets(all)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("total", func(e *jx.Encoder) { e.Int(f.Total) })
			e.Field("categories", func(e *jx.Encoder) { encodeFacetList(e, f.Categories) })
			e.Field("suppliers", func(e *jx.Encoder) { encodeFacetList(e, f.Suppliers) })
		})
	})
}

// SubmitSearch handles POST /api/catalog/search. The filter runs after the
// configured delay; poll SearchResults for the outcome.
func (h *Handler) SubmitSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req criteriaRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	seq := h.publisher.Submit(context.WithoutCancel(ctx), req.criteria())
	writeJSON(w, http.StatusAccepted, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("seq", func(e *jx.Encoder) { e.UInt64(seq) })
		})
	})
}

// SearchResults handles GET /api/catalog/results.
func (h *Handler) SearchResults(w http.ResponseWriter, _ *http.Request) {
	res, loading := h.publisher.Latest()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("seq", func(e *jx.Encoder) { e.UInt64(res.Seq) })
			e.Field("loading", func(e *jx.Encoder) { e.Bool(loading) })
			e.Field("failed", func(e *jx.Encoder) { e.Bool(res.Err != nil) })
			e.Field("criteria", func(e *jx.Encoder) { encodeCriteria(e, res.Criteria) })
			e.Field("products", func(e *jx.Encoder) { encodeProducts(e, res.Products) })
		})
	})
}
