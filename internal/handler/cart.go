package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	// Qty may be a number or a string; unusable values count as 1.
	Qty json.RawMessage `json:"qty"`
}

func (h *Handler) writeCart(w http.ResponseWriter, status int) {
	lines, count, subtotal := h.cart.Lines(), h.cart.Count(), h.cart.Subtotal()
	writeJSON(w, status, func(e *jx.Encoder) {
		encodeCart(e, lines, count, subtotal)
	})
}

// GetCart handles GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, _ *http.Request) {
	h.writeCart(w, http.StatusOK)
}

// AddCartItem handles POST /api/cart/items. The line freezes the unit price
// the calculator shows for the clamped quantity.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	p, err := h.products.GetByID(ctx, req.ProductID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	before := h.cart.Count()
	if err := h.cart.AddProduct(ctx, *p, rawQuantity(req.Qty)); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.additions.Add(ctx, int64(h.cart.Count()-before), metric.WithAttributes(
		attribute.String("product.category", p.Category),
	))
	h.writeCart(w, http.StatusOK)
}

// RemoveCartItem handles DELETE /api/cart/items/{id}. Removing an absent
// line succeeds without change.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.cart.Remove(ctx, id); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.writeCart(w, http.StatusOK)
}

// ClearCart handles DELETE /api/cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cart.Clear(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}
	h.writeCart(w, http.StatusOK)
}
