package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/promo-storefront/internal/quote"
)

const (
	defaultQuoteLimit = 20
	maxQuoteLimit     = 100
)

// ExportQuote handles POST /api/quotes/export. The response is the quote
// document as a file download.
func (h *Handler) ExportQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req quote.Requester
	if err := decodeBody(w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	out, err := h.exporter.Export(ctx, req, h.cart.Lines())
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	h.exports.Add(ctx, 1)

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": out.Filename,
	}))
	w.Header().Set("X-Quote-ID", out.Document.ID.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Body)
}

// ListQuotes handles GET /api/quotes?limit=.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultQuoteLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(ctx, w, newBadRequest("invalid limit %q", raw))
			return
		}
		limit = min(n, maxQuoteLimit)
	}

	list, err := h.archive.List(ctx, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, s := range list {
				encodeSummary(e, s)
			}
		})
	})
}

// GetQuote handles GET /api/quotes/{id} and returns the archived document.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(ctx, w, newBadRequest("invalid quote id"))
		return
	}
	body, err := h.archive.Document(ctx, id)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", quote.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
