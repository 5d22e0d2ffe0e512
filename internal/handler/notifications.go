package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
)

// GetNotification handles GET /api/notifications and returns the visible
// toast, or null.
func (h *Handler) GetNotification(w http.ResponseWriter, _ *http.Request) {
	msg, ok := h.toast.Current()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("toast", func(e *jx.Encoder) {
				if !ok {
					e.Null()
					return
				}
				e.Obj(func(e *jx.Encoder) {
					e.Field("message", func(e *jx.Encoder) { e.Str(msg.Text) })
					e.Field("expiresAt", func(e *jx.Encoder) {
						e.Str(msg.ExpiresAt.UTC().Format(time.RFC3339Nano))
					})
				})
			})
		})
	})
}
