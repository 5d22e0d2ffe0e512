package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/quote"
	"github.com/xenking/promo-storefront/pkg/httpmiddleware"
)

// badRequest marks client input errors.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func newBadRequest(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// writeError maps err onto a status and writes the {code, message} body.
// Unexpected errors are logged and reported without detail.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		br  *badRequest
		ves validator.ValidationErrors
	)
	switch {
	case errors.As(err, &br):
		httpmiddleware.WriteError(w, http.StatusBadRequest, br.msg)
	case errors.As(err, &ves):
		httpmiddleware.WriteError(w, http.StatusBadRequest, validationMessage(ves))
	case errors.Is(err, product.ErrNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, product.ErrNotFound.Error())
	case errors.Is(err, quote.ErrNotFound):
		httpmiddleware.WriteError(w, http.StatusNotFound, quote.ErrNotFound.Error())
	case errors.Is(err, product.ErrNotPurchasable):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, product.ErrNotPurchasable.Error())
	case errors.Is(err, quote.ErrEmptyCart):
		httpmiddleware.WriteError(w, http.StatusUnprocessableEntity, quote.ErrEmptyCart.Error())
	default:
		zctx.From(ctx).Error("Request failed", zap.Error(err))
		httpmiddleware.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// validationMessage reports the first failing field.
func validationMessage(ves validator.ValidationErrors) string {
	fe := ves[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "email":
		return fe.Field() + " must be a valid email"
	case "gt", "min":
		return fe.Field() + " must be at least " + fe.Param()
	}
	return fe.Field() + " is invalid"
}
