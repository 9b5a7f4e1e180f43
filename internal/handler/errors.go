package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/groceasy/groceasy-api/internal/domain/auth"
	"github.com/groceasy/groceasy-api/internal/domain/cart"
	"github.com/groceasy/groceasy-api/internal/domain/order"
	"github.com/groceasy/groceasy-api/internal/domain/product"
)

// apiError is an error with a fixed HTTP status and client message.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// statusOf maps err to a response status and message. Unknown errors are
// reported as 500 with a generic message.
func statusOf(err error) (int, string) {
	var (
		api      *apiError
		notFound *cart.NotFoundError
		quantity *cart.QuantityError
		stock    *cart.StockError
	)
	switch {
	case errors.As(err, &api):
		return api.status, api.msg
	case errors.As(err, &notFound):
		// A product named in a request body, not in the URL.
		if notFound.Kind == "product" {
			return http.StatusUnprocessableEntity, notFound.Error()
		}
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &quantity):
		return http.StatusUnprocessableEntity, quantity.Error()
	case errors.As(err, &stock):
		return http.StatusConflict, stock.Error()

	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrShippingAddressRequired),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, auth.ErrCredentialsRequired),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, order.ErrNotCancellable),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict, err.Error()

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, encodeError(status, msg))
}
