package cart

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lifeimang/dfresh/api/middleware"
	"github.com/lifeimang/dfresh/api/responses"
	"github.com/lifeimang/dfresh/api/validators"
	cartsvc "github.com/lifeimang/dfresh/internal/cart"
	pkgerrors "github.com/lifeimang/dfresh/pkg/errors"
	"github.com/lifeimang/dfresh/pkg/logger"
	"github.com/lifeimang/dfresh/pkg/metrics"
)

// CartAdd merges a quantity delta into the caller's cart.
func CartAdd(svc cartsvc.Service, m *metrics.CartMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		userID, err := userIDFromContext(r)
		if err != nil {
			finish(m, "add", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			finish(m, "add", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
			finish(m, "add", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Add(r.Context(), userID, productID, payload.Quantity)
		finish(m, "add", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CartUpdate replaces the stored quantity for one product.
func CartUpdate(svc cartsvc.Service, m *metrics.CartMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		userID, err := userIDFromContext(r)
		if err != nil {
			finish(m, "update", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := productIDFromPath(r)
		if err != nil {
			finish(m, "update", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload UpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			finish(m, "update", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), userID, productID, payload.Quantity)
		finish(m, "update", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CartDelete removes one product from the cart.
func CartDelete(svc cartsvc.Service, m *metrics.CartMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		userID, err := userIDFromContext(r)
		if err != nil {
			finish(m, "delete", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := productIDFromPath(r)
		if err != nil {
			finish(m, "delete", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), userID, productID)
		finish(m, "delete", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CartList returns the display-ready cart with fresh aggregates.
func CartList(svc cartsvc.Service, m *metrics.CartMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		userID, err := userIDFromContext(r)
		if err != nil {
			finish(m, "list", start, err)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.List(r.Context(), userID)
		finish(m, "list", start, err)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}

func productIDFromPath(r *http.Request) (uuid.UUID, error) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
	}
	return productID, nil
}

func finish(m *metrics.CartMetrics, operation string, start time.Time, err error) {
	m.ObserveDuration(operation, time.Since(start))
	code := "success"
	if err != nil {
		code = string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
	}
	m.IncResult(operation, code)
}
