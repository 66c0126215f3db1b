package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/d2bmarket/d2b-backend/api/responses"
	"github.com/d2bmarket/d2b-backend/api/validators"
	"github.com/d2bmarket/d2b-backend/internal/reconcile"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

// OrderReconciler refreshes one order's status from the courier aggregator.
type OrderReconciler interface {
	Reconcile(ctx context.Context, orderID uuid.UUID) (*reconcile.Result, error)
}

// ReconcileOrder pulls the courier's current view of an order's shipment and
// folds it back into the stored status.
func ReconcileOrder(reconciler OrderReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if reconciler == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciler unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := reconciler.Reconcile(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
