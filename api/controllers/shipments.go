package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/d2bmarket/d2b-backend/api/responses"
	"github.com/d2bmarket/d2b-backend/api/validators"
	"github.com/d2bmarket/d2b-backend/internal/shipping"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

// ShipmentProvisioner walks an order group through the courier aggregator.
type ShipmentProvisioner interface {
	Provision(ctx context.Context, orderID uuid.UUID) (*shipping.ProvisionResult, error)
}

// ProvisionShipment creates a shipment for the order's manufacturer group and
// stores the resulting tracking assignment. Safe to retry.
func ProvisionShipment(provisioner ShipmentProvisioner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if provisioner == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment provisioner unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := provisioner.Provision(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.AlreadyProvisioned {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
