package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d2bmarket/d2b-backend/api/responses"
	"github.com/d2bmarket/d2b-backend/api/validators"
	"github.com/d2bmarket/d2b-backend/internal/payments"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

// ConfirmPaymentService is the slice of the payments service the confirm
// endpoint needs.
type ConfirmPaymentService interface {
	ConfirmPayment(ctx context.Context, input payments.ConfirmInput) (*payments.ConfirmResult, error)
}

type confirmPaymentRequest struct {
	OrderReference   string `json:"order_reference" validate:"required"`
	PaymentReference string `json:"payment_reference" validate:"required"`
	Signature        string `json:"signature" validate:"required"`

	// Optional recovery payload, honored only when the attempt row is gone.
	RetailerID       *uuid.UUID             `json:"retailer_id,omitempty"`
	Cart             types.CartPayload      `json:"cart,omitempty"`
	Subtotal         *decimal.Decimal       `json:"subtotal,omitempty"`
	RemainingBalance *decimal.Decimal       `json:"remaining_balance,omitempty"`
	ShippingAddress  *types.ShippingAddress `json:"shipping_address,omitempty"`
	Attribution      types.Attribution      `json:"attribution,omitempty"`
}

type confirmPaymentResponse struct {
	Orders    []orderLineResponse `json:"orders"`
	Duplicate bool                `json:"duplicate"`
	Recovered bool                `json:"recovered,omitempty"`
}

// ConfirmPayment is the gateway redirect/callback confirmation endpoint.
func ConfirmPayment(svc ConfirmPaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithOrderReference(ctx, req.OrderReference)
			ctx = logg.WithPaymentReference(ctx, req.PaymentReference)
		}

		result, err := svc.ConfirmPayment(ctx, confirmInputFromRequest(req))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.Duplicate {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, confirmPaymentResponse{
			Orders:    orderLinesFromModels(result.Orders),
			Duplicate: result.Duplicate,
			Recovered: result.Recovered,
		})
	}
}

func confirmInputFromRequest(req confirmPaymentRequest) payments.ConfirmInput {
	input := payments.ConfirmInput{
		OrderReference:   req.OrderReference,
		PaymentReference: req.PaymentReference,
		Signature:        req.Signature,
		Cart:             req.Cart,
		ShippingAddress:  req.ShippingAddress,
		Attribution:      req.Attribution,
	}
	if req.RetailerID != nil {
		input.RetailerID = *req.RetailerID
	}
	if req.Subtotal != nil {
		input.Subtotal = *req.Subtotal
	}
	if req.RemainingBalance != nil {
		input.RemainingBalance = *req.RemainingBalance
	}
	return input
}

func orderLinesFromModels(orders []models.Order) []orderLineResponse {
	lines := make([]orderLineResponse, 0, len(orders))
	for i := range orders {
		lines = append(lines, newOrderLineResponse(&orders[i]))
	}
	return lines
}
