package webhooks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d2bmarket/d2b-backend/api/responses"
	"github.com/d2bmarket/d2b-backend/api/validators"
	"github.com/d2bmarket/d2b-backend/internal/payments"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

const eventTypePaymentCaptured = "payment.captured"

type confirmService interface {
	ConfirmPayment(ctx context.Context, input payments.ConfirmInput) (*payments.ConfirmResult, error)
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// paymentEvent is the gateway's webhook envelope.
type paymentEvent struct {
	EventID   string           `json:"event_id" validate:"required"`
	EventType string           `json:"event_type" validate:"required"`
	Data      paymentEventData `json:"data" validate:"required"`
}

type paymentEventData struct {
	OrderReference   string                 `json:"order_reference" validate:"required"`
	PaymentReference string                 `json:"payment_reference" validate:"required"`
	Signature        string                 `json:"signature" validate:"required"`
	RetailerID       *uuid.UUID             `json:"retailer_id,omitempty"`
	Cart             types.CartPayload      `json:"cart,omitempty"`
	Subtotal         *decimal.Decimal       `json:"subtotal,omitempty"`
	RemainingBalance *decimal.Decimal       `json:"remaining_balance,omitempty"`
	ShippingAddress  *types.ShippingAddress `json:"shipping_address,omitempty"`
	Attribution      types.Attribution      `json:"attribution,omitempty"`
}

// PaymentWebhook handles gateway capture events. Event-ID dedupe sits in
// front of the row-level attempt lock, so replayed deliveries short-circuit
// before touching the database.
func PaymentWebhook(svc confirmService, guard eventGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		var event paymentEvent
		if err := validators.DecodeJSONBody(r, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if event.EventType != eventTypePaymentCaptured {
			// Acknowledged so the gateway stops retrying event types we
			// don't consume.
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.EventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
			return
		}

		if logg != nil {
			ctx = logg.WithOrderReference(ctx, event.Data.OrderReference)
			ctx = logg.WithPaymentReference(ctx, event.Data.PaymentReference)
		}

		result, err := svc.ConfirmPayment(ctx, confirmInputFromEvent(event.Data))
		if err != nil {
			_ = guard.Delete(ctx, event.EventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("payment event %s processed (%d orders, duplicate=%t)", event.EventID, len(result.Orders), result.Duplicate))
		}
		responses.WriteSuccess(w, map[string]any{
			"status":    "processed",
			"orders":    len(result.Orders),
			"duplicate": result.Duplicate,
		})
	}
}

func confirmInputFromEvent(data paymentEventData) payments.ConfirmInput {
	input := payments.ConfirmInput{
		OrderReference:   data.OrderReference,
		PaymentReference: data.PaymentReference,
		Signature:        data.Signature,
		Cart:             data.Cart,
		ShippingAddress:  data.ShippingAddress,
		Attribution:      data.Attribution,
	}
	if data.RetailerID != nil {
		input.RetailerID = *data.RetailerID
	}
	if data.Subtotal != nil {
		input.Subtotal = *data.Subtotal
	}
	if data.RemainingBalance != nil {
		input.RemainingBalance = *data.RemainingBalance
	}
	return input
}
