package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d2bmarket/d2b-backend/api/responses"
	"github.com/d2bmarket/d2b-backend/api/validators"
	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type orderLineResponse struct {
	ID               uuid.UUID              `json:"id"`
	OrderNumber      string                 `json:"order_number"`
	RetailerID       uuid.UUID              `json:"retailer_id"`
	ManufacturerID   uuid.UUID              `json:"manufacturer_id"`
	ProductID        uuid.UUID              `json:"product_id"`
	ProductName      string                 `json:"product_name"`
	Quantity         int                    `json:"quantity"`
	UnitPrice        decimal.Decimal        `json:"unit_price"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	PaidAmount       decimal.Decimal        `json:"paid_amount"`
	PendingAmount    decimal.Decimal        `json:"pending_amount"`
	PaymentType      enums.PaymentType      `json:"payment_type"`
	PaymentReference string                 `json:"payment_reference"`
	Status           enums.OrderStatus      `json:"status"`
	ShipmentID       *string                `json:"shipment_id,omitempty"`
	AWBCode          *string                `json:"awb_code,omitempty"`
	CourierName      *string                `json:"courier_name,omitempty"`
	ShippingAddress  *types.ShippingAddress `json:"shipping_address,omitempty"`
	DeliveredAt      *time.Time             `json:"delivered_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

func newOrderLineResponse(order *models.Order) orderLineResponse {
	return orderLineResponse{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		RetailerID:       order.RetailerID,
		ManufacturerID:   order.ManufacturerID,
		ProductID:        order.ProductID,
		ProductName:      order.ProductName,
		Quantity:         order.Quantity,
		UnitPrice:        order.UnitPrice,
		TotalAmount:      order.TotalAmount,
		PaidAmount:       order.PaidAmount,
		PendingAmount:    order.PendingAmount,
		PaymentType:      order.PaymentType,
		PaymentReference: order.PaymentReference,
		Status:           order.Status,
		ShipmentID:       order.ShipmentID,
		AWBCode:          order.AWBCode,
		CourierName:      order.CourierName,
		ShippingAddress:  order.ShippingAddress,
		DeliveredAt:      order.DeliveredAt,
		CreatedAt:        order.CreatedAt,
	}
}

// OrderList returns orders scoped to a retailer or a manufacturer. Exactly
// one of the two query parameters must be present.
func OrderList(repo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		retailerRaw := r.URL.Query().Get("retailer_id")
		manufacturerRaw := r.URL.Query().Get("manufacturer_id")

		var rows []models.Order
		switch {
		case retailerRaw != "" && manufacturerRaw != "":
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "provide retailer_id or manufacturer_id, not both"))
			return
		case retailerRaw != "":
			retailerID, err := validators.ParsePathUUID(retailerRaw, "retailer_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			rows, err = repo.ListByRetailer(ctx, retailerID, limit)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		case manufacturerRaw != "":
			manufacturerID, err := validators.ParsePathUUID(manufacturerRaw, "manufacturer_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			rows, err = repo.ListByManufacturer(ctx, manufacturerID, limit)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "retailer_id or manufacturer_id required"))
			return
		}

		responses.WriteSuccess(w, orderLinesFromModels(rows))
	}
}

// OrderDetail returns one order row by id.
func OrderDetail(repo orders.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders repository unavailable"))
			return
		}

		orderID, err := validators.ParsePathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderLineResponse(order))
	}
}
