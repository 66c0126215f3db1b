package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d2bmarket/d2b-backend/pkg/enums"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

// Order is one line of a materialized payment: one row per (manufacturer,
// product) pairing, sharing an order number per manufacturer group. Rows are
// never deleted; cancellation is a status.
type Order struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        string                 `gorm:"column:order_number;not null;index"`
	RetailerID         uuid.UUID              `gorm:"column:retailer_id;type:uuid;not null;index"`
	ManufacturerID     uuid.UUID              `gorm:"column:manufacturer_id;type:uuid;not null;index"`
	ProductID          uuid.UUID              `gorm:"column:product_id;type:uuid;not null"`
	ProductName        string                 `gorm:"column:product_name;not null"`
	Quantity           int                    `gorm:"column:quantity;not null"`
	UnitPrice          decimal.Decimal        `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalAmount        decimal.Decimal        `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ManufacturerPayout decimal.Decimal        `gorm:"column:manufacturer_payout;type:numeric(12,2);not null"`
	PlatformProfit     decimal.Decimal        `gorm:"column:platform_profit;type:numeric(12,2);not null"`
	ShippingCost       decimal.Decimal        `gorm:"column:shipping_cost;type:numeric(12,2);not null;default:0"`
	TaxRate            decimal.Decimal        `gorm:"column:tax_rate;type:numeric(5,2);not null;default:0"`
	PaymentReference   string                 `gorm:"column:payment_reference;not null;index"`
	PaymentType        enums.PaymentType      `gorm:"column:payment_type;not null;default:'full'"`
	PaidAmount         decimal.Decimal        `gorm:"column:paid_amount;type:numeric(12,2);not null"`
	PendingAmount      decimal.Decimal        `gorm:"column:pending_amount;type:numeric(12,2);not null;default:0"`
	Status             enums.OrderStatus      `gorm:"column:status;not null;default:'paid';index"`
	ShipmentID         *string                `gorm:"column:shipment_id;index"`
	AWBCode            *string                `gorm:"column:awb_code;index"`
	CourierName        *string                `gorm:"column:courier_name"`
	ShippingAddress    *types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Attribution        types.Attribution      `gorm:"column:attribution;type:jsonb;serializer:json"`
	RecoveredPayload   bool                   `gorm:"column:recovered_payload;not null;default:false"`
	ConfirmedAt        *time.Time             `gorm:"column:confirmed_at"`
	ShippedAt          *time.Time             `gorm:"column:shipped_at"`
	DeliveredAt        *time.Time             `gorm:"column:delivered_at"`
	CancelledAt        *time.Time             `gorm:"column:cancelled_at"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
