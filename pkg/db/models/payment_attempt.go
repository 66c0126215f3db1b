package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d2bmarket/d2b-backend/pkg/enums"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

// PaymentAttempt is the durable record of a checkout intent, created before
// the gateway redirect. Rows are never deleted; the status column is the
// mutual-exclusion primitive for order materialization.
type PaymentAttempt struct {
	ID               uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderReference   string                     `gorm:"column:order_reference;not null;uniqueIndex"`
	RetailerID       uuid.UUID                  `gorm:"column:retailer_id;type:uuid;not null"`
	Cart             types.CartPayload          `gorm:"column:cart;type:jsonb;serializer:json"`
	Subtotal         decimal.Decimal            `gorm:"column:subtotal;type:numeric(12,2);not null"`
	RemainingBalance decimal.Decimal            `gorm:"column:remaining_balance;type:numeric(12,2);not null;default:0"`
	ShippingAddress  *types.ShippingAddress     `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Status           enums.PaymentAttemptStatus `gorm:"column:status;not null;default:'pending'"`
	PaymentReference *string                    `gorm:"column:payment_reference"`
	Attribution      types.Attribution          `gorm:"column:attribution;type:jsonb;serializer:json"`
	CreatedAt        time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
