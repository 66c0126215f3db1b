package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/d2bmarket/d2b-backend/pkg/enums"
)

// Notification is a best-effort event row written when something a
// manufacturer or retailer cares about happens to an order.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index"`
	Kind        enums.NotificationKind `gorm:"column:kind;not null"`
	OrderNumber string                 `gorm:"column:order_number"`
	Body        string                 `gorm:"column:body;not null"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
