package models

import (
	"time"

	"github.com/google/uuid"
)

// Retailer is the buying side of the marketplace. Registration and profile
// management are external; the pipeline reads rows for billing details.
type Retailer struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyName string    `gorm:"column:company_name;not null"`
	Email       string    `gorm:"column:email;not null"`
	Phone       string    `gorm:"column:phone"`
	City        string    `gorm:"column:city"`
	State       string    `gorm:"column:state"`
	Pincode     string    `gorm:"column:pincode"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
