package models

import (
	"time"

	"github.com/google/uuid"
)

// Manufacturer holds the profile fields the shipment pipeline reads: the
// pickup address and the cached courier pickup-location code. Profile CRUD
// lives elsewhere; this service only reads rows and persists the code.
type Manufacturer struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyName        string     `gorm:"column:company_name;not null"`
	Email              string     `gorm:"column:email;not null"`
	Phone              string     `gorm:"column:phone"`
	AddressLine        string     `gorm:"column:address_line"`
	City               string     `gorm:"column:city"`
	State              string     `gorm:"column:state"`
	Pincode            string     `gorm:"column:pincode"`
	Country            string     `gorm:"column:country;not null;default:'India'"`
	PickupLocationCode *string    `gorm:"column:pickup_location_code"`
	PreferredCourierID *int       `gorm:"column:preferred_courier_id"`
	LastShipmentAt     *time.Time `gorm:"column:last_shipment_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
