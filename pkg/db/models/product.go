package models

import (
	"time"

	"github.com/google/uuid"
)

// Product carries only the fields the shipment payload needs. Dimensions are
// nullable; the provisioner substitutes package defaults when absent.
type Product struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ManufacturerID uuid.UUID `gorm:"column:manufacturer_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	SKU            string    `gorm:"column:sku"`
	WeightKg       *float64  `gorm:"column:weight_kg"`
	LengthCm       *float64  `gorm:"column:length_cm"`
	BreadthCm      *float64  `gorm:"column:breadth_cm"`
	HeightCm       *float64  `gorm:"column:height_cm"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
