package manufacturers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d2bmarket/d2b-backend/pkg/db/models"
)

// Repository exposes the manufacturer profile reads and the pickup-code
// persistence the shipment pipeline needs. Profile CRUD is out of scope.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error)
	SavePickupLocationCode(ctx context.Context, id uuid.UUID, code string) error
	TouchLastShipment(ctx context.Context, id uuid.UUID, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a manufacturer repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Manufacturer, error) {
	var manufacturer models.Manufacturer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&manufacturer).Error
	if err != nil {
		return nil, err
	}
	return &manufacturer, nil
}

func (r *repository) SavePickupLocationCode(ctx context.Context, id uuid.UUID, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Manufacturer{}).
		Where("id = ?", id).
		Update("pickup_location_code", code).Error
}

func (r *repository) TouchLastShipment(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Manufacturer{}).
		Where("id = ?", id).
		Update("last_shipment_at", at).Error
}
