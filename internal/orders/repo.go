package orders

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
)

// Repository persists and reads order rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	BulkCreate(ctx context.Context, orders []models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentReference(ctx context.Context, paymentRef string) ([]models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) ([]models.Order, error)
	ListByRetailer(ctx context.Context, retailerID uuid.UUID, limit int) ([]models.Order, error)
	ListByManufacturer(ctx context.Context, manufacturerID uuid.UUID, limit int) ([]models.Order, error)
	UpdateShipmentAssignment(ctx context.Context, orderID uuid.UUID, shipmentID, awb, courierName string, confirmedAt time.Time) error
	UpdateStatusByShipmentID(ctx context.Context, shipmentID string, status enums.OrderStatus, deliveredAt *time.Time) (int64, error)
	UpdateStatusByAWB(ctx context.Context, awb string, status enums.OrderStatus, deliveredAt *time.Time) (int64, error)
	UpdateStatusByID(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) BulkCreate(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&orders).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentReference(ctx context.Context, paymentRef string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("payment_reference = ?", paymentRef).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByRetailer(ctx context.Context, retailerID uuid.UUID, limit int) ([]models.Order, error) {
	return r.list(ctx, "retailer_id = ?", retailerID, limit)
}

func (r *repository) ListByManufacturer(ctx context.Context, manufacturerID uuid.UUID, limit int) ([]models.Order, error) {
	return r.list(ctx, "manufacturer_id = ?", manufacturerID, limit)
}

func (r *repository) list(ctx context.Context, query string, id uuid.UUID, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where(query, id).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) UpdateShipmentAssignment(ctx context.Context, orderID uuid.UUID, shipmentID, awb, courierName string, confirmedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"shipment_id":  shipmentID,
			"awb_code":     awb,
			"courier_name": courierName,
			"status":       enums.OrderStatusConfirmed,
			"confirmed_at": confirmedAt,
		}).Error
}

func (r *repository) UpdateStatusByShipmentID(ctx context.Context, shipmentID string, status enums.OrderStatus, deliveredAt *time.Time) (int64, error) {
	return r.updateStatus(ctx, "shipment_id = ?", shipmentID, status, deliveredAt)
}

func (r *repository) UpdateStatusByAWB(ctx context.Context, awb string, status enums.OrderStatus, deliveredAt *time.Time) (int64, error) {
	return r.updateStatus(ctx, "awb_code = ?", awb, status, deliveredAt)
}

func (r *repository) UpdateStatusByID(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) (int64, error) {
	return r.updateStatus(ctx, "id = ?", id, status, deliveredAt)
}

func (r *repository) updateStatus(ctx context.Context, query string, arg any, status enums.OrderStatus, deliveredAt *time.Time) (int64, error) {
	updates := map[string]any{"status": status}
	switch status {
	case enums.OrderStatusDelivered, enums.OrderStatusRTODelivered:
		if deliveredAt != nil {
			updates["delivered_at"] = *deliveredAt
		}
	case enums.OrderStatusCancelled:
		updates["cancelled_at"] = time.Now().UTC()
	case enums.OrderStatusShipped:
		updates["shipped_at"] = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where(query, arg).
		Updates(updates)
	return result.RowsAffected, result.Error
}
