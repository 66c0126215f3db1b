package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

// Service writes notification rows. Every method is best-effort: failures are
// logged and swallowed so a notification never blocks the money path.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService builds the notifications service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &Service{repo: repo, logger: logg}, nil
}

// NotifyOrderCreated records an order-created notification for the manufacturer.
func (s *Service) NotifyOrderCreated(ctx context.Context, manufacturerID uuid.UUID, orderNumber string, itemCount int) {
	row := &models.Notification{
		ID:          uuid.New(),
		RecipientID: manufacturerID,
		Kind:        enums.NotificationKindOrderCreated,
		OrderNumber: orderNumber,
		Body:        fmt.Sprintf("New order %s with %d item(s) received", orderNumber, itemCount),
	}
	if err := s.repo.Create(ctx, row); err != nil && s.logger != nil {
		s.logger.Warn(s.logger.WithField(ctx, "order_number", orderNumber), "order created notification failed")
	}
}

// NotifyStatusChanged records a status-change notification for the retailer.
func (s *Service) NotifyStatusChanged(ctx context.Context, retailerID uuid.UUID, orderNumber string, status enums.OrderStatus) {
	row := &models.Notification{
		ID:          uuid.New(),
		RecipientID: retailerID,
		Kind:        enums.NotificationKindOrderStatusChanged,
		OrderNumber: orderNumber,
		Body:        fmt.Sprintf("Order %s is now %s", orderNumber, status),
	}
	if err := s.repo.Create(ctx, row); err != nil && s.logger != nil {
		s.logger.Warn(s.logger.WithField(ctx, "order_number", orderNumber), "status change notification failed")
	}
}
