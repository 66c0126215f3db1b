package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/d2bmarket/d2b-backend/internal/notifications"
	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/pkg/courier"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	"github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/metrics"
)

// Scope identifies which key was used to apply a status update.
type Scope string

const (
	ScopeShipment Scope = "shipment"
	ScopeAWB      Scope = "awb"
	ScopeOrder    Scope = "order"
)

// courierTracker is the slice of the aggregator client the reconciler needs.
type courierTracker interface {
	Authenticate(ctx context.Context) error
	TrackByAWB(ctx context.Context, awb string) (*courier.Tracking, error)
	SearchOrders(ctx context.Context, query string) ([]courier.OrderSummary, error)
}

// Result records one reconciliation pass for audit logging.
type Result struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	OldStatus   enums.OrderStatus `json:"old_status"`
	NewStatus   enums.OrderStatus `json:"new_status"`
	Scope       Scope             `json:"scope,omitempty"`
	RowsUpdated int64             `json:"rows_updated"`
	Skipped     bool              `json:"skipped"`
	SkipReason  string            `json:"skip_reason,omitempty"`
}

// ServiceParams wires the reconciler's dependencies.
type ServiceParams struct {
	Repo     orders.Repository
	Courier  courierTracker
	Notifier *notifications.Service
	Logger   *logger.Logger
	Metrics  *metrics.PipelineMetrics
	Now      func() time.Time
}

// Service pulls the aggregator's view of a shipment and folds it back into
// the locally stored order status.
type Service struct {
	repo     orders.Repository
	courier  courierTracker
	notifier *notifications.Service
	logg     *logger.Logger
	metrics  *metrics.PipelineMetrics
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reconcile service requires an order repository")
	}
	if params.Courier == nil {
		return nil, fmt.Errorf("reconcile service requires a courier client")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("reconcile service requires a logger")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     params.Repo,
		courier:  params.Courier,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// Reconcile refreshes one order from the aggregator. Orders that were never
// handed to a courier are skipped. The aggregator's signals win over the
// local state, including moves the normal lifecycle would not allow, since
// the courier is the source of truth once a shipment exists.
func (s *Service) Reconcile(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	result := &Result{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		OldStatus:   order.Status,
		NewStatus:   order.Status,
	}

	if order.AWBCode == nil && order.ShipmentID == nil {
		result.Skipped = true
		result.SkipReason = "no shipment assigned"
		return result, nil
	}

	if err := s.courier.Authenticate(ctx); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "courier authentication failed")
	}

	signal := s.collectSignal(ctx, order)
	resolved, ok := Resolve(signal)
	if !ok || resolved == order.Status {
		return result, nil
	}

	if !enums.CanTransition(order.Status, resolved) {
		// Still applied: the aggregator saw the shipment move, whatever the
		// local table says. Worth a trace when it happens.
		s.logg.Warn(ctx, fmt.Sprintf("courier reports %s for order in %s, outside the normal lifecycle", resolved, order.Status))
	}

	var deliveredAt *time.Time
	if resolved == enums.OrderStatusDelivered {
		at := s.now().UTC()
		deliveredAt = &at
	}

	scope, rows, err := s.applyUpdate(ctx, order, resolved, deliveredAt)
	if err != nil {
		return nil, err
	}

	result.NewStatus = resolved
	result.Scope = scope
	result.RowsUpdated = rows
	s.metrics.IncReconcile(resolved.String())
	s.logg.Info(ctx, fmt.Sprintf("order %s moved %s -> %s (%d rows via %s)", order.OrderNumber, result.OldStatus, resolved, rows, scope))

	if s.notifier != nil {
		s.notifier.NotifyStatusChanged(ctx, order.RetailerID, order.OrderNumber, resolved)
	}
	return result, nil
}

// collectSignal gathers the aggregator's tracking and order-search views.
// Either call may fail without aborting the pass; whatever was fetched is
// resolved against the rules.
func (s *Service) collectSignal(ctx context.Context, order *models.Order) Signal {
	var signal Signal

	if order.AWBCode != nil && *order.AWBCode != "" {
		tracking, err := s.courier.TrackByAWB(ctx, *order.AWBCode)
		if err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("tracking lookup failed for awb %s: %v", *order.AWBCode, err))
		} else if tracking != nil {
			signal.TrackingStatusCode = tracking.StatusCode
			signal.CurrentStatus = tracking.CurrentStatus
		}
	}

	query := order.OrderNumber
	if order.AWBCode != nil && *order.AWBCode != "" {
		query = *order.AWBCode
	}
	summaries, err := s.courier.SearchOrders(ctx, query)
	if err == nil && len(summaries) == 0 && query != order.OrderNumber {
		summaries, err = s.courier.SearchOrders(ctx, order.OrderNumber)
	}
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("order search failed for %s: %v", query, err))
	} else if len(summaries) > 0 {
		signal.OrderSearchStatus = summaries[0].Status
	}
	return signal
}

// applyUpdate writes the resolved status using the widest key available, so
// every local order on the same shipment moves together.
func (s *Service) applyUpdate(ctx context.Context, order *models.Order, status enums.OrderStatus, deliveredAt *time.Time) (Scope, int64, error) {
	if order.ShipmentID != nil && *order.ShipmentID != "" {
		rows, err := s.repo.UpdateStatusByShipmentID(ctx, *order.ShipmentID, status, deliveredAt)
		return ScopeShipment, rows, err
	}
	if order.AWBCode != nil && *order.AWBCode != "" {
		rows, err := s.repo.UpdateStatusByAWB(ctx, *order.AWBCode, status, deliveredAt)
		return ScopeAWB, rows, err
	}
	rows, err := s.repo.UpdateStatusByID(ctx, order.ID, status, deliveredAt)
	return ScopeOrder, rows, err
}
