package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/pkg/courier"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
)

func setupReconcileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:reconcile_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL,
  retailer_id TEXT NOT NULL,
  manufacturer_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  manufacturer_payout NUMERIC NOT NULL,
  platform_profit NUMERIC NOT NULL,
  shipping_cost NUMERIC NOT NULL DEFAULT 0,
  tax_rate NUMERIC NOT NULL DEFAULT 0,
  payment_reference TEXT NOT NULL,
  payment_type TEXT NOT NULL DEFAULT 'full',
  paid_amount NUMERIC NOT NULL,
  pending_amount NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'paid',
  shipment_id TEXT,
  awb_code TEXT,
  courier_name TEXT,
  shipping_address TEXT,
  attribution TEXT,
  recovered_payload INTEGER NOT NULL DEFAULT 0,
  confirmed_at DATETIME,
  shipped_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type stubCourier struct {
	tracking    *courier.Tracking
	trackingErr error
	searches    map[string][]courier.OrderSummary
	searchErr   error
	authErr     error

	searchQueries []string
}

func (s *stubCourier) Authenticate(ctx context.Context) error { return s.authErr }

func (s *stubCourier) TrackByAWB(ctx context.Context, awb string) (*courier.Tracking, error) {
	if s.trackingErr != nil {
		return nil, s.trackingErr
	}
	return s.tracking, nil
}

func (s *stubCourier) SearchOrders(ctx context.Context, query string) ([]courier.OrderSummary, error) {
	s.searchQueries = append(s.searchQueries, query)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searches[query], nil
}

func seedShippedOrder(t *testing.T, db *gorm.DB, orderNumber, shipmentID, awb string, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:                 uuid.New(),
		OrderNumber:        orderNumber,
		RetailerID:         uuid.New(),
		ManufacturerID:     uuid.New(),
		ProductID:          uuid.New(),
		ProductName:        "Widget",
		Quantity:           1,
		UnitPrice:          decimal.NewFromInt(100),
		TotalAmount:        decimal.NewFromInt(100),
		ManufacturerPayout: decimal.NewFromInt(70),
		PlatformProfit:     decimal.NewFromInt(30),
		PaymentReference:   "PAY-" + orderNumber,
		PaidAmount:         decimal.NewFromInt(100),
		Status:             status,
	}
	if shipmentID != "" {
		order.ShipmentID = &shipmentID
	}
	if awb != "" {
		order.AWBCode = &awb
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func newTestReconciler(t *testing.T, db *gorm.DB, tracker *stubCourier) *Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:    orders.NewRepository(db),
		Courier: tracker,
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func TestReconcileSkipsOrderWithoutShipment(t *testing.T) {
	db := setupReconcileTestDB(t)
	order := seedShippedOrder(t, db, "D2B-X-1", "", "", enums.OrderStatusPaid)
	tracker := &stubCourier{authErr: errors.New("must not be called")}
	svc := newTestReconciler(t, db, tracker)

	result, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, enums.OrderStatusPaid, result.NewStatus)
	assert.Empty(t, tracker.searchQueries)
}

func TestReconcileDeliveredUpdatesWholeShipment(t *testing.T) {
	db := setupReconcileTestDB(t)
	shipmentID := "555"
	first := seedShippedOrder(t, db, "D2B-X-2", shipmentID, "AWB100", enums.OrderStatusShipped)
	seedShippedOrder(t, db, "D2B-X-2", shipmentID, "AWB100", enums.OrderStatusShipped)
	seedShippedOrder(t, db, "D2B-X-2", shipmentID, "AWB100", enums.OrderStatusShipped)

	tracker := &stubCourier{tracking: &courier.Tracking{StatusCode: 7, CurrentStatus: "Delivered"}}
	svc := newTestReconciler(t, db, tracker)

	result, err := svc.Reconcile(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, result.OldStatus)
	assert.Equal(t, enums.OrderStatusDelivered, result.NewStatus)
	assert.Equal(t, ScopeShipment, result.Scope)
	assert.EqualValues(t, 3, result.RowsUpdated)

	var delivered int64
	require.NoError(t, db.Table("orders").Where("status = ? AND delivered_at IS NOT NULL", enums.OrderStatusDelivered).Count(&delivered).Error)
	assert.EqualValues(t, 3, delivered)
}

func TestReconcileFallsBackToAWBScope(t *testing.T) {
	db := setupReconcileTestDB(t)
	order := seedShippedOrder(t, db, "D2B-X-3", "", "AWB200", enums.OrderStatusConfirmed)

	tracker := &stubCourier{tracking: &courier.Tracking{StatusCode: 6}}
	svc := newTestReconciler(t, db, tracker)

	result, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, result.NewStatus)
	assert.Equal(t, ScopeAWB, result.Scope)
	assert.EqualValues(t, 1, result.RowsUpdated)
}

func TestReconcileUnresolvedSignalLeavesStatus(t *testing.T) {
	db := setupReconcileTestDB(t)
	order := seedShippedOrder(t, db, "D2B-X-4", "556", "AWB300", enums.OrderStatusShipped)

	tracker := &stubCourier{tracking: &courier.Tracking{StatusCode: 42, CurrentStatus: "SOMETHING ELSE"}}
	svc := newTestReconciler(t, db, tracker)

	result, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusShipped, result.NewStatus)
	assert.Empty(t, result.Scope)
}

func TestReconcileSameStatusIsNoOp(t *testing.T) {
	db := setupReconcileTestDB(t)
	order := seedShippedOrder(t, db, "D2B-X-5", "557", "AWB400", enums.OrderStatusShipped)

	tracker := &stubCourier{tracking: &courier.Tracking{StatusCode: 6}}
	svc := newTestReconciler(t, db, tracker)

	result, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, result.OldStatus, result.NewStatus)
	assert.Zero(t, result.RowsUpdated)
}

func TestReconcileOrderSearchFallsBackToOrderNumber(t *testing.T) {
	db := setupReconcileTestDB(t)
	order := seedShippedOrder(t, db, "D2B-X-6", "558", "AWB500", enums.OrderStatusConfirmed)

	tracker := &stubCourier{
		searches: map[string][]courier.OrderSummary{
			"D2B-X-6": {{ID: 1, Status: "NEW"}},
		},
	}
	svc := newTestReconciler(t, db, tracker)

	result, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AWB500", "D2B-X-6"}, tracker.searchQueries)
	assert.Equal(t, enums.OrderStatusCancelled, result.NewStatus)
}

func TestReconcileTrackingFailureStillUsesSearchSignal(t *testing.T) {
	db := setupReconcileTestDB(t)
	order := seedShippedOrder(t, db, "D2B-X-7", "559", "AWB600", enums.OrderStatusShipped)

	tracker := &stubCourier{
		trackingErr: errors.New("tracking timeout"),
		searches: map[string][]courier.OrderSummary{
			"AWB600": {{ID: 2, Status: "CANCELED"}},
		},
	}
	svc := newTestReconciler(t, db, tracker)

	result, err := svc.Reconcile(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, result.NewStatus)
}

func TestReconcileAuthFailureIsDependencyError(t *testing.T) {
	db := setupReconcileTestDB(t)
	order := seedShippedOrder(t, db, "D2B-X-8", "560", "AWB700", enums.OrderStatusShipped)

	tracker := &stubCourier{authErr: errors.New("bad credentials")}
	svc := newTestReconciler(t, db, tracker)

	_, err := svc.Reconcile(context.Background(), order.ID)
	require.Error(t, err)
}
