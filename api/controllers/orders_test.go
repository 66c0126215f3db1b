package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
)

func setupControllerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:controllers_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{})
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

func seedControllerOrder(t *testing.T, db *gorm.DB, retailerID uuid.UUID) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:                 uuid.New(),
		OrderNumber:        "D2B-C-" + uuid.NewString()[:4],
		RetailerID:         retailerID,
		ManufacturerID:     uuid.New(),
		ProductID:          uuid.New(),
		ProductName:        "Widget",
		Quantity:           1,
		UnitPrice:          decimal.NewFromInt(100),
		TotalAmount:        decimal.NewFromInt(100),
		ManufacturerPayout: decimal.NewFromInt(70),
		PlatformProfit:     decimal.NewFromInt(30),
		PaymentReference:   "PAY-C",
		PaidAmount:         decimal.NewFromInt(100),
		Status:             enums.OrderStatusPaid,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderListByRetailer(t *testing.T) {
	db := setupControllerTestDB(t)
	repo := orders.NewRepository(db)
	retailerID := uuid.New()
	seedControllerOrder(t, db, retailerID)
	seedControllerOrder(t, db, retailerID)
	seedControllerOrder(t, db, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?retailer_id="+retailerID.String(), nil)
	rec := httptest.NewRecorder()
	OrderList(repo, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []orderLineResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	for _, line := range envelope.Data {
		assert.Equal(t, retailerID, line.RetailerID)
	}
}

func TestOrderListRequiresExactlyOneScope(t *testing.T) {
	db := setupControllerTestDB(t)
	repo := orders.NewRepository(db)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	OrderList(repo, nil)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	both := "/api/v1/orders?retailer_id=" + uuid.NewString() + "&manufacturer_id=" + uuid.NewString()
	req = httptest.NewRequest(http.MethodGet, both, nil)
	rec = httptest.NewRecorder()
	OrderList(repo, nil)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderListRejectsBadLimit(t *testing.T) {
	db := setupControllerTestDB(t)
	repo := orders.NewRepository(db)

	url := "/api/v1/orders?retailer_id=" + uuid.NewString() + "&limit=0"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	OrderList(repo, nil)(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderDetailReturnsRow(t *testing.T) {
	db := setupControllerTestDB(t)
	repo := orders.NewRepository(db)
	order := seedControllerOrder(t, db, uuid.New())

	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderId}", OrderDetail(repo, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), order.OrderNumber)
}

func TestOrderDetailUnknownIDIsNotFound(t *testing.T) {
	db := setupControllerTestDB(t)
	repo := orders.NewRepository(db)

	router := chi.NewRouter()
	router.Get("/api/v1/orders/{orderId}", OrderDetail(repo, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
