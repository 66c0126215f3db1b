package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d2bmarket/d2b-backend/internal/payments"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
)

type stubConfirmService struct {
	result *payments.ConfirmResult
	err    error
	inputs []payments.ConfirmInput
}

func (s *stubConfirmService) ConfirmPayment(ctx context.Context, input payments.ConfirmInput) (*payments.ConfirmResult, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func postConfirm(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/confirm", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestConfirmPaymentReturnsCreated(t *testing.T) {
	svc := &stubConfirmService{result: &payments.ConfirmResult{Orders: []models.Order{{ID: uuid.New(), OrderNumber: "D2B-1-A"}}}}
	handler := ConfirmPayment(svc, nil)

	rec := postConfirm(t, handler, `{"order_reference":"ord_1","payment_reference":"pay_1","signature":"sig"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "D2B-1-A")

	require.Len(t, svc.inputs, 1)
	assert.Equal(t, "ord_1", svc.inputs[0].OrderReference)
	assert.Equal(t, "sig", svc.inputs[0].Signature)
}

func TestConfirmPaymentDuplicateReturnsOK(t *testing.T) {
	svc := &stubConfirmService{result: &payments.ConfirmResult{Duplicate: true}}
	handler := ConfirmPayment(svc, nil)

	rec := postConfirm(t, handler, `{"order_reference":"ord_1","payment_reference":"pay_1","signature":"sig"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicate":true`)
}

func TestConfirmPaymentRejectsMissingFields(t *testing.T) {
	svc := &stubConfirmService{}
	handler := ConfirmPayment(svc, nil)

	rec := postConfirm(t, handler, `{"order_reference":"ord_1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.inputs)
}

func TestConfirmPaymentRejectsUnknownFields(t *testing.T) {
	svc := &stubConfirmService{}
	handler := ConfirmPayment(svc, nil)

	rec := postConfirm(t, handler, `{"order_reference":"o","payment_reference":"p","signature":"s","amount":"100"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.inputs)
}

func TestConfirmPaymentMapsServiceError(t *testing.T) {
	svc := &stubConfirmService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature verification failed")}
	handler := ConfirmPayment(svc, nil)

	rec := postConfirm(t, handler, `{"order_reference":"ord_1","payment_reference":"pay_1","signature":"bad"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestConfirmPaymentPassesRecoveryPayload(t *testing.T) {
	retailerID := uuid.New()
	svc := &stubConfirmService{result: &payments.ConfirmResult{Recovered: true}}
	handler := ConfirmPayment(svc, nil)

	body := `{
		"order_reference": "ord_1",
		"payment_reference": "pay_1",
		"signature": "sig",
		"retailer_id": "` + retailerID.String() + `",
		"subtotal": "1000",
		"remaining_balance": "400",
		"cart": [{"product_id":"` + uuid.NewString() + `","manufacturer_id":"` + uuid.NewString() + `","name":"Bracket","quantity":2,"unit_price":"250","cost_basis":"180"}]
	}`
	rec := postConfirm(t, handler, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recovered":true`)

	require.Len(t, svc.inputs, 1)
	input := svc.inputs[0]
	assert.Equal(t, retailerID, input.RetailerID)
	assert.Equal(t, "1000", input.Subtotal.String())
	assert.Equal(t, "400", input.RemainingBalance.String())
	require.Len(t, input.Cart, 1)
}
