package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

const testSecret = "test-webhook-secret"

type stubAttempts struct {
	attempt *models.PaymentAttempt
	outcome AcquireOutcome

	acquireCalls  int
	completeCalls int
	releaseCalls  int
	completeErr   error
}

func (s *stubAttempts) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	return nil
}

func (s *stubAttempts) FindByOrderReference(ctx context.Context, orderReference string) (*models.PaymentAttempt, error) {
	if s.attempt == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.attempt, nil
}

func (s *stubAttempts) Acquire(ctx context.Context, orderReference string) (*models.PaymentAttempt, AcquireOutcome, error) {
	s.acquireCalls++
	return s.attempt, s.outcome, nil
}

func (s *stubAttempts) Complete(ctx context.Context, orderReference, paymentReference string) error {
	s.completeCalls++
	return s.completeErr
}

func (s *stubAttempts) Release(ctx context.Context, orderReference string) error {
	s.releaseCalls++
	return nil
}

type stubMaterializer struct {
	result *orders.MaterializeResult
	err    error
	inputs []orders.MaterializeInput
}

func (s *stubMaterializer) Materialize(ctx context.Context, input orders.MaterializeInput) (*orders.MaterializeResult, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubOrdersRepo struct {
	orders.Repository
	byPaymentRef []models.Order
	lookupErr    error
}

func (s *stubOrdersRepo) FindByPaymentReference(ctx context.Context, paymentRef string) ([]models.Order, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.byPaymentRef, nil
}

func newTestService(t *testing.T, attempts *stubAttempts, mat *stubMaterializer, repo *stubOrdersRepo, allowRecovery bool) *Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Attempts:             attempts,
		Materializer:         mat,
		OrdersRepo:           repo,
		WebhookSecret:        testSecret,
		AllowPayloadRecovery: allowRecovery,
	})
	require.NoError(t, err)
	return svc
}

func signedInput(orderRef, paymentRef string) ConfirmInput {
	return ConfirmInput{
		OrderReference:   orderRef,
		PaymentReference: paymentRef,
		Signature:        Sign(orderRef, paymentRef, testSecret),
	}
}

func pendingAttempt() *models.PaymentAttempt {
	return &models.PaymentAttempt{
		ID:             uuid.New(),
		OrderReference: "ORD-1",
		RetailerID:     uuid.New(),
		Cart: types.CartPayload{
			{
				ProductID:      uuid.New(),
				ManufacturerID: uuid.New(),
				Name:           "Widget",
				Quantity:       2,
				UnitPrice:      decimal.NewFromInt(500),
			},
		},
		Subtotal:  decimal.NewFromInt(1000),
		Status:    enums.PaymentAttemptStatusProcessing,
		CreatedAt: time.Now(),
	}
}

func TestConfirmPaymentRejectsInvalidSignatureBeforeAnyRead(t *testing.T) {
	attempts := &stubAttempts{}
	svc := newTestService(t, attempts, &stubMaterializer{}, &stubOrdersRepo{}, true)

	input := signedInput("ORD-1", "PAY-1")
	input.Signature = Sign("ORD-1", "PAY-OTHER", testSecret)

	_, err := svc.ConfirmPayment(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Zero(t, attempts.acquireCalls, "no row access before signature verification")
}

func TestConfirmPaymentRequiresReferences(t *testing.T) {
	svc := newTestService(t, &stubAttempts{}, &stubMaterializer{}, &stubOrdersRepo{}, true)

	_, err := svc.ConfirmPayment(context.Background(), ConfirmInput{PaymentReference: "PAY-1"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestConfirmPaymentWonPathMaterializesFromAttempt(t *testing.T) {
	attempt := pendingAttempt()
	attempts := &stubAttempts{attempt: attempt, outcome: AcquireWon}
	mat := &stubMaterializer{result: &orders.MaterializeResult{
		Orders: []models.Order{{ID: uuid.New(), OrderNumber: "D2B-X-1"}},
	}}
	svc := newTestService(t, attempts, mat, &stubOrdersRepo{}, true)

	result, err := svc.ConfirmPayment(context.Background(), signedInput("ORD-1", "PAY-1"))
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.False(t, result.Recovered)
	assert.Len(t, result.Orders, 1)

	require.Len(t, mat.inputs, 1)
	assert.Equal(t, attempt.RetailerID, mat.inputs[0].RetailerID, "attempt row is the source of truth")
	assert.Equal(t, "PAY-1", mat.inputs[0].PaymentReference)
	assert.False(t, mat.inputs[0].Recovered)
	assert.Equal(t, 1, attempts.completeCalls)
	assert.Zero(t, attempts.releaseCalls)
}

func TestConfirmPaymentReleasesLockOnMaterializeFailure(t *testing.T) {
	attempts := &stubAttempts{attempt: pendingAttempt(), outcome: AcquireWon}
	mat := &stubMaterializer{err: pkgerrors.New(pkgerrors.CodeDependency, "insert failed")}
	svc := newTestService(t, attempts, mat, &stubOrdersRepo{}, true)

	_, err := svc.ConfirmPayment(context.Background(), signedInput("ORD-1", "PAY-1"))
	require.Error(t, err)
	assert.Equal(t, 1, attempts.releaseCalls)
	assert.Zero(t, attempts.completeCalls)
}

func TestConfirmPaymentCompleteFailureDoesNotFailConfirmation(t *testing.T) {
	attempts := &stubAttempts{
		attempt:     pendingAttempt(),
		outcome:     AcquireWon,
		completeErr: pkgerrors.New(pkgerrors.CodeDependency, "db gone"),
	}
	mat := &stubMaterializer{result: &orders.MaterializeResult{
		Orders: []models.Order{{ID: uuid.New()}},
	}}
	svc := newTestService(t, attempts, mat, &stubOrdersRepo{}, true)

	result, err := svc.ConfirmPayment(context.Background(), signedInput("ORD-1", "PAY-1"))
	require.NoError(t, err, "orders are durable; a stuck attempt row is recoverable")
	assert.Len(t, result.Orders, 1)
}

func TestConfirmPaymentDuplicateReturnsExistingOrders(t *testing.T) {
	existing := []models.Order{{ID: uuid.New(), PaymentReference: "PAY-1"}}
	attempts := &stubAttempts{attempt: pendingAttempt(), outcome: AcquireAlreadyHandled}
	mat := &stubMaterializer{}
	svc := newTestService(t, attempts, mat, &stubOrdersRepo{byPaymentRef: existing}, true)

	result, err := svc.ConfirmPayment(context.Background(), signedInput("ORD-1", "PAY-1"))
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.Len(t, result.Orders, 1)
	assert.Empty(t, mat.inputs, "loser never materializes")
}

func TestConfirmPaymentMissingAttemptWithPayloadRecovers(t *testing.T) {
	attempts := &stubAttempts{outcome: AcquireMissing}
	mat := &stubMaterializer{result: &orders.MaterializeResult{
		Orders: []models.Order{{ID: uuid.New(), RecoveredPayload: true}},
	}}
	svc := newTestService(t, attempts, mat, &stubOrdersRepo{}, true)

	input := signedInput("ORD-1", "PAY-1")
	input.RetailerID = uuid.New()
	input.Cart = types.CartPayload{
		{ProductID: uuid.New(), ManufacturerID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	}
	input.Subtotal = decimal.NewFromInt(100)

	result, err := svc.ConfirmPayment(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, result.Recovered)
	require.Len(t, mat.inputs, 1)
	assert.True(t, mat.inputs[0].Recovered)
}

func TestConfirmPaymentMissingAttemptWithoutPayloadFails(t *testing.T) {
	attempts := &stubAttempts{outcome: AcquireMissing}
	svc := newTestService(t, attempts, &stubMaterializer{}, &stubOrdersRepo{}, true)

	_, err := svc.ConfirmPayment(context.Background(), signedInput("ORD-1", "PAY-1"))
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestConfirmPaymentRecoveryDisabledByConfig(t *testing.T) {
	attempts := &stubAttempts{outcome: AcquireMissing}
	mat := &stubMaterializer{}
	svc := newTestService(t, attempts, mat, &stubOrdersRepo{}, false)

	input := signedInput("ORD-1", "PAY-1")
	input.RetailerID = uuid.New()
	input.Cart = types.CartPayload{
		{ProductID: uuid.New(), ManufacturerID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	}
	input.Subtotal = decimal.NewFromInt(100)

	_, err := svc.ConfirmPayment(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Empty(t, mat.inputs)
}
