package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/d2bmarket/d2b-backend/internal/orders"
	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/metrics"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

type materializer interface {
	Materialize(ctx context.Context, input orders.MaterializeInput) (*orders.MaterializeResult, error)
}

// ConfirmInput is the verified-payment confirmation request. The recovery
// fields are consulted only when no payment attempt row exists.
type ConfirmInput struct {
	OrderReference   string
	PaymentReference string
	Signature        string

	RetailerID       uuid.UUID
	Cart             types.CartPayload
	Subtotal         decimal.Decimal
	RemainingBalance decimal.Decimal
	ShippingAddress  *types.ShippingAddress
	Attribution      types.Attribution
}

// ConfirmResult reports what a confirmation call did.
type ConfirmResult struct {
	Orders []models.Order
	// Duplicate marks confirmations resolved as idempotent no-ops.
	Duplicate bool
	// Recovered marks orders materialized from the caller-supplied payload
	// because the attempt record was missing.
	Recovered bool
}

// ServiceParams configures the confirmation service.
type ServiceParams struct {
	Attempts      AttemptRepository
	Materializer  materializer
	OrdersRepo    orders.Repository
	Logger        *logger.Logger
	Metrics       *metrics.PipelineMetrics
	WebhookSecret string
	// AllowPayloadRecovery enables materializing from the caller payload when
	// the attempt row is missing. This weakens the locked path's trust
	// boundary; every use is audit-logged.
	AllowPayloadRecovery bool
}

// Service turns verified gateway confirmations into durable orders exactly once.
type Service struct {
	attempts      AttemptRepository
	materializer  materializer
	ordersRepo    orders.Repository
	logger        *logger.Logger
	metrics       *metrics.PipelineMetrics
	secret        string
	allowRecovery bool
}

// NewService builds the confirmation service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Attempts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "attempt repository required")
	}
	if params.Materializer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "materializer required")
	}
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.WebhookSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook secret required")
	}
	return &Service{
		attempts:      params.Attempts,
		materializer:  params.Materializer,
		ordersRepo:    params.OrdersRepo,
		logger:        params.Logger,
		metrics:       params.Metrics,
		secret:        params.WebhookSecret,
		allowRecovery: params.AllowPayloadRecovery,
	}, nil
}

// ConfirmPayment is the single entry point for client confirmation calls,
// gateway webhooks, and manual re-syncs. All three may arrive concurrently
// or repeatedly for the same payment; the attempt lock plus the existing-
// orders check guarantee at most one set of order rows.
func (s *Service) ConfirmPayment(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.OrderReference == "" || input.PaymentReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order and payment references required")
	}

	// Signature check happens before any row is touched.
	if !VerifySignature(input.OrderReference, input.PaymentReference, input.Signature, s.secret) {
		s.metrics.IncConfirmation("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature verification failed")
	}

	ctx = s.withRefs(ctx, input)

	attempt, outcome, err := s.attempts.Acquire(ctx, input.OrderReference)
	if err != nil {
		s.metrics.IncConfirmation("error")
		return nil, err
	}

	switch outcome {
	case AcquireWon:
		return s.materializeLocked(ctx, attempt, input)
	case AcquireAlreadyHandled:
		return s.resolveDuplicate(ctx, input)
	case AcquireMissing:
		return s.recoverFromPayload(ctx, input)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown acquire outcome")
	}
}

// materializeLocked runs the happy path under the won lock. Any failure
// releases the lock so retries can proceed.
func (s *Service) materializeLocked(ctx context.Context, attempt *models.PaymentAttempt, input ConfirmInput) (*ConfirmResult, error) {
	matInput := orders.MaterializeInput{
		PaymentReference: input.PaymentReference,
		RetailerID:       attempt.RetailerID,
		Cart:             attempt.Cart,
		Subtotal:         attempt.Subtotal,
		RemainingBalance: attempt.RemainingBalance,
		ShippingAddress:  attempt.ShippingAddress,
		Attribution:      attempt.Attribution,
	}

	result, err := s.materializer.Materialize(ctx, matInput)
	if err != nil {
		if relErr := s.attempts.Release(ctx, input.OrderReference); relErr != nil && s.logger != nil {
			s.logger.Error(ctx, "release payment attempt after failed materialization", relErr)
		}
		s.metrics.IncConfirmation("error")
		return nil, err
	}

	if err := s.attempts.Complete(ctx, input.OrderReference, input.PaymentReference); err != nil {
		// Orders are durable at this point; a stuck processing row is
		// recoverable while a rolled-back payment is not. Log and move on.
		if s.logger != nil {
			s.logger.Error(ctx, "complete payment attempt", err)
		}
	}

	if result.AlreadyExisted {
		s.metrics.IncDuplicate()
	}
	s.metrics.IncConfirmation("confirmed")
	if s.logger != nil {
		s.logger.Info(ctx, "payment confirmed")
	}
	return &ConfirmResult{Orders: result.Orders, Duplicate: result.AlreadyExisted}, nil
}

// resolveDuplicate answers a confirmation whose attempt is already processing
// or completed. Success, not an error: the caller retried or lost the race.
func (s *Service) resolveDuplicate(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	s.metrics.IncDuplicate()
	s.metrics.IncConfirmation("duplicate")
	existing, err := s.ordersRepo.FindByPaymentReference(ctx, input.PaymentReference)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "duplicate confirmation: existing orders lookup failed")
		}
		existing = nil
	}
	return &ConfirmResult{Orders: existing, Duplicate: true}, nil
}

// recoverFromPayload handles the degraded path: the attempt row is gone but
// the caller supplied a complete cart payload. The payload becomes the source
// of truth, which weakens the integrity guarantee of the locked path, so the
// result is flagged and audit-logged.
func (s *Service) recoverFromPayload(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if !s.allowRecovery {
		s.metrics.IncConfirmation("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment attempt not found")
	}
	if input.RetailerID == uuid.Nil || len(input.Cart) == 0 || !input.Subtotal.IsPositive() {
		s.metrics.IncConfirmation("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment attempt not found and no recovery payload supplied")
	}

	if s.logger != nil {
		s.logger.Warn(ctx, "payment attempt missing; materializing from caller payload")
	}

	result, err := s.materializer.Materialize(ctx, orders.MaterializeInput{
		PaymentReference: input.PaymentReference,
		RetailerID:       input.RetailerID,
		Cart:             input.Cart,
		Subtotal:         input.Subtotal,
		RemainingBalance: input.RemainingBalance,
		ShippingAddress:  input.ShippingAddress,
		Attribution:      input.Attribution,
		Recovered:        true,
	})
	if err != nil {
		s.metrics.IncConfirmation("error")
		return nil, err
	}

	s.metrics.IncRecovery()
	s.metrics.IncConfirmation("recovered")
	return &ConfirmResult{
		Orders:    result.Orders,
		Duplicate: result.AlreadyExisted,
		Recovered: true,
	}, nil
}

func (s *Service) withRefs(ctx context.Context, input ConfirmInput) context.Context {
	if s.logger == nil {
		return ctx
	}
	ctx = s.logger.WithOrderReference(ctx, input.OrderReference)
	return s.logger.WithPaymentReference(ctx, input.PaymentReference)
}
