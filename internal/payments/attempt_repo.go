package payments

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
)

// AcquireOutcome is the result of trying to win a payment attempt.
type AcquireOutcome int

const (
	// AcquireWon means this caller owns materialization for the attempt.
	AcquireWon AcquireOutcome = iota
	// AcquireAlreadyHandled means another caller is processing or has
	// completed the attempt; treat as an idempotent no-op.
	AcquireAlreadyHandled
	// AcquireMissing means no attempt row exists for the reference.
	AcquireMissing
)

// AttemptRepository is the store behind the attempt lock coordinator. Acquire
// is the single serialization point for concurrent confirmations: it relies
// on the backing store's row-level atomicity, not on any external lock.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.PaymentAttempt) error
	FindByOrderReference(ctx context.Context, orderReference string) (*models.PaymentAttempt, error)
	Acquire(ctx context.Context, orderReference string) (*models.PaymentAttempt, AcquireOutcome, error)
	Complete(ctx context.Context, orderReference, paymentReference string) error
	Release(ctx context.Context, orderReference string) error
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository builds the payment attempt store bound to the provided DB.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.PaymentAttempt) error {
	if attempt.Status == "" {
		attempt.Status = enums.PaymentAttemptStatusPending
	}
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepository) FindByOrderReference(ctx context.Context, orderReference string) (*models.PaymentAttempt, error) {
	var attempt models.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("order_reference = ?", orderReference).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Acquire performs the single-winner conditional transition pending ->
// processing. Exactly one concurrent caller sees an affected row count of 1;
// everyone else is told the attempt is already handled or missing.
func (r *attemptRepository) Acquire(ctx context.Context, orderReference string) (*models.PaymentAttempt, AcquireOutcome, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentAttempt{}).
		Where("order_reference = ? AND status = ?", orderReference, enums.PaymentAttemptStatusPending).
		Update("status", enums.PaymentAttemptStatusProcessing)
	if result.Error != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "acquire payment attempt")
	}

	if result.RowsAffected == 1 {
		attempt, err := r.FindByOrderReference(ctx, orderReference)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load acquired attempt")
		}
		return attempt, AcquireWon, nil
	}

	attempt, err := r.FindByOrderReference(ctx, orderReference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, AcquireMissing, nil
		}
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inspect payment attempt")
	}
	return attempt, AcquireAlreadyHandled, nil
}

func (r *attemptRepository) Complete(ctx context.Context, orderReference, paymentReference string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentAttempt{}).
		Where("order_reference = ? AND status = ?", orderReference, enums.PaymentAttemptStatusProcessing).
		Updates(map[string]any{
			"status":            enums.PaymentAttemptStatusCompleted,
			"payment_reference": paymentReference,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "complete payment attempt")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "payment attempt not in processing state")
	}
	return nil
}

// Release rolls a failed materialization back to pending so a later retry
// (webhook redelivery, manual sync) is not permanently blocked.
func (r *attemptRepository) Release(ctx context.Context, orderReference string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentAttempt{}).
		Where("order_reference = ? AND status = ?", orderReference, enums.PaymentAttemptStatusProcessing).
		Update("status", enums.PaymentAttemptStatusPending)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "release payment attempt")
	}
	return nil
}
