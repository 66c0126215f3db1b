package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/d2bmarket/d2b-backend/pkg/db/models"
	"github.com/d2bmarket/d2b-backend/pkg/enums"
	pkgerrors "github.com/d2bmarket/d2b-backend/pkg/errors"
	"github.com/d2bmarket/d2b-backend/pkg/logger"
	"github.com/d2bmarket/d2b-backend/pkg/types"
)

// platformShippingShare is the fraction of the shipping cost booked as
// platform profit on top of the per-unit margin.
var platformShippingShare = decimal.NewFromFloat(0.1)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderNotifier interface {
	NotifyOrderCreated(ctx context.Context, manufacturerID uuid.UUID, orderNumber string, itemCount int)
}

// MaterializeInput carries a verified payment and its cart snapshot.
type MaterializeInput struct {
	PaymentReference string
	RetailerID       uuid.UUID
	Cart             types.CartPayload
	Subtotal         decimal.Decimal
	RemainingBalance decimal.Decimal
	ShippingAddress  *types.ShippingAddress
	Attribution      types.Attribution
	// Recovered marks orders materialized from a caller-supplied payload
	// because the payment attempt row was missing.
	Recovered bool
}

// MaterializeResult reports what a materialization call produced.
type MaterializeResult struct {
	Orders         []models.Order
	AlreadyExisted bool
}

// Materializer turns verified payments into persisted order rows exactly once.
type Materializer struct {
	tx             txRunner
	repo           Repository
	notifier       orderNotifier
	logger         *logger.Logger
	advancePercent int64
	now            func() time.Time
}

// MaterializerParams configures the materializer.
type MaterializerParams struct {
	TransactionRunner txRunner
	Repo              Repository
	Notifier          orderNotifier
	Logger            *logger.Logger
	// AdvancePercent is the collected-up-front share of each item total.
	// 0 means the whole item total is considered paid at confirmation.
	AdvancePercent int
	Now            func() time.Time
}

// NewMaterializer builds the materializer.
func NewMaterializer(params MaterializerParams) (*Materializer, error) {
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.AdvancePercent < 0 || params.AdvancePercent > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "advance percent must be within [0,100]")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Materializer{
		tx:             params.TransactionRunner,
		repo:           params.Repo,
		notifier:       params.Notifier,
		logger:         params.Logger,
		advancePercent: int64(params.AdvancePercent),
		now:            now,
	}, nil
}

// Materialize persists the order rows for a payment. Calling it twice with
// the same payment reference is a no-op on the second call: the existing-rows
// check makes retries safe even when a caller races past the attempt lock
// after a crash recovery.
func (m *Materializer) Materialize(ctx context.Context, input MaterializeInput) (*MaterializeResult, error) {
	if input.PaymentReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	if input.RetailerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "retailer id required")
	}
	if len(input.Cart) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart payload required")
	}
	if input.Subtotal.IsZero() || input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be positive")
	}

	var result MaterializeResult
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)

		existing, err := repo.FindByPaymentReference(ctx, input.PaymentReference)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing orders")
		}
		if len(existing) > 0 {
			result.Orders = existing
			result.AlreadyExisted = true
			return nil
		}

		rows, err := m.buildOrders(input)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no orders produced from cart payload")
		}

		if err := repo.BulkCreate(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert orders")
		}
		result.Orders = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyExisted {
		m.emitCreatedNotifications(ctx, result.Orders)
	}
	return &result, nil
}

// buildOrders groups line items by manufacturer, mints one order number per
// group, and computes the per-item money split.
func (m *Materializer) buildOrders(input MaterializeInput) ([]models.Order, error) {
	now := m.now().UTC()
	groupNumbers := make(map[uuid.UUID]string)
	rows := make([]models.Order, 0, len(input.Cart))

	for _, item := range input.Cart {
		if item.ManufacturerID == uuid.Nil || item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line missing product or manufacturer id")
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line quantity must be positive")
		}

		orderNumber, ok := groupNumbers[item.ManufacturerID]
		if !ok {
			orderNumber = NewOrderGroupNumber(now)
			groupNumbers[item.ManufacturerID] = orderNumber
		}

		split := computeMoneySplit(item, input.Subtotal, input.RemainingBalance, m.advancePercent)

		rows = append(rows, models.Order{
			ID:                 uuid.New(),
			OrderNumber:        orderNumber,
			RetailerID:         input.RetailerID,
			ManufacturerID:     item.ManufacturerID,
			ProductID:          item.ProductID,
			ProductName:        item.Name,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			TotalAmount:        split.Total,
			ManufacturerPayout: split.Payout,
			PlatformProfit:     split.Profit,
			ShippingCost:       item.ShippingCost,
			TaxRate:            item.TaxRate,
			PaymentReference:   input.PaymentReference,
			PaymentType:        split.PaymentType,
			PaidAmount:         split.Paid,
			PendingAmount:      split.Pending,
			Status:             enums.OrderStatusPaid,
			ShippingAddress:    input.ShippingAddress,
			Attribution:        input.Attribution,
			RecoveredPayload:   input.Recovered,
		})
	}
	return rows, nil
}

// moneySplit is the computed money breakdown for one order row.
type moneySplit struct {
	Total       decimal.Decimal
	Payout      decimal.Decimal
	Profit      decimal.Decimal
	Paid        decimal.Decimal
	Pending     decimal.Decimal
	PaymentType enums.PaymentType
}

// computeMoneySplit derives the per-row amounts. The pending amount is the
// proportional share of the checkout's remaining balance plus any
// advance-percentage deduction; paid is defined as total minus pending so
// paid + pending == total holds by construction.
func computeMoneySplit(item types.CartLineItem, subtotal, remainingBalance decimal.Decimal, advancePercent int64) moneySplit {
	qty := decimal.NewFromInt(int64(item.Quantity))
	itemTotal := item.UnitPrice.Mul(qty)
	total := itemTotal.Add(item.ShippingCost)

	payout := item.CostBasis.Mul(qty)
	profit := item.Margin.Mul(qty).Add(item.ShippingCost.Mul(platformShippingShare))

	pending := decimal.Zero
	if remainingBalance.IsPositive() && subtotal.IsPositive() {
		pending = remainingBalance.Mul(itemTotal).Div(subtotal).Round(2)
	}
	if advancePercent > 0 && advancePercent < 100 {
		deferredShare := decimal.NewFromInt(100 - advancePercent).Div(decimal.NewFromInt(100))
		pending = pending.Add(itemTotal.Mul(deferredShare).Round(2))
	}

	paymentType := enums.PaymentTypeFull
	if pending.IsPositive() {
		paymentType = enums.PaymentTypeAdvance
	}

	return moneySplit{
		Total:       total,
		Payout:      payout.Round(2),
		Profit:      profit.Round(2),
		Paid:        total.Sub(pending),
		Pending:     pending,
		PaymentType: paymentType,
	}
}

func (m *Materializer) emitCreatedNotifications(ctx context.Context, rows []models.Order) {
	if m.notifier == nil {
		return
	}
	type group struct {
		manufacturerID uuid.UUID
		count          int
	}
	groups := make(map[string]*group)
	order := make([]string, 0, 4)
	for _, row := range rows {
		g, ok := groups[row.OrderNumber]
		if !ok {
			g = &group{manufacturerID: row.ManufacturerID}
			groups[row.OrderNumber] = g
			order = append(order, row.OrderNumber)
		}
		g.count++
	}
	for _, orderNumber := range order {
		g := groups[orderNumber]
		m.notifier.NotifyOrderCreated(ctx, g.manufacturerID, orderNumber, g.count)
	}
}
