package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLineItem is one line of the cart snapshot captured when checkout
// begins. Money fields are absolute amounts in the platform currency;
// CostBasis and Margin are per-unit.
type CartLineItem struct {
	ProductID      uuid.UUID       `json:"product_id" validate:"required"`
	ManufacturerID uuid.UUID       `json:"manufacturer_id" validate:"required"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"required"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	Margin         decimal.Decimal `json:"margin"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
}

// CartPayload is the ordered sequence of line items for one checkout intent.
type CartPayload []CartLineItem

// PriceBreakdown carries the totals computed before the gateway redirect.
type PriceBreakdown struct {
	Subtotal         decimal.Decimal `json:"subtotal" validate:"required"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Attribution is opaque marketing metadata recorded on materialized orders.
type Attribution map[string]string
