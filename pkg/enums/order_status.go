package enums

import "fmt"

// OrderStatus tracks the canonical lifecycle of a marketplace order.
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "pending"
	OrderStatusPaid         OrderStatus = "paid"
	OrderStatusConfirmed    OrderStatus = "confirmed"
	OrderStatusShipped      OrderStatus = "shipped"
	OrderStatusDelivered    OrderStatus = "delivered"
	OrderStatusCancelled    OrderStatus = "cancelled"
	OrderStatusRTOInitiated OrderStatus = "rto_initiated"
	OrderStatusRTODelivered OrderStatus = "rto_delivered"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRTOInitiated,
	OrderStatusRTODelivered,
}

// orderStatusTransitions is the table of reachable next states. Cancellation
// and RTO are reachable from confirmed/shipped because the courier aggregator
// reports them at any point after dispatch.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:      {OrderStatusPaid},
	OrderStatusPaid:         {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:    {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusRTOInitiated},
	OrderStatusShipped:      {OrderStatusDelivered, OrderStatusCancelled, OrderStatusRTOInitiated, OrderStatusRTODelivered},
	OrderStatusRTOInitiated: {OrderStatusRTODelivered, OrderStatusCancelled},
	OrderStatusDelivered:    {},
	OrderStatusCancelled:    {},
	OrderStatusRTODelivered: {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition leaves the status.
func (o OrderStatus) IsTerminal() bool {
	next, ok := orderStatusTransitions[o]
	return ok && len(next) == 0
}

// CanTransition reports whether moving from -> to is an allowed step.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	for _, candidate := range orderStatusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
