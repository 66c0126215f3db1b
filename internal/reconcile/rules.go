package reconcile

import (
	"strings"

	"github.com/d2bmarket/d2b-backend/pkg/enums"
)

// Signal aggregates everything the courier aggregator reported about one
// shipment. The tracking endpoint and the order search frequently disagree,
// so resolution looks at all three fields.
type Signal struct {
	// TrackingStatusCode is the aggregator's numeric shipment status.
	TrackingStatusCode int
	// CurrentStatus is the free-text status from the tracking endpoint.
	CurrentStatus string
	// OrderSearchStatus is the status string from the order list/search.
	OrderSearchStatus string
}

// Aggregator numeric shipment status codes with a direct mapping.
const (
	codeShipped      = 6
	codeDelivered    = 7
	codeRTOInitiated = 9
	codeRTODelivered = 10
)

// statusRule pairs a predicate with the canonical status it resolves to.
// Rules are evaluated in order; the first match wins.
type statusRule struct {
	name   string
	match  func(Signal) bool
	target enums.OrderStatus
}

var statusRules = []statusRule{
	{
		// Any mention of cancellation anywhere beats every other signal.
		name: "cancelled_anywhere",
		match: func(s Signal) bool {
			return containsFold(s.CurrentStatus, "CANCEL") || containsFold(s.OrderSearchStatus, "CANCEL")
		},
		target: enums.OrderStatusCancelled,
	},
	{
		// An aggregator order sitting at NEW was voided before dispatch:
		// treated as cancelled, not pending.
		name: "aggregator_order_new",
		match: func(s Signal) bool {
			return strings.EqualFold(strings.TrimSpace(s.OrderSearchStatus), "NEW")
		},
		target: enums.OrderStatusCancelled,
	},
	{
		name:   "code_delivered",
		match:  func(s Signal) bool { return s.TrackingStatusCode == codeDelivered },
		target: enums.OrderStatusDelivered,
	},
	{
		name:   "code_shipped",
		match:  func(s Signal) bool { return s.TrackingStatusCode == codeShipped },
		target: enums.OrderStatusShipped,
	},
	{
		name:   "code_rto_initiated",
		match:  func(s Signal) bool { return s.TrackingStatusCode == codeRTOInitiated },
		target: enums.OrderStatusRTOInitiated,
	},
	{
		name:   "code_rto_delivered",
		match:  func(s Signal) bool { return s.TrackingStatusCode == codeRTODelivered },
		target: enums.OrderStatusRTODelivered,
	},
	{
		name: "text_delivered",
		match: func(s Signal) bool {
			return containsFold(s.CurrentStatus, "DELIVERED") && !containsFold(s.CurrentStatus, "RTO")
		},
		target: enums.OrderStatusDelivered,
	},
	{
		name: "text_rto_delivered",
		match: func(s Signal) bool {
			return containsFold(s.CurrentStatus, "RTO") && containsFold(s.CurrentStatus, "DELIVERED")
		},
		target: enums.OrderStatusRTODelivered,
	},
	{
		name:   "text_rto_initiated",
		match:  func(s Signal) bool { return containsFold(s.CurrentStatus, "RTO") },
		target: enums.OrderStatusRTOInitiated,
	},
	{
		name: "text_in_transit",
		match: func(s Signal) bool {
			return containsFold(s.CurrentStatus, "SHIPPED") ||
				containsFold(s.CurrentStatus, "TRANSIT") ||
				containsFold(s.CurrentStatus, "PICKED UP")
		},
		target: enums.OrderStatusShipped,
	},
	{
		name:   "text_ready_to_ship",
		match:  func(s Signal) bool { return containsFold(s.CurrentStatus, "READY TO SHIP") },
		target: enums.OrderStatusConfirmed,
	},
}

// Resolve maps an aggregator signal onto the canonical order status. The
// second return is false when no rule matched, meaning the stored status
// stays as it is.
func Resolve(signal Signal) (enums.OrderStatus, bool) {
	for _, rule := range statusRules {
		if rule.match(signal) {
			return rule.target, true
		}
	}
	return "", false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToUpper(haystack), needle)
}
