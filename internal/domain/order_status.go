package domain

import "errors"

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// orderTransitions is the full transition table. Cancellation is only
// reachable while the order is pending or processing; delivered and
// cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TargetForPayment maps a validated gateway payment status onto the
// lifecycle. The second result is false when the order must not move:
// the state machine only ever advances, so a late "pending" or
// "rejected" notification never regresses an order that already
// settled.
func TargetForPayment(ps PaymentStatus, current OrderStatus) (OrderStatus, bool) {
	switch ps {
	case PaymentStatusApproved:
		if current == OrderStatusPending {
			return OrderStatusProcessing, true
		}
	case PaymentStatusRejected, PaymentStatusCancelled:
		if current == OrderStatusPending {
			return OrderStatusCancelled, true
		}
	case PaymentStatusPending, PaymentStatusInProcess:
		// not settled yet, nothing to apply
	}

	return current, false
}
