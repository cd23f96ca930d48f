package models

import "strings"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus parses a status string case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case OrderStatusPending:
		return OrderStatusPending, nil
	case OrderStatusCompleted:
		return OrderStatusCompleted, nil
	case OrderStatusCancelled:
		return OrderStatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanTransition reports whether an order may move from one status to
// another. A same-status transition on a non-cancelled order is allowed
// as an idempotent no-op; cancelled orders never change again.
func CanTransition(from, to OrderStatus) bool {
	if from == OrderStatusCancelled {
		return false
	}
	if from == to {
		return true
	}
	switch from {
	case OrderStatusPending:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	case OrderStatusCompleted:
		return to == OrderStatusCancelled
	}
	return false
}

// ReleasesStock reports whether moving from one status to another must
// return reserved inventory to the catalog. Only the transition into
// CANCELLED from a stock-holding status releases, and it happens exactly
// once because CANCELLED is terminal.
func ReleasesStock(from, to OrderStatus) bool {
	return to == OrderStatusCancelled && from != OrderStatusCancelled
}
