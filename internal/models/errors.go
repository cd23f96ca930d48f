package models

import "errors"

// Domain errors shared by the store, service, and API layers. The API
// translates them to transport responses with errors.Is.
var (
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductsNotFound   = errors.New("one or more products were not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrOrderConflict      = errors.New("order was modified concurrently")
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrDuplicateProduct   = errors.New("product already exists in this category")
)
