package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/notifier"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// EventPublisher publishes order lifecycle events after commit.
// Satisfied by broker.EventPublisher.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService is the fulfillment orchestrator: it validates requests,
// reserves inventory, persists orders, and drives status transitions
// that reconcile the ledger.
type OrderService struct {
	store      *store.Store
	publisher  EventPublisher
	dispatcher notifier.Dispatcher
	logger     *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	publisher EventPublisher,
	dispatcher notifier.Dispatcher,
) *OrderService {
	return &OrderService{
		store:      store,
		publisher:  publisher,
		dispatcher: dispatcher,
		logger:     util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to place an order
type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1"`
}

// OrderItemRequest represents one requested line item
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrder atomically validates availability, reserves inventory for
// every line item, and persists the order in PENDING state. Any failure
// rolls the whole transaction back; no partial reservation survives.
// Repeating the call places a second order: creation is not idempotent.
func (s *OrderService) CreateOrder(ctx context.Context, customerID int64, items []OrderItemRequest) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderCreateLatency.Observe(time.Since(start).Seconds())
	}()

	merged, err := mergeItems(items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	customer, err := s.store.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]int64, len(merged))
	for i, item := range merged {
		productIDs[i] = item.ProductID
	}

	var order models.Order

	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		products, err := s.store.GetProductsForUpdate(ctx, tx, productIDs)
		if err != nil {
			return err
		}
		if len(products) != len(merged) {
			return models.ErrProductsNotFound
		}

		byID := make(map[int64]*models.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		var totalAmount int64
		orderItems := make([]models.OrderItem, 0, len(merged))

		for _, item := range merged {
			product := byID[item.ProductID]
			if !product.Available() {
				return fmt.Errorf("product %q: %w", product.Name, models.ErrProductUnavailable)
			}
			if product.StockQuantity < item.Quantity {
				return fmt.Errorf("product %q: %w", product.Name, models.ErrInsufficientStock)
			}

			if err := s.store.ReserveStock(ctx, tx, product.ID, item.Quantity); err != nil {
				return err
			}

			totalAmount += product.Price * int64(item.Quantity)
			orderItems = append(orderItems, models.OrderItem{
				ProductID: product.ID,
				Quantity:  item.Quantity,
				UnitPrice: product.Price,
			})
		}

		order = models.Order{
			CustomerID:  customerID,
			TotalAmount: totalAmount,
			Status:      models.OrderStatusPending,
		}
		if err := s.store.InsertOrder(ctx, tx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range orderItems {
			orderItems[i].OrderID = order.ID
			if err := s.store.InsertOrderItem(ctx, tx, &orderItems[i]); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn("Failed to create order",
			zap.Int64("customer_id", customerID),
			zap.Error(err))
		return nil, err
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", customerID),
		zap.Int64("total_amount", order.TotalAmount))

	view, err := s.store.GetOrderView(ctx, order.ID, nil)
	if err != nil {
		return nil, err
	}

	s.publishOrderPlaced(ctx, view)
	s.notifyOrder(ctx, customer.Name, customer.Email, view, "placed", view.CreatedAt)

	return view, nil
}

// GetOrder returns the populated order view. Non-admin requesters only
// see their own orders; a foreign order reads as not-found.
func (s *OrderService) GetOrder(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.OrderView, error) {
	var owner *int64
	if !isAdmin {
		owner = &requesterID
	}
	return s.store.GetOrderView(ctx, orderID, owner)
}

// ListOrdersForCustomer returns one page of a customer's orders.
func (s *OrderService) ListOrdersForCustomer(ctx context.Context, customerID int64, page, size int) (*models.PagedOrders, error) {
	page, size = normalizePaging(page, size)

	orders, total, err := s.store.ListOrdersByCustomer(ctx, customerID, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return pagedOrders(orders, page, size, total), nil
}

// ListAllOrders returns one page across all customers, optionally
// filtered by status. An unparseable filter is ignored rather than
// rejected, matching the admin listing's lenient contract.
func (s *OrderService) ListAllOrders(ctx context.Context, page, size int, statusFilter string) (*models.PagedOrders, error) {
	page, size = normalizePaging(page, size)

	var status *models.OrderStatus
	if statusFilter != "" {
		if parsed, err := models.ParseOrderStatus(statusFilter); err == nil {
			status = &parsed
		}
	}

	orders, total, err := s.store.ListOrders(ctx, status, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return pagedOrders(orders, page, size, total), nil
}

// CancelOrder cancels a customer's own pending order and returns every
// reserved unit to stock. Ownership is folded into the lookup so a
// foreign order reads as not-found rather than forbidden.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, customerID int64) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	order, items, err := s.store.GetOrderWithItems(ctx, orderID, &customerID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("only pending orders can be cancelled: %w", models.ErrInvalidTransition)
	}

	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.applyTransition(ctx, tx, order, items, models.OrderStatusCancelled)
	})
	if err != nil {
		s.logger.Warn("Failed to cancel order",
			zap.Int64("order_id", orderID),
			zap.Int64("customer_id", customerID),
			zap.Error(err))
		return nil, err
	}

	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("customer_id", customerID))

	view, err := s.store.GetOrderView(ctx, orderID, nil)
	if err != nil {
		return nil, err
	}

	s.publishOrderCancelled(ctx, view, "customer cancellation")
	s.notifyOrder(ctx, view.CustomerName, view.CustomerEmail, view, "cancelled", view.UpdatedAt)

	return view, nil
}

// UpdateOrderStatus is the admin transition entry point. Transitioning
// into CANCELLED releases every line item exactly once; a same-status
// update on a non-cancelled order is an idempotent no-op.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateOrderStatus")
	defer span.End()

	newStatus, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	order, items, err := s.store.GetOrderWithItems(ctx, orderID, nil)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", order.Status, newStatus, models.ErrInvalidTransition)
	}

	if order.Status == newStatus {
		return s.store.GetOrderView(ctx, orderID, nil)
	}

	oldStatus := order.Status
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.applyTransition(ctx, tx, order, items, newStatus)
	})
	if err != nil {
		s.logger.Warn("Failed to update order status",
			zap.Int64("order_id", orderID),
			zap.String("status", string(newStatus)),
			zap.Error(err))
		return nil, err
	}

	util.OrderStatusUpdatesTotal.WithLabelValues(string(newStatus)).Inc()
	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(newStatus)))

	view, err := s.store.GetOrderView(ctx, orderID, nil)
	if err != nil {
		return nil, err
	}

	s.publishStatusChanged(ctx, view, oldStatus, newStatus)
	if newStatus == models.OrderStatusCancelled {
		util.OrdersCancelledTotal.Inc()
		s.publishOrderCancelled(ctx, view, "admin cancellation")
		s.notifyOrder(ctx, view.CustomerName, view.CustomerEmail, view, "cancelled", view.UpdatedAt)
	}

	return view, nil
}

// applyTransition is the single place a status change and its ledger
// effect happen; customer cancellation and admin updates both funnel
// through here so stock can never be credited twice. The guarded update
// serializes concurrent transitions per order: the loser sees a zero
// row count and fails with ErrOrderConflict before touching the ledger.
func (s *OrderService) applyTransition(ctx context.Context, tx *sqlx.Tx, order *models.Order, items []models.OrderItem, to models.OrderStatus) error {
	if !models.CanTransition(order.Status, to) {
		return models.ErrInvalidTransition
	}

	rows, err := s.store.UpdateOrderStatusGuarded(ctx, tx, order.ID, order.Status, to)
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrOrderConflict
	}

	if models.ReleasesStock(order.Status, to) {
		for _, item := range items {
			if err := s.store.ReleaseStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			util.StockReleasedTotal.Add(float64(item.Quantity))
		}
	}
	return nil
}

// mergeItems validates quantities and sums duplicate product IDs into a
// single line item, preserving first-seen order. Summing (rather than
// last-wins) means no requested quantity is ever silently dropped.
func mergeItems(items []OrderItemRequest) ([]OrderItemRequest, error) {
	if len(items) == 0 {
		return nil, models.ErrEmptyOrder
	}

	index := make(map[int64]int, len(items))
	merged := make([]OrderItemRequest, 0, len(items))

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, models.ErrInvalidQuantity)
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

func normalizePaging(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

func pagedOrders(orders []models.Order, page, size, total int) *models.PagedOrders {
	totalPages := (total + size - 1) / size
	return &models.PagedOrders{
		Items:      orders,
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		TotalPages: totalPages,
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrProductsNotFound):
		return "products_not_found"
	case errors.Is(err, models.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, models.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, models.ErrEmptyOrder), errors.Is(err, models.ErrInvalidQuantity):
		return "invalid_items"
	default:
		return "db_error"
	}
}

// notifyOrder dispatches one lifecycle message. Dispatch failures are
// logged and swallowed: the order already committed and its outcome no
// longer depends on the side channel.
func (s *OrderService) notifyOrder(ctx context.Context, name, email string, view *models.OrderView, action string, eventTime time.Time) {
	subject := notifier.OrderSubject(action, view.ID)
	body := notifier.OrderBody(name, view.ID, action, eventTime, view.Items, view.TotalAmount)

	if err := s.dispatcher.Send(ctx, email, subject, body); err != nil {
		util.NotificationsFailedTotal.Inc()
		s.logger.Error("Failed to dispatch order notification",
			zap.Int64("order_id", view.ID),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, view *models.OrderView) {
	items := make([]models.OrderItemData, len(view.Items))
	for i, item := range view.Items {
		items[i] = models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	event := &models.OrderPlacedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderPlaced),
		OrderID:     view.ID,
		CustomerID:  view.CustomerID,
		TotalAmount: view.TotalAmount,
		Items:       items,
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.Int64("order_id", view.ID),
			zap.Error(err))
	}
}

func (s *OrderService) publishOrderCancelled(ctx context.Context, view *models.OrderView, reason string) {
	event := &models.OrderCancelledEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderCancelled),
		OrderID:    view.ID,
		CustomerID: view.CustomerID,
		Reason:     reason,
	}
	if err := s.publisher.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event",
			zap.Int64("order_id", view.ID),
			zap.Error(err))
	}
}

func (s *OrderService) publishStatusChanged(ctx context.Context, view *models.OrderView, from, to models.OrderStatus) {
	event := &models.OrderStatusChangedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:    view.ID,
		CustomerID: view.CustomerID,
		OldStatus:  from,
		NewStatus:  to,
	}
	if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event",
			zap.Int64("order_id", view.ID),
			zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
