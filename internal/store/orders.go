package store

import (
	"context"
	"database/sql"
	"errors"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertOrder persists a new order inside tx and fills in its generated
// id and timestamps.
func (s *Store) InsertOrder(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, total_amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return tx.QueryRowxContext(ctx, query,
		order.CustomerID, order.TotalAmount, order.Status).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// InsertOrderItem persists one line item inside tx.
func (s *Store) InsertOrderItem(ctx context.Context, tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return tx.QueryRowxContext(ctx, query,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice).
		Scan(&item.ID)
}

// GetOrderWithItems loads an order and its line items. When ownerID is
// set the lookup is scoped to that customer, so a foreign order comes
// back as not-found rather than as an authorization failure.
func (s *Store) GetOrderWithItems(ctx context.Context, orderID int64, ownerID *int64) (*models.Order, []models.OrderItem, error) {
	var order models.Order
	var err error

	if ownerID != nil {
		err = s.db.GetContext(ctx, &order,
			"SELECT id, customer_id, total_amount, status, created_at, updated_at FROM orders WHERE id = $1 AND customer_id = $2",
			orderID, *ownerID)
	} else {
		err = s.db.GetContext(ctx, &order,
			"SELECT id, customer_id, total_amount, status, created_at, updated_at FROM orders WHERE id = $1",
			orderID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var items []models.OrderItem
	err = s.db.SelectContext(ctx, &items,
		"SELECT id, order_id, product_id, quantity, unit_price FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID)
	if err != nil {
		return nil, nil, err
	}

	return &order, items, nil
}

// UpdateOrderStatusGuarded moves an order between statuses inside tx,
// guarded on the status the caller observed. A zero row count means a
// concurrent transition won; the caller must treat that as a conflict
// and must not apply any ledger effect.
func (s *Store) UpdateOrderStatusGuarded(ctx context.Context, tx *sqlx.Tx, orderID int64, from, to models.OrderStatus) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetOrderView loads the fully populated order view: customer name and
// email plus item product names. Products are joined without soft-delete
// filters since historical orders must still render after a product is
// removed from the catalog.
func (s *Store) GetOrderView(ctx context.Context, orderID int64, ownerID *int64) (*models.OrderView, error) {
	query := `
		SELECT o.id, o.customer_id, c.name AS customer_name, c.email AS customer_email,
		       o.total_amount, o.status, o.created_at, o.updated_at
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`
	args := []interface{}{orderID}

	if ownerID != nil {
		query += " AND o.customer_id = $2"
		args = append(args, *ownerID)
	}

	var view models.OrderView
	err := s.db.QueryRowxContext(ctx, query, args...).Scan(
		&view.ID, &view.CustomerID, &view.CustomerName, &view.CustomerEmail,
		&view.TotalAmount, &view.Status, &view.CreatedAt, &view.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &view.Items, `
		SELECT oi.product_id, p.name AS product_name, oi.quantity, oi.unit_price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}

	return &view, nil
}

// ListOrdersByCustomer returns one page of a customer's orders, newest
// first, together with the total count.
func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID int64, limit, offset int) ([]models.Order, int, error) {
	var total int
	err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM orders WHERE customer_id = $1", customerID)
	if err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err = s.db.SelectContext(ctx, &orders, `
		SELECT id, customer_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, customerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ListOrders returns one page across all customers, newest first,
// optionally filtered by status.
func (s *Store) ListOrders(ctx context.Context, status *models.OrderStatus, limit, offset int) ([]models.Order, int, error) {
	var total int
	var orders []models.Order

	if status != nil {
		err := s.db.GetContext(ctx, &total,
			"SELECT COUNT(*) FROM orders WHERE status = $1", *status)
		if err != nil {
			return nil, 0, err
		}
		err = s.db.SelectContext(ctx, &orders, `
			SELECT id, customer_id, total_amount, status, created_at, updated_at
			FROM orders
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`, *status, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		return orders, total, nil
	}

	err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM orders")
	if err != nil {
		return nil, 0, err
	}
	err = s.db.SelectContext(ctx, &orders, `
		SELECT id, customer_id, total_amount, status, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
