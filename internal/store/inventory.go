package store

import (
	"context"
	"fmt"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// Inventory ledger. Both operations run on an open transaction so that a
// reservation is only ever persisted together with the order it backs.

// ReserveStock decrements a product's stock counter by quantity. The
// stock_quantity >= quantity guard keeps the counter from going negative
// even if the caller's availability check raced; callers lock the row
// first via GetProductsForUpdate.
func (s *Store) ReserveStock(ctx context.Context, tx *sqlx.Tx, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $1, updated_at = NOW()
		WHERE id = $2 AND stock_quantity >= $1 AND is_active AND deleted_at IS NULL`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to reserve stock for product %d: %w", productID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("product %d: %w", productID, models.ErrInsufficientStock)
	}
	return nil
}

// ReleaseStock returns previously reserved quantity to a product's stock
// counter. No active or soft-delete filter: a product deactivated after
// the order was placed must still get its stock back.
func (s *Store) ReleaseStock(ctx context.Context, tx *sqlx.Tx, productID int64, quantity int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2`,
		quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to release stock for product %d: %w", productID, err)
	}
	return nil
}
