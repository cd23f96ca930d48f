package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fulfillment-service/internal/models"
)

// Catalog queries. Soft delete is an explicit includeInactive parameter
// on every query rather than an ambient filter: admin paths opt in to
// seeing deactivated and soft-deleted rows, everything else does not.

// ListProductsParams narrows and pages the catalog listing.
type ListProductsParams struct {
	Search          string
	CategoryID      *int64
	SortBy          string
	Ascending       bool
	IncludeInactive bool
	Limit           int
	Offset          int
}

// GetProductByID fetches one product.
func (s *Store) GetProductByID(ctx context.Context, id int64, includeInactive bool) (*models.Product, error) {
	query := `
		SELECT id, name, description, price, category_id, stock_quantity, is_active, created_at, updated_at, deleted_at
		FROM products
		WHERE id = $1`
	if !includeInactive {
		query += " AND deleted_at IS NULL AND is_active"
	}

	var product models.Product
	err := s.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns one catalog page plus the total count.
func (s *Store) ListProducts(ctx context.Context, params ListProductsParams) ([]models.Product, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if !params.IncludeInactive {
		where += " AND deleted_at IS NULL AND is_active"
	}
	if params.Search != "" {
		where += fmt.Sprintf(" AND name ILIKE $%d", argIndex)
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}
	if params.CategoryID != nil {
		where += fmt.Sprintf(" AND category_id = $%d", argIndex)
		args = append(args, *params.CategoryID)
		argIndex++
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM products"+where, args...); err != nil {
		return nil, 0, err
	}

	dir := "DESC"
	if params.Ascending {
		dir = "ASC"
	}
	orderBy := "name " + dir
	switch params.SortBy {
	case "price":
		orderBy = "price " + dir
	case "created_at":
		orderBy = "created_at " + dir
	case "stock_quantity":
		orderBy = "stock_quantity " + dir
	}

	query := `
		SELECT id, name, description, price, category_id, stock_quantity, is_active, created_at, updated_at, deleted_at
		FROM products` + where +
		fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", orderBy, argIndex, argIndex+1)
	args = append(args, params.Limit, params.Offset)

	var products []models.Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// CreateProduct inserts a catalog product and fills in its generated id
// and timestamps.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (name, description, price, category_id, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		product.Name, product.Description, product.Price,
		product.CategoryID, product.StockQuantity, product.IsActive).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

// UpdateProduct overwrites a product's catalog fields. Reactivating a
// product clears its soft-delete marker; deactivating one sets it.
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, category_id = $4,
		    stock_quantity = $5, is_active = $6,
		    deleted_at = CASE WHEN $6 THEN NULL ELSE COALESCE(deleted_at, NOW()) END,
		    updated_at = NOW()
		WHERE id = $7`,
		product.Name, product.Description, product.Price, product.CategoryID,
		product.StockQuantity, product.IsActive, product.ID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// SoftDeleteProduct marks a product deleted and inactive without
// touching historical orders that reference it.
func (s *Store) SoftDeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET is_active = FALSE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// ProductNameExists reports whether another product in the category
// already carries the name, soft-deleted rows included.
func (s *Store) ProductNameExists(ctx context.Context, name string, categoryID int64, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE name = $1 AND category_id = $2 AND id <> $3)",
		name, categoryID, excludeID)
	return exists, err
}
