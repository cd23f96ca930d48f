package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection. Used by tests.
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction. The transaction is rolled back on
// error and on panic; it commits only when fn returns nil. Every
// multi-step mutation in this service goes through here, so a stock
// reservation can never outlive an uncommitted order.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCustomerByID resolves a customer identity, scoped to the customer role.
func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer,
		"SELECT id, name, email, role, created_at FROM customers WHERE id = $1 AND role = $2",
		id, models.RoleCustomer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetProductsForUpdate fetches the given products inside tx with row-level
// locks, skipping soft-deleted rows. Rows are locked in id order so two
// concurrent orders over the same products cannot deadlock, and the lock
// closes the gap between the availability check and the decrement.
func (s *Store) GetProductsForUpdate(ctx context.Context, tx *sqlx.Tx, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, name, description, price, category_id, stock_quantity, is_active, created_at, updated_at, deleted_at
		FROM products
		WHERE id IN (?) AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var products []models.Product
	err = tx.SelectContext(ctx, &products, query, args...)
	return products, err
}
