package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"fulfillment-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewStoreWithDB(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec("UPDATE orders SET updated_at = NOW()")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerByID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, role, created_at FROM customers WHERE id = $1 AND role = $2")).
		WithArgs(int64(7), models.RoleCustomer).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}).
			AddRow(int64(7), "Ada", "ada@example.com", models.RoleCustomer, now))

	customer, err := store.GetCustomerByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), customer.ID)
	assert.Equal(t, "ada@example.com", customer.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCustomerByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, name, email, role, created_at FROM customers").
		WithArgs(int64(99), models.RoleCustomer).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "created_at"}))

	_, err := store.GetCustomerByID(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrCustomerNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func productColumns() []string {
	return []string{"id", "name", "description", "price", "category_id", "stock_quantity", "is_active", "created_at", "updated_at", "deleted_at"}
}

func TestGetProductsForUpdate(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(int64(3), int64(5)).
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(int64(3), "Beans", "dark roast", int64(1250), int64(1), 10, true, now, now, nil).
			AddRow(int64(5), "Grinder", "", int64(9900), int64(1), 2, true, now, now, nil))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		products, err := store.GetProductsForUpdate(context.Background(), tx, []int64{3, 5})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, int64(3), products[0].ID)
		assert.Equal(t, int64(1250), products[0].Price)
		assert.Equal(t, 2, products[1].StockQuantity)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductsForUpdateEmptyIDs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx *sqlx.Tx) error {
		products, err := store.GetProductsForUpdate(context.Background(), tx, nil)
		require.NoError(t, err)
		assert.Empty(t, products)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
