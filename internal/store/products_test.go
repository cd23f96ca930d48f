package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"fulfillment-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProductByIDFiltersInactive(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("WHERE id = \\$1 AND deleted_at IS NULL AND is_active").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(productColumns()))

	_, err := store.GetProductByID(context.Background(), 10, false)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductByIDIncludeInactive(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("WHERE id = \\$1$").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(int64(10), "Beans", "", int64(1000), int64(1), 5, false, now, now, now))

	product, err := store.GetProductByID(context.Background(), 10, true)
	require.NoError(t, err)
	assert.False(t, product.IsActive)
	require.NotNil(t, product.DeletedAt)
	assert.False(t, product.Available())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsWithFilters(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()
	category := int64(3)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products")).
		WithArgs("%bean%", category).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("ORDER BY price ASC LIMIT \\$3 OFFSET \\$4").
		WithArgs("%bean%", category, 20, 0).
		WillReturnRows(sqlmock.NewRows(productColumns()).
			AddRow(int64(10), "Beans", "", int64(1000), category, 5, true, now, now, nil))

	products, total, err := store.ListProducts(context.Background(), ListProductsParams{
		Search:     "bean",
		CategoryID: &category,
		SortBy:     "price",
		Ascending:  true,
		Limit:      20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "Beans", products[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProductsUnknownSortFallsBackToName(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("ORDER BY name DESC LIMIT \\$1 OFFSET \\$2").
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(productColumns()))

	_, _, err := store.ListProducts(context.Background(), ListProductsParams{
		SortBy: "id; DROP TABLE products",
		Limit:  20,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteProductNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("SET is_active = FALSE, deleted_at = NOW\\(\\)").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.SoftDeleteProduct(context.Background(), 99)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductNameExists(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM products WHERE name = $1 AND category_id = $2 AND id <> $3)")).
		WithArgs("Beans", int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.ProductNameExists(context.Background(), "Beans", 1, 10)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
