package service

import (
	"context"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/redisclient"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// ProductService serves catalog reads and admin catalog writes. Per-
// product reads go through the Redis cache with a fixed TTL; writes
// invalidate both cache variants. The order orchestrator deliberately
// bypasses this service when reserving stock.
type ProductService struct {
	store  *store.Store
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewProductService creates a new product service. cache may be nil, in
// which case every read goes to the database.
func NewProductService(store *store.Store, cache *redisclient.Client) *ProductService {
	return &ProductService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// GetProduct fetches one product, serving from cache when possible.
// Cache errors degrade to a database read.
func (s *ProductService) GetProduct(ctx context.Context, id int64, includeInactive bool) (*models.Product, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.GetProduct(ctx, id, includeInactive)
		if err != nil {
			s.logger.Warn("Product cache read failed",
				zap.Int64("product_id", id),
				zap.Error(err))
		} else if hit {
			util.ProductCacheHitsTotal.Inc()
			return cached, nil
		}
		util.ProductCacheMissesTotal.Inc()
	}

	product, err := s.store.GetProductByID(ctx, id, includeInactive)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product, includeInactive); err != nil {
			s.logger.Warn("Product cache write failed",
				zap.Int64("product_id", id),
				zap.Error(err))
		}
	}
	return product, nil
}

// ListProducts returns one catalog page. Listings are not cached.
func (s *ProductService) ListProducts(ctx context.Context, params store.ListProductsParams, page, size int) (*models.PagedProducts, error) {
	page, size = normalizePaging(page, size)
	params.Limit = size
	params.Offset = (page - 1) * size

	products, total, err := s.store.ListProducts(ctx, params)
	if err != nil {
		return nil, err
	}

	return &models.PagedProducts{
		Items:      products,
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		TotalPages: (total + size - 1) / size,
	}, nil
}

// CreateProduct adds a catalog product, rejecting a duplicate name
// within the category (soft-deleted rows count as taken).
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	exists, err := s.store.ProductNameExists(ctx, product.Name, product.CategoryID, 0)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrDuplicateProduct
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return err
	}

	s.invalidate(ctx, product.ID)
	s.logger.Info("Product created",
		zap.Int64("product_id", product.ID),
		zap.String("name", product.Name))
	return nil
}

// UpdateProduct overwrites a product's catalog fields and refreshes the
// cache. Existing orders keep their price snapshots untouched.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	exists, err := s.store.ProductNameExists(ctx, product.Name, product.CategoryID, product.ID)
	if err != nil {
		return err
	}
	if exists {
		return models.ErrDuplicateProduct
	}

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return err
	}

	s.invalidate(ctx, product.ID)
	s.logger.Info("Product updated", zap.Int64("product_id", product.ID))
	return nil
}

// DeleteProduct soft-deletes a product. Historical orders referencing
// it remain intact and cancellations still restore its stock.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("Product soft-deleted", zap.Int64("product_id", id))
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProduct(ctx, id); err != nil {
		s.logger.Warn("Product cache invalidation failed",
			zap.Int64("product_id", id),
			zap.Error(err))
	}
}
