package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/service"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers. Authentication lives upstream: the
// gateway resolves the session and forwards identity as X-Customer-ID
// and X-User-Role headers.
type Handler struct {
	orderService   *service.OrderService
	productService *service.ProductService
}

// NewHandler creates a new HTTP handler
func NewHandler(orderService *service.OrderService, productService *service.ProductService) *Handler {
	return &Handler{
		orderService:   orderService,
		productService: productService,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listMyOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.POST("/orders/:id/cancel", h.cancelOrder)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
	}

	admin := router.Group("/api/v1/admin", h.requireAdmin)
	{
		admin.GET("/orders", h.listAllOrders)
		admin.PUT("/orders/:id/status", h.updateOrderStatus)

		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)
	}
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func requesterID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetHeader("X-Customer-ID"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid X-Customer-ID header"})
		return 0, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	return c.GetHeader("X-User-Role") == models.RoleAdmin
}

func (h *Handler) requireAdmin(c *gin.Context) {
	if !isAdmin(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func pagingParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return page, size
}

// writeError maps domain errors to transport responses: not-found to
// 404, conflicts to 409, validation to 400, the rest to 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrCustomerNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrProductsNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrProductUnavailable),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrOrderConflict),
		errors.Is(err, models.ErrDuplicateProduct):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidStatus),
		errors.Is(err, models.ErrEmptyOrder),
		errors.Is(err, models.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *Handler) createOrder(c *gin.Context) {
	customerID, ok := requesterID(c)
	if !ok {
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := h.orderService.CreateOrder(c.Request.Context(), customerID, req.Items)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *Handler) getOrder(c *gin.Context) {
	requester, ok := requesterID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.orderService.GetOrder(c.Request.Context(), orderID, requester, isAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) listMyOrders(c *gin.Context) {
	customerID, ok := requesterID(c)
	if !ok {
		return
	}
	page, size := pagingParams(c)

	result, err := h.orderService.ListOrdersForCustomer(c.Request.Context(), customerID, page, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) cancelOrder(c *gin.Context) {
	customerID, ok := requesterID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	view, err := h.orderService.CancelOrder(c.Request.Context(), orderID, customerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) listAllOrders(c *gin.Context) {
	page, size := pagingParams(c)

	result, err := h.orderService.ListAllOrders(c.Request.Context(), page, size, c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	view, err := h.orderService.UpdateOrderStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) getProduct(c *gin.Context) {
	productID, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), productID, isAdmin(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) listProducts(c *gin.Context) {
	page, size := pagingParams(c)

	params := store.ListProductsParams{
		Search:          c.Query("search"),
		SortBy:          c.Query("sort_by"),
		Ascending:       c.Query("order") == "asc",
		IncludeInactive: isAdmin(c) && c.Query("include_inactive") == "true",
	}
	if raw := c.Query("category_id"); raw != "" {
		if categoryID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			params.CategoryID = &categoryID
		}
	}

	result, err := h.productService.ListProducts(c.Request.Context(), params, page, size)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type productRequest struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	Price         int64  `json:"price" binding:"required,min=0"`
	CategoryID    int64  `json:"category_id" binding:"required"`
	StockQuantity int    `json:"stock_quantity" binding:"min=0"`
	IsActive      bool   `json:"is_active"`
}

func (h *Handler) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product := &models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		StockQuantity: req.StockQuantity,
		IsActive:      req.IsActive,
	}
	if err := h.productService.CreateProduct(c.Request.Context(), product); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *Handler) updateProduct(c *gin.Context) {
	productID, ok := pathID(c)
	if !ok {
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	product := &models.Product{
		ID:            productID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		StockQuantity: req.StockQuantity,
		IsActive:      req.IsActive,
	}
	if err := h.productService.UpdateProduct(c.Request.Context(), product); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	productID, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), productID); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
