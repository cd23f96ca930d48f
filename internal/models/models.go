package models

import "time"

// Product represents a catalog product. Prices are integer cents.
// A product is unavailable for ordering when it is inactive, soft-deleted,
// or short on stock.
type Product struct {
	ID            int64      `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Description   string     `db:"description" json:"description,omitempty"`
	Price         int64      `db:"price" json:"price"`
	CategoryID    int64      `db:"category_id" json:"category_id"`
	StockQuantity int        `db:"stock_quantity" json:"stock_quantity"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Available reports whether the product can be ordered at all,
// independent of the requested quantity.
func (p *Product) Available() bool {
	return p.IsActive && p.DeletedAt == nil
}

// Customer represents a storefront customer.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order represents a customer order. TotalAmount is fixed at creation
// as the sum of line totals and never recomputed.
type Order struct {
	ID          int64       `db:"id" json:"id"`
	CustomerID  int64       `db:"customer_id" json:"customer_id"`
	TotalAmount int64       `db:"total_amount" json:"total_amount"`
	Status      OrderStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line item of an order. UnitPrice is the price snapshot
// taken at order creation; later catalog price edits never touch it.
type OrderItem struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
}

// OrderItemView is a line item with the product name resolved for display.
type OrderItemView struct {
	ProductID   int64  `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
}

// OrderView is the fully populated order returned to callers.
type OrderView struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email"`
	TotalAmount   int64           `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []OrderItemView `json:"items"`
}

// PagedOrders is a page of orders with paging metadata.
type PagedOrders struct {
	Items      []Order `json:"items"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalCount int     `json:"total_count"`
	TotalPages int     `json:"total_pages"`
}

// Customer roles
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// PagedProducts is a page of catalog products with paging metadata.
type PagedProducts struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int       `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}
