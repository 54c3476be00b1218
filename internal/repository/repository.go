package repository

import (
	"context"

	"shop-admin/internal/model"

	"github.com/shopspring/decimal"
)

// ProductQuery selects a page of products. Zero values are not applied.
type ProductQuery struct {
	SearchTerm string
	Category   string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	SortBy     string
	SortOrder  model.SortOrder
	Limit      int
	Offset     int
}

// OrderQuery selects a page of orders. A zero Status matches every order.
type OrderQuery struct {
	Status model.OrderStatusCode
	Limit  int
	Offset int
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// List returns one page of matching products and the total match count.
	List(ctx context.Context, q ProductQuery) ([]model.Product, int, error)

	// GetByID retrieves a single product. A missing product is (nil, nil).
	GetByID(ctx context.Context, id int) (*model.Product, error)

	// Create inserts p and assigns its ProductID.
	Create(ctx context.Context, p *model.Product) error

	// Update overwrites the stored product. Returns model.ErrNotFound when absent.
	Update(ctx context.Context, p *model.Product) error

	// Delete removes a product. Returns model.ErrNotFound when absent.
	Delete(ctx context.Context, id int) error
}

// CategoryRepository defines the interface for category data access operations.
// ProductCount is always derived from the products table.
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id int) (*model.Category, error)
	Products(ctx context.Context, categoryID int) ([]model.CategoryProduct, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id int) error
}

// LocationRepository defines the interface for store location data access.
type LocationRepository interface {
	List(ctx context.Context) ([]model.StoreLocation, error)
	GetByID(ctx context.Context, id int) (*model.StoreLocation, error)
	Create(ctx context.Context, l *model.StoreLocation) error
	Update(ctx context.Context, l *model.StoreLocation) error
	Delete(ctx context.Context, id int) error
}

// OrderRepository defines the interface for order and status-history data
// access. Orders returned carry CurrentStatus and CurrentStatusDescription
// copied from their most recent status record.
type OrderRepository interface {
	// List returns one page of matching orders, newest first, and the total.
	List(ctx context.Context, q OrderQuery) ([]model.Order, int, error)

	// GetByID retrieves an order with its details. A missing order is (nil, nil).
	GetByID(ctx context.Context, id int) (*model.Order, error)

	// Create inserts the order and its details, assigning all IDs.
	Create(ctx context.Context, o *model.Order) error

	// Update changes the billing address and payment method.
	Update(ctx context.Context, id int, req model.OrderUpdateRequest) error

	// Delete removes the order together with its details and history.
	Delete(ctx context.Context, id int) error

	// ListStatuses returns an order's history ordered by UpdatedAt ascending.
	ListStatuses(ctx context.Context, orderID int) ([]model.OrderStatus, error)

	// AppendStatus inserts s, assigning OrderStatusID and UpdatedAt.
	AppendStatus(ctx context.Context, s *model.OrderStatus) error

	// UpdateStatus changes status and description of an existing record.
	// UpdatedAt is left unchanged.
	UpdateStatus(ctx context.Context, s *model.OrderStatus) error

	// DeleteStatus removes one record of an order's history.
	DeleteStatus(ctx context.Context, orderID, statusID int) error
}
