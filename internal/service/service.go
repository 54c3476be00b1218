package service

import (
	"context"

	"shop-admin/internal/model"

	"github.com/shopspring/decimal"
)

// Paging defaults shared by the list endpoints.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a requested page; zero values fall back to the defaults.
type Page struct {
	Number int
	Size   int
}

// normalize clamps the page into the accepted range.
func (p Page) normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

// totalPages is never less than one so an empty list still has a page.
func totalPages(total, size int) int {
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ProductListParams carries the product list query.
type ProductListParams struct {
	SearchTerm string
	Category   string
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	SortBy     string
	SortOrder  model.SortOrder
	Page       Page
}

// OrderListParams carries the order list query.
type OrderListParams struct {
	Status model.OrderStatusCode
	Page   Page
}

// CatalogService defines business logic for products and categories.
type CatalogService interface {
	ListProducts(ctx context.Context, params ProductListParams) (*model.ProductListResponse, error)
	GetProduct(ctx context.Context, id int) (*model.Product, error)
	CreateProduct(ctx context.Context, req model.ProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int, req model.ProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int) error

	ListCategories(ctx context.Context) (*model.CategoryListResponse, error)
	GetCategory(ctx context.Context, id int) (*model.CategoryDetail, error)
	CreateCategory(ctx context.Context, req model.CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int, req model.CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

// LocationService defines business logic for store locations.
type LocationService interface {
	List(ctx context.Context) ([]model.StoreLocation, error)
	Get(ctx context.Context, id int) (*model.StoreLocation, error)
	Create(ctx context.Context, req model.StoreLocationRequest) (*model.StoreLocation, error)
	Update(ctx context.Context, id int, req model.StoreLocationRequest) (*model.StoreLocation, error)
	Delete(ctx context.Context, id int) error
}

// OrderService defines business logic for orders and their status history.
type OrderService interface {
	List(ctx context.Context, params OrderListParams) (*model.OrderListResponse, error)
	Get(ctx context.Context, id int) (*model.Order, error)
	Create(ctx context.Context, req *model.OrderRequest) (*model.Order, error)
	Update(ctx context.Context, id int, req model.OrderUpdateRequest) (*model.Order, error)
	Delete(ctx context.Context, id int) error

	Statuses(ctx context.Context, orderID int, order model.SortOrder) ([]model.OrderStatus, error)
	AppendStatus(ctx context.Context, orderID int, body model.AppendStatusBody) (*model.OrderStatus, error)
	EditStatus(ctx context.Context, orderID, statusID int, body model.EditStatusBody) (*model.OrderStatus, error)
	RemoveStatus(ctx context.Context, orderID, statusID int) error
}

// AuthService defines operator login and token checks.
type AuthService interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error)
	Authenticate(token string) (*model.User, error)
	Logout(token string)
}
