package store

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/model"
)

// API paths of the shop backend.
const (
	ProductsPath   = "/api/products"
	CategoriesPath = "/api/categories"
	LocationsPath  = "/api/StoreLocation"
	OrdersPath     = "/api/orders"
)

// ErrCategoryNotEmpty is returned when deleting a category that still has
// products. No request is sent.
var ErrCategoryNotEmpty = model.ErrCategoryNotEmpty

// Products is the product Resource Store.
type Products = Store[model.Product]

// Locations is the store-location Resource Store.
type Locations = Store[model.StoreLocation]

// Orders is the order Resource Store.
type Orders = Store[model.Order]

// NewProducts creates the product store. Every filter key is sent.
func NewProducts(api apiclient.Doer, logger zerolog.Logger) *Products {
	return New(Descriptor[model.Product]{
		Name:        "products",
		Path:        ProductsPath,
		Field:       "products",
		EntityField: "product",
		ID:          func(p model.Product) int { return p.ProductID },
		Query:       model.Filter.ProductQuery,
	}, api, logger)
}

// NewLocations creates the store-location store. The list is a bare array.
func NewLocations(api apiclient.Doer, logger zerolog.Logger) *Locations {
	return New(Descriptor[model.StoreLocation]{
		Name: "locations",
		Path: LocationsPath,
		ID:   func(l model.StoreLocation) int { return l.LocationID },
	}, api, logger)
}

// NewOrders creates the order store. Only paging and status are sent.
func NewOrders(api apiclient.Doer, logger zerolog.Logger) *Orders {
	return New(Descriptor[model.Order]{
		Name:        "orders",
		Path:        OrdersPath,
		Field:       "items",
		EntityField: "order",
		ID:          func(o model.Order) int { return o.OrderID },
		Query:       model.Filter.OrderQuery,
	}, api, logger)
}

// Categories is the category Resource Store. It refuses to delete a
// category that still has products.
type Categories struct {
	*Store[model.Category]
	api apiclient.Doer
}

// NewCategories creates the category store. The list takes no query.
func NewCategories(api apiclient.Doer, logger zerolog.Logger) *Categories {
	return &Categories{
		Store: New(Descriptor[model.Category]{
			Name:        "categories",
			Path:        CategoriesPath,
			Field:       "categories",
			EntityField: "category",
			ID:          func(c model.Category) int { return c.CategoryID },
		}, api, logger),
		api: api,
	}
}

// Detail fetches a category with its nested products.
func (c *Categories) Detail(ctx context.Context, id int) (model.CategoryDetail, error) {
	resp, err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: CategoriesPath + "/" + strconv.Itoa(id)})
	if err != nil {
		return model.CategoryDetail{}, err
	}
	detail, err := DecodeEntity[model.CategoryDetail](resp.Body, "category")
	if err != nil {
		return model.CategoryDetail{}, &apiclient.NetworkError{Message: err.Error(), Err: err}
	}
	if detail.ProductCount == 0 {
		detail.ProductCount = len(detail.Products)
	}
	return detail, nil
}

// Delete removes an empty category. The product count comes from the
// loaded list, or from the server when the category is not loaded.
func (c *Categories) Delete(ctx context.Context, id int) error {
	category, ok := c.Find(id)
	if !ok {
		detail, err := c.Detail(ctx, id)
		if err != nil {
			return err
		}
		category = detail.Category
	}
	if category.ProductCount > 0 {
		return fmt.Errorf("category %q has %d products: %w", category.CategoryName, category.ProductCount, ErrCategoryNotEmpty)
	}
	return c.Store.Delete(ctx, id)
}
