// Package app assembles the mock shop API from its repositories.
package app

import (
	"net/http"

	"shop-admin/internal/config"
	"shop-admin/internal/events"
	"shop-admin/internal/handler"
	"shop-admin/internal/repository"
	"shop-admin/internal/router"
	"shop-admin/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Repositories is the persistence the API runs on.
type Repositories struct {
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Locations  repository.LocationRepository
	Orders     repository.OrderRepository
}

// MemoryRepositories returns the views of an in-memory store.
func MemoryRepositories(m *repository.Memory) Repositories {
	return Repositories{
		Products:   m.Products(),
		Categories: m.Categories(),
		Locations:  m.Locations(),
		Orders:     m.Orders(),
	}
}

// Options configures New.
type Options struct {
	Operator  config.OperatorConfig
	Publisher events.Publisher
	Registry  *prometheus.Registry
	Logger    zerolog.Logger
}

// New wires services, handlers and the router.
func New(repos Repositories, opts Options) http.Handler {
	logger := opts.Logger
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	catalog := service.NewCatalogService(repos.Products, repos.Categories, logger)
	locations := service.NewLocationService(repos.Locations, logger)
	orders := service.NewOrderService(repos.Orders, repos.Products, opts.Publisher, logger)
	auth := service.NewAuthService(opts.Operator, logger)

	return router.New(router.Handlers{
		Products:   handler.NewProductHandler(catalog, logger),
		Categories: handler.NewCategoryHandler(catalog, logger),
		Locations:  handler.NewLocationHandler(locations, logger),
		Orders:     handler.NewOrderHandler(orders, logger),
		Auth:       handler.NewAuthHandler(auth, logger),
	}, auth, reg, logger)
}
