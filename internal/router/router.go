package router

import (
	"net/http"

	"shop-admin/internal/handler"
	"shop-admin/internal/middleware"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups the resource handlers served by the API.
type Handlers struct {
	Products   *handler.ProductHandler
	Categories *handler.CategoryHandler
	Locations  *handler.LocationHandler
	Orders     *handler.OrderHandler
	Auth       *handler.AuthHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// HTTP metrics are registered with reg and exposed on /metrics.
func New(h Handlers, auth middleware.Authenticator, reg *prometheus.Registry, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("GET /api/auth/profile", h.Auth.Profile)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)

	mux.HandleFunc("GET /api/products", h.Products.List)
	mux.HandleFunc("POST /api/products", h.Products.Create)
	mux.HandleFunc("GET /api/products/{id}", h.Products.Get)
	mux.HandleFunc("PUT /api/products/{id}", h.Products.Update)
	mux.HandleFunc("DELETE /api/products/{id}", h.Products.Delete)

	mux.HandleFunc("GET /api/categories", h.Categories.List)
	mux.HandleFunc("POST /api/categories", h.Categories.Create)
	mux.HandleFunc("GET /api/categories/{id}", h.Categories.Get)
	mux.HandleFunc("PUT /api/categories/{id}", h.Categories.Update)
	mux.HandleFunc("DELETE /api/categories/{id}", h.Categories.Delete)

	mux.HandleFunc("GET /api/StoreLocation", h.Locations.List)
	mux.HandleFunc("POST /api/StoreLocation", h.Locations.Create)
	mux.HandleFunc("GET /api/StoreLocation/{id}", h.Locations.Get)
	mux.HandleFunc("PUT /api/StoreLocation/{id}", h.Locations.Update)
	mux.HandleFunc("DELETE /api/StoreLocation/{id}", h.Locations.Delete)

	mux.HandleFunc("GET /api/orders", h.Orders.List)
	mux.HandleFunc("POST /api/orders", h.Orders.Create)
	mux.HandleFunc("GET /api/orders/{id}", h.Orders.Get)
	mux.HandleFunc("PUT /api/orders/{id}", h.Orders.Update)
	mux.HandleFunc("DELETE /api/orders/{id}", h.Orders.Delete)

	mux.HandleFunc("GET /api/orders/{id}/status/all", h.Orders.Statuses)
	mux.HandleFunc("POST /api/orders/{id}/status", h.Orders.AppendStatus)
	mux.HandleFunc("PUT /api/orders/{id}/status/{statusId}", h.Orders.EditStatus)
	mux.HandleFunc("DELETE /api/orders/{id}/status/{statusId}", h.Orders.RemoveStatus)

	// Metrics wrap the mux directly so the matched pattern is visible.
	// Then: Recovery -> RequestID -> Logging -> CORS -> BearerAuth
	var handler http.Handler = middleware.NewHTTPMetrics(reg).Handler(mux)
	handler = middleware.BearerAuth(auth, logger)(handler)
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
