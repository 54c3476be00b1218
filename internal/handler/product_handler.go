package handler

import (
	"net/http"
	"strings"

	"shop-admin/internal/model"
	"shop-admin/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.CatalogService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := productListParams(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	resp, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/products/{id}.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.ProductRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func productListParams(r *http.Request) (service.ProductListParams, error) {
	q := r.URL.Query()
	params := service.ProductListParams{
		SearchTerm: strings.TrimSpace(q.Get("searchTerm")),
		Category:   strings.TrimSpace(q.Get("category")),
		SortBy:     q.Get("sort"),
	}

	var err error
	if params.MinPrice, err = queryDecimal(r, "minPrice"); err != nil {
		return params, err
	}
	if params.MaxPrice, err = queryDecimal(r, "maxPrice"); err != nil {
		return params, err
	}
	if params.SortOrder, err = querySortOrder(r, "sortOrder"); err != nil {
		return params, err
	}
	if params.Page.Number, err = queryInt(r, "pageNumber"); err != nil {
		return params, err
	}
	if params.Page.Size, err = queryInt(r, "pageSize"); err != nil {
		return params, err
	}
	return params, nil
}
