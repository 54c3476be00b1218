package handler

import (
	"net/http"

	"shop-admin/internal/model"
	"shop-admin/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// List handles GET /api/orders?pageNumber=&pageSize=&status=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var params service.OrderListParams
	var err error
	if params.Page.Number, err = queryInt(r, "pageNumber"); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if params.Page.Size, err = queryInt(r, "pageSize"); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		if params.Status, err = model.ParseOrderStatus(raw); err != nil {
			writeServiceError(w, err, h.logger)
			return
		}
	}

	resp, err := h.service.List(r.Context(), params)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Update handles PUT /api/orders/{id}.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.OrderUpdateRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	order, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Delete handles DELETE /api/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statuses handles GET /api/orders/{id}/status/all?sort=asc|desc and
// returns the history as a bare array.
func (h *OrderHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	order, err := querySortOrder(r, "sort")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	history, err := h.service.Statuses(r.Context(), id, order)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// AppendStatus handles POST /api/orders/{id}/status.
func (h *OrderHandler) AppendStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var body model.AppendStatusBody
	if !decodeBody(w, r, &body, h.logger) {
		return
	}
	record, err := h.service.AppendStatus(r.Context(), id, body)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// EditStatus handles PUT /api/orders/{id}/status/{statusId}.
func (h *OrderHandler) EditStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	statusID, ok := pathID(w, r, "statusId", h.logger)
	if !ok {
		return
	}
	var body model.EditStatusBody
	if !decodeBody(w, r, &body, h.logger) {
		return
	}
	record, err := h.service.EditStatus(r.Context(), id, statusID, body)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// RemoveStatus handles DELETE /api/orders/{id}/status/{statusId}.
func (h *OrderHandler) RemoveStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	statusID, ok := pathID(w, r, "statusId", h.logger)
	if !ok {
		return
	}
	if err := h.service.RemoveStatus(r.Context(), id, statusID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
