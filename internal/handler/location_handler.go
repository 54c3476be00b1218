package handler

import (
	"net/http"

	"shop-admin/internal/model"
	"shop-admin/internal/service"

	"github.com/rs/zerolog"
)

// LocationHandler serves /api/StoreLocation.
type LocationHandler struct {
	service service.LocationService
	logger  zerolog.Logger
}

// NewLocationHandler creates a new store location handler.
func NewLocationHandler(service service.LocationService, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		service: service,
		logger:  logger.With().Str("handler", "location").Logger(),
	}
}

// List returns every store location as a bare array.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	location, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.StoreLocationRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	location, err := h.service.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, location)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}
	var req model.StoreLocationRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	location, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, location)
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
