package handler

import (
	"errors"
	"net/http"

	"shop-admin/internal/middleware"
	"shop-admin/internal/model"
	"shop-admin/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler serves /api/auth.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// Login handles POST /api/auth/login. Rejected credentials answer 401 with
// success=false and a message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) && resp != nil {
			writeJSON(w, http.StatusUnauthorized, resp)
			return
		}
		writeServiceError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Profile handles GET /api/auth/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeServiceError(w, model.ErrUnauthorised, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(middleware.BearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}
