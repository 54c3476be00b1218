package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shop-admin/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message, Code: code})
}

// writeServiceError maps a service error onto an HTTP status.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, ve.Error(), logger)
		return
	}

	var de *model.DomainError
	if errors.As(err, &de) {
		writeError(w, statusForCode(de.Code), de.Code, de.Message, logger)
		return
	}

	logger.Error().Err(err).Msg("unexpected service error")
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

func statusForCode(code string) int {
	switch code {
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeCategoryNotEmpty:
		return http.StatusConflict
	case model.ErrCodeInvalidCredential, model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeInvalidStatus, model.ErrCodeInvalidQuantity, model.ErrCodeValidation, model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, logger zerolog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", logger)
		return false
	}
	return true
}

// pathID parses the named path wildcard as a positive integer.
func pathID(w http.ResponseWriter, r *http.Request, name string, logger zerolog.Logger) (int, bool) {
	raw := r.PathValue(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, fmt.Sprintf("invalid %s: %q", name, raw), logger)
		return 0, false
	}
	return id, true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, model.NewValidationError(key, "must be a non-negative integer")
	}
	return n, nil
}

// queryDecimal reads an optional decimal query parameter.
func queryDecimal(r *http.Request, key string) (decimal.Decimal, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, model.NewValidationError(key, "must be a number")
	}
	return d, nil
}

// querySortOrder reads an optional asc/desc parameter.
func querySortOrder(r *http.Request, key string) (model.SortOrder, error) {
	switch raw := model.SortOrder(strings.ToLower(r.URL.Query().Get(key))); raw {
	case "":
		return "", nil
	case model.SortAsc, model.SortDesc:
		return raw, nil
	default:
		return "", model.NewValidationError(key, "must be asc or desc")
	}
}
