package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"plombir/service"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// writeError maps err to a status code by its kind. Unclassified errors are
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: message})
}

func classify(err error) (int, string) {
	message := service.PublicMessage(err)
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		if errors.Is(err, service.ErrInvalidInitData) {
			return http.StatusUnauthorized, message
		}
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, message
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, message
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrConflict):
		if errors.Is(err, service.ErrInvalidInput) && message == "Internal server error" {
			return http.StatusBadRequest, "Invalid request"
		}
		return http.StatusBadRequest, message
	default:
		return http.StatusInternalServerError, message
	}
}

// decodeJSON reads the request body into dst, reporting malformed bodies as invalid input
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}
	return nil
}
