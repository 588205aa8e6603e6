package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/storage/models"
)

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeDomainError maps the storage and service sentinel errors onto the
// API error envelope. Anything unrecognized is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
	case errors.Is(err, models.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
	case errors.Is(err, models.ErrConflict):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
	case errors.Is(err, models.ErrPermissionDenied):
		middleware.WriteError(w, http.StatusForbidden, middleware.ErrForbidden, err.Error())
	case errors.Is(err, models.ErrUpstream):
		middleware.WriteError(w, http.StatusBadGateway, middleware.ErrUpstream, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "An unexpected error occurred")
	}
}

// parseDate parses a YYYY-MM-DD value from a request.
func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

func errInvalidDate(field string) error {
	return fmt.Errorf("%w: %s must be a YYYY-MM-DD date", models.ErrValidation, field)
}
