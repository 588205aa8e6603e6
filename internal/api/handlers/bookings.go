package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/booking"
	"github.com/rental-calendar/backend/internal/storage/models"
)

// Booking request/response types

type CreateBookingRequest struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	// QuoteOnly prices the stay without holding the dates.
	QuoteOnly bool `json:"quote_only,omitempty"`
}

type BookingResponse struct {
	Reservation *models.Reservation `json:"reservation,omitempty"`
	Quote       *booking.Quote      `json:"quote"`
}

// CreateBooking prices a stay and, unless quote_only is set, creates a
// payment hold on the dates.
func CreateBooking(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := mux.Vars(r)["listingID"]
		ctx := r.Context()

		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		checkIn, err := parseDate(req.CheckIn)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "check_in must be a YYYY-MM-DD date")
			return
		}
		checkOut, err := parseDate(req.CheckOut)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "check_out must be a YYYY-MM-DD date")
			return
		}

		quote, err := svc.QuoteStay(ctx, listingID, checkIn, checkOut)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if req.QuoteOnly {
			writeJSON(w, http.StatusOK, BookingResponse{Quote: quote})
			return
		}

		res, err := svc.CreateHold(ctx, listingID, checkIn, checkOut)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookingResponse{
			Reservation: res,
			Quote:       quote,
		})
	}
}

// ConfirmBooking records a captured payment against a pending hold.
func ConfirmBooking(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		res, err := svc.ConfirmHold(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
