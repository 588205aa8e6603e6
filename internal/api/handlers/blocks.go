package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/events"
	"github.com/rental-calendar/backend/internal/storage"
	"github.com/rental-calendar/backend/internal/storage/models"
)

// Block request/response types

type CreateBlockRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// Provenance must be "manual" or "price_override"; external and
	// reservation rows are owned by the synchronizer and the booking flow.
	Provenance string   `json:"provenance"`
	Price      *float64 `json:"price,omitempty"`
	Summary    string   `json:"summary,omitempty"`
}

type CalendarResponse struct {
	ListingID    string                 `json:"listing_id"`
	StartDate    string                 `json:"start_date"`
	EndDate      string                 `json:"end_date"`
	Blocks       []models.CalendarBlock `json:"blocks"`
	Reservations []models.Reservation   `json:"reservations"`
}

// CreateBlock adds a host-created block or price override to a listing.
func CreateBlock(blocks *storage.BlockRepository, listings *storage.ListingRepository, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := mux.Vars(r)["listingID"]
		ctx := r.Context()

		var req CreateBlockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Provenance == "" {
			req.Provenance = models.ProvenanceManual
		}
		if req.Provenance != models.ProvenanceManual && req.Provenance != models.ProvenancePriceOverride {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation,
				"Provenance must be manual or price_override")
			return
		}
		if req.Provenance == models.ProvenancePriceOverride {
			if req.Price == nil || *req.Price < 0 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation,
					"Price overrides require a non-negative price")
				return
			}
		}

		blockRange, err := parseRange(req.StartDate, req.EndDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		listing, err := listings.GetListing(ctx, listingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if listing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Listing not found")
			return
		}

		block := &models.CalendarBlock{
			ListingID:  listingID,
			StartDate:  blockRange.Start,
			EndDate:    blockRange.End,
			Provenance: req.Provenance,
			Price:      req.Price,
		}
		if req.Summary != "" {
			summary := req.Summary
			block.Summary = &summary
		}

		if err := blocks.CreateBlock(ctx, block); err != nil {
			writeDomainError(w, err)
			return
		}

		if publisher != nil {
			publisher.BlockCreated(*block)
		}

		writeJSON(w, http.StatusCreated, block)
	}
}

// DeleteBlock removes a host-owned block. External blocks belong to their
// feed and come back with a permission error, not a 404.
func DeleteBlock(blocks *storage.BlockRepository, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		block, err := blocks.DeleteHostBlock(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if publisher != nil {
			publisher.BlockRemoved(*block)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetCalendar returns the blocks and occupying reservations of a listing
// inside a date window. Defaults to the next 12 months.
func GetCalendar(blocks *storage.BlockRepository, reservations *storage.ReservationRepository, listings *storage.ListingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := mux.Vars(r)["listingID"]
		ctx := r.Context()

		listing, err := listings.GetListing(ctx, listingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if listing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Listing not found")
			return
		}

		now := time.Now().UTC()
		window, err := windowFromQuery(r, now)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		blockList, err := blocks.ListBlocksInWindow(ctx, listingID, window)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resList, err := reservations.ListReservationsInWindow(ctx, listingID, window, now)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if blockList == nil {
			blockList = []models.CalendarBlock{}
		}
		if resList == nil {
			resList = []models.Reservation{}
		}

		writeJSON(w, http.StatusOK, CalendarResponse{
			ListingID:    listingID,
			StartDate:    window.Start.Format(dateLayout),
			EndDate:      window.End.Format(dateLayout),
			Blocks:       blockList,
			Reservations: resList,
		})
	}
}

// ListPriceOverrides returns the price-override blocks touching a window.
func ListPriceOverrides(blocks *storage.BlockRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := mux.Vars(r)["listingID"]

		window, err := windowFromQuery(r, time.Now().UTC())
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		overrides, err := blocks.ListPriceOverrides(r.Context(), listingID, window)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if overrides == nil {
			overrides = []models.CalendarBlock{}
		}

		writeJSON(w, http.StatusOK, overrides)
	}
}

// parseRange builds a validated half-open range from two date strings.
func parseRange(start, end string) (models.DateRange, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return models.DateRange{}, errInvalidDate("start_date")
	}
	endDate, err := parseDate(end)
	if err != nil {
		return models.DateRange{}, errInvalidDate("end_date")
	}

	r := models.NewDateRange(startDate, endDate)
	return r, r.Validate()
}

// windowFromQuery reads optional from/to query params, defaulting to one
// year starting today.
func windowFromQuery(r *http.Request, now time.Time) (models.DateRange, error) {
	start := models.NormalizeDate(now)
	end := start.AddDate(1, 0, 0)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return models.DateRange{}, errInvalidDate("from")
		}
		start = models.NormalizeDate(parsed)
		end = start.AddDate(1, 0, 0)
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := parseDate(v)
		if err != nil {
			return models.DateRange{}, errInvalidDate("to")
		}
		end = models.NormalizeDate(parsed)
	}

	window := models.DateRange{Start: start, End: end}
	return window, window.Validate()
}
