package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/storage"
	"github.com/rental-calendar/backend/internal/storage/models"
)

type ListingRequest struct {
	Name        string  `json:"name"`
	BasePrice   float64 `json:"base_price"`
	CleaningFee float64 `json:"cleaning_fee"`
	ServiceFee  float64 `json:"service_fee"`
	TaxRate     float64 `json:"tax_rate"`
}

func (req *ListingRequest) validate() string {
	switch {
	case req.Name == "":
		return "Name is required"
	case req.BasePrice < 0 || req.CleaningFee < 0 || req.ServiceFee < 0:
		return "Prices and fees must be non-negative"
	case req.TaxRate < 0 || req.TaxRate >= 1:
		return "Tax rate must be in [0, 1)"
	default:
		return ""
	}
}

// ListListings returns all listings.
func ListListings(listings *storage.ListingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := listings.List(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if list == nil {
			list = []models.Listing{}
		}

		writeJSON(w, http.StatusOK, list)
	}
}

// CreateListing registers a listing and mints its export token.
func CreateListing(listings *storage.ListingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		listing := &models.Listing{
			Name:        req.Name,
			BasePrice:   req.BasePrice,
			CleaningFee: req.CleaningFee,
			ServiceFee:  req.ServiceFee,
			TaxRate:     req.TaxRate,
		}
		if err := listings.Create(r.Context(), listing); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, listing)
	}
}

// GetListing returns a single listing.
func GetListing(listings *storage.ListingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := listings.GetListing(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if listing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Listing not found")
			return
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// UpdateListing updates a listing's name and pricing fields.
func UpdateListing(listings *storage.ListingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		var req ListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		listing, err := listings.GetListing(ctx, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if listing == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Listing not found")
			return
		}

		listing.Name = req.Name
		listing.BasePrice = req.BasePrice
		listing.CleaningFee = req.CleaningFee
		listing.ServiceFee = req.ServiceFee
		listing.TaxRate = req.TaxRate

		if err := listings.Update(ctx, listing); err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// RotateExportToken invalidates a listing's export URL and mints a new one.
func RotateExportToken(listings *storage.ListingRepository, exportHost string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		if _, err := listings.RotateToken(ctx, id); err != nil {
			writeDomainError(w, err)
			return
		}

		listing, err := listings.GetListing(ctx, id)
		if err != nil || listing == nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to reload listing")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"export_url": exportURL(exportHost, listing),
		})
	}
}
