package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/calendar"
	"github.com/rental-calendar/backend/internal/storage"
	"github.com/rental-calendar/backend/internal/storage/models"
)

// Feed request/response types

type CreateFeedRequest struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	IsActive *bool  `json:"is_active"`
}

type UpdateFeedRequest struct {
	IsActive *bool `json:"is_active"`
}

type FeedListResponse struct {
	Feeds     []models.IcalFeed `json:"feeds"`
	ExportURL string            `json:"export_url,omitempty"`
}

// ListFeeds returns the feeds of a listing, alongside the listing's
// calendar export URL so hosts can hand it to a connected platform.
func ListFeeds(feeds *storage.FeedRepository, listings *storage.ListingRepository, exportHost string) http.HandlerFunc {
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

		list, err := feeds.ListByListing(ctx, listingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if list == nil {
			list = []models.IcalFeed{}
		}

		writeJSON(w, http.StatusOK, FeedListResponse{
			Feeds:     list,
			ExportURL: exportURL(exportHost, listing),
		})
	}
}

// exportURL composes the calendar export URL for a listing. With no
// configured public host the path is relative.
func exportURL(host string, listing *models.Listing) string {
	return host + "/api/listings/" + listing.ID + "/calendar.ics?token=" + url.QueryEscape(listing.ExportToken)
}

// CreateFeed subscribes a listing to an external iCal feed.
func CreateFeed(feeds *storage.FeedRepository, listings *storage.ListingRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := mux.Vars(r)["listingID"]
		ctx := r.Context()

		var req CreateFeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "URL is required")
			return
		}
		if u, err := url.Parse(req.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "URL must be http or https")
			return
		}
		if req.Provider == "" {
			req.Provider = "other"
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

		feed := &models.IcalFeed{
			ListingID:      listingID,
			URL:            req.URL,
			Provider:       req.Provider,
			IsActive:       true,
			LastSyncStatus: models.SyncStatusPending,
		}
		if req.IsActive != nil {
			feed.IsActive = *req.IsActive
		}

		if err := feeds.Create(ctx, feed); err != nil {
			writeDomainError(w, err)
			return
		}

		if scheduler != nil && feed.IsActive {
			scheduler.ScheduleFeed(*feed)
			// First sync runs right away rather than waiting an interval.
			scheduler.TriggerSync(feed.ID)
		}

		writeJSON(w, http.StatusCreated, feed)
	}
}

// UpdateFeed toggles a feed's active flag. Deactivating removes the
// blocks the feed owns; its claims are no longer trusted.
func UpdateFeed(feeds *storage.FeedRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		ctx := r.Context()

		var req UpdateFeedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.IsActive == nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "is_active is required")
			return
		}

		feed, err := feeds.GetFeed(ctx, id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if feed == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Feed not found")
			return
		}

		if err := feeds.SetActive(ctx, id, *req.IsActive); err != nil {
			writeDomainError(w, err)
			return
		}
		feed.IsActive = *req.IsActive

		if scheduler != nil {
			if feed.IsActive {
				scheduler.ScheduleFeed(*feed)
			} else {
				scheduler.UnscheduleFeed(id)
			}
		}

		writeJSON(w, http.StatusOK, feed)
	}
}

// DeleteFeed removes a feed subscription and the external blocks it owns.
func DeleteFeed(feeds *storage.FeedRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := feeds.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}

		if scheduler != nil {
			scheduler.UnscheduleFeed(id)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SyncFeed triggers a synchronous sync of one feed and returns its result.
func SyncFeed(syncService *calendar.SyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		result, err := syncService.SyncFeed(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

// SyncListing syncs every active feed of a listing.
func SyncListing(syncService *calendar.SyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := mux.Vars(r)["listingID"]

		results, err := syncService.SyncListing(r.Context(), listingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if results == nil {
			results = []models.SyncResult{}
		}

		writeJSON(w, http.StatusOK, results)
	}
}
