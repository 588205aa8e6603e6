package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/ics"
	"github.com/rental-calendar/backend/internal/storage"
	"github.com/rental-calendar/backend/internal/storage/models"
)

// exportWindowYears bounds how far ahead the exported calendar reaches.
const exportWindowYears = 2

// ExportCalendar serves a listing's availability as an iCalendar document,
// authorized by the listing's opaque export token. Exported events are the
// occupying reservations plus manual blocks; price overrides and blocks
// mirrored from other platforms' feeds stay internal.
func ExportCalendar(listings *storage.ListingRepository, blocks *storage.BlockRepository, reservations *storage.ReservationRepository, host string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := mux.Vars(r)["listingID"]
		ctx := r.Context()

		token := r.URL.Query().Get("token")
		if token == "" {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Export token required")
			return
		}

		listing, err := listings.GetListing(ctx, listingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if listing == nil || subtle.ConstantTimeCompare([]byte(listing.ExportToken), []byte(token)) != 1 {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid export token")
			return
		}

		now := time.Now().UTC()
		window := models.DateRange{
			Start: models.NormalizeDate(now).AddDate(-1, 0, 0),
			End:   models.NormalizeDate(now).AddDate(exportWindowYears, 0, 0),
		}

		resList, err := reservations.ListReservationsInWindow(ctx, listingID, window, now)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		manualBlocks, err := blocks.ListManualBlocks(ctx, listingID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		events := make([]models.ParsedEvent, 0, len(resList)+len(manualBlocks))
		for _, res := range resList {
			events = append(events, models.ParsedEvent{
				UID:     "res-" + res.ID + "@" + uidHost(host),
				Summary: "Reserved",
				Start:   res.StartDate,
				End:     res.EndDate,
			})
		}
		for _, block := range manualBlocks {
			if !block.Range().Overlaps(window) {
				continue
			}
			summary := "Not available"
			if block.Summary != nil && *block.Summary != "" {
				summary = *block.Summary
			}
			events = append(events, models.ParsedEvent{
				UID:     "blk-" + block.ID + "@" + uidHost(host),
				Summary: summary,
				Start:   block.StartDate,
				End:     block.EndDate,
			})
		}

		sort.Slice(events, func(i, j int) bool {
			if events[i].Start.Equal(events[j].Start) {
				return events[i].UID < events[j].UID
			}
			return events[i].Start.Before(events[j].Start)
		})

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
		if err := ics.Encode(w, listing.Name, events); err != nil {
			log.Printf("Error writing calendar export for listing %s: %v", listingID, err)
		}
	}
}

// uidHost is the host suffix of exported event UIDs.
func uidHost(host string) string {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if host == "" {
		return "rental-calendar"
	}
	return host
}
