// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rental-calendar/backend/internal/api/handlers"
	"github.com/rental-calendar/backend/internal/api/middleware"
	"github.com/rental-calendar/backend/internal/booking"
	"github.com/rental-calendar/backend/internal/calendar"
	"github.com/rental-calendar/backend/internal/events"
	"github.com/rental-calendar/backend/internal/storage"
	"github.com/rental-calendar/backend/internal/websocket"
)

// Deps bundles everything the router hands to the handlers.
type Deps struct {
	DB           *storage.DB
	Hub          *websocket.Hub
	Publisher    events.Publisher
	Listings     *storage.ListingRepository
	Feeds        *storage.FeedRepository
	Blocks       *storage.BlockRepository
	Reservations *storage.ReservationRepository
	SyncService  *calendar.SyncService
	Scheduler    *calendar.Scheduler
	Booking      *booking.Service

	StaticDir  string
	SyncSecret string
	ExportHost string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(d.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(d.DB, d.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(d.Hub)).Methods("GET")

	// Listing endpoints
	api.HandleFunc("/listings", handlers.ListListings(d.Listings)).Methods("GET")
	api.HandleFunc("/listings", handlers.CreateListing(d.Listings)).Methods("POST")
	api.HandleFunc("/listings/{id}", handlers.GetListing(d.Listings)).Methods("GET")
	api.HandleFunc("/listings/{id}", handlers.UpdateListing(d.Listings)).Methods("PUT")
	api.HandleFunc("/listings/{id}/rotate-token", handlers.RotateExportToken(d.Listings, d.ExportHost)).Methods("POST")

	// Feed endpoints
	api.HandleFunc("/listings/{listingID}/feeds", handlers.ListFeeds(d.Feeds, d.Listings, d.ExportHost)).Methods("GET")
	api.HandleFunc("/listings/{listingID}/feeds", handlers.CreateFeed(d.Feeds, d.Listings, d.Scheduler)).Methods("POST")
	api.HandleFunc("/feeds/{id}", handlers.UpdateFeed(d.Feeds, d.Scheduler)).Methods("PATCH")
	api.HandleFunc("/feeds/{id}", handlers.DeleteFeed(d.Feeds, d.Scheduler)).Methods("DELETE")

	// Sync endpoints
	api.HandleFunc("/feeds/{id}/sync", handlers.SyncFeed(d.SyncService)).Methods("POST")
	api.HandleFunc("/listings/{listingID}/sync", handlers.SyncListing(d.SyncService)).Methods("POST")
	api.HandleFunc("/sync", handlers.GlobalSync(d.SyncService, d.SyncSecret)).Methods("POST")

	// Calendar and block endpoints
	api.HandleFunc("/listings/{listingID}/calendar.ics", handlers.ExportCalendar(d.Listings, d.Blocks, d.Reservations, d.ExportHost)).Methods("GET")
	api.HandleFunc("/listings/{listingID}/calendar", handlers.GetCalendar(d.Blocks, d.Reservations, d.Listings)).Methods("GET")
	api.HandleFunc("/listings/{listingID}/price-overrides", handlers.ListPriceOverrides(d.Blocks)).Methods("GET")
	api.HandleFunc("/listings/{listingID}/blocks", handlers.CreateBlock(d.Blocks, d.Listings, d.Publisher)).Methods("POST")
	api.HandleFunc("/blocks/{id}", handlers.DeleteBlock(d.Blocks, d.Publisher)).Methods("DELETE")

	// Booking endpoints
	api.HandleFunc("/listings/{listingID}/bookings", handlers.CreateBooking(d.Booking)).Methods("POST")
	api.HandleFunc("/bookings/{id}/confirm", handlers.ConfirmBooking(d.Booking)).Methods("POST")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(d.StaticDir)))

	return r
}
