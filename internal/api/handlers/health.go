// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"net/http"

	"github.com/rental-calendar/backend/internal/storage"
	"github.com/rental-calendar/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		code := http.StatusOK
		if !dbConnected {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		writeJSON(w, code, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	ListingsCount    int `json:"listings_count"`
	ActiveFeedsCount int `json:"active_feeds_count"`
	ErroredFeeds     int `json:"errored_feeds"`
	BlocksCount      int `json:"blocks_count"`
	ConnectedClients int `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var resp StatusResponse
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&resp.ListingsCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listing_ical_feeds WHERE is_active = 1").Scan(&resp.ActiveFeedsCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listing_ical_feeds WHERE last_sync_status = 'error'").Scan(&resp.ErroredFeeds)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_blocks").Scan(&resp.BlocksCount)

		if hub != nil {
			resp.ConnectedClients = hub.ClientCount()
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
