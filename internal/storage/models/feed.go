package models

import "time"

// IcalFeed is one external calendar subscription for a listing.
// Deleting or deactivating a feed removes every external block it owns.
type IcalFeed struct {
	ID             string     `json:"id"`
	ListingID      string     `json:"listing_id"`
	URL            string     `json:"url"`
	Provider       string     `json:"provider"`
	IsActive       bool       `json:"is_active"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus string     `json:"last_sync_status"`
	LastSyncError  *string    `json:"last_sync_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Feed sync status constants.
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusError   = "error"
)

// SyncResult summarizes one pass of the feed synchronizer.
type SyncResult struct {
	FeedID        string    `json:"feed_id"`
	ListingID     string    `json:"listing_id"`
	Provider      string    `json:"provider"`
	EventsFound   int       `json:"events_found"`
	BlocksCreated int       `json:"blocks_created"`
	BlocksRemoved int       `json:"blocks_removed"`
	EventsSkipped int       `json:"events_skipped"`
	OK            bool      `json:"ok"`
	Error         error     `json:"-"`
	SyncedAt      time.Time `json:"synced_at"`
}
