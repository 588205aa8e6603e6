package models

import "time"

// Block provenance constants. Provenance decides who may create and delete
// a block and whether it counts against availability.
const (
	// ProvenanceManual is a host-created block, deletable by the host.
	ProvenanceManual = "manual"

	// ProvenancePriceOverride carries a nightly price and does not block
	// availability by itself.
	ProvenancePriceOverride = "price_override"

	// ProvenanceExternal is owned by a synced feed. Only the synchronizer
	// may create or delete these; the manual-block API rejects them.
	ProvenanceExternal = "external"

	// ProvenanceReservation mirrors a confirmed reservation, informational.
	ProvenanceReservation = "reservation"
)

// CalendarBlock is one reason a listing is unavailable or price-adjusted
// for a range of nights.
type CalendarBlock struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listing_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Provenance string    `json:"provenance"`
	FeedID     *string   `json:"feed_id,omitempty"`
	EventUID   *string   `json:"event_uid,omitempty"`
	Price      *float64  `json:"price,omitempty"`
	Summary    *string   `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Range returns the half-open night range the block covers.
func (b *CalendarBlock) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// BlocksAvailability reports whether the block makes nights unbookable.
// Price overrides adjust rates without occupying the calendar.
func (b *CalendarBlock) BlocksAvailability() bool {
	return b.Provenance != ProvenancePriceOverride
}

// OwnedByFeed reports whether the block belongs to the given feed.
func (b *CalendarBlock) OwnedByFeed(feedID string) bool {
	return b.Provenance == ProvenanceExternal && b.FeedID != nil && *b.FeedID == feedID
}
