// Package calendar reconciles external iCal feeds against the listing's
// availability store and schedules the periodic syncs that do so.
package calendar

import (
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// Outcome is the decision for one candidate external event.
type Outcome int

const (
	// Accept creates an external block for the event's range.
	Accept Outcome = iota

	// SkipReservationPriority rejects the event because an internal
	// reservation occupies part of its range. Internal bookings always
	// win over an external calendar's claim.
	SkipReservationPriority

	// SkipOlderExternalPriority rejects the event because another feed
	// already claimed part of its range. The first synced source keeps
	// a range; a newer feed does not overwrite it.
	SkipOlderExternalPriority
)

// String returns the audit-log reason for the outcome.
func (o Outcome) String() string {
	switch o {
	case SkipReservationPriority:
		return "reservation priority"
	case SkipOlderExternalPriority:
		return "older external priority"
	default:
		return "accept"
	}
}

// Decision is the result of resolving one candidate event, including the
// entity that caused a skip so hosts can diagnose missing blocks.
type Decision struct {
	Outcome       Outcome
	ConflictingID string
}

// Resolve decides whether a candidate event from the given feed may claim
// its date range. It is a pure function over the current store state:
// reservations are checked first, then blocks owned by other feeds in
// creation order.
func Resolve(event models.ParsedEvent, feedID string, reservations []models.Reservation, externalBlocks []models.CalendarBlock, now time.Time) Decision {
	r := event.Range()

	for i := range reservations {
		res := &reservations[i]
		if res.Occupies(now) && r.Overlaps(res.Range()) {
			return Decision{Outcome: SkipReservationPriority, ConflictingID: res.ID}
		}
	}

	for i := range externalBlocks {
		b := &externalBlocks[i]
		if b.Provenance != models.ProvenanceExternal || b.OwnedByFeed(feedID) {
			continue
		}
		if r.Overlaps(b.Range()) {
			return Decision{Outcome: SkipOlderExternalPriority, ConflictingID: b.ID}
		}
	}

	return Decision{Outcome: Accept}
}
