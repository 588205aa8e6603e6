package calendar

import (
	"testing"
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strptr(s string) *string { return &s }

func TestResolveReservationPriority(t *testing.T) {
	now := day(2026, 1, 1)
	event := models.ParsedEvent{
		UID:   "ev-1",
		Start: day(2026, 1, 11),
		End:   day(2026, 1, 13),
	}
	reservations := []models.Reservation{
		{
			ID:        "res-1",
			Status:    models.ReservationConfirmed,
			StartDate: day(2026, 1, 10),
			EndDate:   day(2026, 1, 12),
		},
	}

	d := Resolve(event, "feed-a", reservations, nil, now)
	if d.Outcome != SkipReservationPriority {
		t.Fatalf("outcome = %v, want SkipReservationPriority", d.Outcome)
	}
	if d.ConflictingID != "res-1" {
		t.Errorf("ConflictingID = %q, want res-1", d.ConflictingID)
	}
}

func TestResolveLapsedHoldDoesNotBlock(t *testing.T) {
	now := day(2026, 1, 20)
	lapsed := now.Add(-time.Hour)
	event := models.ParsedEvent{UID: "ev-1", Start: day(2026, 1, 21), End: day(2026, 1, 23)}
	reservations := []models.Reservation{
		{
			ID:            "res-1",
			Status:        models.ReservationPendingPayment,
			HoldExpiresAt: &lapsed,
			StartDate:     day(2026, 1, 21),
			EndDate:       day(2026, 1, 23),
		},
	}

	d := Resolve(event, "feed-a", reservations, nil, now)
	if d.Outcome != Accept {
		t.Fatalf("outcome = %v, want Accept (lapsed hold is invisible)", d.Outcome)
	}
}

func TestResolveOlderExternalPriority(t *testing.T) {
	now := day(2026, 1, 1)
	event := models.ParsedEvent{UID: "ev-1", Start: day(2026, 2, 1), End: day(2026, 2, 5)}
	externals := []models.CalendarBlock{
		{
			ID:         "blk-other",
			Provenance: models.ProvenanceExternal,
			FeedID:     strptr("feed-b"),
			StartDate:  day(2026, 2, 3),
			EndDate:    day(2026, 2, 7),
		},
	}

	d := Resolve(event, "feed-a", nil, externals, now)
	if d.Outcome != SkipOlderExternalPriority {
		t.Fatalf("outcome = %v, want SkipOlderExternalPriority", d.Outcome)
	}
	if d.ConflictingID != "blk-other" {
		t.Errorf("ConflictingID = %q, want blk-other", d.ConflictingID)
	}
}

func TestResolveOwnBlocksDoNotConflict(t *testing.T) {
	now := day(2026, 1, 1)
	event := models.ParsedEvent{UID: "ev-1", Start: day(2026, 2, 1), End: day(2026, 2, 5)}
	externals := []models.CalendarBlock{
		{
			ID:         "blk-own",
			Provenance: models.ProvenanceExternal,
			FeedID:     strptr("feed-a"),
			StartDate:  day(2026, 2, 1),
			EndDate:    day(2026, 2, 5),
		},
	}

	d := Resolve(event, "feed-a", nil, externals, now)
	if d.Outcome != Accept {
		t.Fatalf("outcome = %v, want Accept for blocks owned by the same feed", d.Outcome)
	}
}

func TestResolveSharedBoundaryAccepted(t *testing.T) {
	now := day(2026, 1, 1)
	// Checkout day N and check-in day N do not conflict.
	event := models.ParsedEvent{UID: "ev-1", Start: day(2026, 3, 13), End: day(2026, 3, 15)}
	reservations := []models.Reservation{
		{
			ID:        "res-1",
			Status:    models.ReservationConfirmed,
			StartDate: day(2026, 3, 10),
			EndDate:   day(2026, 3, 13),
		},
	}

	d := Resolve(event, "feed-a", reservations, nil, now)
	if d.Outcome != Accept {
		t.Fatalf("outcome = %v, want Accept at shared boundary", d.Outcome)
	}
}
