package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// fakeBookingStore backs the booking service in tests. CreateHold applies
// the same overlap rule the SQL store enforces, linearly.
type fakeBookingStore struct {
	listings     map[string]*models.Listing
	reservations map[string]*models.Reservation
	blocks       []models.CalendarBlock
	now          time.Time
}

func newFakeBookingStore(now time.Time) *fakeBookingStore {
	return &fakeBookingStore{
		listings:     make(map[string]*models.Listing),
		reservations: make(map[string]*models.Reservation),
		now:          now,
	}
}

func (f *fakeBookingStore) GetListing(_ context.Context, id string) (*models.Listing, error) {
	return f.listings[id], nil
}

func (f *fakeBookingStore) ListPriceOverrides(_ context.Context, listingID string, window models.DateRange) ([]models.CalendarBlock, error) {
	var out []models.CalendarBlock
	for _, b := range f.blocks {
		if b.ListingID == listingID && b.Provenance == models.ProvenancePriceOverride && window.Overlaps(b.Range()) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) CreateHold(_ context.Context, res *models.Reservation) error {
	stay := res.Range()
	for _, existing := range f.reservations {
		if existing.ListingID == res.ListingID && existing.Occupies(f.now) && stay.Overlaps(existing.Range()) {
			return fmt.Errorf("dates not available: reservation %s: %w", existing.ID, models.ErrConflict)
		}
	}
	for _, b := range f.blocks {
		if b.ListingID == res.ListingID && b.BlocksAvailability() && stay.Overlaps(b.Range()) {
			return fmt.Errorf("dates not available: block %s: %w", b.ID, models.ErrConflict)
		}
	}
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeBookingStore) GetReservation(_ context.Context, id string) (*models.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (f *fakeBookingStore) UpdateReservationStatus(_ context.Context, id, status string) error {
	res, ok := f.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s: %w", id, models.ErrNotFound)
	}
	res.Status = status
	return nil
}

func (f *fakeBookingStore) CreateBlock(_ context.Context, block *models.CalendarBlock) error {
	f.blocks = append(f.blocks, *block)
	return nil
}

func newTestService(store *fakeBookingStore) *Service {
	svc := NewService(store, store, store, store, nil, 30*time.Minute)
	svc.now = func() time.Time { return store.now }
	return svc
}

func TestCreateHoldRejectsOverlap(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	store.listings["L1"] = &models.Listing{ID: "L1", BasePrice: 100}
	store.reservations["res-1"] = &models.Reservation{
		ID:        "res-1",
		ListingID: "L1",
		Status:    models.ReservationConfirmed,
		StartDate: day(2026, 3, 10),
		EndDate:   day(2026, 3, 13),
	}
	svc := newTestService(store)

	_, err := svc.CreateHold(context.Background(), "L1", day(2026, 3, 12), day(2026, 3, 15))
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("overlapping checkout should conflict, got %v", err)
	}
}

func TestCreateHoldAllowsSharedBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	store.listings["L1"] = &models.Listing{ID: "L1", BasePrice: 100}
	store.reservations["res-1"] = &models.Reservation{
		ID:        "res-1",
		ListingID: "L1",
		Status:    models.ReservationConfirmed,
		StartDate: day(2026, 3, 10),
		EndDate:   day(2026, 3, 13),
	}
	svc := newTestService(store)

	res, err := svc.CreateHold(context.Background(), "L1", day(2026, 3, 13), day(2026, 3, 15))
	if err != nil {
		t.Fatalf("check-in on checkout day should succeed, got %v", err)
	}
	if res.Status != models.ReservationPendingPayment {
		t.Errorf("new hold status = %q", res.Status)
	}
	if res.HoldExpiresAt == nil || !res.HoldExpiresAt.After(now) {
		t.Error("hold should carry a future expiry")
	}
}

func TestCreateHoldIgnoresPriceOverrideBlocks(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	store.listings["L1"] = &models.Listing{ID: "L1", BasePrice: 80}
	price := 120.0
	store.blocks = append(store.blocks, models.CalendarBlock{
		ID:         "ovr-1",
		ListingID:  "L1",
		Provenance: models.ProvenancePriceOverride,
		Price:      &price,
		StartDate:  day(2026, 4, 1),
		EndDate:    day(2026, 4, 5),
	})
	svc := newTestService(store)

	res, err := svc.CreateHold(context.Background(), "L1", day(2026, 4, 2), day(2026, 4, 4))
	if err != nil {
		t.Fatalf("price overrides must never block availability, got %v", err)
	}
	// Both nights are overridden at 120.
	if !almostEqual(res.TotalPrice, 240) {
		t.Errorf("TotalPrice = %v, want 240", res.TotalPrice)
	}
}

func TestCreateHoldRejectsInvalidRange(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	store.listings["L1"] = &models.Listing{ID: "L1", BasePrice: 80}
	svc := newTestService(store)

	_, err := svc.CreateHold(context.Background(), "L1", day(2026, 3, 15), day(2026, 3, 12))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("reversed range should fail validation, got %v", err)
	}

	_, err = svc.CreateHold(context.Background(), "L1", day(2026, 3, 15), day(2026, 3, 15))
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("empty range should fail validation, got %v", err)
	}
}

func TestCreateHoldOverLapsedHold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	store.listings["L1"] = &models.Listing{ID: "L1", BasePrice: 80}
	lapsed := now.Add(-time.Minute)
	store.reservations["res-old"] = &models.Reservation{
		ID:            "res-old",
		ListingID:     "L1",
		Status:        models.ReservationPendingPayment,
		HoldExpiresAt: &lapsed,
		StartDate:     day(2026, 5, 1),
		EndDate:       day(2026, 5, 4),
	}
	svc := newTestService(store)

	if _, err := svc.CreateHold(context.Background(), "L1", day(2026, 5, 1), day(2026, 5, 4)); err != nil {
		t.Fatalf("a lapsed hold must not block new checkouts, got %v", err)
	}
}

func TestConfirmHold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	store.listings["L1"] = &models.Listing{ID: "L1", BasePrice: 80}
	svc := newTestService(store)

	res, err := svc.CreateHold(context.Background(), "L1", day(2026, 6, 1), day(2026, 6, 4))
	if err != nil {
		t.Fatalf("CreateHold failed: %v", err)
	}

	confirmed, err := svc.ConfirmHold(context.Background(), res.ID)
	if err != nil {
		t.Fatalf("ConfirmHold failed: %v", err)
	}
	if confirmed.Status != models.ReservationConfirmed {
		t.Errorf("status = %q, want confirmed", confirmed.Status)
	}

	// A reservation-provenance mirror block must exist.
	found := false
	for _, b := range store.blocks {
		if b.Provenance == models.ProvenanceReservation && b.ListingID == "L1" {
			found = true
		}
	}
	if !found {
		t.Error("confirmation should mirror a reservation block")
	}

	// Confirming again is a no-op.
	if _, err := svc.ConfirmHold(context.Background(), res.ID); err != nil {
		t.Errorf("re-confirming should succeed, got %v", err)
	}
}

func TestConfirmHoldExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	store.listings["L1"] = &models.Listing{ID: "L1", BasePrice: 80}
	lapsed := now.Add(-time.Minute)
	store.reservations["res-1"] = &models.Reservation{
		ID:            "res-1",
		ListingID:     "L1",
		Status:        models.ReservationPendingPayment,
		HoldExpiresAt: &lapsed,
		StartDate:     day(2026, 7, 1),
		EndDate:       day(2026, 7, 3),
	}
	svc := newTestService(store)

	_, err := svc.ConfirmHold(context.Background(), "res-1")
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("confirming a lapsed hold should conflict, got %v", err)
	}
}

func TestConfirmHoldNotFound(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeBookingStore(now)
	svc := newTestService(store)

	_, err := svc.ConfirmHold(context.Background(), "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
