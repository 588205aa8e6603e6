package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rental-calendar/backend/internal/events"
	"github.com/rental-calendar/backend/internal/storage/models"
)

// ListingStore loads the pricing inputs for a listing.
type ListingStore interface {
	GetListing(ctx context.Context, id string) (*models.Listing, error)
}

// OverrideStore lists the price-override blocks touching a date window.
type OverrideStore interface {
	ListPriceOverrides(ctx context.Context, listingID string, window models.DateRange) ([]models.CalendarBlock, error)
}

// HoldStore persists reservations. CreateHold must perform the overlap
// check and the insert atomically per listing: two simultaneous checkouts
// for overlapping dates must not both succeed.
type HoldStore interface {
	CreateHold(ctx context.Context, res *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id, status string) error
}

// BlockWriter mirrors confirmed reservations into the block store.
type BlockWriter interface {
	CreateBlock(ctx context.Context, block *models.CalendarBlock) error
}

// Service implements booking checkout against the availability store.
type Service struct {
	listings  ListingStore
	holds     HoldStore
	overrides OverrideStore
	blocks    BlockWriter
	publisher events.Publisher
	holdTTL   time.Duration

	now func() time.Time
}

// NewService creates a booking service. holdTTL is how long an unpaid
// hold occupies the calendar before lapsing.
func NewService(
	listings ListingStore,
	holds HoldStore,
	overrides OverrideStore,
	blocks BlockWriter,
	publisher events.Publisher,
	holdTTL time.Duration,
) *Service {
	if holdTTL <= 0 {
		holdTTL = 30 * time.Minute
	}
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &Service{
		listings:  listings,
		holds:     holds,
		overrides: overrides,
		blocks:    blocks,
		publisher: publisher,
		holdTTL:   holdTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// QuoteStay prices a requested stay without reserving anything.
func (s *Service) QuoteStay(ctx context.Context, listingID string, checkIn, checkOut time.Time) (*Quote, error) {
	stay := models.NewDateRange(checkIn, checkOut)
	if err := stay.Validate(); err != nil {
		return nil, err
	}

	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("loading listing: %w", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("listing %s: %w", listingID, models.ErrNotFound)
	}

	overrides, err := s.overrides.ListPriceOverrides(ctx, listingID, stay)
	if err != nil {
		return nil, fmt.Errorf("loading price overrides: %w", err)
	}

	quote := BuildQuote(listing, overrides, stay)
	return &quote, nil
}

// CreateHold validates the requested range and, if the dates are free,
// creates a pending reservation that holds them until payment capture.
func (s *Service) CreateHold(ctx context.Context, listingID string, checkIn, checkOut time.Time) (*models.Reservation, error) {
	quote, err := s.QuoteStay(ctx, listingID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	stay := models.NewDateRange(checkIn, checkOut)
	now := s.now()
	expiresAt := now.Add(s.holdTTL)

	res := &models.Reservation{
		ID:            uuid.NewString(),
		ListingID:     listingID,
		StartDate:     stay.Start,
		EndDate:       stay.End,
		Status:        models.ReservationPendingPayment,
		HoldExpiresAt: &expiresAt,
		TotalPrice:    quote.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.holds.CreateHold(ctx, res); err != nil {
		return nil, err
	}

	s.publisher.ReservationCreated(*res)
	return res, nil
}

// ConfirmHold marks a pending hold as confirmed once the caller reports a
// captured payment, and mirrors the stay as a reservation block. A hold
// whose expiry already passed cannot be confirmed: its dates may have been
// given away.
func (s *Service) ConfirmHold(ctx context.Context, reservationID string) (*models.Reservation, error) {
	res, err := s.holds.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("loading reservation: %w", err)
	}
	if res == nil {
		return nil, fmt.Errorf("reservation %s: %w", reservationID, models.ErrNotFound)
	}

	if res.Status == models.ReservationConfirmed {
		return res, nil
	}
	if res.Status != models.ReservationPendingPayment {
		return nil, fmt.Errorf("%w: reservation %s is %s, not a pending hold",
			models.ErrValidation, res.ID, res.Status)
	}

	now := s.now()
	if res.HoldExpiresAt == nil || !res.HoldExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: hold on reservation %s expired", models.ErrConflict, res.ID)
	}

	if err := s.holds.UpdateReservationStatus(ctx, res.ID, models.ReservationConfirmed); err != nil {
		return nil, fmt.Errorf("confirming reservation: %w", err)
	}
	res.Status = models.ReservationConfirmed
	res.UpdatedAt = now

	// Informational mirror of the stay on the calendar.
	summary := "Reserved"
	block := &models.CalendarBlock{
		ID:         uuid.NewString(),
		ListingID:  res.ListingID,
		StartDate:  res.StartDate,
		EndDate:    res.EndDate,
		Provenance: models.ProvenanceReservation,
		Summary:    &summary,
		CreatedAt:  now,
	}
	if err := s.blocks.CreateBlock(ctx, block); err != nil {
		return nil, fmt.Errorf("mirroring reservation block: %w", err)
	}
	s.publisher.BlockCreated(*block)

	return res, nil
}
