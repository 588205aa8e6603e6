package models

import "time"

// Reservation status constants.
const (
	ReservationPendingPayment = "pending_payment"
	ReservationConfirmed      = "confirmed"
	ReservationCheckedIn      = "checked_in"
	ReservationCompleted      = "completed"
	ReservationCancelled      = "cancelled"
)

// Reservation is a guest stay, including unconfirmed holds awaiting
// payment capture. A pending_payment row whose hold has lapsed is treated
// as nonexistent at query time; rows are never eagerly deleted.
type Reservation struct {
	ID            string     `json:"id"`
	ListingID     string     `json:"listing_id"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	TotalPrice    float64    `json:"total_price"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Range returns the half-open night range of the stay.
func (r *Reservation) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// Occupies reports whether the reservation blocks its dates at the given
// instant. Confirmed and later stays always occupy; a pending hold only
// occupies until its expiry passes.
func (r *Reservation) Occupies(now time.Time) bool {
	switch r.Status {
	case ReservationConfirmed, ReservationCheckedIn, ReservationCompleted:
		return true
	case ReservationPendingPayment:
		return r.HoldExpiresAt != nil && r.HoldExpiresAt.After(now)
	default:
		return false
	}
}
