package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// ReservationRepository provides data access for reservations and holds.
type ReservationRepository struct {
	BaseRepository
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const reservationColumns = `id, listing_id, start_date, end_date, status,
	hold_expires_at, total_price, created_at, updated_at`

// occupyingCondition selects reservations that block their dates at the
// given instant: confirmed and later stays, plus unexpired payment holds.
// Lapsed holds fall out at query time; their rows stay.
const occupyingCondition = `(status IN ('confirmed', 'checked_in', 'completed')
	OR (status = 'pending_payment' AND hold_expires_at > ?))`

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	res := &models.Reservation{}
	err := row.Scan(
		&res.ID, &res.ListingID, &res.StartDate, &res.EndDate, &res.Status,
		&res.HoldExpiresAt, &res.TotalPrice, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetReservation retrieves a reservation by ID. Missing rows return nil, nil.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)

	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying reservation: %w", err)
	}

	return res, nil
}

// ListOccupyingReservations retrieves the reservations blocking a
// listing's calendar at the given instant.
func (r *ReservationRepository) ListOccupyingReservations(ctx context.Context, listingID string, now time.Time) ([]models.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE listing_id = ? AND `+occupyingCondition+` ORDER BY start_date`,
		listingID, now)
}

// ListReservationsInWindow retrieves occupying reservations overlapping a
// date window, for calendar rendering and export.
func (r *ReservationRepository) ListReservationsInWindow(ctx context.Context, listingID string, window models.DateRange, now time.Time) ([]models.Reservation, error) {
	return r.list(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE listing_id = ? AND `+occupyingCondition+`
		   AND start_date < ? AND end_date > ?
		 ORDER BY start_date`,
		listingID, now, window.End, window.Start)
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]models.Reservation, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying reservations: %w", err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, *res)
	}

	return reservations, rows.Err()
}

// CreateHold inserts a pending reservation after verifying the dates are
// free. The overlap check and the insert run in one transaction: SQLite
// serializes writers, so two simultaneous checkouts for overlapping dates
// cannot both pass the check.
func (r *ReservationRepository) CreateHold(ctx context.Context, res *models.Reservation) error {
	now := time.Now().UTC()

	return r.Transaction(func(tx *sql.Tx) error {
		var conflictID string
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM reservations
			WHERE listing_id = ? AND `+occupyingCondition+`
			  AND start_date < ? AND end_date > ?
			LIMIT 1
		`, res.ListingID, now, res.EndDate, res.StartDate).Scan(&conflictID)

		if err == nil {
			return fmt.Errorf("dates not available: overlaps reservation %s: %w",
				conflictID, models.ErrConflict)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking reservation overlap: %w", err)
		}

		// Manual and external blocks also make dates unbookable;
		// price overrides never do.
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM calendar_blocks
			WHERE listing_id = ? AND provenance != ?
			  AND start_date < ? AND end_date > ?
			LIMIT 1
		`, res.ListingID, models.ProvenancePriceOverride, res.EndDate, res.StartDate).Scan(&conflictID)

		if err == nil {
			return fmt.Errorf("dates not available: overlaps block %s: %w",
				conflictID, models.ErrConflict)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking block overlap: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO reservations (
				id, listing_id, start_date, end_date, status,
				hold_expires_at, total_price, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			res.ID, res.ListingID, res.StartDate, res.EndDate, res.Status,
			res.HoldExpiresAt, res.TotalPrice, res.CreatedAt, res.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting reservation: %w", err)
		}

		return nil
	})
}

// UpdateReservationStatus moves a reservation to a new status.
func (r *ReservationRepository) UpdateReservationStatus(ctx context.Context, id, status string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("updating reservation status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("reservation %s: %w", id, models.ErrNotFound)
	}

	return nil
}
