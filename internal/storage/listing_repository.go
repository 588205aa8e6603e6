package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// ListingRepository provides data access for listings.
type ListingRepository struct {
	BaseRepository
}

// NewListingRepository creates a new listing repository.
func NewListingRepository(db *DB) *ListingRepository {
	return &ListingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const listingColumns = `id, name, base_price, cleaning_fee, service_fee,
	tax_rate, export_token, created_at, updated_at`

func scanListing(row interface{ Scan(...any) error }) (*models.Listing, error) {
	l := &models.Listing{}
	err := row.Scan(
		&l.ID, &l.Name, &l.BasePrice, &l.CleaningFee, &l.ServiceFee,
		&l.TaxRate, &l.ExportToken, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts a new listing, minting its export token.
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		listing.ID = GenerateID()
	}
	if listing.ExportToken == "" {
		listing.ExportToken = GenerateToken()
	}
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO listings (
			id, name, base_price, cleaning_fee, service_fee,
			tax_rate, export_token, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		listing.ID, listing.Name, listing.BasePrice, listing.CleaningFee,
		listing.ServiceFee, listing.TaxRate, listing.ExportToken,
		listing.CreatedAt, listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting listing: %w", err)
	}

	return nil
}

// GetListing retrieves a listing by ID. Missing rows return nil, nil.
func (r *ListingRepository) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)

	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing: %w", err)
	}

	return listing, nil
}

// GetListingByToken retrieves a listing by its export token. Export
// requests authenticate with the token alone, so a bad token reads the
// same as a missing listing.
func (r *ListingRepository) GetListingByToken(ctx context.Context, token string) (*models.Listing, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE export_token = ?`, token)

	listing, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing by token: %w", err)
	}

	return listing, nil
}

// List retrieves all listings ordered by name.
func (r *ListingRepository) List(ctx context.Context) ([]models.Listing, error) {
	rows, err := r.DB().QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, *l)
	}

	return listings, rows.Err()
}

// Update modifies a listing's name and pricing fields.
func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	listing.UpdatedAt = time.Now().UTC()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE listings
		SET name = ?, base_price = ?, cleaning_fee = ?, service_fee = ?,
			tax_rate = ?, updated_at = ?
		WHERE id = ?
	`,
		listing.Name, listing.BasePrice, listing.CleaningFee,
		listing.ServiceFee, listing.TaxRate, listing.UpdatedAt, listing.ID,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("listing %s: %w", listing.ID, models.ErrNotFound)
	}

	return nil
}

// RotateToken mints a fresh export token, invalidating the old one.
func (r *ListingRepository) RotateToken(ctx context.Context, id string) (string, error) {
	token := GenerateToken()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE listings SET export_token = ?, updated_at = ? WHERE id = ?
	`, token, time.Now().UTC(), id)
	if err != nil {
		return "", fmt.Errorf("rotating export token: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return "", fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}

	return token, nil
}
