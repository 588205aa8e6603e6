package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// BlockRepository provides data access for calendar blocks.
type BlockRepository struct {
	BaseRepository
}

// NewBlockRepository creates a new block repository.
func NewBlockRepository(db *DB) *BlockRepository {
	return &BlockRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const blockColumns = `id, listing_id, start_date, end_date, provenance,
	feed_id, event_uid, price, summary, created_at`

func scanBlock(row interface{ Scan(...any) error }) (*models.CalendarBlock, error) {
	b := &models.CalendarBlock{}
	err := row.Scan(
		&b.ID, &b.ListingID, &b.StartDate, &b.EndDate, &b.Provenance,
		&b.FeedID, &b.EventUID, &b.Price, &b.Summary, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBlock inserts a block. The caller assigns provenance; an ID is
// generated when absent.
func (r *BlockRepository) CreateBlock(ctx context.Context, block *models.CalendarBlock) error {
	if block.ID == "" {
		block.ID = GenerateID()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = r.Now()
	}

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO calendar_blocks (
			id, listing_id, start_date, end_date, provenance,
			feed_id, event_uid, price, summary, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		block.ID, block.ListingID, block.StartDate, block.EndDate, block.Provenance,
		block.FeedID, block.EventUID, block.Price, block.Summary, block.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting block: %w", err)
	}

	return nil
}

// DeleteBlock removes a block regardless of provenance. Reconciliation
// and cascades use this; host-facing deletion goes through
// DeleteHostBlock.
func (r *BlockRepository) DeleteBlock(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM calendar_blocks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting block: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("block %s: %w", id, models.ErrNotFound)
	}

	return nil
}

// DeleteHostBlock removes a block on behalf of the host. Manual blocks
// and price overrides are host-owned; feed-owned and reservation-mirror
// blocks are read-only through this surface and deleting one is a
// permission error, distinct from not-found.
func (r *BlockRepository) DeleteHostBlock(ctx context.Context, id string) (*models.CalendarBlock, error) {
	block, err := r.GetBlock(ctx, id)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("block %s: %w", id, models.ErrNotFound)
	}

	switch block.Provenance {
	case models.ProvenanceManual, models.ProvenancePriceOverride:
		// host-owned
	case models.ProvenanceExternal:
		return nil, fmt.Errorf("block %s is owned by feed %s: %w",
			id, derefOr(block.FeedID, "?"), models.ErrPermissionDenied)
	default:
		return nil, fmt.Errorf("block %s mirrors a reservation: %w", id, models.ErrPermissionDenied)
	}

	if err := r.DeleteBlock(ctx, id); err != nil {
		return nil, err
	}

	return block, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// GetBlock retrieves a block by ID. Missing blocks return nil, nil.
func (r *BlockRepository) GetBlock(ctx context.Context, id string) (*models.CalendarBlock, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM calendar_blocks WHERE id = ?`, id)

	block, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying block: %w", err)
	}

	return block, nil
}

// ListBlocksByFeed retrieves the external blocks a feed owns.
func (r *BlockRepository) ListBlocksByFeed(ctx context.Context, feedID string) ([]models.CalendarBlock, error) {
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM calendar_blocks
		 WHERE feed_id = ? AND provenance = ? ORDER BY start_date`,
		feedID, models.ProvenanceExternal)
}

// ListExternalBlocks retrieves every external block on a listing, across
// all feeds, in creation order. The conflict policy relies on that order
// to decide which feed claimed a range first.
func (r *BlockRepository) ListExternalBlocks(ctx context.Context, listingID string) ([]models.CalendarBlock, error) {
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM calendar_blocks
		 WHERE listing_id = ? AND provenance = ? ORDER BY created_at`,
		listingID, models.ProvenanceExternal)
}

// ListPriceOverrides retrieves the price-override blocks touching a
// window, in creation order for last-created-wins resolution.
func (r *BlockRepository) ListPriceOverrides(ctx context.Context, listingID string, window models.DateRange) ([]models.CalendarBlock, error) {
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM calendar_blocks
		 WHERE listing_id = ? AND provenance = ?
		   AND start_date < ? AND end_date > ?
		 ORDER BY created_at`,
		listingID, models.ProvenancePriceOverride, window.End, window.Start)
}

// ListBlocksInWindow retrieves all blocks overlapping a window,
// regardless of provenance, for calendar rendering.
func (r *BlockRepository) ListBlocksInWindow(ctx context.Context, listingID string, window models.DateRange) ([]models.CalendarBlock, error) {
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM calendar_blocks
		 WHERE listing_id = ? AND start_date < ? AND end_date > ?
		 ORDER BY start_date`,
		listingID, window.End, window.Start)
}

// ListManualBlocks retrieves the host-created manual blocks of a listing,
// the non-price, non-external set exported alongside reservations.
func (r *BlockRepository) ListManualBlocks(ctx context.Context, listingID string) ([]models.CalendarBlock, error) {
	return r.list(ctx,
		`SELECT `+blockColumns+` FROM calendar_blocks
		 WHERE listing_id = ? AND provenance = ? ORDER BY start_date`,
		listingID, models.ProvenanceManual)
}

func (r *BlockRepository) list(ctx context.Context, query string, args ...any) ([]models.CalendarBlock, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.CalendarBlock
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		blocks = append(blocks, *block)
	}

	return blocks, rows.Err()
}
