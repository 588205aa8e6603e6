package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// FeedRepository provides data access for listing iCal feed subscriptions.
type FeedRepository struct {
	BaseRepository
}

// NewFeedRepository creates a new feed repository.
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

const feedColumns = `id, listing_id, url, provider, is_active,
	last_sync_at, last_sync_status, last_sync_error, created_at, updated_at`

func scanFeed(row interface{ Scan(...any) error }) (*models.IcalFeed, error) {
	feed := &models.IcalFeed{}
	err := row.Scan(
		&feed.ID, &feed.ListingID, &feed.URL, &feed.Provider, &feed.IsActive,
		&feed.LastSyncAt, &feed.LastSyncStatus, &feed.LastSyncError,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return feed, nil
}

// Create inserts a new feed subscription. A second feed with the same
// (listing, url) pair is a conflict, keeping feed creation idempotent.
func (r *FeedRepository) Create(ctx context.Context, feed *models.IcalFeed) error {
	feed.ID = GenerateID()
	feed.CreatedAt = r.Now()
	feed.UpdatedAt = feed.CreatedAt
	feed.LastSyncStatus = models.SyncStatusPending

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO listing_ical_feeds (
			id, listing_id, url, provider, is_active, last_sync_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		feed.ID, feed.ListingID, feed.URL, feed.Provider,
		feed.IsActive, feed.LastSyncStatus, feed.CreatedAt, feed.UpdatedAt,
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("feed for url %s already exists on listing %s: %w",
			feed.URL, feed.ListingID, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("inserting feed: %w", err)
	}

	return nil
}

// GetFeed retrieves a feed by its ID. Missing feeds return nil, nil.
func (r *FeedRepository) GetFeed(ctx context.Context, id string) (*models.IcalFeed, error) {
	row := r.DB().QueryRowContext(ctx,
		`SELECT `+feedColumns+` FROM listing_ical_feeds WHERE id = ?`, id)

	feed, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying feed: %w", err)
	}

	return feed, nil
}

// ListByListing retrieves all feeds of a listing, active or not.
func (r *FeedRepository) ListByListing(ctx context.Context, listingID string) ([]models.IcalFeed, error) {
	return r.list(ctx,
		`SELECT `+feedColumns+` FROM listing_ical_feeds WHERE listing_id = ? ORDER BY created_at`,
		listingID)
}

// ListActiveFeeds retrieves every active feed across all listings.
func (r *FeedRepository) ListActiveFeeds(ctx context.Context) ([]models.IcalFeed, error) {
	return r.list(ctx,
		`SELECT `+feedColumns+` FROM listing_ical_feeds WHERE is_active = 1 ORDER BY created_at`)
}

// ListActiveFeedsByListing retrieves the active feeds of one listing.
func (r *FeedRepository) ListActiveFeedsByListing(ctx context.Context, listingID string) ([]models.IcalFeed, error) {
	return r.list(ctx,
		`SELECT `+feedColumns+` FROM listing_ical_feeds WHERE listing_id = ? AND is_active = 1 ORDER BY created_at`,
		listingID)
}

func (r *FeedRepository) list(ctx context.Context, query string, args ...any) ([]models.IcalFeed, error) {
	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feeds: %w", err)
	}
	defer rows.Close()

	var feeds []models.IcalFeed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning feed: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	return feeds, rows.Err()
}

// UpdateFeedSyncStatus records the outcome of a sync pass on the feed.
func (r *FeedRepository) UpdateFeedSyncStatus(ctx context.Context, id, status string, syncErr *string) error {
	now := time.Now().UTC()
	var lastSyncAt *time.Time
	if status == models.SyncStatusSynced {
		lastSyncAt = &now
	}

	_, err := r.DB().ExecContext(ctx, `
		UPDATE listing_ical_feeds SET
			last_sync_status = ?, last_sync_error = ?,
			last_sync_at = COALESCE(?, last_sync_at), updated_at = ?
		WHERE id = ?
	`, status, syncErr, lastSyncAt, now, id)

	if err != nil {
		return fmt.Errorf("updating sync status: %w", err)
	}

	return nil
}

// SetActive toggles a feed. Deactivating removes every external block the
// feed owns: a disabled feed stops claiming dates immediately.
func (r *FeedRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.Transaction(func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE listing_ical_feeds SET is_active = ?, updated_at = ? WHERE id = ?
		`, active, time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("updating feed: %w", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return fmt.Errorf("feed %s: %w", id, models.ErrNotFound)
		}

		if !active {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM calendar_blocks WHERE feed_id = ? AND provenance = ?`,
				id, models.ProvenanceExternal); err != nil {
				return fmt.Errorf("removing feed blocks: %w", err)
			}
		}

		return nil
	})
}

// Delete removes a feed. Its external blocks go with it via the foreign
// key cascade.
func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM listing_ical_feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting feed: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("feed %s: %w", id, models.ErrNotFound)
	}

	return nil
}
