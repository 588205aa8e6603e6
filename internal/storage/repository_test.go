package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

func createTestListing(t *testing.T, db *DB) *models.Listing {
	t.Helper()
	listing := &models.Listing{Name: "Beach House", BasePrice: 150}
	if err := NewListingRepository(db).Create(context.Background(), listing); err != nil {
		t.Fatalf("creating listing: %v", err)
	}
	return listing
}

func TestFeedCreateDuplicateURLConflicts(t *testing.T) {
	db := newTestDB(t)
	listing := createTestListing(t, db)
	repo := NewFeedRepository(db)
	ctx := context.Background()

	first := &models.IcalFeed{
		ListingID: listing.ID,
		URL:       "https://example.com/cal.ics",
		Provider:  "other-platform",
		IsActive:  true,
	}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("creating feed: %v", err)
	}
	if first.ID == "" || first.LastSyncStatus != models.SyncStatusPending {
		t.Errorf("feed id=%q status=%q, want generated id and pending", first.ID, first.LastSyncStatus)
	}

	dup := &models.IcalFeed{
		ListingID: listing.ID,
		URL:       "https://example.com/cal.ics",
		Provider:  "other-platform",
		IsActive:  true,
	}
	err := repo.Create(ctx, dup)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("duplicate url error = %v, want ErrConflict", err)
	}

	// The same URL on a different listing is a separate subscription.
	other := createTestListing(t, db)
	second := &models.IcalFeed{
		ListingID: other.ID,
		URL:       "https://example.com/cal.ics",
		Provider:  "other-platform",
		IsActive:  true,
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Errorf("same url on another listing: %v, want success", err)
	}
}

func TestDeleteHostBlockByProvenance(t *testing.T) {
	db := newTestDB(t)
	listing := createTestListing(t, db)
	ctx := context.Background()

	feed := &models.IcalFeed{
		ListingID: listing.ID,
		URL:       "https://example.com/cal.ics",
		Provider:  "other-platform",
		IsActive:  true,
	}
	if err := NewFeedRepository(db).Create(ctx, feed); err != nil {
		t.Fatalf("creating feed: %v", err)
	}

	repo := NewBlockRepository(db)
	newBlock := func(provenance string, feedID *string) *models.CalendarBlock {
		t.Helper()
		block := &models.CalendarBlock{
			ListingID:  listing.ID,
			StartDate:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
			Provenance: provenance,
			FeedID:     feedID,
		}
		if err := repo.CreateBlock(ctx, block); err != nil {
			t.Fatalf("creating %s block: %v", provenance, err)
		}
		return block
	}

	t.Run("manual block is deletable", func(t *testing.T) {
		block := newBlock(models.ProvenanceManual, nil)
		if _, err := repo.DeleteHostBlock(ctx, block.ID); err != nil {
			t.Fatalf("deleting manual block: %v", err)
		}
		got, err := repo.GetBlock(ctx, block.ID)
		if err != nil || got != nil {
			t.Errorf("GetBlock after delete = %v, %v, want nil, nil", got, err)
		}
	})

	t.Run("external block is feed-owned", func(t *testing.T) {
		block := newBlock(models.ProvenanceExternal, &feed.ID)
		_, err := repo.DeleteHostBlock(ctx, block.ID)
		if !errors.Is(err, models.ErrPermissionDenied) {
			t.Fatalf("deleting external block: %v, want ErrPermissionDenied", err)
		}
		got, err := repo.GetBlock(ctx, block.ID)
		if err != nil || got == nil {
			t.Errorf("external block should survive the refused delete, got %v, %v", got, err)
		}
	})

	t.Run("reservation mirror is not deletable", func(t *testing.T) {
		block := newBlock(models.ProvenanceReservation, nil)
		if _, err := repo.DeleteHostBlock(ctx, block.ID); !errors.Is(err, models.ErrPermissionDenied) {
			t.Fatalf("deleting reservation mirror: %v, want ErrPermissionDenied", err)
		}
	})

	t.Run("missing block", func(t *testing.T) {
		if _, err := repo.DeleteHostBlock(ctx, "no-such-block"); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("deleting missing block: %v, want ErrNotFound", err)
		}
	})
}
