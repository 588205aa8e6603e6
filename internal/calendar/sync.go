package calendar

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rental-calendar/backend/internal/events"
	"github.com/rental-calendar/backend/internal/ics"
	"github.com/rental-calendar/backend/internal/storage/models"
)

// FeedStore is the feed state the synchronizer reads and updates.
type FeedStore interface {
	GetFeed(ctx context.Context, id string) (*models.IcalFeed, error)
	ListActiveFeeds(ctx context.Context) ([]models.IcalFeed, error)
	ListActiveFeedsByListing(ctx context.Context, listingID string) ([]models.IcalFeed, error)
	UpdateFeedSyncStatus(ctx context.Context, id, status string, syncErr *string) error
}

// BlockStore is the block state the synchronizer reconciles against.
type BlockStore interface {
	ListBlocksByFeed(ctx context.Context, feedID string) ([]models.CalendarBlock, error)
	ListExternalBlocks(ctx context.Context, listingID string) ([]models.CalendarBlock, error)
	CreateBlock(ctx context.Context, block *models.CalendarBlock) error
	DeleteBlock(ctx context.Context, id string) error
}

// ReservationStore exposes the reservations that occupy a listing's
// calendar at a given instant (lapsed holds excluded at query time).
type ReservationStore interface {
	ListOccupyingReservations(ctx context.Context, listingID string, now time.Time) ([]models.Reservation, error)
}

// AuditLog is the write-only sink for skipped-event records. Hosts use
// these to diagnose why an external block did not appear.
type AuditLog interface {
	RecordSkippedEvent(ctx context.Context, feedID string, event models.ParsedEvent, reason, conflictingID string)
}

// LogAudit writes skip records to the process log.
type LogAudit struct{}

// RecordSkippedEvent implements AuditLog.
func (LogAudit) RecordSkippedEvent(_ context.Context, feedID string, event models.ParsedEvent, reason, conflictingID string) {
	log.Printf("Sync skip: feed=%s uid=%s range=%s reason=%q conflicting=%s",
		feedID, event.UID, event.Range(), reason, conflictingID)
}

// SyncService synchronizes external iCal feeds into the availability
// store, one way (external to internal).
type SyncService struct {
	feeds        FeedStore
	blocks       BlockStore
	reservations ReservationStore
	audit        AuditLog
	publisher    events.Publisher
	httpClient   *http.Client
	workers      int

	// now is swappable for tests.
	now func() time.Time
}

// NewSyncService creates a feed synchronizer. fetchTimeout bounds each
// feed download; workers bounds the global-sync fan-out.
func NewSyncService(
	feeds FeedStore,
	blocks BlockStore,
	reservations ReservationStore,
	audit AuditLog,
	publisher events.Publisher,
	fetchTimeout time.Duration,
	workers int,
) *SyncService {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	if workers <= 0 {
		workers = 4
	}
	if audit == nil {
		audit = LogAudit{}
	}
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &SyncService{
		feeds:        feeds,
		blocks:       blocks,
		reservations: reservations,
		audit:        audit,
		publisher:    publisher,
		httpClient:   &http.Client{Timeout: fetchTimeout},
		workers:      workers,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// reconciliationKey identifies one external claim. Events are matched by
// dates as well as UID: an event whose dates changed upstream is a brand
// new candidate, and the old claim is removed as stale.
func reconciliationKey(provider, uid string, r models.DateRange) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		provider, uid, r.Start.Format("20060102"), r.End.Format("20060102"))
}

// SyncFeed fetches one feed and reconciles its events against the blocks
// the feed owns. A fetch or decode failure records an error status on the
// feed and leaves previously-synced blocks untouched; a successful pass is
// idempotent, so an unchanged upstream document produces zero changes.
func (s *SyncService) SyncFeed(ctx context.Context, feedID string) (*models.SyncResult, error) {
	feed, err := s.feeds.GetFeed(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("loading feed: %w", err)
	}
	if feed == nil {
		return nil, fmt.Errorf("feed %s: %w", feedID, models.ErrNotFound)
	}

	result := &models.SyncResult{
		FeedID:    feed.ID,
		ListingID: feed.ListingID,
		Provider:  feed.Provider,
		SyncedAt:  s.now(),
	}

	// Inactive feeds are never fetched.
	if !feed.IsActive {
		result.OK = true
		return result, nil
	}

	parsed, err := s.fetchAndDecode(ctx, feed.URL)
	if err != nil {
		return s.failSync(ctx, feed, result, err)
	}
	result.EventsFound = len(parsed)

	existing, err := s.blocks.ListBlocksByFeed(ctx, feed.ID)
	if err != nil {
		return s.failSync(ctx, feed, result, fmt.Errorf("listing feed blocks: %w", err))
	}

	existingByKey := make(map[string]models.CalendarBlock, len(existing))
	for _, b := range existing {
		uid := ""
		if b.EventUID != nil {
			uid = *b.EventUID
		}
		existingByKey[reconciliationKey(feed.Provider, uid, b.Range())] = b
	}

	now := s.now()
	reservations, err := s.reservations.ListOccupyingReservations(ctx, feed.ListingID, now)
	if err != nil {
		return s.failSync(ctx, feed, result, fmt.Errorf("listing reservations: %w", err))
	}
	externals, err := s.blocks.ListExternalBlocks(ctx, feed.ListingID)
	if err != nil {
		return s.failSync(ctx, feed, result, fmt.Errorf("listing external blocks: %w", err))
	}

	seen := make(map[string]bool, len(parsed))
	for _, event := range parsed {
		key := reconciliationKey(feed.Provider, event.UID, event.Range())
		seen[key] = true

		if _, ok := existingByKey[key]; ok {
			continue
		}

		decision := Resolve(event, feed.ID, reservations, externals, now)
		if decision.Outcome != Accept {
			result.EventsSkipped++
			s.audit.RecordSkippedEvent(ctx, feed.ID, event, decision.Outcome.String(), decision.ConflictingID)
			continue
		}

		block := newExternalBlock(feed, event, now)
		if err := s.blocks.CreateBlock(ctx, block); err != nil {
			log.Printf("Error creating block for event %s on feed %s: %v", event.UID, feed.ID, err)
			continue
		}
		result.BlocksCreated++
		s.publisher.BlockCreated(*block)
	}

	// Anything the feed owned but no longer lists was cancelled, moved or
	// removed upstream.
	for key, block := range existingByKey {
		if seen[key] {
			continue
		}
		if err := s.blocks.DeleteBlock(ctx, block.ID); err != nil {
			log.Printf("Error removing stale block %s on feed %s: %v", block.ID, feed.ID, err)
			continue
		}
		result.BlocksRemoved++
		s.publisher.BlockRemoved(block)
	}

	if err := s.feeds.UpdateFeedSyncStatus(ctx, feed.ID, models.SyncStatusSynced, nil); err != nil {
		log.Printf("Error updating sync status for feed %s: %v", feed.ID, err)
	}

	result.OK = true
	s.publisher.SyncCompleted(*result)
	return result, nil
}

// failSync records an error on the feed without touching its blocks.
func (s *SyncService) failSync(ctx context.Context, feed *models.IcalFeed, result *models.SyncResult, cause error) (*models.SyncResult, error) {
	msg := cause.Error()
	if err := s.feeds.UpdateFeedSyncStatus(ctx, feed.ID, models.SyncStatusError, &msg); err != nil {
		log.Printf("Error recording sync failure for feed %s: %v", feed.ID, err)
	}

	result.Error = cause
	s.publisher.SyncFailed(feed.ID, feed.ListingID, cause)
	return result, cause
}

func newExternalBlock(feed *models.IcalFeed, event models.ParsedEvent, now time.Time) *models.CalendarBlock {
	feedID := feed.ID
	uid := event.UID
	block := &models.CalendarBlock{
		ID:         uuid.NewString(),
		ListingID:  feed.ListingID,
		StartDate:  event.Start,
		EndDate:    event.End,
		Provenance: models.ProvenanceExternal,
		FeedID:     &feedID,
		EventUID:   &uid,
		CreatedAt:  now,
	}
	if event.Summary != "" {
		summary := event.Summary
		block.Summary = &summary
	}
	return block
}

// fetchAndDecode downloads and decodes a feed document.
func (s *SyncService) fetchAndDecode(ctx context.Context, url string) ([]models.ParsedEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", models.ErrUpstream, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching feed: %v", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: feed returned status %d", models.ErrUpstream, resp.StatusCode)
	}

	parsed, err := ics.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding feed: %v", models.ErrUpstream, err)
	}

	// Blocks live at night granularity. Normalizing here keeps the
	// reconciliation keys, the conflict checks and the stored ranges all
	// speaking the same units, whatever time-of-day the feed sent.
	for i := range parsed {
		parsed[i] = parsed[i].Normalize()
	}

	return parsed, nil
}

// SyncListing runs the synchronizer over every active feed of a listing.
// A failure in one feed does not abort the others.
func (s *SyncService) SyncListing(ctx context.Context, listingID string) ([]models.SyncResult, error) {
	feeds, err := s.feeds.ListActiveFeedsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing feeds: %w", err)
	}

	results := make([]models.SyncResult, 0, len(feeds))
	for _, feed := range feeds {
		result, err := s.SyncFeed(ctx, feed.ID)
		if err != nil {
			log.Printf("Error syncing feed %s: %v", feed.ID, err)
		}
		if result != nil {
			results = append(results, *result)
		}
	}

	return results, nil
}

// SyncAllActive runs every active feed through a bounded worker pool.
// Feeds only write blocks they own, so concurrent syncs are safe; the rare
// cross-feed race over a freshly-claimed range is resolved by the next
// scheduled pass.
func (s *SyncService) SyncAllActive(ctx context.Context) ([]models.SyncResult, error) {
	feeds, err := s.feeds.ListActiveFeeds(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active feeds: %w", err)
	}

	var (
		mu      sync.Mutex
		results []models.SyncResult
		wg      sync.WaitGroup
	)

	jobs := make(chan models.IcalFeed)
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for feed := range jobs {
				result, err := s.SyncFeed(ctx, feed.ID)
				if err != nil {
					log.Printf("Error syncing feed %s: %v", feed.ID, err)
				}
				if result != nil {
					mu.Lock()
					results = append(results, *result)
					mu.Unlock()
				}
			}
		}()
	}

	for _, feed := range feeds {
		jobs <- feed
	}
	close(jobs)
	wg.Wait()

	return results, nil
}
