package calendar

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// Scheduler runs periodic feed syncs. Each active feed gets its own cron
// entry; a reconciler pass picks up feeds added or removed outside the
// API (for example directly in the database).
type Scheduler struct {
	cron        *cron.Cron
	syncService *SyncService
	feeds       FeedStore

	jobs   map[string]cron.EntryID
	jobsMu sync.RWMutex

	interval time.Duration
}

// NewScheduler creates a sync scheduler that runs every active feed at
// the given interval.
func NewScheduler(syncService *SyncService, feeds FeedStore, intervalMin int) *Scheduler {
	if intervalMin <= 0 {
		intervalMin = 15
	}

	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		syncService: syncService,
		feeds:       feeds,
		jobs:        make(map[string]cron.EntryID),
		interval:    time.Duration(intervalMin) * time.Minute,
	}
}

// Start loads all active feeds, schedules them and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	log.Println("Starting feed sync scheduler...")

	feeds, err := s.feeds.ListActiveFeeds(ctx)
	if err != nil {
		return err
	}

	for _, feed := range feeds {
		s.ScheduleFeed(feed)
	}

	// Reconcile schedules against the store periodically so feeds created
	// or deactivated through any path end up scheduled correctly.
	s.cron.AddFunc("@every 5m", func() {
		s.refreshSchedules(context.Background())
	})

	s.cron.Start()
	log.Printf("Feed scheduler started with %d feeds", len(feeds))

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	log.Println("Stopping feed sync scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Feed scheduler stopped")
}

// ScheduleFeed adds or refreshes a feed's sync entry. Inactive feeds are
// unscheduled instead.
func (s *Scheduler) ScheduleFeed(feed models.IcalFeed) {
	if !feed.IsActive {
		s.UnscheduleFeed(feed.ID)
		return
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if existingID, exists := s.jobs[feed.ID]; exists {
		s.cron.Remove(existingID)
		delete(s.jobs, feed.ID)
	}

	spec := "@every " + s.interval.String()
	feedID := feed.ID

	entryID, err := s.cron.AddFunc(spec, func() {
		s.runSync(feedID)
	})
	if err != nil {
		log.Printf("Failed to schedule feed %s: %v", feed.ID, err)
		return
	}

	s.jobs[feed.ID] = entryID
	log.Printf("Scheduled feed %s (%s) every %s", feed.ID, feed.Provider, s.interval)
}

// UnscheduleFeed removes a feed's sync entry.
func (s *Scheduler) UnscheduleFeed(feedID string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	if entryID, exists := s.jobs[feedID]; exists {
		s.cron.Remove(entryID)
		delete(s.jobs, feedID)
		log.Printf("Unscheduled feed %s", feedID)
	}
}

// TriggerSync runs an immediate sync for a feed in the background.
func (s *Scheduler) TriggerSync(feedID string) {
	go s.runSync(feedID)
}

func (s *Scheduler) runSync(feedID string) {
	ctx := context.Background()

	result, err := s.syncService.SyncFeed(ctx, feedID)
	if err != nil {
		log.Printf("Feed sync failed for %s: %v", feedID, err)
		return
	}

	log.Printf("Feed sync completed for %s: %d events, %d blocks created, %d removed, %d skipped",
		feedID, result.EventsFound, result.BlocksCreated, result.BlocksRemoved, result.EventsSkipped)
}

// refreshSchedules reloads active feeds and reconciles the cron entries.
func (s *Scheduler) refreshSchedules(ctx context.Context) {
	feeds, err := s.feeds.ListActiveFeeds(ctx)
	if err != nil {
		log.Printf("Failed to refresh feed schedules: %v", err)
		return
	}

	currentIDs := make(map[string]bool, len(feeds))
	for _, feed := range feeds {
		currentIDs[feed.ID] = true
		s.jobsMu.RLock()
		_, scheduled := s.jobs[feed.ID]
		s.jobsMu.RUnlock()
		if !scheduled {
			s.ScheduleFeed(feed)
		}
	}

	s.jobsMu.Lock()
	for feedID := range s.jobs {
		if !currentIDs[feedID] {
			s.cron.Remove(s.jobs[feedID])
			delete(s.jobs, feedID)
			log.Printf("Removed schedule for feed %s (no longer active)", feedID)
		}
	}
	s.jobsMu.Unlock()
}

// ScheduledFeeds returns the feed ids currently carrying a cron entry.
func (s *Scheduler) ScheduledFeeds() []string {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}
