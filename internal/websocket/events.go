package websocket

import (
	"log"

	"github.com/rental-calendar/backend/internal/storage/models"
)

const dateLayout = "2006-01-02"

// EventBroadcaster translates calendar state changes into WebSocket
// messages. It implements events.Publisher.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BlockCreated sends a block.created event.
func (b *EventBroadcaster) BlockCreated(block models.CalendarBlock) {
	b.broadcast(NewMessage(TypeBlockCreated, blockPayload(block)))
}

// BlockRemoved sends a block.removed event.
func (b *EventBroadcaster) BlockRemoved(block models.CalendarBlock) {
	b.broadcast(NewMessage(TypeBlockRemoved, blockPayload(block)))
}

// SyncCompleted sends a calendar.sync_completed event.
func (b *EventBroadcaster) SyncCompleted(result models.SyncResult) {
	payload := SyncCompletedPayload{
		FeedID:        result.FeedID,
		ListingID:     result.ListingID,
		Provider:      result.Provider,
		EventsFound:   result.EventsFound,
		BlocksCreated: result.BlocksCreated,
		BlocksRemoved: result.BlocksRemoved,
		EventsSkipped: result.EventsSkipped,
	}

	b.broadcast(NewMessage(TypeSyncCompleted, payload))
}

// SyncFailed sends a calendar.sync_error event.
func (b *EventBroadcaster) SyncFailed(feedID, listingID string, err error) {
	payload := SyncErrorPayload{
		FeedID:    feedID,
		ListingID: listingID,
		Error:     "sync_error",
		Message:   err.Error(),
	}

	b.broadcast(NewMessage(TypeSyncError, payload))
}

// ReservationCreated sends a booking.created event.
func (b *EventBroadcaster) ReservationCreated(res models.Reservation) {
	payload := ReservationPayload{
		ReservationID: res.ID,
		ListingID:     res.ListingID,
		StartDate:     res.StartDate.Format(dateLayout),
		EndDate:       res.EndDate.Format(dateLayout),
		Status:        res.Status,
		HoldExpiresAt: res.HoldExpiresAt,
	}

	b.broadcast(NewMessage(TypeReservationCreated, payload))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}

	b.broadcast(NewMessage(TypeNotification, payload))
}

func blockPayload(block models.CalendarBlock) BlockPayload {
	p := BlockPayload{
		BlockID:    block.ID,
		ListingID:  block.ListingID,
		StartDate:  block.StartDate.Format(dateLayout),
		EndDate:    block.EndDate.Format(dateLayout),
		Provenance: block.Provenance,
	}
	if block.FeedID != nil {
		p.FeedID = *block.FeedID
	}
	if block.Summary != nil {
		p.Summary = *block.Summary
	}
	return p
}

// broadcast sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(data)
}
