package websocket

import (
	"encoding/json"
	"time"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeBlockCreated        MessageType = "block.created"
	TypeBlockRemoved        MessageType = "block.removed"
	TypeSyncCompleted       MessageType = "calendar.sync_completed"
	TypeSyncError           MessageType = "calendar.sync_error"
	TypeReservationCreated  MessageType = "booking.created"
	TypeSystemStatusChanged MessageType = "system.status_changed"
	TypeNotification        MessageType = "notification"

	// Client -> Server command types
	TypePing MessageType = "ping"

	// Server -> Client response types
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// BlockPayload is the payload for block.created and block.removed events.
type BlockPayload struct {
	BlockID    string `json:"block_id"`
	ListingID  string `json:"listing_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Provenance string `json:"provenance"`
	FeedID     string `json:"feed_id,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// SyncCompletedPayload is the payload for calendar.sync_completed events.
type SyncCompletedPayload struct {
	FeedID        string `json:"feed_id"`
	ListingID     string `json:"listing_id"`
	Provider      string `json:"provider"`
	EventsFound   int    `json:"events_found"`
	BlocksCreated int    `json:"blocks_created"`
	BlocksRemoved int    `json:"blocks_removed"`
	EventsSkipped int    `json:"events_skipped"`
}

// SyncErrorPayload is the payload for calendar.sync_error events.
type SyncErrorPayload struct {
	FeedID    string `json:"feed_id"`
	ListingID string `json:"listing_id"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// ReservationPayload is the payload for booking.created events.
type ReservationPayload struct {
	ReservationID string     `json:"reservation_id"`
	ListingID     string     `json:"listing_id"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	Status        string     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
