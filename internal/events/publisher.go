// Package events defines the publishing interface the engine calls after
// a calendar state change. Transports (websocket push, polling) implement
// it; the engine never talks to a transport directly.
package events

import "github.com/rental-calendar/backend/internal/storage/models"

// Publisher receives calendar state-change notifications.
type Publisher interface {
	BlockCreated(block models.CalendarBlock)
	BlockRemoved(block models.CalendarBlock)
	SyncCompleted(result models.SyncResult)
	SyncFailed(feedID, listingID string, err error)
	ReservationCreated(res models.Reservation)
}

// Nop is a Publisher that discards every event.
type Nop struct{}

func (Nop) BlockCreated(models.CalendarBlock)     {}
func (Nop) BlockRemoved(models.CalendarBlock)     {}
func (Nop) SyncCompleted(models.SyncResult)       {}
func (Nop) SyncFailed(string, string, error)      {}
func (Nop) ReservationCreated(models.Reservation) {}
