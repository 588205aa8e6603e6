package models

import "time"

// ParsedEvent is the decoded form of one VEVENT from an iCal feed.
// Cancelled events are filtered out by the codec and never reach here.
type ParsedEvent struct {
	UID     string    `json:"uid"`
	Summary string    `json:"summary,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// Range returns the half-open night range the event claims.
func (e *ParsedEvent) Range() DateRange {
	return DateRange{Start: e.Start, End: e.End}
}

// Normalize snaps a timed event to whole nights. An end with a time of
// day falls on its own date, so an event ending the morning of a day does
// not claim that day's night. An event contained in a single day claims
// that one night.
func (e ParsedEvent) Normalize() ParsedEvent {
	e.Start = NormalizeDate(e.Start)
	e.End = NormalizeDate(e.End)
	if !e.End.After(e.Start) {
		e.End = e.Start.AddDate(0, 0, 1)
	}
	return e
}
