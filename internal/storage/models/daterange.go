// Package models contains the domain models for the calendar engine.
package models

import (
	"fmt"
	"time"
)

// DateRange is a half-open interval of nights [Start, End).
// Start and End are UTC midnights; the checkout day itself is not blocked,
// so a checkout on day N and a check-in on day N do not conflict.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes both dates to UTC midnight and returns the range.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: NormalizeDate(start), End: NormalizeDate(end)}
}

// NormalizeDate truncates a timestamp to midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks the range invariant Start < End.
func (r DateRange) Validate() error {
	if !r.Start.Before(r.End) {
		return fmt.Errorf("%w: range start %s is not before end %s",
			ErrValidation, r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	}
	return nil
}

// Overlaps reports whether two half-open ranges share at least one night.
// This is the single overlap definition used everywhere in the engine.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && r.End.After(other.Start)
}

// Contains reports whether the given night falls inside the range.
func (r DateRange) Contains(date time.Time) bool {
	d := NormalizeDate(date)
	return !d.Before(r.Start) && d.Before(r.End)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}
