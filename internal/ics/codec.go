// Package ics decodes and encodes the practical subset of the iCalendar
// format used by vacation-rental availability feeds: VEVENT blocks with
// DTSTART/DTEND, UID, STATUS and SUMMARY, all-day or timed.
package ics

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rental-calendar/backend/internal/storage/models"
)

const (
	dateLayout  = "20060102"
	stampLayout = "20060102T150405Z"
)

// ProductID identifies this engine in exported calendars.
const ProductID = "-//RentalCalendar//Availability Engine//EN"

// Decode parses an iCalendar document into a flat list of events.
//
// Decoding is tolerant by design: unknown property lines are ignored, an
// event missing DTSTART is dropped without failing the document, and
// STATUS:CANCELLED events are excluded entirely. An event without a UID is
// assigned a fresh identifier; such an event can never be matched on a
// later sync and will be recreated each pass, a known limitation of
// UID-less upstream feeds.
func Decode(r io.Reader) ([]models.ParsedEvent, error) {
	lines, err := unfold(r)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}

	var (
		events    []models.ParsedEvent
		inEvent   bool
		uid       string
		summary   string
		start     string
		end       string
		cancelled bool
	)

	reset := func() {
		uid, summary, start, end = "", "", "", ""
		cancelled = false
	}

	for _, line := range lines {
		name, value, ok := splitProperty(line)
		if !ok {
			continue
		}

		switch name {
		case "BEGIN":
			if value == "VEVENT" {
				inEvent = true
				reset()
			}
		case "END":
			if value != "VEVENT" || !inEvent {
				continue
			}
			inEvent = false
			if ev, ok := buildEvent(uid, summary, start, end, cancelled); ok {
				events = append(events, ev)
			}
		case "UID":
			if inEvent {
				uid = unescapeText(value)
			}
		case "SUMMARY":
			if inEvent {
				summary = unescapeText(value)
			}
		case "DTSTART":
			if inEvent {
				start = value
			}
		case "DTEND":
			if inEvent {
				end = value
			}
		case "STATUS":
			if inEvent && strings.EqualFold(value, "CANCELLED") {
				cancelled = true
			}
		}
	}

	return events, nil
}

// buildEvent assembles one parsed event, applying the defaulting rules.
// The second return is false when the event must be dropped.
func buildEvent(uid, summary, start, end string, cancelled bool) (models.ParsedEvent, bool) {
	if cancelled {
		return models.ParsedEvent{}, false
	}

	// DTSTART is the one required field; without it the event is dropped,
	// not an error for the whole document.
	startAt, err := parseDateTime(start)
	if err != nil {
		return models.ParsedEvent{}, false
	}

	endAt, err := parseDateTime(end)
	if err != nil || !endAt.After(startAt) {
		// Missing or malformed DTEND, or a feed claiming a non-positive
		// duration: treat as a one-day event.
		endAt = startAt.AddDate(0, 0, 1)
	}

	if uid == "" {
		uid = uuid.NewString()
	}

	return models.ParsedEvent{
		UID:     uid,
		Summary: summary,
		Start:   startAt,
		End:     endAt,
	}, true
}

// unfold reads the document and joins RFC 5545 folded lines: a line
// beginning with a space or tab continues the previous line.
func unfold(r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
			if len(lines) > 0 {
				lines[len(lines)-1] += line[1:]
			}
			continue
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// splitProperty splits "NAME;PARAM=X:value" into name and value,
// discarding property parameters.
func splitProperty(line string) (name, value string, ok bool) {
	colon := strings.Index(line, ":")
	if colon == -1 {
		return "", "", false
	}

	name = line[:colon]
	value = line[colon+1:]

	if semi := strings.Index(name, ";"); semi != -1 {
		name = name[:semi]
	}

	return strings.ToUpper(strings.TrimSpace(name)), value, true
}

// parseDateTime parses an iCal date or date-time value. Date-only values
// are interpreted as UTC midnight; floating date-times as UTC.
func parseDateTime(value string) (time.Time, error) {
	formats := []string{
		"20060102T150405Z",     // UTC datetime
		"20060102T150405",      // floating/local datetime
		"20060102",             // date only
		"2006-01-02T15:04:05Z", // ISO 8601 with dashes
		"2006-01-02",           // ISO 8601 date
	}

	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date value %q", value)
}

// unescapeText reverses RFC 5545 text escaping.
func unescapeText(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// escapeText applies RFC 5545 text escaping for backslash, newline,
// comma and semicolon.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	return s
}

// Encode serializes events into an iCalendar subscription document.
// Dates are emitted as VALUE=DATE (all-day), matching this engine's
// export semantics; Encode round-trips with Decode for that subset.
func Encode(w io.Writer, calendarName string, events []models.ParsedEvent) error {
	now := time.Now().UTC().Format(stampLayout)

	fmt.Fprintln(w, "BEGIN:VCALENDAR")
	fmt.Fprintln(w, "VERSION:2.0")
	fmt.Fprintf(w, "PRODID:%s\n", ProductID)
	fmt.Fprintln(w, "METHOD:PUBLISH")
	fmt.Fprintln(w, "CALSCALE:GREGORIAN")
	if calendarName != "" {
		fmt.Fprintf(w, "X-WR-CALNAME:%s\n", escapeText(calendarName))
	}

	for _, ev := range events {
		fmt.Fprintln(w, "BEGIN:VEVENT")
		fmt.Fprintf(w, "UID:%s\n", escapeText(ev.UID))
		fmt.Fprintf(w, "DTSTAMP:%s\n", now)
		fmt.Fprintf(w, "DTSTART;VALUE=DATE:%s\n", ev.Start.UTC().Format(dateLayout))
		fmt.Fprintf(w, "DTEND;VALUE=DATE:%s\n", ev.End.UTC().Format(dateLayout))
		if ev.Summary != "" {
			fmt.Fprintf(w, "SUMMARY:%s\n", escapeText(ev.Summary))
		}
		fmt.Fprintln(w, "END:VEVENT")
	}

	_, err := fmt.Fprintln(w, "END:VCALENDAR")
	return err
}
