package models

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b DateRange
		want bool
	}{
		{
			name: "disjoint ranges",
			a:    DateRange{date(2026, 1, 1), date(2026, 1, 3)},
			b:    DateRange{date(2026, 1, 5), date(2026, 1, 7)},
			want: false,
		},
		{
			name: "shared boundary does not overlap",
			a:    DateRange{date(2026, 1, 1), date(2026, 1, 3)},
			b:    DateRange{date(2026, 1, 3), date(2026, 1, 5)},
			want: false,
		},
		{
			name: "one night shared",
			a:    DateRange{date(2026, 1, 1), date(2026, 1, 4)},
			b:    DateRange{date(2026, 1, 3), date(2026, 1, 5)},
			want: true,
		},
		{
			name: "contained range",
			a:    DateRange{date(2026, 1, 1), date(2026, 1, 10)},
			b:    DateRange{date(2026, 1, 4), date(2026, 1, 5)},
			want: true,
		},
		{
			name: "identical ranges",
			a:    DateRange{date(2026, 1, 1), date(2026, 1, 3)},
			b:    DateRange{date(2026, 1, 1), date(2026, 1, 3)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// Overlap must be symmetric
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps(%s, %s) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	bad := DateRange{date(2026, 1, 5), date(2026, 1, 5)}
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty range, got %v", err)
	}

	reversed := DateRange{date(2026, 1, 5), date(2026, 1, 1)}
	if err := reversed.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for reversed range, got %v", err)
	}

	ok := DateRange{date(2026, 1, 1), date(2026, 1, 2)}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid range, got %v", err)
	}
}

func TestNights(t *testing.T) {
	r := DateRange{date(2026, 3, 10), date(2026, 3, 13)}
	if got := r.Nights(); got != 3 {
		t.Errorf("Nights() = %d, want 3", got)
	}
}

func TestContains(t *testing.T) {
	r := DateRange{date(2026, 4, 1), date(2026, 4, 5)}

	if !r.Contains(date(2026, 4, 1)) {
		t.Error("range should contain its first night")
	}
	if !r.Contains(date(2026, 4, 4)) {
		t.Error("range should contain its last night")
	}
	if r.Contains(date(2026, 4, 5)) {
		t.Error("range should not contain the checkout day")
	}
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	in := time.Date(2026, 6, 15, 14, 30, 0, 0, loc)
	got := NormalizeDate(in)
	want := date(2026, 6, 15)
	if !got.Equal(want) {
		t.Errorf("NormalizeDate(%v) = %v, want %v", in, got, want)
	}
}

func TestParsedEventNormalize(t *testing.T) {
	tests := []struct {
		name               string
		start, end         time.Time
		wantStart, wantEnd time.Time
	}{
		{
			name:      "date values pass through",
			start:     date(2026, 3, 10),
			end:       date(2026, 3, 12),
			wantStart: date(2026, 3, 10),
			wantEnd:   date(2026, 3, 12),
		},
		{
			name:      "morning checkout does not claim the checkout night",
			start:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			end:       time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC),
			wantStart: date(2026, 3, 10),
			wantEnd:   date(2026, 3, 12),
		},
		{
			name:      "event within a single day claims one night",
			start:     time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			end:       time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC),
			wantStart: date(2026, 3, 10),
			wantEnd:   date(2026, 3, 11),
		},
		{
			name:      "equal date values clamp to one night",
			start:     date(2026, 3, 10),
			end:       date(2026, 3, 10),
			wantStart: date(2026, 3, 10),
			wantEnd:   date(2026, 3, 11),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsedEvent{UID: "u", Start: tt.start, End: tt.end}.Normalize()
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("Normalize() = [%v, %v), want [%v, %v)",
					got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestReservationOccupies(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		res  Reservation
		want bool
	}{
		{"confirmed", Reservation{Status: ReservationConfirmed}, true},
		{"checked in", Reservation{Status: ReservationCheckedIn}, true},
		{"completed", Reservation{Status: ReservationCompleted}, true},
		{"cancelled", Reservation{Status: ReservationCancelled}, false},
		{"live hold", Reservation{Status: ReservationPendingPayment, HoldExpiresAt: &future}, true},
		{"lapsed hold", Reservation{Status: ReservationPendingPayment, HoldExpiresAt: &past}, false},
		{"hold without expiry", Reservation{Status: ReservationPendingPayment}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.Occupies(now); got != tt.want {
				t.Errorf("Occupies() = %v, want %v", got, tt.want)
			}
		})
	}
}
