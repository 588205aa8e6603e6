package booking

import (
	"math"
	"testing"
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func override(price float64, start, end, createdAt time.Time) models.CalendarBlock {
	p := price
	return models.CalendarBlock{
		Provenance: models.ProvenancePriceOverride,
		Price:      &p,
		StartDate:  start,
		EndDate:    end,
		CreatedAt:  createdAt,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPriceForNight(t *testing.T) {
	listing := &models.Listing{BasePrice: 80}
	created := day(2026, 1, 1)
	overrides := []models.CalendarBlock{
		override(120, day(2026, 4, 1), day(2026, 4, 5), created),
	}

	if got := PriceForNight(listing, overrides, day(2026, 4, 3)); !almostEqual(got, 120) {
		t.Errorf("overridden night = %v, want 120", got)
	}
	if got := PriceForNight(listing, overrides, day(2026, 4, 5)); !almostEqual(got, 80) {
		t.Errorf("night past override end = %v, want base 80", got)
	}
	if got := PriceForNight(listing, nil, day(2026, 4, 3)); !almostEqual(got, 80) {
		t.Errorf("night without overrides = %v, want base 80", got)
	}
}

func TestPriceForNightLastCreatedWins(t *testing.T) {
	listing := &models.Listing{BasePrice: 80}
	overrides := []models.CalendarBlock{
		override(200, day(2026, 4, 1), day(2026, 4, 10), day(2026, 1, 2)),
		override(150, day(2026, 4, 1), day(2026, 4, 10), day(2026, 1, 1)),
	}

	if got := PriceForNight(listing, overrides, day(2026, 4, 5)); !almostEqual(got, 200) {
		t.Errorf("overlapping overrides: got %v, want last-created 200", got)
	}
}

func TestBuildQuoteScenario(t *testing.T) {
	// Override [Apr 1, Apr 5) at 120 over base 80; a four-night stay
	// straddling the override end pays three overridden nights plus one
	// base night, then fees and tax on top.
	listing := &models.Listing{
		BasePrice:   80,
		CleaningFee: 50,
		ServiceFee:  30,
		TaxRate:     0.1,
	}
	overrides := []models.CalendarBlock{
		override(120, day(2026, 4, 1), day(2026, 4, 5), day(2026, 1, 1)),
	}

	stay := models.DateRange{Start: day(2026, 4, 2), End: day(2026, 4, 6)}
	quote := BuildQuote(listing, overrides, stay)

	// Nights Apr 2, 3, 4 overridden at 120; Apr 5 at base 80.
	wantSubtotal := 120.0 + 120 + 120 + 80
	if !almostEqual(quote.Subtotal, wantSubtotal) {
		t.Errorf("Subtotal = %v, want %v", quote.Subtotal, wantSubtotal)
	}
	if quote.Nights != 4 {
		t.Errorf("Nights = %d, want 4", quote.Nights)
	}

	wantTax := wantSubtotal * 0.1
	if !almostEqual(quote.Tax, wantTax) {
		t.Errorf("Tax = %v, want %v", quote.Tax, wantTax)
	}
	wantTotal := wantSubtotal + 50 + 30 + wantTax
	if !almostEqual(quote.Total, wantTotal) {
		t.Errorf("Total = %v, want %v", quote.Total, wantTotal)
	}
}
