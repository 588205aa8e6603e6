// Package booking validates checkout requests against the availability
// store, creates expiring holds, and resolves nightly pricing.
package booking

import (
	"time"

	"github.com/rental-calendar/backend/internal/storage/models"
)

// Quote is the priced breakdown of a stay.
type Quote struct {
	Nights      int     `json:"nights"`
	Subtotal    float64 `json:"subtotal"`
	CleaningFee float64 `json:"cleaning_fee"`
	ServiceFee  float64 `json:"service_fee"`
	Tax         float64 `json:"tax"`
	Total       float64 `json:"total"`
}

// PriceForNight resolves the nightly price for one date: the covering
// price-override block if any, else the listing's base price. When
// overrides overlap, the last-created one wins for that night.
func PriceForNight(listing *models.Listing, overrides []models.CalendarBlock, date time.Time) float64 {
	price := listing.BasePrice

	var chosenAt time.Time
	chosen := false
	for i := range overrides {
		o := &overrides[i]
		if o.Provenance != models.ProvenancePriceOverride || o.Price == nil {
			continue
		}
		if !o.Range().Contains(date) {
			continue
		}
		if !chosen || !o.CreatedAt.Before(chosenAt) {
			price = *o.Price
			chosenAt = o.CreatedAt
			chosen = true
		}
	}

	return price
}

// PriceForStay sums the nightly prices over [checkIn, checkOut).
func PriceForStay(listing *models.Listing, overrides []models.CalendarBlock, stay models.DateRange) float64 {
	var total float64
	for night := stay.Start; night.Before(stay.End); night = night.AddDate(0, 0, 1) {
		total += PriceForNight(listing, overrides, night)
	}
	return total
}

// BuildQuote prices a stay including cleaning fee, service fee and tax.
func BuildQuote(listing *models.Listing, overrides []models.CalendarBlock, stay models.DateRange) Quote {
	subtotal := PriceForStay(listing, overrides, stay)
	tax := subtotal * listing.TaxRate

	return Quote{
		Nights:      stay.Nights(),
		Subtotal:    subtotal,
		CleaningFee: listing.CleaningFee,
		ServiceFee:  listing.ServiceFee,
		Tax:         tax,
		Total:       subtotal + listing.CleaningFee + listing.ServiceFee + tax,
	}
}
