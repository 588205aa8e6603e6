package models

import "time"

// Listing is the engine's read model of a rental listing: the pricing
// inputs and the opaque token that authorizes its ICS export feed.
// Full listing CRUD lives outside the calendar engine.
type Listing struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	BasePrice   float64   `json:"base_price"`
	CleaningFee float64   `json:"cleaning_fee"`
	ServiceFee  float64   `json:"service_fee"`
	TaxRate     float64   `json:"tax_rate"`
	ExportToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
