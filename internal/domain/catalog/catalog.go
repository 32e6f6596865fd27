// Package catalog holds the curated schedules and hotels that back the
// catalog tier of offer search.
package catalog

import (
	"context"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// Route is one curated scheduled service between two coded places.
type Route struct {
	ID              uint
	Mode            offer.Mode
	OriginCode      string
	DestinationCode string
	Carrier         string
	ServiceNumber   string
	Departure       string
	Arrival         string
	DurationMinutes int
	BasePrice       int64
	Class           string
}

// Hotel is one curated hotel with its nightly price band.
type Hotel struct {
	ID        uint
	Name      string
	City      string
	Area      string
	PriceMin  int64
	PriceMax  int64
	Rating    float64
	Category  string
	Amenities []string
	ImageURL  string
}

// Repository reads the curated catalog.
type Repository interface {
	FindRoutes(ctx context.Context, mode offer.Mode, originCode, destinationCode string) ([]Route, error)
	// FindHotelsByCity matches city as a case-insensitive substring, best rated first.
	FindHotelsByCity(ctx context.Context, city string) ([]Hotel, error)
}
