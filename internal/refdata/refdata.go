// Package refdata holds the static reference data the service ships with:
// carrier pools, train categories, hotel decoration and the seed catalog.
package refdata

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/asrs-travel/service-booking/internal/domain/place"
)

//go:embed data.yaml
var embedded []byte

// TrainCategory is a named train service with its nominal speed.
type TrainCategory struct {
	Name      string `yaml:"name"`
	Category  string `yaml:"category"`
	SpeedKmph int    `yaml:"speed_kmph"`
}

// Classes lists the cabin or berth classes per transport mode.
type Classes struct {
	Flight []string `yaml:"flight"`
	Train  []string `yaml:"train"`
	Bus    []string `yaml:"bus"`
}

// PlaceSeed is one catalog place.
type PlaceSeed struct {
	Name        string            `yaml:"name"`
	Region      string            `yaml:"region"`
	ShortCode   string            `yaml:"short_code"`
	StationCode string            `yaml:"station_code"`
	Latitude    float64           `yaml:"latitude"`
	Longitude   float64           `yaml:"longitude"`
	Notable     place.NotableInfo `yaml:"notable"`
	Aliases     []string          `yaml:"aliases"`
}

// Place converts the seed to a domain place.
func (s PlaceSeed) Place() place.Place {
	return place.Place{
		CanonicalName: s.Name,
		Key:           place.NormalizeKey(s.Name),
		Region:        s.Region,
		ShortCode:     s.ShortCode,
		StationCode:   s.StationCode,
		Latitude:      s.Latitude,
		Longitude:     s.Longitude,
		Notable:       s.Notable,
	}
}

// RouteSeed is one curated scheduled service.
type RouteSeed struct {
	Mode            string `yaml:"mode"`
	Origin          string `yaml:"origin"`
	Destination     string `yaml:"destination"`
	Carrier         string `yaml:"carrier"`
	ServiceNumber   string `yaml:"service_number"`
	Departure       string `yaml:"departure"`
	Arrival         string `yaml:"arrival"`
	DurationMinutes int    `yaml:"duration_minutes"`
	BasePrice       int64  `yaml:"base_price"`
	Class           string `yaml:"class"`
}

// HotelSeed is one curated hotel.
type HotelSeed struct {
	Name      string   `yaml:"name"`
	City      string   `yaml:"city"`
	Area      string   `yaml:"area"`
	PriceMin  int64    `yaml:"price_min"`
	PriceMax  int64    `yaml:"price_max"`
	Rating    float64  `yaml:"rating"`
	Category  string   `yaml:"category"`
	Amenities []string `yaml:"amenities"`
	ImageURL  string   `yaml:"image_url"`
}

// Data is the full reference set. It is loaded once and treated as read-only.
type Data struct {
	Airlines        []string        `yaml:"airlines"`
	BusOperators    []string        `yaml:"bus_operators"`
	HotelBrands     []string        `yaml:"hotel_brands"`
	HotelRoomTypes  []string        `yaml:"hotel_room_types"`
	HotelAmenities  []string        `yaml:"hotel_amenities"`
	HotelImages     []string        `yaml:"hotel_images"`
	Classes         Classes         `yaml:"classes"`
	TrainCategories []TrainCategory `yaml:"train_categories"`
	DealCityPairs   [][2]string     `yaml:"deal_city_pairs"`
	Places          []PlaceSeed     `yaml:"places"`
	Routes          []RouteSeed     `yaml:"routes"`
	Hotels          []HotelSeed     `yaml:"hotels"`
}

// Load parses the embedded reference data.
func Load() (*Data, error) {
	return Parse(embedded)
}

// Parse decodes and validates a reference document.
func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to parse reference data: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Data) validate() error {
	pools := map[string]int{
		"airlines":         len(d.Airlines),
		"bus_operators":    len(d.BusOperators),
		"hotel_brands":     len(d.HotelBrands),
		"hotel_room_types": len(d.HotelRoomTypes),
		"hotel_amenities":  len(d.HotelAmenities),
		"hotel_images":     len(d.HotelImages),
		"classes.flight":   len(d.Classes.Flight),
		"classes.train":    len(d.Classes.Train),
		"classes.bus":      len(d.Classes.Bus),
		"train_categories": len(d.TrainCategories),
	}
	for name, n := range pools {
		if n == 0 {
			return fmt.Errorf("reference data: %s must not be empty", name)
		}
	}
	for _, tc := range d.TrainCategories {
		if tc.SpeedKmph <= 0 {
			return fmt.Errorf("reference data: train category %q has no speed", tc.Name)
		}
	}
	for _, h := range d.Hotels {
		if h.PriceMin <= 0 || h.PriceMax < h.PriceMin {
			return fmt.Errorf("reference data: hotel %q has an invalid price band", h.Name)
		}
	}
	return nil
}
