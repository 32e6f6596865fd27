package offer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/asrs-travel/service-booking/internal/domain/place"
)

// Mode is a travel mode.
type Mode string

const (
	ModeFlight Mode = "Flight"
	ModeTrain  Mode = "Train"
	ModeBus    Mode = "Bus"
	ModeHotel  Mode = "Hotel"
)

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flight":
		return ModeFlight, nil
	case "train":
		return ModeTrain, nil
	case "bus":
		return ModeBus, nil
	case "hotel":
		return ModeHotel, nil
	}
	return "", fmt.Errorf("unknown travel mode: %q", s)
}

// RequiresKnownPlaces reports whether unknown endpoints are rejected outright.
func (m Mode) RequiresKnownPlaces() bool {
	return m == ModeFlight
}

// SourceTag marks where an offer came from.
type SourceTag string

const (
	SourceLive      SourceTag = "live"
	SourceCatalog   SourceTag = "catalog"
	SourceSynthetic SourceTag = "synthetic"
)

// IsValid reports whether s is a known source tag.
func (s SourceTag) IsValid() bool {
	switch s {
	case SourceLive, SourceCatalog, SourceSynthetic:
		return true
	}
	return false
}

// Offer is one priced option returned from a search. Only live offers carry
// the provider payload.
type Offer struct {
	ID              string          `json:"id"`
	Mode            Mode            `json:"mode"`
	DisplayName     string          `json:"name"`
	DepartureTime   string          `json:"departure,omitempty"`
	ArrivalTime     string          `json:"arrival,omitempty"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	Price           int64           `json:"price"`
	Class           string          `json:"class,omitempty"`
	Tag             string          `json:"tag,omitempty"`
	SourceTag       SourceTag       `json:"source_tag"`
	Rating          float64         `json:"rating,omitempty"`
	Amenities       []string        `json:"amenities,omitempty"`
	ImageURL        string          `json:"image_url,omitempty"`
	RawPayload      json.RawMessage `json:"-"`
}

// Duration renders DurationMinutes as "Xh Ym".
func (o Offer) Duration() string {
	if o.DurationMinutes <= 0 {
		return ""
	}
	h, m := o.DurationMinutes/60, o.DurationMinutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// Criteria is one search request after place resolution.
type Criteria struct {
	Mode        Mode
	Origin      place.Place
	Destination place.Place
	Date        string
	DistanceKm  int
}
