package place

import (
	"fmt"
	"math"
	"strings"

	"github.com/asrs-travel/service-booking/internal/common/domain"
)

// Reason tags attached to place resolution failures.
const (
	ReasonSource      = "source"
	ReasonDestination = "destination"
	ReasonSamePlace   = "same-place"
)

// Error codes carried by place resolution failures.
const (
	CodePlaceNotFound      = "place_not_found"
	CodeSamePlace          = "same_place"
	CodePlaceNotVerifiable = "place_not_verifiable"
)

// NotableInfo is the travel-guide blurb shown with a destination.
type NotableInfo struct {
	Famous    string `json:"famous,omitempty" yaml:"famous"`
	LocalFood string `json:"local_food,omitempty" yaml:"local_food"`
	BestTime  string `json:"best_time,omitempty" yaml:"best_time"`
}

// Place is a resolved geographic endpoint. Catalog places are read-only;
// transient places come from geocoding and are never stored.
type Place struct {
	CanonicalName string      `json:"name"`
	Key           string      `json:"key"`
	Region        string      `json:"region,omitempty"`
	ShortCode     string      `json:"short_code,omitempty"`
	StationCode   string      `json:"station_code,omitempty"`
	Latitude      float64     `json:"latitude"`
	Longitude     float64     `json:"longitude"`
	Notable       NotableInfo `json:"notable_info"`
	Transient     bool        `json:"transient,omitempty"`
}

// Coordinates is a rounded lat/lon pair for display.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// NormalizeKey trims and lowercases a free-text place name.
func NormalizeKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// IsZero reports whether p is unset.
func (p Place) IsZero() bool {
	return p.Key == ""
}

// sameSpotDegrees is how far apart a geocoded point may lie from another
// place and still be taken for it.
const sameSpotDegrees = 0.01

// SameAs reports whether both places resolve to the same canonical key. A
// geocoded place also matches anything at practically the same coordinates.
func (p Place) SameAs(other Place) bool {
	if p.Key == "" || other.Key == "" {
		return false
	}
	if p.Key == other.Key {
		return true
	}
	if !p.Transient && !other.Transient {
		return false
	}
	return math.Abs(p.Latitude-other.Latitude) < sameSpotDegrees &&
		math.Abs(p.Longitude-other.Longitude) < sameSpotDegrees
}

// NewPlaceNotFoundError reports an endpoint that is not in the catalog.
func NewPlaceNotFoundError(reason, name string) *domain.DomainError {
	return domain.NewValidationErrorWithCode(CodePlaceNotFound,
		fmt.Sprintf("we don't serve %q yet (%s)", strings.TrimSpace(name), reason))
}

// NewSamePlaceError reports identical source and destination.
func NewSamePlaceError(name string) *domain.DomainError {
	return domain.NewValidationErrorWithCode(CodeSamePlace,
		fmt.Sprintf("source and destination are both %s", name))
}

// NewPlaceNotVerifiableError reports an endpoint neither the catalog nor the geocoder knows.
func NewPlaceNotVerifiableError(reason, name string) *domain.DomainError {
	return domain.NewValidationErrorWithCode(CodePlaceNotVerifiable,
		fmt.Sprintf("could not verify %q (%s), please check the spelling", strings.TrimSpace(name), reason))
}
