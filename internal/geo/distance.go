package geo

import (
	"math"

	"github.com/asrs-travel/service-booking/internal/domain/place"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// MinDistanceKm is the floor applied to every distance so that two places
// sharing coordinates never price at zero.
const MinDistanceKm = 1

// DistanceKm returns the haversine distance between a and b, floored to whole
// kilometres and clamped to MinDistanceKm.
func DistanceKm(a, b place.Place) int {
	return HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// HaversineKm is DistanceKm on raw coordinates in degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) int {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	km := int(math.Floor(EarthRadiusKm * c))
	if km < MinDistanceKm {
		return MinDistanceKm
	}
	return km
}

// Round4 rounds a coordinate to four decimals for display.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// CoordinatesOf returns the display coordinates of p.
func CoordinatesOf(p place.Place) place.Coordinates {
	return place.Coordinates{Latitude: Round4(p.Latitude), Longitude: Round4(p.Longitude)}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
