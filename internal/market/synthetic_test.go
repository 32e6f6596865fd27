package market

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

var (
	gatePattern     = regexp.MustCompile(`^Gate [A-D]([1-9]|1[0-9]|2[0-5])$`)
	platformPattern = regexp.MustCompile(`^PF ([1-9]|1[0-5]) · \S.*$`)
	bayPattern      = regexp.MustCompile(`^Bay ([1-9]|1[0-9]|20)$`)
	clockPattern    = regexp.MustCompile(`^([01][0-9]|2[0-3]):(00|15|30|45)$`)
)

func idNumber(t *testing.T, id, prefix string) int {
	t.Helper()
	rest, ok := strings.CutPrefix(id, prefix)
	require.True(t, ok, "id %q lacks prefix %q", id, prefix)
	n, err := strconv.Atoi(rest)
	require.NoError(t, err)
	return n
}

func assertUniqueIDs(t *testing.T, offers []offer.Offer) {
	t.Helper()
	seen := map[string]bool{}
	for _, o := range offers {
		assert.False(t, seen[o.ID], "duplicate id %s", o.ID)
		seen[o.ID] = true
	}
}

func TestSyntheticFlights_DelhiToMumbai(t *testing.T) {
	data := loadData(t)
	c := criteria(t, data, offer.ModeFlight, "Delhi", "Mumbai")
	require.InDelta(t, 1150, c.DistanceKm, 20)

	offers, err := NewSyntheticFlights(data, seeded(1)).Fetch(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, offers, FlightResultCap)
	assertUniqueIDs(t, offers)

	d := float64(c.DistanceKm)
	for _, o := range offers {
		n := idNumber(t, o.ID, "FL-")
		assert.GreaterOrEqual(t, n, 100)
		assert.LessOrEqual(t, n, 999)
		assert.Equal(t, offer.ModeFlight, o.Mode)
		assert.Equal(t, offer.SourceSynthetic, o.SourceTag)
		assert.Contains(t, data.Airlines, o.DisplayName)
		assert.Contains(t, data.Classes.Flight, o.Class)
		assert.GreaterOrEqual(t, o.Price, int64(d*FlightRateMin+FlightBaseFare))
		assert.LessOrEqual(t, o.Price, int64(d*FlightRateMax+FlightBaseFare))
		assert.GreaterOrEqual(t, o.DurationMinutes, 60+FlightExtraMinMin)
		assert.LessOrEqual(t, o.DurationMinutes, 60+FlightExtraMinMax)
		assert.Regexp(t, gatePattern, o.Tag)
		assert.Regexp(t, clockPattern, o.DepartureTime)
		assert.Regexp(t, clockPattern, o.ArrivalTime)
		assert.Nil(t, o.RawPayload)
	}
}

func TestSyntheticTrains(t *testing.T) {
	data := loadData(t)
	c := criteria(t, data, offer.ModeTrain, "Delhi", "Mumbai")

	offers, err := NewSyntheticTrains(data, seeded(2)).Fetch(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, offers, TrainResultCap)
	assertUniqueIDs(t, offers)

	names := map[string]bool{}
	for _, tc := range data.TrainCategories {
		names[tc.Name] = true
	}
	for _, o := range offers {
		n := idNumber(t, o.ID, "TRN-")
		assert.GreaterOrEqual(t, n, 10000)
		assert.LessOrEqual(t, n, 99999)
		assert.True(t, names[o.DisplayName], "unknown train %q", o.DisplayName)
		assert.Contains(t, data.Classes.Train, o.Class)
		assert.Regexp(t, platformPattern, o.Tag)
		assert.Contains(t, []int{0, 15, 30, 45}, o.DurationMinutes%60)
		assert.Equal(t, offer.SourceSynthetic, o.SourceTag)
	}
}

func TestSyntheticBuses(t *testing.T) {
	data := loadData(t)
	c := criteria(t, data, offer.ModeBus, "Bengaluru", "Chennai")

	offers, err := NewSyntheticBuses(data, seeded(3)).Fetch(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, offers, BusResultCap)
	assertUniqueIDs(t, offers)

	for _, o := range offers {
		n := idNumber(t, o.ID, "BUS-")
		assert.GreaterOrEqual(t, n, 100)
		assert.LessOrEqual(t, n, 999)
		assert.Contains(t, data.BusOperators, o.DisplayName)
		assert.Contains(t, data.Classes.Bus, o.Class)
		assert.Regexp(t, bayPattern, o.Tag)
		assert.Equal(t, max(BusMinHours, c.DistanceKm/BusKmPerHour)*60, o.DurationMinutes)
	}
}

func TestSyntheticHotels(t *testing.T) {
	data := loadData(t)
	c := offer.Criteria{Mode: offer.ModeHotel, Destination: seedPlace(t, data, "Goa")}

	offers, err := NewSyntheticHotels(data, seeded(4)).Fetch(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, offers, HotelResultCap)

	for i, o := range offers {
		assert.Equal(t, hotelID(i), o.ID)
		assert.Contains(t, data.HotelBrands, o.DisplayName)
		assert.Contains(t, data.HotelRoomTypes, o.Class)
		assert.Contains(t, data.HotelImages, o.ImageURL)
		assert.GreaterOrEqual(t, o.Price, int64(2500))
		assert.LessOrEqual(t, o.Price, int64(9500))
		assert.GreaterOrEqual(t, o.Rating, HotelRatingMin)
		assert.LessOrEqual(t, o.Rating, HotelRatingMax)
		assert.Len(t, o.Amenities, HotelAmenityCount)
		for _, a := range o.Amenities {
			assert.Contains(t, data.HotelAmenities, a)
		}
	}
	assert.Equal(t, "HTL-01", offers[0].ID)
	assert.Equal(t, "HTL-10", offers[9].ID)
}

func TestIDSet_RedrawsOnCollision(t *testing.T) {
	ids := idSet{}
	draws := []string{"FL-101", "FL-101", "FL-102"}
	i := 0
	gen := func() string { i++; return draws[i-1] }

	assert.Equal(t, "FL-101", ids.draw(gen))
	assert.Equal(t, "FL-102", ids.draw(gen))
	assert.Equal(t, 3, i)
}
