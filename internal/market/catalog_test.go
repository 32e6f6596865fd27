package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrs-travel/service-booking/internal/domain/catalog"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

type fakeCatalog struct {
	routes    []catalog.Route
	hotels    []catalog.Hotel
	err       error
	gotMode   offer.Mode
	gotOrigin string
	gotCity   string
}

func (f *fakeCatalog) FindRoutes(_ context.Context, mode offer.Mode, origin, _ string) ([]catalog.Route, error) {
	f.gotMode, f.gotOrigin = mode, origin
	return f.routes, f.err
}

func (f *fakeCatalog) FindHotelsByCity(_ context.Context, city string) ([]catalog.Hotel, error) {
	f.gotCity = city
	return f.hotels, f.err
}

func TestCatalogRoutes_Train(t *testing.T) {
	data := loadData(t)
	repo := &fakeCatalog{routes: []catalog.Route{
		{ID: 11, Mode: offer.ModeTrain, Carrier: "Rajdhani Express", ServiceNumber: "12952",
			Departure: "16:55", Arrival: "08:35", DurationMinutes: 940, BasePrice: 3150, Class: "3A AC"},
		{ID: 12, Mode: offer.ModeTrain, Carrier: "Rajdhani Express", ServiceNumber: "12952",
			Departure: "16:55", Arrival: "08:35", DurationMinutes: 940, BasePrice: 4350, Class: "2A AC"},
	}}
	src := NewCatalogRoutes(offer.ModeTrain, repo, data, seeded(5))
	assert.Equal(t, "catalog-train", src.Name())
	assert.Equal(t, offer.SourceCatalog, src.Tier())

	offers, err := src.Fetch(context.Background(), criteria(t, data, offer.ModeTrain, "Delhi", "Mumbai"))
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, offer.ModeTrain, repo.gotMode)
	assert.Equal(t, "DEL", repo.gotOrigin)

	assert.Equal(t, "TRN-12952-11", offers[0].ID)
	assert.Equal(t, "TRN-12952-12", offers[1].ID)
	assert.Equal(t, offer.SourceCatalog, offers[0].SourceTag)
	assert.InDelta(t, 3150, offers[0].Price, 315)
	assert.InDelta(t, 4350, offers[1].Price, 435)
	assert.Regexp(t, `^PF \d+ · Premium$`, offers[0].Tag)
	assert.Nil(t, offers[0].RawPayload)
}

func TestCatalogRoutes_SkipsUncodedPlaces(t *testing.T) {
	repo := &fakeCatalog{err: errors.New("must not be called")}
	src := NewCatalogRoutes(offer.ModeBus, repo, loadData(t), seeded(6))

	offers, err := src.Fetch(context.Background(), offer.Criteria{Mode: offer.ModeBus})
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestCatalogRoutes_RepositoryError(t *testing.T) {
	data := loadData(t)
	repo := &fakeCatalog{err: errors.New("connection refused")}
	_, err := NewCatalogRoutes(offer.ModeFlight, repo, data, seeded(7)).
		Fetch(context.Background(), criteria(t, data, offer.ModeFlight, "Delhi", "Dubai"))
	assert.ErrorContains(t, err, "connection refused")
}

func TestCatalogHotels(t *testing.T) {
	data := loadData(t)
	repo := &fakeCatalog{hotels: []catalog.Hotel{
		{ID: 3, Name: "The Leela Palace", City: "Bengaluru", Area: "Old Airport Road", PriceMin: 14000, PriceMax: 22000,
			Rating: 4.8, Category: "Luxury", Amenities: []string{"Pool", "Spa", "Gym", "Free WiFi"}, ImageURL: "https://img/1"},
		{ID: 9, Name: "Treebo Trend", City: "Bengaluru", Area: "Indiranagar", PriceMin: 2200, PriceMax: 3200,
			Rating: 4.1, Category: "Budget", Amenities: []string{"Free WiFi", "AC"}, ImageURL: "https://img/2"},
	}}
	src := NewCatalogHotels(repo, seeded(8))

	offers, err := src.Fetch(context.Background(), offer.Criteria{
		Mode: offer.ModeHotel, Destination: seedPlace(t, data, "Bengaluru"),
	})
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "Bengaluru", repo.gotCity)

	first := offers[0]
	assert.Equal(t, "HTL-01", first.ID)
	assert.Equal(t, "The Leela Palace", first.DisplayName)
	assert.Equal(t, "Old Airport Road", first.Tag)
	assert.Equal(t, "Luxury", first.Class)
	assert.GreaterOrEqual(t, first.Price, int64(14000))
	assert.LessOrEqual(t, first.Price, int64(22000))
	assert.Len(t, first.Amenities, HotelAmenityCount)
	assert.Subset(t, []string{"Pool", "Spa", "Gym", "Free WiFi"}, first.Amenities)

	assert.Len(t, offers[1].Amenities, 2, "subset is capped by what the hotel offers")
	assert.Equal(t, offer.SourceCatalog, offers[1].SourceTag)
}

func TestCatalogHotels_NoDestination(t *testing.T) {
	offers, err := NewCatalogHotels(&fakeCatalog{}, seeded(9)).Fetch(context.Background(), offer.Criteria{Mode: offer.ModeHotel})
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestTrainCategory(t *testing.T) {
	data := loadData(t)
	assert.Equal(t, "Premium", trainCategory(data, "NEW DELHI RAJDHANI EXPRESS"))
	assert.Equal(t, "Premium", trainCategory(data, "MMCT RAJDHANI"))
	assert.Equal(t, "Intercity", trainCategory(data, "Pune Intercity"))
	assert.Equal(t, "Long-Distance", trainCategory(data, "Island Special"))
}
