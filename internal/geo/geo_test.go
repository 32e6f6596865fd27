package geo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/domain/place"
)

var (
	delhi  = place.Place{CanonicalName: "Delhi", Key: "delhi", ShortCode: "DEL", Latitude: 28.6139, Longitude: 77.2090}
	mumbai = place.Place{CanonicalName: "Mumbai", Key: "mumbai", ShortCode: "BOM", Latitude: 19.0760, Longitude: 72.8777}
	goa    = place.Place{CanonicalName: "Goa", Key: "goa", ShortCode: "GOI", Latitude: 15.2993, Longitude: 74.1240}
)

type mapCatalog struct {
	places map[string]place.Place
	err    error
}

func (m *mapCatalog) FindByKey(_ context.Context, key string) (*place.Place, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.places[key]
	if !ok {
		return nil, domain.NewNotFoundError("Place", key)
	}
	return &p, nil
}

func (m *mapCatalog) SearchByPrefix(context.Context, string, int) ([]place.Place, error) {
	return nil, nil
}

type stubGeocoder struct {
	found *place.Place
	err   error
	calls int
}

func (s *stubGeocoder) Lookup(context.Context, string) (*place.Place, error) {
	s.calls++
	return s.found, s.err
}

func newCatalog() *mapCatalog {
	return &mapCatalog{places: map[string]place.Place{
		"delhi":     delhi,
		"new delhi": delhi,
		"mumbai":    mumbai,
		"goa":       goa,
	}}
}

func TestDistanceKm(t *testing.T) {
	d := DistanceKm(delhi, mumbai)
	assert.InDelta(t, 1148, d, 5)
	assert.Equal(t, d, DistanceKm(mumbai, delhi))

	assert.Equal(t, MinDistanceKm, DistanceKm(delhi, delhi))
}

func TestCoordinatesOf_RoundsToFourDecimals(t *testing.T) {
	c := CoordinatesOf(place.Place{Latitude: 12.971598, Longitude: 77.594566})
	assert.Equal(t, 12.9716, c.Latitude)
	assert.Equal(t, 77.5946, c.Longitude)
}

func TestResolve_CatalogHitIgnoresCaseAndSpacing(t *testing.T) {
	r := NewResolver(newCatalog(), nil, zap.NewNop())

	p, err := r.Resolve(context.Background(), "  New   DELHI ", offer.ModeFlight, place.ReasonSource)
	require.NoError(t, err)
	assert.Equal(t, "Delhi", p.CanonicalName)
}

func TestResolve_UnknownPlaces(t *testing.T) {
	atlantis := &place.Place{CanonicalName: "Atlantis", Key: "atlantis", Latitude: 1, Longitude: 1, Transient: true}

	tests := []struct {
		name      string
		mode      offer.Mode
		geocoder  *stubGeocoder
		wantCode  string
		wantCalls int
	}{
		{name: "flight never geocodes", mode: offer.ModeFlight, geocoder: &stubGeocoder{found: atlantis}, wantCode: place.CodePlaceNotFound},
		{name: "train uses the geocoder", mode: offer.ModeTrain, geocoder: &stubGeocoder{found: atlantis}, wantCalls: 1},
		{name: "geocoder miss", mode: offer.ModeBus, geocoder: &stubGeocoder{}, wantCode: place.CodePlaceNotVerifiable, wantCalls: 1},
		{name: "geocoder failure", mode: offer.ModeHotel, geocoder: &stubGeocoder{err: errors.New("timeout")}, wantCode: place.CodePlaceNotVerifiable, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(newCatalog(), tt.geocoder, zap.NewNop())

			p, err := r.Resolve(context.Background(), "Atlantis", tt.mode, place.ReasonDestination)
			assert.Equal(t, tt.wantCalls, tt.geocoder.calls)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.True(t, p.Transient)
				return
			}
			var de *domain.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Contains(t, de.Message, "destination")
		})
	}
}

func TestResolve_NoGeocoderConfigured(t *testing.T) {
	r := NewResolver(newCatalog(), nil, zap.NewNop())

	_, err := r.Resolve(context.Background(), "Atlantis", offer.ModeTrain, place.ReasonSource)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, place.CodePlaceNotVerifiable, de.Code)
}

func TestResolve_CatalogFailurePassesThrough(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewResolver(&mapCatalog{err: boom}, &stubGeocoder{}, zap.NewNop())

	_, err := r.Resolve(context.Background(), "Delhi", offer.ModeTrain, place.ReasonSource)
	assert.ErrorIs(t, err, boom)
}

func TestResolvePair(t *testing.T) {
	r := NewResolver(newCatalog(), nil, zap.NewNop())
	ctx := context.Background()

	src, dst, err := r.ResolvePair(ctx, "Delhi", "Goa", offer.ModeFlight)
	require.NoError(t, err)
	assert.Equal(t, "DEL", src.ShortCode)
	assert.Equal(t, "GOI", dst.ShortCode)

	src, dst, err = r.ResolvePair(ctx, "", "Goa", offer.ModeHotel)
	require.NoError(t, err)
	assert.True(t, src.IsZero())
	assert.Equal(t, "Goa", dst.CanonicalName)

	_, _, err = r.ResolvePair(ctx, "New Delhi", "delhi", offer.ModeTrain)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, place.CodeSamePlace, de.Code)

	_, _, err = r.ResolvePair(ctx, "", "Goa", offer.ModeFlight)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, place.CodePlaceNotFound, de.Code)
}
