package market

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/domain/place"
	"github.com/asrs-travel/service-booking/internal/geo"
	"github.com/asrs-travel/service-booking/internal/refdata"
)

// fixedRand returns the same draw every time; IntN is clamped to n-1.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) IntN(n int) int   { return min(r.n, n-1) }

func seeded(seed uint64) *Synthesizer {
	return NewSynthesizer(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func loadData(t *testing.T) *refdata.Data {
	t.Helper()
	data, err := refdata.Load()
	require.NoError(t, err)
	return data
}

func seedPlace(t *testing.T, data *refdata.Data, name string) place.Place {
	t.Helper()
	for _, p := range data.Places {
		if p.Name == name {
			return p.Place()
		}
	}
	t.Fatalf("place %q not in reference data", name)
	return place.Place{}
}

func criteria(t *testing.T, data *refdata.Data, mode offer.Mode, from, to string) offer.Criteria {
	t.Helper()
	origin := seedPlace(t, data, from)
	dest := seedPlace(t, data, to)
	return offer.Criteria{
		Mode:        mode,
		Origin:      origin,
		Destination: dest,
		Date:        "20-11-2026",
		DistanceKm:  geo.DistanceKm(origin, dest),
	}
}

// stubSource is a scripted offer source.
type stubSource struct {
	name   string
	tier   offer.SourceTag
	offers []offer.Offer
	err    error
	calls  int
}

func (s *stubSource) Name() string          { return s.name }
func (s *stubSource) Tier() offer.SourceTag { return s.tier }

func (s *stubSource) Fetch(_ context.Context, _ offer.Criteria) ([]offer.Offer, error) {
	s.calls++
	return s.offers, s.err
}
