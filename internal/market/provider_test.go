package market

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

func offersN(prefix string, n int) []offer.Offer {
	out := make([]offer.Offer, n)
	for i := range out {
		out[i] = offer.Offer{ID: fmt.Sprintf("%s-%d", prefix, i), Price: 100}
	}
	return out
}

func TestProvider_FallsThroughFailuresAndEmptyTiers(t *testing.T) {
	live := &stubSource{name: "live", tier: offer.SourceLive, err: errors.New("timeout")}
	catalog := &stubSource{name: "catalog", tier: offer.SourceCatalog}
	synthetic := &stubSource{name: "synthetic", tier: offer.SourceSynthetic, offers: offersN("FL", 20)}

	p := NewProvider(zap.NewNop()).Register(offer.ModeFlight, live, catalog, synthetic)
	res, err := p.Search(context.Background(), offer.Criteria{Mode: offer.ModeFlight})
	require.NoError(t, err)

	assert.Equal(t, offer.SourceSynthetic, res.Tier)
	assert.Equal(t, "synthetic", res.Source)
	assert.Len(t, res.Offers, FlightResultCap)
	assert.Equal(t, 1, live.calls)
	assert.Equal(t, 1, catalog.calls)
}

func TestProvider_FirstNonEmptyWins(t *testing.T) {
	live := &stubSource{name: "live", tier: offer.SourceLive, offers: offersN("AMD", 3)}
	synthetic := &stubSource{name: "synthetic", tier: offer.SourceSynthetic, offers: offersN("FL", 12)}

	p := NewProvider(zap.NewNop()).Register(offer.ModeFlight, live, synthetic)
	res, err := p.Search(context.Background(), offer.Criteria{Mode: offer.ModeFlight})
	require.NoError(t, err)

	assert.Equal(t, offer.SourceLive, res.Tier)
	assert.Len(t, res.Offers, 3)
	assert.Zero(t, synthetic.calls)
}

func TestProvider_ModesAreIndependent(t *testing.T) {
	bus := &stubSource{name: "bus", tier: offer.SourceSynthetic, offers: offersN("BUS", 15)}
	p := NewProvider(zap.NewNop()).Register(offer.ModeBus, bus)

	res, err := p.Search(context.Background(), offer.Criteria{Mode: offer.ModeBus})
	require.NoError(t, err)
	assert.Len(t, res.Offers, BusResultCap)

	_, err = p.Search(context.Background(), offer.Criteria{Mode: offer.ModeHotel})
	assert.ErrorIs(t, err, ErrNoSources)
	assert.Len(t, p.Sources(offer.ModeBus), 1)
}

func TestProvider_AllEmpty(t *testing.T) {
	p := NewProvider(zap.NewNop()).Register(offer.ModeTrain,
		&stubSource{name: "a", tier: offer.SourceLive},
		&stubSource{name: "b", tier: offer.SourceCatalog, err: errors.New("db down")},
	)
	_, err := p.Search(context.Background(), offer.Criteria{Mode: offer.ModeTrain})
	assert.Error(t, err)
}

func TestProvider_StopsOnCancelledContext(t *testing.T) {
	src := &stubSource{name: "a", tier: offer.SourceSynthetic, offers: offersN("FL", 1)}
	p := NewProvider(zap.NewNop()).Register(offer.ModeFlight, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Search(ctx, offer.Criteria{Mode: offer.ModeFlight})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, src.calls)
}

func TestRank(t *testing.T) {
	in := []offer.Offer{
		{ID: "A", Price: 1}, {ID: "B"}, {ID: "A", Price: 2}, {ID: "C"}, {ID: "D"},
	}

	got := Rank(in, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, int64(1), got[0].Price, "first occurrence is kept")

	assert.Len(t, Rank(in, 0), 4)
	assert.Empty(t, Rank(nil, 5))
}

func TestResultCap(t *testing.T) {
	assert.Equal(t, 12, ResultCap(offer.ModeFlight))
	assert.Equal(t, 10, ResultCap(offer.ModeTrain))
	assert.Equal(t, 10, ResultCap(offer.ModeBus))
	assert.Equal(t, 10, ResultCap(offer.ModeHotel))
}

func TestThrottle(t *testing.T) {
	src := &stubSource{name: "live", tier: offer.SourceLive, offers: offersN("AMD", 1)}
	throttled := Throttle(src, 0.001, 1)

	_, err := throttled.Fetch(context.Background(), offer.Criteria{})
	require.NoError(t, err)
	_, err = throttled.Fetch(context.Background(), offer.Criteria{})
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, "live", throttled.Name())

	assert.Same(t, src, Throttle(src, 0, 1))
}
