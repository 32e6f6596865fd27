package market

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asrs-travel/service-booking/internal/amadeus"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/railapi"
)

type fakeFlightAPI struct {
	got    amadeus.SearchParams
	offers []amadeus.FlightOffer
	err    error
}

func (f *fakeFlightAPI) SearchFlightOffers(_ context.Context, p amadeus.SearchParams) ([]amadeus.FlightOffer, error) {
	f.got = p
	return f.offers, f.err
}

type fakeRailAPI struct {
	from, to, date string
	trains         []railapi.Train
	err            error
}

func (f *fakeRailAPI) TrainsBetweenStations(_ context.Context, from, to, date string) ([]railapi.Train, error) {
	f.from, f.to, f.date = from, to, date
	return f.trains, f.err
}

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"2026-11-20":   "2026-11-20",
		"20-11-2026":   "2026-11-20",
		"20/11/2026":   "2026-11-20",
		" 01-02-2027 ": "2027-02-01",
	}
	for in, want := range tests {
		got, err := NormalizeDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := NormalizeDate("next friday")
	assert.Error(t, err)
}

func TestLiveFlights(t *testing.T) {
	data := loadData(t)
	raw := json.RawMessage(`{"id":"1","price":{"grandTotal":"5432.10"}}`)
	api := &fakeFlightAPI{offers: []amadeus.FlightOffer{{
		ID: "1", CarrierCode: "6E", FlightNumber: "6E2031",
		DepartureAt: "2026-11-20T06:00:00", ArrivalAt: "2026-11-20T08:10:00",
		DurationMinutes: 130, GrandTotal: 5432.10, Cabin: "BUSINESS", Raw: raw,
	}}}
	src := NewLiveFlights(api)

	offers, err := src.Fetch(context.Background(), criteria(t, data, offer.ModeFlight, "Delhi", "Mumbai"))
	require.NoError(t, err)
	require.Len(t, offers, 1)

	assert.Equal(t, "DEL", api.got.Origin)
	assert.Equal(t, "BOM", api.got.Destination)
	assert.Equal(t, "2026-11-20", api.got.DepartureDate)
	assert.Equal(t, FlightResultCap, api.got.Max)

	o := offers[0]
	assert.True(t, strings.HasPrefix(o.ID, "AMD-"))
	assert.Equal(t, "IndiGo", o.DisplayName)
	assert.Equal(t, "06:00", o.DepartureTime)
	assert.Equal(t, "08:10", o.ArrivalTime)
	assert.Equal(t, int64(5433), o.Price)
	assert.Equal(t, "Business", o.Class)
	assert.Equal(t, "6E2031", o.Tag)
	assert.Equal(t, offer.SourceLive, o.SourceTag)
	assert.JSONEq(t, string(raw), string(o.RawPayload))
}

func TestLiveFlights_Failures(t *testing.T) {
	data := loadData(t)
	c := criteria(t, data, offer.ModeFlight, "Delhi", "Mumbai")

	_, err := NewLiveFlights(&fakeFlightAPI{err: errors.New("503")}).Fetch(context.Background(), c)
	assert.Error(t, err)

	c.Date = "tomorrow"
	_, err = NewLiveFlights(&fakeFlightAPI{}).Fetch(context.Background(), c)
	assert.Error(t, err)

	offers, err := NewLiveFlights(&fakeFlightAPI{}).Fetch(context.Background(), offer.Criteria{Mode: offer.ModeFlight})
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestLiveTrains(t *testing.T) {
	data := loadData(t)
	c := criteria(t, data, offer.ModeTrain, "Delhi", "Mumbai")
	require.NotEmpty(t, c.Origin.StationCode)

	api := &fakeRailAPI{trains: []railapi.Train{{
		Number: "12952", Name: "MMCT RAJDHANI", Departure: "16:55", Arrival: "08:35",
		DurationMinutes: 940, Classes: []string{"3A", "2A"}, Raw: json.RawMessage(`{"train_number":"12952"}`),
	}}}
	offers, err := NewLiveTrains(api, data, seeded(10)).Fetch(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	assert.Equal(t, c.Origin.StationCode, api.from)
	assert.Equal(t, "2026-11-20", api.date)

	o := offers[0]
	assert.Equal(t, "TRN-12952", o.ID)
	assert.Equal(t, "Mmct Rajdhani", o.DisplayName)
	assert.Equal(t, 940, o.DurationMinutes)
	assert.Equal(t, "3A AC", o.Class)
	assert.Regexp(t, `^PF \d+ · Premium$`, o.Tag)
	assert.Equal(t, offer.SourceLive, o.SourceTag)
	assert.Greater(t, o.Price, int64(TrainBaseFare))
	assert.NotEmpty(t, o.RawPayload)
}

func TestLiveTrains_NoStationCode(t *testing.T) {
	api := &fakeRailAPI{err: errors.New("must not be called")}
	offers, err := NewLiveTrains(api, loadData(t), seeded(11)).Fetch(context.Background(), offer.Criteria{Mode: offer.ModeTrain})
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "MMCT RAJDHANI", want: "Mmct Rajdhani"},
		{in: "  howrah   duronto exp ", want: "Howrah Duronto Exp"},
		{in: "ÉCLAIR EXPRESS", want: "Éclair Express"},
		{in: "ŚATABDI", want: "Śatabdi"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, titleCase(tt.in))
		})
	}
}
