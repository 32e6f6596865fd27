package market

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/railapi"
	"github.com/asrs-travel/service-booking/internal/refdata"
)

// ScheduleFinder is the live train schedule API.
type ScheduleFinder interface {
	TrainsBetweenStations(ctx context.Context, from, to, date string) ([]railapi.Train, error)
}

var railClasses = map[string]string{
	"1A": "1A AC",
	"2A": "2A AC",
	"3A": "3A AC",
	"3E": "3A AC Economy",
	"CC": "Chair Car",
	"EC": "Executive Chair Car",
	"SL": "Sleeper (SL)",
	"2S": "Second Sitting",
}

// LiveTrains reads real schedules and prices them from the implied speed.
type LiveTrains struct {
	api   ScheduleFinder
	data  *refdata.Data
	synth *Synthesizer
}

// NewLiveTrains creates the live train source.
func NewLiveTrains(api ScheduleFinder, data *refdata.Data, synth *Synthesizer) *LiveTrains {
	return &LiveTrains{api: api, data: data, synth: synth}
}

func (s *LiveTrains) Name() string          { return "rail-schedules" }
func (s *LiveTrains) Tier() offer.SourceTag { return offer.SourceLive }

func (s *LiveTrains) Fetch(ctx context.Context, c offer.Criteria) ([]offer.Offer, error) {
	if c.Origin.StationCode == "" || c.Destination.StationCode == "" {
		return nil, nil
	}
	date, err := NormalizeDate(c.Date)
	if err != nil {
		return nil, err
	}

	trains, err := s.api.TrainsBetweenStations(ctx, c.Origin.StationCode, c.Destination.StationCode, date)
	if err != nil {
		return nil, err
	}

	offers := make([]offer.Offer, 0, len(trains))
	for _, t := range trains {
		speed := TrainSpeedBaseline
		if t.DurationMinutes > 0 {
			speed = max(1, c.DistanceKm*60/t.DurationMinutes)
		}
		q := s.synth.Train(c.DistanceKm, speed)
		offers = append(offers, offer.Offer{
			ID:              fmt.Sprintf("TRN-%s", t.Number),
			Mode:            offer.ModeTrain,
			DisplayName:     titleCase(t.Name),
			DepartureTime:   t.Departure,
			ArrivalTime:     t.Arrival,
			DurationMinutes: t.DurationMinutes,
			Price:           q.Price,
			Class:           s.class(t.Classes),
			Tag:             platformTag(s.synth, trainCategory(s.data, t.Name)),
			SourceTag:       offer.SourceLive,
			RawPayload:      t.Raw,
		})
	}
	return offers, nil
}

func (s *LiveTrains) class(codes []string) string {
	for _, code := range codes {
		if name, ok := railClasses[strings.ToUpper(code)]; ok {
			return name
		}
	}
	return s.synth.pick(s.data.Classes.Train)
}

// titleCase normalizes upstream train names. A Caser holds state, so each
// call gets its own.
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
