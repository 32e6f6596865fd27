package market

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asrs-travel/service-booking/internal/amadeus"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// FlightSearcher is the live flight offers API.
type FlightSearcher interface {
	SearchFlightOffers(ctx context.Context, p amadeus.SearchParams) ([]amadeus.FlightOffer, error)
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006"}

// NormalizeDate accepts ISO or day-first dates and returns YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return "", fmt.Errorf("unrecognized travel date %q", s)
}

// LiveFlights queries the live flight offers API.
type LiveFlights struct {
	api FlightSearcher
}

// NewLiveFlights creates the live flight source.
func NewLiveFlights(api FlightSearcher) *LiveFlights {
	return &LiveFlights{api: api}
}

func (s *LiveFlights) Name() string          { return "amadeus-flight-offers" }
func (s *LiveFlights) Tier() offer.SourceTag { return offer.SourceLive }

func (s *LiveFlights) Fetch(ctx context.Context, c offer.Criteria) ([]offer.Offer, error) {
	if c.Origin.ShortCode == "" || c.Destination.ShortCode == "" {
		return nil, nil
	}
	date, err := NormalizeDate(c.Date)
	if err != nil {
		return nil, err
	}

	found, err := s.api.SearchFlightOffers(ctx, amadeus.SearchParams{
		Origin:        c.Origin.ShortCode,
		Destination:   c.Destination.ShortCode,
		DepartureDate: date,
		Adults:        1,
		Max:           FlightResultCap,
	})
	if err != nil {
		return nil, err
	}

	offers := make([]offer.Offer, 0, len(found))
	for _, f := range found {
		offers = append(offers, offer.Offer{
			ID:              "AMD-" + strings.ToUpper(uuid.NewString()[:8]),
			Mode:            offer.ModeFlight,
			DisplayName:     amadeus.AirlineName(f.CarrierCode),
			DepartureTime:   clockOf(f.DepartureAt),
			ArrivalTime:     clockOf(f.ArrivalAt),
			DurationMinutes: f.DurationMinutes,
			Price:           int64(math.Ceil(f.GrandTotal)),
			Class:           cabinClass(f.Cabin),
			Tag:             f.FlightNumber,
			SourceTag:       offer.SourceLive,
			RawPayload:      f.Raw,
		})
	}
	return offers, nil
}

// clockOf extracts HH:MM from an ISO local date-time.
func clockOf(at string) string {
	if t, err := time.Parse("2006-01-02T15:04:05", at); err == nil {
		return t.Format("15:04")
	}
	return at
}

func cabinClass(cabin string) string {
	switch strings.ToUpper(cabin) {
	case "PREMIUM_ECONOMY":
		return "Premium Economy"
	case "BUSINESS":
		return "Business"
	case "FIRST":
		return "First Class"
	default:
		return "Economy"
	}
}
