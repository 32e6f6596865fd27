package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/domain/place"
	"github.com/asrs-travel/service-booking/internal/geo"
	"github.com/asrs-travel/service-booking/internal/market"
	"github.com/asrs-travel/service-booking/internal/refdata"
)

// Deal board sizes.
const (
	DealPairsPerMode = 3
	DealHotelCount   = 6
)

// DealDTO is one featured offer on the deal board.
type DealDTO struct {
	Category offer.Mode `json:"category"`
	From     string     `json:"from,omitempty"`
	To       string     `json:"to,omitempty"`
	Offer    OfferDTO   `json:"offer"`
}

// DealsService builds a shuffled board of synthetic offers between popular
// city pairs.
type DealsService struct {
	places  place.Repository
	pairs   [][2]string
	synth   *market.Synthesizer
	sources map[offer.Mode]market.OfferSource
	logger  *zap.Logger
}

// NewDealsService creates a new DealsService.
func NewDealsService(places place.Repository, data *refdata.Data, synth *market.Synthesizer, logger *zap.Logger) *DealsService {
	return &DealsService{
		places: places,
		pairs:  data.DealCityPairs,
		synth:  synth,
		sources: map[offer.Mode]market.OfferSource{
			offer.ModeFlight: market.NewSyntheticFlights(data, synth),
			offer.ModeTrain:  market.NewSyntheticTrains(data, synth),
			offer.ModeBus:    market.NewSyntheticBuses(data, synth),
			offer.ModeHotel:  market.NewSyntheticHotels(data, synth),
		},
		logger: logger,
	}
}

// Deals returns up to DealPairsPerMode transport deals per mode plus
// DealHotelCount hotel deals, in random order.
func (s *DealsService) Deals(ctx context.Context) ([]DealDTO, error) {
	var deals []DealDTO
	for _, mode := range []offer.Mode{offer.ModeFlight, offer.ModeTrain, offer.ModeBus} {
		for _, pair := range s.samplePairs(DealPairsPerMode) {
			deal, ok, err := s.routeDeal(ctx, mode, pair)
			if err != nil {
				return nil, err
			}
			if ok {
				deals = append(deals, deal)
			}
		}
	}

	hotels, err := s.sources[offer.ModeHotel].Fetch(ctx, offer.Criteria{Mode: offer.ModeHotel})
	if err != nil {
		return nil, fmt.Errorf("failed to build hotel deals: %w", err)
	}
	for _, h := range hotels[:min(DealHotelCount, len(hotels))] {
		deals = append(deals, DealDTO{Category: offer.ModeHotel, Offer: OfferDTO{Offer: h}})
	}

	s.synth.Shuffle(len(deals), func(i, j int) { deals[i], deals[j] = deals[j], deals[i] })
	return deals, nil
}

func (s *DealsService) routeDeal(ctx context.Context, mode offer.Mode, pair [2]string) (DealDTO, bool, error) {
	from, err := s.lookup(ctx, pair[0])
	if err != nil || from == nil {
		return DealDTO{}, false, err
	}
	to, err := s.lookup(ctx, pair[1])
	if err != nil || to == nil {
		return DealDTO{}, false, err
	}

	offers, err := s.sources[mode].Fetch(ctx, offer.Criteria{
		Mode:        mode,
		Origin:      *from,
		Destination: *to,
		DistanceKm:  geo.DistanceKm(*from, *to),
	})
	if err != nil {
		return DealDTO{}, false, fmt.Errorf("failed to build %s deal: %w", mode, err)
	}
	if len(offers) == 0 {
		return DealDTO{}, false, nil
	}

	o := offers[0]
	return DealDTO{
		Category: mode,
		From:     from.CanonicalName,
		To:       to.CanonicalName,
		Offer:    OfferDTO{Offer: o, Duration: o.Duration()},
	}, true, nil
}

// lookup returns nil for names missing from the catalog.
func (s *DealsService) lookup(ctx context.Context, name string) (*place.Place, error) {
	p, err := s.places.FindByKey(ctx, place.NormalizeKey(name))
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			s.logger.Debug("deal city not in catalog", zap.String("city", name))
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (s *DealsService) samplePairs(n int) [][2]string {
	pairs := append([][2]string(nil), s.pairs...)
	s.synth.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
	return pairs[:min(n, len(pairs))]
}
