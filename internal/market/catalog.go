package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/asrs-travel/service-booking/internal/domain/catalog"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/refdata"
)

var routePrefixes = map[offer.Mode]string{
	offer.ModeFlight: "FL",
	offer.ModeTrain:  "TRN",
	offer.ModeBus:    "BUS",
}

// CatalogRoutes serves curated scheduled services for one transport mode.
type CatalogRoutes struct {
	mode  offer.Mode
	repo  catalog.Repository
	data  *refdata.Data
	synth *Synthesizer
}

// NewCatalogRoutes creates a catalog source for mode.
func NewCatalogRoutes(mode offer.Mode, repo catalog.Repository, data *refdata.Data, synth *Synthesizer) *CatalogRoutes {
	return &CatalogRoutes{mode: mode, repo: repo, data: data, synth: synth}
}

func (s *CatalogRoutes) Name() string          { return "catalog-" + strings.ToLower(string(s.mode)) }
func (s *CatalogRoutes) Tier() offer.SourceTag { return offer.SourceCatalog }

func (s *CatalogRoutes) Fetch(ctx context.Context, c offer.Criteria) ([]offer.Offer, error) {
	if c.Origin.ShortCode == "" || c.Destination.ShortCode == "" {
		return nil, nil
	}
	routes, err := s.repo.FindRoutes(ctx, s.mode, c.Origin.ShortCode, c.Destination.ShortCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog routes: %w", err)
	}

	offers := make([]offer.Offer, 0, len(routes))
	for _, r := range routes {
		offers = append(offers, offer.Offer{
			ID:              fmt.Sprintf("%s-%s-%d", routePrefixes[s.mode], r.ServiceNumber, r.ID),
			Mode:            s.mode,
			DisplayName:     r.Carrier,
			DepartureTime:   r.Departure,
			ArrivalTime:     r.Arrival,
			DurationMinutes: r.DurationMinutes,
			Price:           s.synth.Jitter(r.BasePrice),
			Class:           r.Class,
			Tag:             s.tag(r),
			SourceTag:       offer.SourceCatalog,
		})
	}
	return offers, nil
}

func (s *CatalogRoutes) tag(r catalog.Route) string {
	switch s.mode {
	case offer.ModeFlight:
		return gateTag(s.synth)
	case offer.ModeTrain:
		return platformTag(s.synth, trainCategory(s.data, r.Carrier))
	default:
		return bayTag(s.synth)
	}
}

// trainCategory finds the category of a named train. Full category names
// are tried before their leading word; unknown trains are Long-Distance.
func trainCategory(data *refdata.Data, name string) string {
	lower := strings.ToLower(name)
	for _, tc := range data.TrainCategories {
		if strings.Contains(lower, strings.ToLower(tc.Name)) {
			return tc.Category
		}
	}
	for _, tc := range data.TrainCategories {
		words := strings.Fields(strings.ToLower(tc.Name))
		if len(words) > 1 && strings.Contains(lower, words[0]) {
			return tc.Category
		}
	}
	return "Long-Distance"
}

// CatalogHotels serves curated hotels in the destination city.
type CatalogHotels struct {
	repo  catalog.Repository
	synth *Synthesizer
}

// NewCatalogHotels creates the curated hotel source.
func NewCatalogHotels(repo catalog.Repository, synth *Synthesizer) *CatalogHotels {
	return &CatalogHotels{repo: repo, synth: synth}
}

func (s *CatalogHotels) Name() string          { return "catalog-hotel" }
func (s *CatalogHotels) Tier() offer.SourceTag { return offer.SourceCatalog }

func (s *CatalogHotels) Fetch(ctx context.Context, c offer.Criteria) ([]offer.Offer, error) {
	city := c.Destination.CanonicalName
	if city == "" {
		return nil, nil
	}
	hotels, err := s.repo.FindHotelsByCity(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog hotels: %w", err)
	}

	offers := make([]offer.Offer, 0, len(hotels))
	for i, h := range hotels {
		base := (h.PriceMin + h.PriceMax) / 2
		offers = append(offers, offer.Offer{
			ID:          hotelID(i),
			Mode:        offer.ModeHotel,
			DisplayName: h.Name,
			Price:       s.synth.Hotel(base, (h.PriceMax-h.PriceMin)/2),
			Class:       h.Category,
			Tag:         h.Area,
			SourceTag:   offer.SourceCatalog,
			Rating:      h.Rating,
			Amenities:   s.synth.sample(h.Amenities, HotelAmenityCount),
			ImageURL:    h.ImageURL,
		})
	}
	return offers, nil
}
