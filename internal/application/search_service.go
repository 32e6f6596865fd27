package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/domain/place"
	"github.com/asrs-travel/service-booking/internal/geo"
	"github.com/asrs-travel/service-booking/internal/market"
)

// MaxPlaceSuggestions bounds the autocomplete list.
const MaxPlaceSuggestions = 10

// PlaceResolver maps free-text endpoints to places.
type PlaceResolver interface {
	ResolvePair(ctx context.Context, src, dst string, mode offer.Mode) (place.Place, place.Place, error)
}

// OfferProvider runs the tiered offer search.
type OfferProvider interface {
	Search(ctx context.Context, c offer.Criteria) (market.Result, error)
}

// SearchRequest is one itinerary search.
type SearchRequest struct {
	Mode        string `json:"mode" binding:"required"`
	Source      string `json:"source"`
	Destination string `json:"destination" binding:"required"`
	Date        string `json:"date" binding:"required"`
}

// OfferDTO is an offer with its rendered duration.
type OfferDTO struct {
	offer.Offer
	Duration string `json:"duration,omitempty"`
}

// SearchResponse is the normalized result of a search.
type SearchResponse struct {
	Mode              offer.Mode         `json:"mode"`
	Source            string             `json:"source,omitempty"`
	Destination       string             `json:"destination"`
	Date              string             `json:"date"`
	DistanceKm        int                `json:"distance_km,omitempty"`
	SourceCoords      *place.Coordinates `json:"source_coords,omitempty"`
	DestinationCoords place.Coordinates  `json:"destination_coords"`
	DestinationInfo   place.NotableInfo  `json:"destination_info"`
	Tier              offer.SourceTag    `json:"tier"`
	Offers            []OfferDTO         `json:"offers"`
}

// PlaceDTO is one autocomplete suggestion.
type PlaceDTO struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
	Code   string `json:"code,omitempty"`
}

// SearchService orchestrates place resolution, distance and the offer chain.
type SearchService struct {
	resolver PlaceResolver
	provider OfferProvider
	places   place.Repository
	offers   OfferCache
	logger   *zap.Logger
}

// NewSearchService creates a new SearchService. offers may be nil, in which
// case live offers are not retained for booking.
func NewSearchService(
	resolver PlaceResolver,
	provider OfferProvider,
	places place.Repository,
	offers OfferCache,
	logger *zap.Logger,
) *SearchService {
	return &SearchService{
		resolver: resolver,
		provider: provider,
		places:   places,
		offers:   offers,
		logger:   logger,
	}
}

// Search resolves both endpoints, estimates the distance and returns the
// first tier that produced offers.
func (s *SearchService) Search(ctx context.Context, userID uuid.UUID, req SearchRequest) (*SearchResponse, error) {
	mode, err := offer.ParseMode(req.Mode)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		return nil, domain.NewValidationError("travel date is required")
	}
	if mode != offer.ModeHotel && strings.TrimSpace(req.Source) == "" {
		return nil, domain.NewValidationError("source is required")
	}

	origin, destination, err := s.resolver.ResolvePair(ctx, req.Source, req.Destination, mode)
	if err != nil {
		return nil, err
	}

	criteria := offer.Criteria{
		Mode:        mode,
		Origin:      origin,
		Destination: destination,
		Date:        date,
	}
	if !origin.IsZero() {
		criteria.DistanceKm = geo.DistanceKm(origin, destination)
	}

	result, err := s.provider.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s offers: %w", mode, err)
	}

	if result.Tier == offer.SourceLive && s.offers != nil {
		if err := s.offers.Put(ctx, userID, result.Offers); err != nil {
			s.logger.Warn("failed to cache live offers",
				zap.String("source", result.Source),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("search completed",
		zap.String("mode", string(mode)),
		zap.String("source", origin.CanonicalName),
		zap.String("destination", destination.CanonicalName),
		zap.Int("distance_km", criteria.DistanceKm),
		zap.String("tier", string(result.Tier)),
		zap.String("provider", result.Source),
		zap.Int("offers", len(result.Offers)),
	)

	resp := &SearchResponse{
		Mode:              mode,
		Source:            origin.CanonicalName,
		Destination:       destination.CanonicalName,
		Date:              date,
		DistanceKm:        criteria.DistanceKm,
		DestinationCoords: geo.CoordinatesOf(destination),
		DestinationInfo:   destination.Notable,
		Tier:              result.Tier,
		Offers:            toOfferDTOs(result.Offers),
	}
	if !origin.IsZero() {
		coords := geo.CoordinatesOf(origin)
		resp.SourceCoords = &coords
	}
	return resp, nil
}

// SuggestPlaces returns catalog places whose key starts with prefix.
func (s *SearchService) SuggestPlaces(ctx context.Context, prefix string) ([]PlaceDTO, error) {
	key := place.NormalizeKey(prefix)
	if key == "" {
		return []PlaceDTO{}, nil
	}

	places, err := s.places.SearchByPrefix(ctx, key, MaxPlaceSuggestions)
	if err != nil {
		return nil, err
	}

	dtos := make([]PlaceDTO, len(places))
	for i, p := range places {
		code := p.ShortCode
		if code == "" {
			code = p.StationCode
		}
		dtos[i] = PlaceDTO{Name: p.CanonicalName, Region: p.Region, Code: code}
	}
	return dtos, nil
}

func toOfferDTOs(offers []offer.Offer) []OfferDTO {
	dtos := make([]OfferDTO, len(offers))
	for i, o := range offers {
		dtos[i] = OfferDTO{Offer: o, Duration: o.Duration()}
	}
	return dtos
}
