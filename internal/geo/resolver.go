package geo

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/common/domain"
	"github.com/asrs-travel/service-booking/internal/domain/offer"
	"github.com/asrs-travel/service-booking/internal/domain/place"
)

// Geocoder looks up places that are not in the catalog.
type Geocoder interface {
	Lookup(ctx context.Context, name string) (*place.Place, error)
}

// Resolver maps free-text names to places. Flight searches only accept
// catalog places; other modes fall back to the geocoder and reject what it
// cannot verify.
type Resolver struct {
	catalog  place.Repository
	geocoder Geocoder
	logger   *zap.Logger
}

// NewResolver creates a Resolver. geocoder may be nil, in which case unknown
// places are rejected for every mode.
func NewResolver(catalog place.Repository, geocoder Geocoder, logger *zap.Logger) *Resolver {
	return &Resolver{catalog: catalog, geocoder: geocoder, logger: logger}
}

// Resolve maps name to a place for the given mode. reason tags the error
// ("source" or "destination").
func (r *Resolver) Resolve(ctx context.Context, name string, mode offer.Mode, reason string) (place.Place, error) {
	key := place.NormalizeKey(name)
	if key == "" {
		return place.Place{}, place.NewPlaceNotFoundError(reason, name)
	}

	p, err := r.catalog.FindByKey(ctx, key)
	if err == nil {
		return *p, nil
	}
	if !domain.IsKind(err, domain.KindNotFound) {
		return place.Place{}, err
	}

	if mode.RequiresKnownPlaces() {
		return place.Place{}, place.NewPlaceNotFoundError(reason, name)
	}
	if r.geocoder == nil {
		return place.Place{}, place.NewPlaceNotVerifiableError(reason, name)
	}

	found, err := r.geocoder.Lookup(ctx, strings.TrimSpace(name))
	if err != nil {
		r.logger.Warn("geocoder lookup failed",
			zap.String("place", name),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return place.Place{}, place.NewPlaceNotVerifiableError(reason, name)
	}
	if found == nil {
		return place.Place{}, place.NewPlaceNotVerifiableError(reason, name)
	}
	return *found, nil
}

// ResolvePair resolves both endpoints of a search. Hotel searches may omit the
// source, in which case the zero Place is returned for it.
func (r *Resolver) ResolvePair(ctx context.Context, src, dst string, mode offer.Mode) (place.Place, place.Place, error) {
	var origin place.Place
	if !(mode == offer.ModeHotel && strings.TrimSpace(src) == "") {
		var err error
		origin, err = r.Resolve(ctx, src, mode, place.ReasonSource)
		if err != nil {
			return place.Place{}, place.Place{}, err
		}
	}

	destination, err := r.Resolve(ctx, dst, mode, place.ReasonDestination)
	if err != nil {
		return place.Place{}, place.Place{}, err
	}

	if origin.SameAs(destination) {
		return place.Place{}, place.Place{}, place.NewSamePlaceError(destination.CanonicalName)
	}
	return origin, destination, nil
}
