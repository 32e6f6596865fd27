package market

import (
	"context"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// OfferSource is one tier of market data for a mode. A source that cannot
// serve the criteria returns an empty slice and no error.
type OfferSource interface {
	Name() string
	Tier() offer.SourceTag
	Fetch(ctx context.Context, c offer.Criteria) ([]offer.Offer, error)
}

// Result caps per mode.
const (
	FlightResultCap = 12
	TrainResultCap  = 10
	BusResultCap    = 10
	HotelResultCap  = 10
)

// ResultCap returns the maximum number of offers returned for mode.
func ResultCap(mode offer.Mode) int {
	switch mode {
	case offer.ModeFlight:
		return FlightResultCap
	case offer.ModeTrain:
		return TrainResultCap
	case offer.ModeBus:
		return BusResultCap
	case offer.ModeHotel:
		return HotelResultCap
	}
	return 0
}
