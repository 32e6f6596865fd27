package market

import (
	"context"
	"errors"

	"golang.org/x/time/rate"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// ErrThrottled is returned by a throttled source over its request budget.
var ErrThrottled = errors.New("offer source throttled")

type throttledSource struct {
	OfferSource
	limiter *rate.Limiter
}

// Throttle caps how often src is queried. Over budget the source reports
// ErrThrottled so the provider moves on to the next tier instead of waiting.
func Throttle(src OfferSource, perSecond float64, burst int) OfferSource {
	if perSecond <= 0 {
		return src
	}
	return &throttledSource{
		OfferSource: src,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), max(burst, 1)),
	}
}

func (t *throttledSource) Fetch(ctx context.Context, c offer.Criteria) ([]offer.Offer, error) {
	if !t.limiter.Allow() {
		return nil, ErrThrottled
	}
	return t.OfferSource.Fetch(ctx, c)
}
