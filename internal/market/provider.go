package market

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// ErrNoSources is returned when a mode has no registered sources at all.
var ErrNoSources = errors.New("no offer sources registered")

// Result is the winning tier of a search.
type Result struct {
	Tier   offer.SourceTag
	Source string
	Offers []offer.Offer
}

// Provider walks the ordered sources of a mode until one yields offers.
type Provider struct {
	chains map[offer.Mode][]OfferSource
	logger *zap.Logger
}

// NewProvider creates an empty provider.
func NewProvider(logger *zap.Logger) *Provider {
	return &Provider{
		chains: make(map[offer.Mode][]OfferSource),
		logger: logger,
	}
}

// Register appends sources to the chain for mode, in priority order.
func (p *Provider) Register(mode offer.Mode, sources ...OfferSource) *Provider {
	p.chains[mode] = append(p.chains[mode], sources...)
	return p
}

// Sources returns the registered chain for mode.
func (p *Provider) Sources(mode offer.Mode) []OfferSource {
	return p.chains[mode]
}

// Search returns the first non-empty tier for the criteria. Source failures
// are logged and skipped.
func (p *Provider) Search(ctx context.Context, c offer.Criteria) (Result, error) {
	chain := p.chains[c.Mode]
	if len(chain) == 0 {
		return Result{}, fmt.Errorf("%s: %w", c.Mode, ErrNoSources)
	}

	for _, src := range chain {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		offers, err := src.Fetch(ctx, c)
		if err != nil {
			p.logger.Warn("offer source unavailable",
				zap.String("source", src.Name()),
				zap.String("mode", string(c.Mode)),
				zap.Error(err),
			)
			continue
		}
		ranked := Rank(offers, ResultCap(c.Mode))
		if len(ranked) == 0 {
			p.logger.Debug("offer source returned nothing",
				zap.String("source", src.Name()),
				zap.String("mode", string(c.Mode)),
			)
			continue
		}
		return Result{Tier: src.Tier(), Source: src.Name(), Offers: ranked}, nil
	}

	return Result{}, fmt.Errorf("%s: all offer sources came back empty", c.Mode)
}
