package market

import "github.com/asrs-travel/service-booking/internal/domain/offer"

// Rank drops offers whose id was already seen, keeps source order and
// truncates to limit. A non-positive limit keeps everything.
func Rank(offers []offer.Offer, limit int) []offer.Offer {
	seen := make(map[string]struct{}, len(offers))
	ranked := make([]offer.Offer, 0, len(offers))
	for _, o := range offers {
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		ranked = append(ranked, o)
		if limit > 0 && len(ranked) == limit {
			break
		}
	}
	return ranked
}
