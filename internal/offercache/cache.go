// Package offercache keeps live offers for a short while so a later booking
// can place the order with the provider payload the user actually saw.
package offercache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/asrs-travel/service-booking/internal/domain/offer"
)

// DefaultTTL is how long a live offer stays bookable.
const DefaultTTL = 20 * time.Minute

type entry struct {
	Offer offer.Offer     `json:"offer"`
	Raw   json.RawMessage `json:"raw"`
}

// Cache stores live offers per user in Redis.
type Cache struct {
	cache *cache.Cache[string]
}

// New creates a cache over client. Zero ttl means DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))
	return &Cache{cache: cache.New[string](redisStore)}
}

func key(userID uuid.UUID, offerID string) string {
	return fmt.Sprintf("offer:%s:%s", userID, offerID)
}

// Put stores every offer that carries a provider payload. Others are skipped.
func (c *Cache) Put(ctx context.Context, userID uuid.UUID, offers []offer.Offer) error {
	for _, o := range offers {
		if len(o.RawPayload) == 0 {
			continue
		}
		buf, err := json.Marshal(entry{Offer: o, Raw: o.RawPayload})
		if err != nil {
			return fmt.Errorf("failed to encode offer %s: %w", o.ID, err)
		}
		if err := c.cache.Set(ctx, key(userID, o.ID), string(buf)); err != nil {
			return fmt.Errorf("failed to cache offer %s: %w", o.ID, err)
		}
	}
	return nil
}

// Get returns the cached offer with its payload, or nil when it expired or
// was never seen by this user.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID, offerID string) (*offer.Offer, error) {
	value, err := c.cache.Get(ctx, key(userID, offerID))
	if err != nil {
		if errors.Is(err, store.NotFound{}) || errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached offer: %w", err)
	}
	if value == "" {
		return nil, nil
	}

	var e entry
	if err := json.Unmarshal([]byte(value), &e); err != nil {
		return nil, fmt.Errorf("failed to decode cached offer: %w", err)
	}
	o := e.Offer
	o.RawPayload = e.Raw
	return &o, nil
}
