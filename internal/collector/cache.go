package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/rate-intel/internal/domain"
)

// Cache stores live provider results in Redis. A nil *Cache is a
// permanent miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns a Cache, or nil when client is nil.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Key builds the cache key for a collection window. Room type order does
// not matter.
func Key(propertyID string, start, end time.Time, roomTypeCodes []string) string {
	codes := append([]string(nil), roomTypeCodes...)
	sort.Strings(codes)
	return fmt.Sprintf("rateintel:rates:%s:%s:%s:%s", propertyID,
		start.Format(domain.DateLayout), end.Format(domain.DateLayout), strings.Join(codes, ","))
}

// Get returns the cached observations for key.
func (c *Cache) Get(ctx context.Context, key string) ([]domain.CompetitorObservation, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	var obs []domain.CompetitorObservation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return obs, true, nil
}

// Set stores observations under key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, obs []domain.CompetitorObservation) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
