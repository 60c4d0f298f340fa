package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cargoflow/pricing-api/internal/api/metrics"
	"github.com/cargoflow/pricing-api/internal/core/domain"
)

const ruleTTL = 10 * time.Minute

// RuleCache caches pricing rules by cargo type with a short TTL.
// Key format: pricing:rule:<cargo_type>
type RuleCache struct {
	client *redis.Client
}

// NewRuleCache creates a RuleCache wrapping the given Redis client.
func NewRuleCache(client *redis.Client) *RuleCache {
	return &RuleCache{client: client}
}

// Get returns the cached rule for the cargo type, or (nil, nil) on a miss.
func (c *RuleCache) Get(ctx context.Context, cargoType domain.CargoType) (*domain.PricingRule, error) {
	raw, err := c.client.Get(ctx, c.key(cargoType)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RuleCacheTotal.WithLabelValues("miss").Inc()
			return nil, nil
		}
		return nil, fmt.Errorf("rule cache get: %w", err)
	}

	var rule domain.PricingRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		// A corrupt entry behaves like a miss; the repository refills it.
		metrics.RuleCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}

	metrics.RuleCacheTotal.WithLabelValues("hit").Inc()
	return &rule, nil
}

// Set stores the rule under its cargo type (expires after ruleTTL).
func (c *RuleCache) Set(ctx context.Context, rule *domain.PricingRule) error {
	raw, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("rule cache marshal: %w", err)
	}
	return c.client.Set(ctx, c.key(rule.CargoType), raw, ruleTTL).Err()
}

// Invalidate drops the cached rule for the cargo type.
func (c *RuleCache) Invalidate(ctx context.Context, cargoType domain.CargoType) error {
	return c.client.Del(ctx, c.key(cargoType)).Err()
}

func (c *RuleCache) key(cargoType domain.CargoType) string {
	return fmt.Sprintf("pricing:rule:%s", cargoType)
}
