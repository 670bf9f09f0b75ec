package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/rlcompare/internal/config"
	"github.com/andresuchdata/rlcompare/internal/domain"
)

const (
	comparisonKeyPrefix = "rlcompare"
	scanBatchSize       = 100
)

// ComparisonCache stores computed views of one session. Entries never
// outlive their session: InvalidateSession drops them when it is replaced.
type ComparisonCache interface {
	GetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter) (domain.Comparison, bool, error)
	SetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter, comparison domain.Comparison) error
	GetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter) (domain.Series, bool, error)
	SetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter, series domain.Series) error
	InvalidateSession(ctx context.Context, sessionID string) error
}

type redisComparisonCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopComparisonCache struct{}

func NewComparisonCache(cfg config.CacheConfig) (ComparisonCache, error) {
	if !cfg.Enabled {
		return &noopComparisonCache{}, nil
	}

	client, err := connectRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisComparisonCache{
		client: client,
		ttl:    comparisonTTL(cfg),
	}, nil
}

func NewNoopComparisonCache() ComparisonCache {
	return &noopComparisonCache{}
}

func (c *redisComparisonCache) get(ctx context.Context, key string, dest any) (bool, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %w", err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (c *redisComparisonCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisComparisonCache) GetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter) (domain.Comparison, bool, error) {
	var out domain.Comparison
	ok, err := c.get(ctx, buildComparisonKey(sessionID, view, filter), &out)
	return out, ok, err
}

func (c *redisComparisonCache) SetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter, comparison domain.Comparison) error {
	return c.set(ctx, buildComparisonKey(sessionID, view, filter), comparison)
}

func (c *redisComparisonCache) GetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter) (domain.Series, bool, error) {
	var out domain.Series
	ok, err := c.get(ctx, buildSeriesKey(sessionID, redistribute, filter), &out)
	return out, ok, err
}

func (c *redisComparisonCache) SetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter, series domain.Series) error {
	return c.set(ctx, buildSeriesKey(sessionID, redistribute, filter), series)
}

func (c *redisComparisonCache) InvalidateSession(ctx context.Context, sessionID string) error {
	_, err := dropSession(ctx, c.client, sessionID)
	return err
}

func (n *noopComparisonCache) GetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter) (domain.Comparison, bool, error) {
	return domain.Comparison{}, false, nil
}

func (n *noopComparisonCache) SetComparison(ctx context.Context, sessionID string, view domain.ViewMode, filter domain.Filter, comparison domain.Comparison) error {
	return nil
}

func (n *noopComparisonCache) GetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter) (domain.Series, bool, error) {
	return domain.Series{}, false, nil
}

func (n *noopComparisonCache) SetSeries(ctx context.Context, sessionID string, redistribute bool, filter domain.Filter, series domain.Series) error {
	return nil
}

func (n *noopComparisonCache) InvalidateSession(ctx context.Context, sessionID string) error {
	return nil
}

func sessionPrefix(sessionID string) string {
	return fmt.Sprintf("%s:%s:", comparisonKeyPrefix, sessionID)
}

func buildComparisonKey(sessionID string, view domain.ViewMode, filter domain.Filter) string {
	return fmt.Sprintf("%scomparison:%s:%s", sessionPrefix(sessionID), view, filterHash(filter))
}

func buildSeriesKey(sessionID string, redistribute bool, filter domain.Filter) string {
	mode := "plain"
	if redistribute {
		mode = "redistributed"
	}
	return fmt.Sprintf("%sseries:%s:%s", sessionPrefix(sessionID), mode, filterHash(filter))
}

// filterHash is stable under reordering of multi-select values. Values keep
// their case because filters match exactly.
func filterHash(filter domain.Filter) string {
	parts := []string{}

	if v := strings.TrimSpace(filter.ProductID); v != "" {
		parts = append(parts, "product_id="+v)
	}
	if v := strings.TrimSpace(filter.VendorID); v != "" {
		parts = append(parts, "vendor_id="+v)
	}
	if len(filter.ParetoClasses) > 0 {
		parts = append(parts, "pareto="+joinStrings(filter.ParetoClasses))
	}
	if len(filter.Locations) > 0 {
		parts = append(parts, "location="+joinStrings(filter.Locations))
	}
	if len(filter.BusinessTags) > 0 {
		parts = append(parts, "business_tag="+joinStrings(filter.BusinessTags))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(c[i])
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
