package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/coralcms/sitesearch/internal/indexer/index"
	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/metrics"
	pkgredis "github.com/coralcms/sitesearch/pkg/redis"
)

const cacheKeyPrefix = "search:"

// CachedPage is the cached form of one search result page.
type CachedPage struct {
	Results []index.ScoredEntry `json:"results"`
	Total   int                 `json:"total"`
}

// ResultCache caches ranked search pages in Redis. Concurrent misses for
// the same key collapse into a single backend query via singleflight.
type ResultCache struct {
	client  *pkgredis.Client
	cfg     config.RedisConfig
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewResultCache(client *pkgredis.Client, cfg config.RedisConfig, m *metrics.Metrics) *ResultCache {
	return &ResultCache{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "result-cache"),
	}
}

// GetOrCompute returns the cached page for the key, or computes and
// caches it. The bool reports whether the value came from cache.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func() (*CachedPage, error)) (*CachedPage, bool, error) {
	if page, ok := c.get(ctx, key); ok {
		return page, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if page, ok := c.get(ctx, key); ok {
			return page, nil
		}
		page, err := compute()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, page)
		return page, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*CachedPage), false, nil
}

// Invalidate drops every cached search page.
func (c *ResultCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating result cache: %w", err)
	}
	c.logger.Info("result cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *ResultCache) get(ctx context.Context, key string) (*CachedPage, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	var page CachedPage
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
	return &page, true
}

func (c *ResultCache) set(ctx context.Context, key string, page *CachedPage) {
	data, err := json.Marshal(page)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *ResultCache) miss() {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// cacheKey derives a stable key from the normalized query parameters.
func cacheKey(term string, types []string, page, pageSize int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(term)), " ")
	sorted := append([]string(nil), types...)
	sort.Strings(sorted)
	raw := fmt.Sprintf("%s|types=%s|page=%d|size=%d", normalized, strings.Join(sorted, ","), page, pageSize)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, hash[:16])
}
