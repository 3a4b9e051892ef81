package suggest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coralcms/sitesearch/pkg/config"
	"github.com/coralcms/sitesearch/pkg/redis"
)

const debounceKey = "suggest:rebuild:lock"

// RedisDebouncer suppresses repeated rebuilds across processes with a
// short-TTL SETNX lock. If Redis is unreachable the rebuild proceeds;
// the lock is a hint, not a correctness guarantee.
type RedisDebouncer struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisDebouncer(client *redis.Client, cfg config.SuggestConfig) *RedisDebouncer {
	return &RedisDebouncer{
		client: client,
		ttl:    cfg.DebounceTTL,
		logger: slog.Default().With("component", "suggest-debounce"),
	}
}

func (d *RedisDebouncer) TryAcquire(ctx context.Context) bool {
	acquired, err := d.client.TryLock(ctx, debounceKey, d.ttl)
	if err != nil {
		d.logger.Warn("debounce lock unavailable, proceeding with rebuild", "error", err)
		return true
	}
	return acquired
}

// LocalDebouncer is the in-process fallback used when Redis is not
// configured.
type LocalDebouncer struct {
	mu   sync.Mutex
	last time.Time
	ttl  time.Duration
}

func NewLocalDebouncer(ttl time.Duration) *LocalDebouncer {
	return &LocalDebouncer{ttl: ttl}
}

func (d *LocalDebouncer) TryAcquire(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now()
	if now.Sub(d.last) < d.ttl {
		return false
	}
	d.last = now
	return true
}
