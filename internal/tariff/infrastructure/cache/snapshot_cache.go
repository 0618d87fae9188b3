package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parking-cloud/internal/observability/metrics"
	tariff "parking-cloud/internal/tariff/domain"
)

const (
	defaultKeyPrefix = "tariff:snapshot"
	defaultTTL       = 5 * time.Minute
)

// Client is the subset of redis commands the cache needs. *redis.Client satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// SnapshotCache decorates a SnapshotReader with a redis read-through cache.
// Redis failures degrade to the underlying reader.
//
// Entries are keyed by a per-lot generation. Invalidate bumps the generation,
// so a fill that read the database before the bump lands on a key no reader
// will look up again.
type SnapshotCache struct {
	next   tariff.SnapshotReader
	client Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// Option configures the cache.
type Option func(*SnapshotCache)

// WithTTL sets how long a snapshot stays cached.
func WithTTL(ttl time.Duration) Option {
	return func(c *SnapshotCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix overrides the redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *SnapshotCache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *SnapshotCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewSnapshotCache constructs the decorator.
func NewSnapshotCache(next tariff.SnapshotReader, client Client, opts ...Option) (*SnapshotCache, error) {
	if next == nil {
		return nil, errors.New("snapshot cache: nil reader")
	}
	if client == nil {
		return nil, errors.New("snapshot cache: nil redis client")
	}
	c := &SnapshotCache{
		next:   next,
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LoadActiveSnapshot serves the snapshot from redis when present. Absent plans
// are not cached.
func (c *SnapshotCache) LoadActiveSnapshot(ctx context.Context, tenantID, lotID string) (*tariff.PlanSnapshot, error) {
	gen, err := c.generation(ctx, tenantID, lotID)
	if err != nil {
		c.logger.Warn("snapshot cache: generation lookup failed", zap.String("key", c.genKey(tenantID, lotID)), zap.Error(err))
		metrics.IncSnapshotCache(metrics.CacheError)
		return c.next.LoadActiveSnapshot(ctx, tenantID, lotID)
	}
	key := c.key(tenantID, lotID, gen)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var snapshot tariff.PlanSnapshot
		if jsonErr := json.Unmarshal(raw, &snapshot); jsonErr == nil {
			metrics.IncSnapshotCache(metrics.CacheHit)
			return &snapshot, nil
		}
		c.logger.Warn("snapshot cache: corrupt entry", zap.String("key", key))
		metrics.IncSnapshotCache(metrics.CacheError)
	case errors.Is(err, redis.Nil):
		metrics.IncSnapshotCache(metrics.CacheMiss)
	default:
		c.logger.Warn("snapshot cache: get failed", zap.String("key", key), zap.Error(err))
		metrics.IncSnapshotCache(metrics.CacheError)
	}

	snapshot, err := c.next.LoadActiveSnapshot(ctx, tenantID, lotID)
	if err != nil || snapshot == nil {
		return snapshot, err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return snapshot, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("snapshot cache: set failed", zap.String("key", key), zap.Error(err))
	}
	return snapshot, nil
}

// Invalidate advances the lot's generation and drops the entry it replaced.
func (c *SnapshotCache) Invalidate(ctx context.Context, tenantID, lotID string) error {
	gen, err := c.client.Incr(ctx, c.genKey(tenantID, lotID)).Result()
	if err != nil {
		metrics.IncSnapshotCache(metrics.CacheError)
		return fmt.Errorf("snapshot cache: invalidate %s/%s: %w", tenantID, lotID, err)
	}
	// The old entry expires on its own; deleting it only frees memory early.
	if err := c.client.Del(ctx, c.key(tenantID, lotID, gen-1)).Err(); err != nil {
		c.logger.Warn("snapshot cache: delete stale entry failed", zap.String("lot_id", lotID), zap.Error(err))
	}
	return nil
}

func (c *SnapshotCache) generation(ctx context.Context, tenantID, lotID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(tenantID, lotID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *SnapshotCache) genKey(tenantID, lotID string) string {
	return c.prefix + ":gen:" + tenantID + ":" + lotID
}

func (c *SnapshotCache) key(tenantID, lotID string, gen int64) string {
	return c.prefix + ":" + tenantID + ":" + lotID + ":" + strconv.FormatInt(gen, 10)
}
