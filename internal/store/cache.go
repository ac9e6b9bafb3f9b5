package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheKey 是分区快照键的前缀，实际键为 CacheKey:<generation>。
const CacheKey = "site:sections"

// GenerationKey 保存当前快照代数，每次写入后递增。
const GenerationKey = "site:sections:gen"

type cacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// CachedStore 为已有 Store 加一层 Redis 读缓存。缓存故障只记日志，读取回落到底层 Store。
//
// 快照按代数分键：读取先取代数再读底层，写入提交后递增代数。
// 与写入交错的慢读只会回填已经过期的代数，不会覆盖新数据。
type CachedStore struct {
	next   Store
	cache  cacheClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore 构造带缓存的 Store。
func NewCachedStore(next Store, cache cacheClient, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, logger: logger}
}

func snapshotKey(gen string) string {
	return CacheKey + ":" + gen
}

// generation 返回当前代数；键不存在视为 0。
func (s *CachedStore) generation(ctx context.Context) (string, error) {
	gen, err := s.cache.Get(ctx, GenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

// FetchAll 优先读取缓存，未命中时读取底层并回填。
func (s *CachedStore) FetchAll(ctx context.Context) (map[string]json.RawMessage, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		s.logger.Warn("read sections generation failed", slog.Any("error", err))
		return s.next.FetchAll(ctx)
	}
	key := snapshotKey(gen)

	raw, err := s.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows map[string]json.RawMessage
		if jsonErr := json.Unmarshal(raw, &rows); jsonErr == nil {
			return rows, nil
		}
		s.logger.Warn("discard malformed sections cache")
	case !errors.Is(err, redis.Nil):
		s.logger.Warn("read sections cache failed", slog.Any("error", err))
	}

	rows, err := s.next.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, jsonErr := json.Marshal(rows); jsonErr == nil {
		if setErr := s.cache.Set(ctx, key, encoded, s.ttl).Err(); setErr != nil {
			s.logger.Warn("write sections cache failed", slog.Any("error", setErr))
		}
	}
	return rows, nil
}

// UpsertSection 写入底层后使缓存失效。
func (s *CachedStore) UpsertSection(ctx context.Context, name string, content json.RawMessage) error {
	if err := s.next.UpsertSection(ctx, name, content); err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate 递增代数，旧快照随 TTL 过期。
func (s *CachedStore) Invalidate(ctx context.Context) {
	if err := s.cache.Incr(ctx, GenerationKey).Err(); err != nil {
		s.logger.Warn("invalidate sections cache failed", slog.Any("error", err))
	}
}
