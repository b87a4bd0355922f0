package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/central-kitchen/pkg/logger"
)

const catalogCachePrefix = "cache:catalog:"

// ResponseCache caches public catalog responses in Redis
type ResponseCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewResponseCache creates a new response cache. A nil client disables caching.
func NewResponseCache(redisClient *redis.Client, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResponseCache{redis: redisClient, ttl: ttl}
}

// Middleware serves cached GET responses and stores successful misses
func (rc *ResponseCache) Middleware(next http.HandlerFunc) http.HandlerFunc {
	if rc == nil || rc.redis == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r)
		cached, err := rc.redis.Get(r.Context(), key).Bytes()
		if err == nil && len(cached) > 0 {
			logger.Debug(r.Context()).Str("path", r.URL.Path).Msg("Cache hit")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		w.Header().Set("X-Cache", "MISS")
		rec := &bufferedWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.statusCode != http.StatusOK {
			return
		}
		if err := rc.redis.Set(r.Context(), key, rec.body.Bytes(), rc.ttl).Err(); err != nil {
			logger.Warn(r.Context()).Err(err).Str("cache_key", key).Msg("Failed to cache response")
		}
	}
}

// Invalidate drops every cached catalog response
func (rc *ResponseCache) Invalidate(ctx context.Context) {
	if rc == nil || rc.redis == nil {
		return
	}
	iter := rc.redis.Scan(ctx, 0, catalogCachePrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to scan catalog cache")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.redis.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to invalidate catalog cache")
		return
	}
	logger.Info(ctx).Int("count", len(keys)).Msg("Catalog cache invalidated")
}

func cacheKey(r *http.Request) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", r.Method, r.URL.Path, r.URL.RawQuery)))
	return catalogCachePrefix + hex.EncodeToString(hash[:])
}

// bufferedWriter copies the response body while writing it through.
type bufferedWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (bw *bufferedWriter) WriteHeader(code int) {
	bw.statusCode = code
	bw.ResponseWriter.WriteHeader(code)
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	bw.body.Write(b)
	return bw.ResponseWriter.Write(b)
}
