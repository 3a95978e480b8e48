package content

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Loader produces the text of a submission file, caching extracted text in Redis.
type Loader struct {
	fetcher   Fetcher
	extractor *Extractor
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewLoader wires a loader. cache may be nil.
func NewLoader(fetcher Fetcher, extractor *Extractor, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) *Loader {
	if extractor == nil {
		extractor = NewExtractor()
	}
	return &Loader{
		fetcher:   fetcher,
		extractor: extractor,
		cache:     cache,
		cacheTTL:  ttl,
		logger:    logger.With().Str("component", "content_loader").Logger(),
	}
}

// Load returns the submission text behind fileURL.
func (l *Loader) Load(ctx context.Context, fileURL string) (string, error) {
	if strings.TrimSpace(fileURL) == "" {
		return "", ErrEmptyContent
	}

	cacheKey := CacheKey(fileURL)
	if l.cache != nil {
		cached, err := l.cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			l.logger.Debug().Str("cache_key", cacheKey).Msg("submission content cache hit")
			return cached, nil
		case !errors.Is(err, redis.Nil):
			l.logger.Warn().Err(err).Msg("failed to read submission content cache")
		}
	}

	data, err := l.fetcher.Fetch(ctx, fileURL)
	if err != nil {
		return "", fmt.Errorf("fetching submission file: %w", err)
	}

	text, err := l.extractor.Extract(data)
	if err != nil {
		return "", err
	}

	if l.cache != nil && l.cacheTTL > 0 {
		if err := l.cache.Set(ctx, cacheKey, text, l.cacheTTL).Err(); err != nil {
			l.logger.Warn().Err(err).Msg("failed to store submission content cache")
		}
	}

	return text, nil
}

// CacheKey derives the Redis key for a file URL.
func CacheKey(fileURL string) string {
	return fmt.Sprintf("submission:content:%x", md5.Sum([]byte(strings.TrimSpace(fileURL))))
}
