package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rinsr/dashboard/internal/config"
	"github.com/rinsr/dashboard/internal/errs"
	"github.com/rinsr/dashboard/internal/geocode"
)

const geocodeCachePrefix = "geocode:autocomplete:"

// Suggester looks up location suggestions.
type Suggester interface {
	Configured() bool
	Autocomplete(ctx context.Context, q string, limit int) ([]geocode.Suggestion, error)
}

// SuggestionCache stores suggestions by query.
type SuggestionCache interface {
	Get(ctx context.Context, key string) ([]geocode.Suggestion, bool)
	Set(ctx context.Context, key string, suggestions []geocode.Suggestion, ttl time.Duration)
}

// GeocodeService serves location autocomplete for the vendor form.
//
// Identical lookups running at the same time share one provider call,
// and answers are cached for the configured TTL when a cache is present.
type GeocodeService struct {
	cfg    config.GeocodingConfig
	client Suggester
	cache  SuggestionCache
	logger *zerolog.Logger
	group  singleflight.Group
}

// NewGeocodeService builds a GeocodeService. cache may be nil.
func NewGeocodeService(cfg config.GeocodingConfig, client Suggester, cache SuggestionCache, logger *zerolog.Logger) *GeocodeService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &GeocodeService{
		cfg:    cfg,
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// Autocomplete returns suggestions for q.
//
// Queries shorter than the minimum length return an empty list without
// calling the provider.
func (s *GeocodeService) Autocomplete(ctx context.Context, q string) ([]geocode.Suggestion, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < s.cfg.MinQueryLength {
		return []geocode.Suggestion{}, nil
	}

	if !s.client.Configured() {
		return nil, errs.NewConfigurationError("Geocoding is not configured")
	}

	key := geocodeCachePrefix + strings.ToLower(q)

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			s.logger.Debug().Str("query", q).Msg("geocode cache hit")
			return cached, nil
		}
	}

	ch := s.group.DoChan(key, func() (any, error) {
		return s.lookup(ctx, key, q)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		s.logger.Debug().Str("query", q).Msg("geocode caller went away before the lookup finished")
		return nil, ctx.Err()
	}

	if res.Err != nil {
		s.logger.Error().Err(res.Err).Str("query", q).Msg("geocode lookup failed")

		var providerErr *geocode.Error
		if errors.As(res.Err, &providerErr) {
			return nil, errs.NewBadGatewayError("Geocoding provider rejected the request")
		}
		return nil, errs.NewBadGatewayError("Geocoding provider is unavailable")
	}

	return res.Val.([]geocode.Suggestion), nil
}

// lookup makes the provider call shared by every caller waiting on key.
// It outlives the caller that started it and fills the cache itself.
func (s *GeocodeService) lookup(ctx context.Context, key, q string) ([]geocode.Suggestion, error) {
	callCtx := context.WithoutCancel(ctx)
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, s.cfg.Timeout)
		defer cancel()
	}

	suggestions, err := s.client.Autocomplete(callCtx, q, s.cfg.Limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		s.cache.Set(callCtx, key, suggestions, s.cfg.CacheTTL)
	}
	return suggestions, nil
}

// redisCache keeps suggestions as JSON strings in Redis. Cache failures are
// logged and treated as misses.
type redisCache struct {
	client *redis.Client
	logger *zerolog.Logger
}

// NewRedisCache returns a SuggestionCache backed by client.
func NewRedisCache(client *redis.Client, logger *zerolog.Logger) SuggestionCache {
	return &redisCache{client: client, logger: logger}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]geocode.Suggestion, bool) {
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
		}
		return nil, false
	}

	var suggestions []geocode.Suggestion
	if err := json.Unmarshal(b, &suggestions); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("geocode cache entry is corrupt")
		return nil, false
	}
	return suggestions, true
}

func (c *redisCache) Set(ctx context.Context, key string, suggestions []geocode.Suggestion, ttl time.Duration) {
	b, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
	}
}
