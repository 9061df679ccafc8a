// Package cache memoises log-probability lookups in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/cognisight/internal/config"
	"github.com/tensorplex-labs/cognisight/internal/logprob"
	"github.com/tensorplex-labs/cognisight/internal/utils/redis"
)

const KeyPrefix = "cognisight:lp:"

var ErrNoDecoder = errors.New("wrapped provider cannot decode token ids")

// CachedProvider serves TokenLogProbs from Redis and falls through to the
// wrapped provider on a miss. Redis failures never fail a lookup.
type CachedProvider struct {
	inner logprob.Provider
	kv    redis.RedisInterface
	ttl   time.Duration
}

func NewCachedProvider(inner logprob.Provider, kv redis.RedisInterface, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		kv:    kv,
		ttl:   ttl,
	}
}

// Key is the cache key for text under model.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + "|" + text))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedProvider) Model() string {
	return c.inner.Model()
}

func (c *CachedProvider) TokenLogProbs(ctx context.Context, text string) (logprob.Result, error) {
	key := Key(c.inner.Model(), text)

	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}

	res, err := c.inner.TokenLogProbs(ctx, text)
	if err != nil {
		return logprob.Result{}, err
	}

	c.store(ctx, key, res)
	return res, nil
}

// Decode delegates to the wrapped provider.
func (c *CachedProvider) Decode(ctx context.Context, ids []int) (string, error) {
	decoder, ok := c.inner.(logprob.Decoder)
	if !ok {
		return "", ErrNoDecoder
	}
	return decoder.Decode(ctx, ids)
}

func (c *CachedProvider) lookup(ctx context.Context, key string) (logprob.Result, bool) {
	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed, bypassing")
		return logprob.Result{}, false
	}
	if raw == "" {
		return logprob.Result{}, false
	}

	var res logprob.Result
	if err := sonic.UnmarshalString(raw, &res); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("corrupt cache entry, dropping")
		if err := c.kv.Del(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
		}
		return logprob.Result{}, false
	}

	log.Trace().Str("key", key).Int("tokens", len(res.Tokens)).Msg("cache hit")
	return res, true
}

func (c *CachedProvider) store(ctx context.Context, key string, res logprob.Result) {
	raw, err := sonic.MarshalString(res)
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode log probs for cache")
		return
	}
	if err := c.kv.Set(ctx, key, raw, c.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Wrap returns provider behind a Redis cache when cfg enables one. The
// returned close func releases the Redis client and is never nil. A Redis
// that cannot be reached leaves provider unwrapped.
func Wrap(ctx context.Context, provider logprob.Provider, cfg *config.RedisEnvConfig) (logprob.Provider, func()) {
	noop := func() {}
	if cfg == nil || !cfg.Enabled {
		return provider, noop
	}

	r, err := redis.NewRedis(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to init redis client, continuing without cache")
		return provider, noop
	}
	if err := r.Ping(ctx); err != nil {
		log.Error().Err(err).Str("address", cfg.RedisAddress()).Msg("redis ping failed, continuing without cache")
		r.Close()
		return provider, noop
	}

	log.Info().Str("address", cfg.RedisAddress()).Str("ttl", cfg.TTL.String()).Msg("log-prob cache enabled")
	return NewCachedProvider(provider, r, cfg.TTL), r.Close
}
