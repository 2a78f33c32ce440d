package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/fonsecaaso/tinylinks/go-server/internal/metrics"
	"github.com/fonsecaaso/tinylinks/go-server/internal/model"
)

const linkCacheKeyPrefix = "link:"

// CachedLinkRepository puts a redis cache-aside layer in front of another LinkRepository.
// Only link records are cached; visit logs always come from the wrapped repository.
// Cache failures are logged and never fail the call.
type CachedLinkRepository struct {
	LinkRepository
	redisClient *redis.Client
	ttl         time.Duration
	logger      *zap.Logger
}

func NewCachedLinkRepository(inner LinkRepository, redisClient *redis.Client, ttl time.Duration) *CachedLinkRepository {
	if ttl <= 0 {
		ttl = cacheTimeout
	}
	return &CachedLinkRepository{
		LinkRepository: inner,
		redisClient:    redisClient,
		ttl:            ttl,
		logger:         zap.L().With(zap.String("component", "CachedLinkRepository")),
	}
}

// FindByCode retrieves a link by its short code, checking cache first
func (r *CachedLinkRepository) FindByCode(ctx context.Context, code string) (*model.Link, error) {
	key := linkCacheKeyPrefix + code

	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err == nil {
		var link model.Link
		if err := json.Unmarshal(val, &link); err == nil {
			metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
			r.logger.Debug("Link found in cache", zap.String("code", code))
			return &link, nil
		}
		r.logger.Warn("Discarding undecodable cache entry", zap.String("code", code))
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("Cache error", zap.Error(fmt.Errorf("%w: %v", ErrCacheError, err)), zap.String("code", code))
	}
	metrics.CacheMissesTotal.WithLabelValues("redis").Inc()

	link, err := r.LinkRepository.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(link); err == nil {
		if err := r.redisClient.Set(ctx, key, payload, r.ttl).Err(); err != nil {
			r.logger.Warn("Failed to cache link", zap.Error(err), zap.String("code", code))
		}
	}

	return link, nil
}

func (r *CachedLinkRepository) UpdateTarget(ctx context.Context, code, targetURL string) error {
	if err := r.LinkRepository.UpdateTarget(ctx, code, targetURL); err != nil {
		return err
	}
	r.invalidate(ctx, code)
	return nil
}

func (r *CachedLinkRepository) Delete(ctx context.Context, code string) error {
	if err := r.LinkRepository.Delete(ctx, code); err != nil {
		return err
	}
	r.invalidate(ctx, code)
	return nil
}

func (r *CachedLinkRepository) invalidate(ctx context.Context, code string) {
	if err := r.redisClient.Del(ctx, linkCacheKeyPrefix+code).Err(); err != nil {
		r.logger.Warn("Failed to invalidate cached link", zap.Error(err), zap.String("code", code))
	}
}

var _ LinkRepository = (*CachedLinkRepository)(nil)
