package lov

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
	"github.com/peatiscoding/cadence-sub000/pkg/utils"
)

// Service resolves a list-of-values source to its entries, serving from the
// cache while it is fresh and refreshing from the provider otherwise.
type Service interface {
	List(ctx context.Context, src *workflow.LovSource, ignoreCache bool) ([]Entry, error)
	Invalidate(ctx context.Context, cacheKey string) error
}

type ServiceImpl struct {
	Repo   Repository
	Logger *zap.Logger

	// newProvider is swappable in tests
	newProvider func(src *workflow.LovSource) (Provider, error)
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &ServiceImpl{Repo: repo, Logger: logger, newProvider: NewProvider}
}

// CacheKeyFor derives the cache identity of a source: the explicit cacheKey
// when the definition declares one, otherwise a digest of the definition
// itself so that equal definitions share a cache row.
func CacheKeyFor(src *workflow.LovSource) (string, error) {
	if src.CacheKey != "" {
		return src.CacheKey, nil
	}
	return utils.HashDefinition(src)
}

func (s *ServiceImpl) List(ctx context.Context, src *workflow.LovSource, ignoreCache bool) ([]Entry, error) {
	cacheKey, err := CacheKeyFor(src)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !ignoreCache {
		cached, err := s.Repo.Get(ctx, cacheKey)
		if err == nil && !cached.Expired(now) {
			return cached.Entries, nil
		}
		if err != nil && !errors.Is(err, ErrCacheMiss) {
			s.Logger.Warn("lov cache read failed, falling back to provider",
				zap.String("cacheKey", cacheKey), zap.Error(err))
		}
	}

	provider, err := s.newProvider(src)
	if err != nil {
		return nil, err
	}
	entries, err := provider.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	data := &CachedData{
		CacheKey:  cacheKey,
		Kind:      src.Kind,
		Entries:   entries,
		FetchedAt: now,
		ExpiresAt: now.Add(TTLFor(src.Kind)),
	}
	if err := s.Repo.Put(ctx, data); err != nil {
		// a stale cache is recoverable, missing entries are not
		s.Logger.Warn("lov cache write failed", zap.String("cacheKey", cacheKey), zap.Error(err))
	}
	return entries, nil
}

func (s *ServiceImpl) Invalidate(ctx context.Context, cacheKey string) error {
	return s.Repo.Delete(ctx, cacheKey)
}
