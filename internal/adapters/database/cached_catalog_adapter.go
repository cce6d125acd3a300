package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/providers"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
)

// Cache TTLs (in seconds)
const (
	coverageTTL          = 300
	relatedCategoriesTTL = 900
	popularArticlesTTL   = 300
)

// CachedCatalogAdapter wraps a CatalogRepository with caching. Catalog
// aggregates scan the whole article table and feed every insights card.
type CachedCatalogAdapter struct {
	catalog repositories.CatalogRepository
	cache   providers.CacheProvider
}

// NewCachedCatalogAdapter creates a new cached catalog adapter
func NewCachedCatalogAdapter(catalog repositories.CatalogRepository, cache providers.CacheProvider) repositories.CatalogRepository {
	return &CachedCatalogAdapter{catalog: catalog, cache: cache}
}

func coverageCacheKey(phrase string) string {
	return fmt.Sprintf("catalog:coverage:%s", phrase)
}

func relatedCategoriesCacheKey(keywords []string, limit int) string {
	return fmt.Sprintf("catalog:categories:%s:%d", strings.Join(keywords, ","), limit)
}

func popularArticlesCacheKey(phrase string, limit int) string {
	return fmt.Sprintf("catalog:popular:%s:%d", phrase, limit)
}

// cachedLoad returns the cached value under key or calls load and stores
// its result. Cache failures only cost a database round trip.
func cachedLoad[T any](ctx context.Context, cache providers.CacheProvider, key string, ttl int, load func() (T, error)) (T, error) {
	logger := observability.LoggerFromContext(ctx)

	if cached, err := cache.Get(ctx, key); err == nil {
		var v T
		if err := json.Unmarshal(cached, &v); err == nil {
			return v, nil
		}
		logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
	}

	v, err := load()
	if err != nil {
		return v, err
	}

	if data, err := json.Marshal(v); err == nil {
		if err := cache.Set(ctx, key, data, ttl); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("failed to cache catalog result")
		}
	}
	return v, nil
}

func (a *CachedCatalogAdapter) Coverage(ctx context.Context, phrase string) (*entities.ContentCoverage, error) {
	return cachedLoad(ctx, a.cache, coverageCacheKey(phrase), coverageTTL, func() (*entities.ContentCoverage, error) {
		return a.catalog.Coverage(ctx, phrase)
	})
}

func (a *CachedCatalogAdapter) RelatedCategories(ctx context.Context, keywords []string, limit int) ([]*entities.CategorySummary, error) {
	return cachedLoad(ctx, a.cache, relatedCategoriesCacheKey(keywords, limit), relatedCategoriesTTL, func() ([]*entities.CategorySummary, error) {
		return a.catalog.RelatedCategories(ctx, keywords, limit)
	})
}

func (a *CachedCatalogAdapter) PopularArticles(ctx context.Context, phrase string, limit int) ([]*entities.SearchResult, error) {
	return cachedLoad(ctx, a.cache, popularArticlesCacheKey(phrase, limit), popularArticlesTTL, func() ([]*entities.SearchResult, error) {
		return a.catalog.PopularArticles(ctx, phrase, limit)
	})
}
