package services_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
)

// Mocks

type MockContentSearchRepository struct {
	mock.Mock
	contentType entities.ContentType
	delay       time.Duration
}

func newMockAdapter(ct entities.ContentType) *MockContentSearchRepository {
	return &MockContentSearchRepository{contentType: ct}
}

func (m *MockContentSearchRepository) ContentType() entities.ContentType {
	return m.contentType
}

func (m *MockContentSearchRepository) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	if m.delay > 0 {
		// Ignores ctx on purpose: the caller must not wait for it.
		time.Sleep(m.delay)
	}
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.ContentPage), args.Error(1)
}

func (m *MockContentSearchRepository) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	args := m.Called(ctx, partial, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Suggestion), args.Error(1)
}

type MockSearchAnalyticsRepository struct {
	mock.Mock
}

func (m *MockSearchAnalyticsRepository) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSearchAnalyticsRepository) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchEvent), args.Error(1)
}

func (m *MockSearchAnalyticsRepository) WindowStats(ctx context.Context, query string, from, to time.Time) (*entities.WindowStats, error) {
	args := m.Called(ctx, query, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.WindowStats), args.Error(1)
}

func (m *MockSearchAnalyticsRepository) CountQuery(ctx context.Context, query string, since time.Time) (int, error) {
	args := m.Called(ctx, query, since)
	return args.Int(0), args.Error(1)
}

func (m *MockSearchAnalyticsRepository) UserQueryCount(ctx context.Context, userID int64, query string) (int, error) {
	args := m.Called(ctx, userID, query)
	return args.Int(0), args.Error(1)
}

func (m *MockSearchAnalyticsRepository) UserQueries(ctx context.Context, userID int64, limit int) ([]string, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSearchAnalyticsRepository) SimilarQueries(ctx context.Context, keywords []string, exclude string, limit int) ([]*entities.QueryAggregate, error) {
	args := m.Called(ctx, keywords, exclude, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.QueryAggregate), args.Error(1)
}

type MockSuggestionRepository struct {
	mock.Mock
}

func (m *MockSuggestionRepository) Increment(ctx context.Context, text string, contentType entities.ContentType) error {
	args := m.Called(ctx, text, contentType)
	return args.Error(0)
}

func (m *MockSuggestionRepository) PopularByPrefix(ctx context.Context, prefix string, limit int) ([]*entities.SuggestionStat, error) {
	args := m.Called(ctx, prefix, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SuggestionStat), args.Error(1)
}

type MockSearchHistoryRepository struct {
	mock.Mock
}

func (m *MockSearchHistoryRepository) RecentSearches(ctx context.Context, userID int64, limit int) ([]*entities.SearchHistoryRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchHistoryRecord), args.Error(1)
}

func (m *MockSearchHistoryRepository) RecentViews(ctx context.Context, userID int64, limit int) ([]*entities.ContentView, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ContentView), args.Error(1)
}

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Coverage(ctx context.Context, phrase string) (*entities.ContentCoverage, error) {
	args := m.Called(ctx, phrase)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ContentCoverage), args.Error(1)
}

func (m *MockCatalogRepository) RelatedCategories(ctx context.Context, keywords []string, limit int) ([]*entities.CategorySummary, error) {
	args := m.Called(ctx, keywords, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CategorySummary), args.Error(1)
}

func (m *MockCatalogRepository) PopularArticles(ctx context.Context, phrase string, limit int) ([]*entities.SearchResult, error) {
	args := m.Called(ctx, phrase, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchResult), args.Error(1)
}

type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	args := m.Called(ctx, key, value, expirationSeconds)
	return args.Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Helpers

func loadTaxonomy(t *testing.T) *services.Taxonomy {
	t.Helper()
	_, filename, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(filename), "..", "..", "..", "config", "search_taxonomy.yaml")
	taxonomy, err := services.LoadTaxonomy(path)
	require.NoError(t, err)
	return taxonomy
}

func int64Ptr(v int64) *int64 {
	return &v
}

func article(id int64, title, category, author string, views int64, created time.Time) *entities.SearchResult {
	return &entities.SearchResult{
		ContentType:  entities.ContentTypeArticles,
		ID:           id,
		Title:        title,
		URL:          "/wiki/article-" + title,
		CategoryName: category,
		AuthorName:   author,
		Popularity:   views,
		CreatedAt:    created,
	}
}
