package repositories

import (
	"context"
	"time"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

// SearchAnalyticsRepository is the append-only search event log.
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)

	// WindowStats aggregates events in [from, to). An empty query covers all events.
	WindowStats(ctx context.Context, query string, from, to time.Time) (*entities.WindowStats, error)

	// CountQuery counts events for query since the given time (zero time: all).
	CountQuery(ctx context.Context, query string, since time.Time) (int, error)

	// UserQueryCount counts how often userID searched exactly query.
	UserQueryCount(ctx context.Context, userID int64, query string) (int, error)

	// UserQueries returns userID's distinct past queries, most recent first.
	UserQueries(ctx context.Context, userID int64, limit int) ([]string, error)

	// SimilarQueries returns distinct queries sharing any keyword, excluding
	// exclude, ranked by average results then frequency.
	SimilarQueries(ctx context.Context, keywords []string, exclude string, limit int) ([]*entities.QueryAggregate, error)
}

// SuggestionRepository persists the popular-search counters.
type SuggestionRepository interface {
	// Increment inserts the (text, contentType) row with count 1 or atomically
	// increments search_count on conflict.
	Increment(ctx context.Context, text string, contentType entities.ContentType) error

	// PopularByPrefix returns active rows whose text starts with prefix,
	// ordered by search_count descending.
	PopularByPrefix(ctx context.Context, prefix string, limit int) ([]*entities.SuggestionStat, error)
}

// SearchHistoryRepository reads the per-user behaviour used for personalization.
type SearchHistoryRepository interface {
	RecentSearches(ctx context.Context, userID int64, limit int) ([]*entities.SearchHistoryRecord, error)
	RecentViews(ctx context.Context, userID int64, limit int) ([]*entities.ContentView, error)
}

// CatalogRepository answers the article and category questions behind insights.
type CatalogRepository interface {
	Coverage(ctx context.Context, phrase string) (*entities.ContentCoverage, error)
	RelatedCategories(ctx context.Context, keywords []string, limit int) ([]*entities.CategorySummary, error)
	PopularArticles(ctx context.Context, phrase string, limit int) ([]*entities.SearchResult, error)
}
