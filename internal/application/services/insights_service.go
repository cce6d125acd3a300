package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
)

const (
	highVolumeSearches      = 1000
	lowSuccessRate          = 0.7
	highEngagementPerUser   = 5.0
	recurringInterestCount  = 2
	relatedInterestLimit    = 5
	userQueryHistoryLimit   = 100
	defaultRecommendLimit   = 5
	similarQueryOverfetch   = 2
	recommendationURLSearch = "/search?q="
	categoryURLPrefix       = "/wiki/category/"
)

// InsightsService turns the event log and the article catalog into insight
// cards and recommendations for one query.
type InsightsService struct {
	analytics *SearchAnalyticsService
	events    repositories.SearchAnalyticsRepository
	catalog   repositories.CatalogRepository
	taxonomy  *Taxonomy
}

func NewInsightsService(
	analytics *SearchAnalyticsService,
	events repositories.SearchAnalyticsRepository,
	catalog repositories.CatalogRepository,
	taxonomy *Taxonomy,
) *InsightsService {
	return &InsightsService{
		analytics: analytics,
		events:    events,
		catalog:   catalog,
		taxonomy:  taxonomy,
	}
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// sourceErrors collects the failures of best-effort lookups.
type sourceErrors struct {
	mu       sync.Mutex
	attempts int
	errs     []error
}

func (s *sourceErrors) run(ctx context.Context, source string, fn func() error) {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()

	if err := fn(); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("source", source).Msg("insight source unavailable")
		s.mu.Lock()
		s.errs = append(s.errs, fmt.Errorf("%s: %w", source, err))
		s.mu.Unlock()
	}
}

// allFailed returns the joined errors when no source answered.
func (s *sourceErrors) allFailed() error {
	if s.attempts > 0 && len(s.errs) == s.attempts {
		return errors.Join(s.errs...)
	}
	return nil
}

// InsightsFor evaluates every insight rule for query. Rules whose source is
// unavailable are skipped; an error is returned only if every source failed.
func (s *InsightsService) InsightsFor(ctx context.Context, query string, userID *int64) ([]*entities.Insight, error) {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return []*entities.Insight{}, nil
	}
	keywords := s.taxonomy.Keywords(normalized)

	var (
		coverage    *entities.ContentCoverage
		stats       *entities.WindowStats
		trend       *entities.Trend
		userCount   int
		userQueries []string
		sources     sourceErrors
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sources.run(gctx, "coverage", func() (err error) {
			coverage, err = s.catalog.Coverage(gctx, normalized)
			return err
		})
		return nil
	})
	g.Go(func() error {
		sources.run(gctx, "stats", func() (err error) {
			stats, err = s.analytics.AllTimeStats(gctx, normalized)
			return err
		})
		return nil
	})
	g.Go(func() error {
		sources.run(gctx, "trend", func() (err error) {
			trend, err = s.analytics.TrendFor(gctx, normalized)
			return err
		})
		return nil
	})
	if userID != nil {
		g.Go(func() error {
			sources.run(gctx, "user_query_count", func() (err error) {
				userCount, err = s.events.UserQueryCount(gctx, *userID, normalized)
				return err
			})
			return nil
		})
		g.Go(func() error {
			sources.run(gctx, "user_queries", func() (err error) {
				userQueries, err = s.events.UserQueries(gctx, *userID, userQueryHistoryLimit)
				return err
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := sources.allFailed(); err != nil {
		return nil, err
	}

	insights := []*entities.Insight{}
	if coverage != nil {
		insights = append(insights, coverageInsight(normalized, coverage))
	}
	if stats != nil {
		insights = append(insights, volumeInsights(normalized, stats)...)
	}
	if trend != nil {
		if insight := trendInsight(normalized, trend); insight != nil {
			insights = append(insights, insight)
		}
	}
	if userCount >= recurringInterestCount {
		insights = append(insights, &entities.Insight{
			Kind:        entities.InsightRecurringInterest,
			Title:       "Recurring interest",
			Description: fmt.Sprintf("You have searched for \"%s\" %d times", normalized, userCount),
			Icon:        "repeat",
			Data:        map[string]any{"count": userCount},
		})
	}
	if related := relatedQueries(normalized, keywords, userQueries, s.taxonomy); len(related) > 0 {
		insights = append(insights, &entities.Insight{
			Kind:        entities.InsightRelatedInterest,
			Title:       "Related interests",
			Description: "You also searched for " + strings.Join(related, ", "),
			Icon:        "link",
			Data:        map[string]any{"queries": related},
		})
	}
	return insights, nil
}

func coverageInsight(query string, c *entities.ContentCoverage) *entities.Insight {
	data := map[string]any{
		"articles":   c.Articles,
		"categories": c.Categories,
		"authors":    c.Authors,
	}
	if c.Articles == 0 {
		return &entities.Insight{
			Kind:        entities.InsightContentGap,
			Title:       "Content gap",
			Description: fmt.Sprintf("No published articles cover \"%s\" yet", query),
			Icon:        "alert",
			Data:        data,
		}
	}
	return &entities.Insight{
		Kind:        entities.InsightCoverage,
		Title:       "Content coverage",
		Description: fmt.Sprintf("%d articles in %d categories by %d authors match \"%s\"", c.Articles, c.Categories, c.Authors, query),
		Icon:        "book",
		Data:        data,
	}
}

func volumeInsights(query string, stats *entities.WindowStats) []*entities.Insight {
	var insights []*entities.Insight
	if stats.TotalSearches > highVolumeSearches {
		insights = append(insights, &entities.Insight{
			Kind:        entities.InsightHighVolume,
			Title:       "Popular topic",
			Description: fmt.Sprintf("\"%s\" has been searched %d times", query, stats.TotalSearches),
			Icon:        "fire",
			Data:        map[string]any{"total_searches": stats.TotalSearches},
		})
	}
	if stats.TotalSearches > 0 && stats.SuccessRate() < lowSuccessRate {
		insights = append(insights, &entities.Insight{
			Kind:        entities.InsightLowSuccess,
			Title:       "Low success rate",
			Description: fmt.Sprintf("Only %.0f%% of searches for \"%s\" return results", stats.SuccessRate()*100, query),
			Icon:        "warning",
			Data:        map[string]any{"success_rate": stats.SuccessRate()},
		})
	}
	if stats.UniqueSearchers > 0 {
		perUser := float64(stats.TotalSearches) / float64(stats.UniqueSearchers)
		if perUser > highEngagementPerUser {
			insights = append(insights, &entities.Insight{
				Kind:        entities.InsightHighEngagement,
				Title:       "High engagement",
				Description: fmt.Sprintf("Readers search for \"%s\" %.1f times each on average", query, perUser),
				Icon:        "star",
				Data:        map[string]any{"searches_per_user": perUser},
			})
		}
	}
	return insights
}

func trendInsight(query string, trend *entities.Trend) *entities.Insight {
	data := map[string]any{
		"recent_ratio": trend.RecentRatio,
		"recent_count": trend.RecentCount,
		"total_count":  trend.TotalCount,
	}
	switch trend.Kind {
	case entities.TrendTrending:
		return &entities.Insight{
			Kind:        entities.InsightTrending,
			Title:       "Trending now",
			Description: fmt.Sprintf("%.0f%% of searches for \"%s\" happened in the last week", trend.RecentRatio*100, query),
			Icon:        "trending-up",
			Data:        data,
		}
	case entities.TrendClassic:
		return &entities.Insight{
			Kind:        entities.InsightClassic,
			Title:       "Evergreen topic",
			Description: fmt.Sprintf("\"%s\" is searched steadily over time", query),
			Icon:        "archive",
			Data:        data,
		}
	default:
		return nil
	}
}

// relatedQueries returns up to five of the user's other queries that share
// a keyword with the current one.
func relatedQueries(query string, keywords, history []string, taxonomy *Taxonomy) []string {
	if len(keywords) == 0 || len(history) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		wanted[k] = struct{}{}
	}

	var related []string
	for _, past := range history {
		past = normalizeQuery(past)
		if past == "" || past == query {
			continue
		}
		for _, k := range taxonomy.Keywords(past) {
			if _, ok := wanted[k]; ok {
				related = append(related, past)
				break
			}
		}
		if len(related) == relatedInterestLimit {
			break
		}
	}
	return related
}

// RecommendationsFor suggests similar queries, related categories and
// popular articles for query, in that order, deduplicated by URL and
// truncated to limit. Queries userID already ran are not recommended.
func (s *InsightsService) RecommendationsFor(ctx context.Context, query string, userID *int64, limit int) ([]*entities.Recommendation, error) {
	if limit <= 0 {
		limit = defaultRecommendLimit
	}
	normalized := normalizeQuery(query)
	if normalized == "" {
		return []*entities.Recommendation{}, nil
	}
	keywords := s.taxonomy.Keywords(normalized)

	var (
		similar    []*entities.QueryAggregate
		categories []*entities.CategorySummary
		articles   []*entities.SearchResult
		pastQuery  []string
		sources    sourceErrors
	)

	g, gctx := errgroup.WithContext(ctx)
	if len(keywords) > 0 {
		g.Go(func() error {
			sources.run(gctx, "similar_queries", func() (err error) {
				similar, err = s.events.SimilarQueries(gctx, keywords, normalized, limit*similarQueryOverfetch)
				return err
			})
			return nil
		})
		g.Go(func() error {
			sources.run(gctx, "related_categories", func() (err error) {
				categories, err = s.catalog.RelatedCategories(gctx, keywords, limit)
				return err
			})
			return nil
		})
	}
	g.Go(func() error {
		sources.run(gctx, "popular_articles", func() (err error) {
			articles, err = s.catalog.PopularArticles(gctx, normalized, limit)
			return err
		})
		return nil
	})
	if userID != nil {
		g.Go(func() error {
			sources.run(gctx, "user_queries", func() (err error) {
				pastQuery, err = s.events.UserQueries(gctx, *userID, userQueryHistoryLimit)
				return err
			})
			return nil
		})
	}
	_ = g.Wait()

	if err := sources.allFailed(); err != nil {
		return nil, err
	}

	alreadyRan := make(map[string]struct{}, len(pastQuery))
	for _, q := range pastQuery {
		alreadyRan[normalizeQuery(q)] = struct{}{}
	}

	var candidates []*entities.Recommendation
	for _, q := range similar {
		if _, ok := alreadyRan[normalizeQuery(q.Query)]; ok {
			continue
		}
		candidates = append(candidates, &entities.Recommendation{
			Kind:        entities.RecommendSimilarQuery,
			Title:       q.Query,
			Description: fmt.Sprintf("Searched %d times with %.1f results on average", q.Frequency, q.AvgResults),
			URL:         recommendationURLSearch + url.QueryEscape(q.Query),
			Score:       q.AvgResults,
		})
	}
	for _, c := range categories {
		candidates = append(candidates, &entities.Recommendation{
			Kind:        entities.RecommendCategory,
			Title:       c.Name,
			Description: fmt.Sprintf("%d articles in this category", c.ArticleCount),
			URL:         categoryURLPrefix + c.Slug,
			Score:       float64(c.ArticleCount),
		})
	}
	for _, a := range articles {
		candidates = append(candidates, &entities.Recommendation{
			Kind:        entities.RecommendPopularArticle,
			Title:       a.Title,
			Description: a.Excerpt,
			URL:         a.URL,
			Score:       float64(a.Popularity),
		})
	}

	return dedupeRecommendations(candidates, limit), nil
}

func dedupeRecommendations(candidates []*entities.Recommendation, limit int) []*entities.Recommendation {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]*entities.Recommendation, 0, limit)
	for _, r := range candidates {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
