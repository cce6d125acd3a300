package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
)

const (
	backgroundWriteTimeout = 5 * time.Second
	trendRecentWindow      = 7 * day
	trendingRatio          = 0.5
	classicRatio           = 0.1
)

// SearchAnalyticsService records search events and reads statistics back
// from the event log.
type SearchAnalyticsService struct {
	repo        repositories.SearchAnalyticsRepository
	suggestions repositories.SuggestionRepository
	metrics     *observability.Metrics
	now         func() time.Time

	wg sync.WaitGroup
}

// NewSearchAnalyticsService creates the analytics service. suggestions may be
// nil when the popular-search counter is not kept.
func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository, suggestions repositories.SuggestionRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{
		repo:        repo,
		suggestions: suggestions,
		now:         time.Now,
	}
}

func (s *SearchAnalyticsService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *SearchAnalyticsService) SetClock(now func() time.Time) {
	s.now = now
}

// background runs fn detached from the request so a cancelled or finished
// request never aborts the write. Failures are logged and counted only.
func (s *SearchAnalyticsService) background(ctx context.Context, operation string, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundWriteTimeout)
		defer cancel()

		if err := fn(bgCtx); err != nil {
			observability.LoggerFromContext(bgCtx).Warn().Err(err).Str("operation", operation).Msg("background analytics write failed")
			s.metrics.RecordBackgroundFailure(bgCtx, operation)
		}
	}()
}

// TrackSearch appends event to the log without blocking the caller.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	s.background(ctx, "log_search_event", func(ctx context.Context) error {
		return s.repo.LogEvent(ctx, event)
	})
}

// TrackSuggestion logs an autocomplete request and increments the popular
// counter for its text and content type. Both writes are independent.
func (s *SearchAnalyticsService) TrackSuggestion(ctx context.Context, event *entities.SearchEvent) {
	s.TrackSearch(ctx, event)
	if s.suggestions == nil {
		return
	}
	text, contentType := event.Query, event.ContentType
	s.background(ctx, "increment_suggestion", func(ctx context.Context) error {
		return s.suggestions.Increment(ctx, text, contentType)
	})
}

// Wait blocks until every pending background write has finished.
func (s *SearchAnalyticsService) Wait() {
	s.wg.Wait()
}

func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	return s.repo.GetZeroResultQueries(ctx, limit)
}

// CalculateChange returns the percentage change from previous to current.
// A zero previous value yields 0.
func CalculateChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// StatsFor compares the window of length period ending now with the window
// immediately before it. An empty query covers every event.
func (s *SearchAnalyticsService) StatsFor(ctx context.Context, query string, period entities.Period) (*entities.SearchStatistics, error) {
	length := period.Duration()
	to := s.now()
	from := to.Add(-length)
	previousFrom := from.Add(-length)

	var current, previous *entities.WindowStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.repo.WindowStats(gctx, query, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.repo.WindowStats(gctx, query, previousFrom, from)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if period == "" {
		period = entities.PeriodWeek
	}
	return &entities.SearchStatistics{
		Query:  query,
		Period: period,
		From:   from,
		To:     to,

		TotalSearches:   current.TotalSearches,
		UniqueSearchers: current.UniqueSearchers,
		AvgResults:      current.AvgResults,
		SuccessRate:     current.SuccessRate(),

		TotalSearchesChange:   CalculateChange(float64(current.TotalSearches), float64(previous.TotalSearches)),
		UniqueSearchersChange: CalculateChange(float64(current.UniqueSearchers), float64(previous.UniqueSearchers)),
		AvgResultsChange:      CalculateChange(current.AvgResults, previous.AvgResults),
		SuccessRateChange:     CalculateChange(current.SuccessRate(), previous.SuccessRate()),
	}, nil
}

// ClassifyTrend applies the trending and classic thresholds to a
// recent-to-total ratio.
func ClassifyTrend(recent, total int) *entities.Trend {
	trend := &entities.Trend{RecentCount: recent, TotalCount: total}
	if total == 0 {
		return trend
	}
	trend.RecentRatio = float64(recent) / float64(total)
	switch {
	case trend.RecentRatio > trendingRatio:
		trend.Kind = entities.TrendTrending
	case trend.RecentRatio < classicRatio:
		trend.Kind = entities.TrendClassic
	}
	return trend
}

// TrendFor compares the last seven days of query volume with its all-time volume.
func (s *SearchAnalyticsService) TrendFor(ctx context.Context, query string) (*entities.Trend, error) {
	total, err := s.repo.CountQuery(ctx, query, time.Time{})
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return ClassifyTrend(0, 0), nil
	}
	recent, err := s.repo.CountQuery(ctx, query, s.now().Add(-trendRecentWindow))
	if err != nil {
		return nil, err
	}
	return ClassifyTrend(recent, total), nil
}

// AllTimeStats aggregates every logged event of query up to now.
func (s *SearchAnalyticsService) AllTimeStats(ctx context.Context, query string) (*entities.WindowStats, error) {
	return s.repo.WindowStats(ctx, query, time.Time{}, s.now())
}
