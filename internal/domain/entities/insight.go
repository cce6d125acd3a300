package entities

import "time"

// Period is an analytics window length.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Duration returns the window length, defaulting to a week.
func (p Period) Duration() time.Duration {
	switch p {
	case PeriodDay:
		return 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	case PeriodYear:
		return 365 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// WindowStats are raw aggregates of the event log over one window.
type WindowStats struct {
	TotalSearches   int     `json:"total_searches"`
	UniqueSearchers int     `json:"unique_searchers"`
	AvgResults      float64 `json:"avg_results"`
	Successful      int     `json:"successful"`
}

// SuccessRate is the fraction of searches that returned at least one result.
func (w *WindowStats) SuccessRate() float64 {
	if w == nil || w.TotalSearches == 0 {
		return 0
	}
	return float64(w.Successful) / float64(w.TotalSearches)
}

// SearchStatistics compares one window of the event log with the one before it.
type SearchStatistics struct {
	Query  string    `json:"query,omitempty"`
	Period Period    `json:"period"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`

	TotalSearches   int     `json:"total_searches"`
	UniqueSearchers int     `json:"unique_searchers"`
	AvgResults      float64 `json:"avg_results"`
	SuccessRate     float64 `json:"success_rate"`

	TotalSearchesChange   float64 `json:"total_searches_change"`
	UniqueSearchersChange float64 `json:"unique_searchers_change"`
	AvgResultsChange      float64 `json:"avg_results_change"`
	SuccessRateChange     float64 `json:"success_rate_change"`

	// AverageSearchTimeMs is not measured; it stays nil.
	AverageSearchTimeMs *float64 `json:"average_search_time_ms"`
}

// TrendKind classifies how a query's volume is distributed in time.
type TrendKind string

const (
	TrendNone     TrendKind = ""
	TrendTrending TrendKind = "trending"
	TrendClassic  TrendKind = "classic"
)

// Trend is the recent-to-total ratio of a query.
type Trend struct {
	Kind        TrendKind `json:"kind"`
	RecentRatio float64   `json:"recent_ratio"`
	RecentCount int       `json:"recent_count"`
	TotalCount  int       `json:"total_count"`
}

// InsightKind names the rule that produced an insight.
type InsightKind string

const (
	InsightCoverage          InsightKind = "content_coverage"
	InsightContentGap        InsightKind = "content_gap"
	InsightHighVolume        InsightKind = "high_volume"
	InsightLowSuccess        InsightKind = "low_success"
	InsightHighEngagement    InsightKind = "high_engagement"
	InsightRecurringInterest InsightKind = "recurring_interest"
	InsightRelatedInterest   InsightKind = "related_interest"
	InsightTrending          InsightKind = "trending"
	InsightClassic           InsightKind = "classic"
)

// Insight is a human-readable card about a query.
type Insight struct {
	Kind        InsightKind    `json:"kind"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	Data        map[string]any `json:"data,omitempty"`
}

// RecommendationKind names the source of a recommendation.
type RecommendationKind string

const (
	RecommendSimilarQuery   RecommendationKind = "similar_query"
	RecommendCategory       RecommendationKind = "related_category"
	RecommendPopularArticle RecommendationKind = "popular_article"
)

// Recommendation points the user at a related query, category or article.
type Recommendation struct {
	Kind        RecommendationKind `json:"kind"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	URL         string             `json:"url"`
	Score       float64            `json:"score"`
}

// QueryAggregate summarises one distinct query text of the event log.
type QueryAggregate struct {
	Query      string  `json:"query"`
	Frequency  int     `json:"frequency"`
	AvgResults float64 `json:"avg_results"`
}

// ContentCoverage counts published articles matching a query.
type ContentCoverage struct {
	Articles   int `json:"articles"`
	Categories int `json:"categories"`
	Authors    int `json:"authors"`
}

// CategorySummary is a category with its published article count.
type CategorySummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	ArticleCount int    `json:"article_count"`
}
