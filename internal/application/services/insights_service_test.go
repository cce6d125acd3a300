package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

type insightsFixture struct {
	events  *MockSearchAnalyticsRepository
	catalog *MockCatalogRepository
	svc     *services.InsightsService
}

func newInsightsFixture(t *testing.T) *insightsFixture {
	f := &insightsFixture{
		events:  new(MockSearchAnalyticsRepository),
		catalog: new(MockCatalogRepository),
	}
	analytics := services.NewSearchAnalyticsService(f.events, nil)
	analytics.SetClock(func() time.Time { return analyticsNow })
	f.svc = services.NewInsightsService(analytics, f.events, f.catalog, loadTaxonomy(t))
	return f
}

func insightKinds(insights []*entities.Insight) []entities.InsightKind {
	kinds := make([]entities.InsightKind, 0, len(insights))
	for _, i := range insights {
		kinds = append(kinds, i.Kind)
	}
	return kinds
}

func TestInsightsService_AllRulesFire(t *testing.T) {
	f := newInsightsFixture(t)
	ctx := context.Background()

	f.catalog.On("Coverage", mock.Anything, "zakat rules").Return(&entities.ContentCoverage{Articles: 12, Categories: 2, Authors: 3}, nil)
	f.events.On("WindowStats", mock.Anything, "zakat rules", time.Time{}, analyticsNow).
		Return(&entities.WindowStats{TotalSearches: 1200, UniqueSearchers: 100, AvgResults: 2, Successful: 600}, nil)
	f.events.On("CountQuery", mock.Anything, "zakat rules", time.Time{}).Return(1200, nil)
	f.events.On("CountQuery", mock.Anything, "zakat rules", mock.Anything).Return(900, nil)
	f.events.On("UserQueryCount", mock.Anything, int64(7), "zakat rules").Return(3, nil)
	f.events.On("UserQueries", mock.Anything, int64(7), 100).Return([]string{"zakat rules", "zakat on gold", "hajj visa"}, nil)

	insights, err := f.svc.InsightsFor(ctx, "  Zakat RULES ", int64Ptr(7))

	require.NoError(t, err)
	assert.Equal(t, []entities.InsightKind{
		entities.InsightCoverage,
		entities.InsightHighVolume,
		entities.InsightLowSuccess,
		entities.InsightHighEngagement,
		entities.InsightTrending,
		entities.InsightRecurringInterest,
		entities.InsightRelatedInterest,
	}, insightKinds(insights))
	assert.Equal(t, []string{"zakat on gold"}, insights[6].Data["queries"])
}

func TestInsightsService_ContentGapAndPartialFailure(t *testing.T) {
	f := newInsightsFixture(t)

	f.catalog.On("Coverage", mock.Anything, "nisab silver").Return(&entities.ContentCoverage{}, nil)
	f.events.On("WindowStats", mock.Anything, "nisab silver", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	f.events.On("CountQuery", mock.Anything, "nisab silver", time.Time{}).Return(0, nil)

	insights, err := f.svc.InsightsFor(context.Background(), "nisab silver", nil)

	require.NoError(t, err)
	assert.Equal(t, []entities.InsightKind{entities.InsightContentGap}, insightKinds(insights))
}

func TestInsightsService_AllSourcesFail(t *testing.T) {
	f := newInsightsFixture(t)
	boom := errors.New("db down")

	f.catalog.On("Coverage", mock.Anything, mock.Anything).Return(nil, boom)
	f.events.On("WindowStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
	f.events.On("CountQuery", mock.Anything, mock.Anything, mock.Anything).Return(0, boom)

	_, err := f.svc.InsightsFor(context.Background(), "fiqh", nil)

	assert.ErrorIs(t, err, boom)
}

func TestInsightsService_ClassicTrend(t *testing.T) {
	f := newInsightsFixture(t)

	f.catalog.On("Coverage", mock.Anything, "seerah").Return(&entities.ContentCoverage{Articles: 1, Categories: 1, Authors: 1}, nil)
	f.events.On("WindowStats", mock.Anything, "seerah", mock.Anything, mock.Anything).
		Return(&entities.WindowStats{TotalSearches: 50, UniqueSearchers: 40, Successful: 50}, nil)
	f.events.On("CountQuery", mock.Anything, "seerah", time.Time{}).Return(50, nil)
	f.events.On("CountQuery", mock.Anything, "seerah", analyticsNow.Add(-7*24*time.Hour)).Return(2, nil)

	insights, err := f.svc.InsightsFor(context.Background(), "seerah", nil)

	require.NoError(t, err)
	assert.Equal(t, []entities.InsightKind{entities.InsightCoverage, entities.InsightClassic}, insightKinds(insights))
}

func TestInsightsService_Recommendations(t *testing.T) {
	f := newInsightsFixture(t)

	f.events.On("SimilarQueries", mock.Anything, []string{"fasting"}, "fasting", 8).Return([]*entities.QueryAggregate{
		{Query: "fasting rules", Frequency: 12, AvgResults: 9},
		{Query: "fasting in ramadan", Frequency: 30, AvgResults: 7},
	}, nil)
	f.events.On("UserQueries", mock.Anything, int64(7), 100).Return([]string{"Fasting Rules"}, nil)
	f.catalog.On("RelatedCategories", mock.Anything, []string{"fasting"}, 4).Return([]*entities.CategorySummary{
		{Name: "Fasting", Slug: "fasting", ArticleCount: 20},
	}, nil)
	f.catalog.On("PopularArticles", mock.Anything, "fasting", 4).Return([]*entities.SearchResult{
		{Title: "Sawm explained", URL: "/wiki/sawm", Popularity: 900},
		{Title: "Sawm again", URL: "/wiki/sawm", Popularity: 800},
		{Title: "Suhoor", URL: "/wiki/suhoor", Popularity: 700},
	}, nil)

	recs, err := f.svc.RecommendationsFor(context.Background(), "Fasting", int64Ptr(7), 4)

	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, entities.RecommendSimilarQuery, recs[0].Kind)
	assert.Equal(t, "fasting in ramadan", recs[0].Title)
	assert.Equal(t, "/search?q=fasting+in+ramadan", recs[0].URL)
	assert.Equal(t, entities.RecommendCategory, recs[1].Kind)
	assert.Equal(t, "/wiki/category/fasting", recs[1].URL)
	assert.Equal(t, "/wiki/sawm", recs[2].URL)
	assert.Equal(t, "/wiki/suhoor", recs[3].URL)
}

func TestInsightsService_EmptyQuery(t *testing.T) {
	f := newInsightsFixture(t)

	insights, err := f.svc.InsightsFor(context.Background(), " ", nil)
	require.NoError(t, err)
	assert.Empty(t, insights)

	recs, err := f.svc.RecommendationsFor(context.Background(), "", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
