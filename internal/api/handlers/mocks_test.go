package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

type MockSearchEngine struct {
	mock.Mock
}

func (m *MockSearchEngine) Search(ctx context.Context, q entities.SearchQuery, opts services.SearchOptions) (*entities.SearchResponse, error) {
	args := m.Called(ctx, q, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SearchResponse), args.Error(1)
}

type MockSuggestionEngine struct {
	mock.Mock
}

func (m *MockSuggestionEngine) Suggest(ctx context.Context, req services.SuggestRequest) ([]*entities.Suggestion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Suggestion), args.Error(1)
}

type MockInsightsEngine struct {
	mock.Mock
}

func (m *MockInsightsEngine) InsightsFor(ctx context.Context, query string, userID *int64) ([]*entities.Insight, error) {
	args := m.Called(ctx, query, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Insight), args.Error(1)
}

func (m *MockInsightsEngine) RecommendationsFor(ctx context.Context, query string, userID *int64, limit int) ([]*entities.Recommendation, error) {
	args := m.Called(ctx, query, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Recommendation), args.Error(1)
}

type MockStatsEngine struct {
	mock.Mock
}

func (m *MockStatsEngine) StatsFor(ctx context.Context, query string, period entities.Period) (*entities.SearchStatistics, error) {
	args := m.Called(ctx, query, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SearchStatistics), args.Error(1)
}

func (m *MockStatsEngine) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchEvent), args.Error(1)
}
