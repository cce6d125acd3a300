package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/providers"
)

var personalizationNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newPersonalizationService(t *testing.T, history *MockSearchHistoryRepository, cache providers.CacheProvider, ttl int) *services.PersonalizationService {
	svc := services.NewPersonalizationService(history, cache, loadTaxonomy(t), services.NewRelevanceScorer(), services.PersonalizationConfig{
		SearchHistoryWindow: 100,
		ViewHistoryWindow:   50,
		ProfileCacheTTL:     ttl,
	})
	svc.SetClock(func() time.Time { return personalizationNow })
	return svc
}

func TestPersonalize_PreferredAuthorBoost(t *testing.T) {
	svc := newPersonalizationService(t, new(MockSearchHistoryRepository), nil, 0)
	old := personalizationNow.Add(-365 * 24 * time.Hour)
	byAuthor8 := &entities.SearchResult{ID: 1, AuthorID: int64Ptr(8), BaseScore: 100, CreatedAt: old}
	byAuthor7 := &entities.SearchResult{ID: 2, AuthorID: int64Ptr(7), BaseScore: 100, CreatedAt: old}
	profile := &entities.UserSearchProfile{
		PreferredAuthors: []entities.WeightedRef{{ID: 7, Count: 5}},
	}

	out := svc.Personalize([]*entities.SearchResult{byAuthor8, byAuthor7}, profile, 10)

	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.InDelta(t, 130.0, out[0].PersonalizedScore, 1e-9)
	assert.Equal(t, int64(1), out[1].ID)
	assert.InDelta(t, 100.0, out[1].PersonalizedScore, 1e-9)

	// Inputs are not mutated.
	assert.Zero(t, byAuthor7.PersonalizedScore)
}

func TestPersonalize_EmptyProfileIsIdentity(t *testing.T) {
	svc := newPersonalizationService(t, new(MockSearchHistoryRepository), nil, 0)
	results := []*entities.SearchResult{
		{ID: 1, Popularity: 5, CreatedAt: personalizationNow},
		{ID: 2, Popularity: 50, CreatedAt: personalizationNow},
		{ID: 3, CreatedAt: personalizationNow},
	}

	for _, profile := range []*entities.UserSearchProfile{nil, {}} {
		out := svc.Personalize(results, profile, 10)

		require.Len(t, out, 3)
		for i, r := range out {
			assert.Equal(t, results[i].ID, r.ID)
			assert.Equal(t, r.BaseScore, r.PersonalizedScore)
		}
		assert.Equal(t, 5.0, out[0].BaseScore)
		assert.Equal(t, 1.0, out[2].BaseScore)
	}
}

func TestPersonalize_PreferredCategoryFloor(t *testing.T) {
	svc := newPersonalizationService(t, new(MockSearchHistoryRepository), nil, 0)
	profile := &entities.UserSearchProfile{
		PreferredCategories: []entities.WeightedRef{{ID: 3, Name: "Fasting", Count: 4}},
		PreferredAuthors:    []entities.WeightedRef{{ID: 9, Count: 2}},
		Interests:           []string{"fasting"},
		SearchFrequency:     5,
	}
	results := []*entities.SearchResult{
		{ID: 1, CategoryID: int64Ptr(3), CategoryName: "Fasting", Popularity: 40, CreatedAt: personalizationNow},
		{ID: 2, CategoryID: int64Ptr(3), CategoryName: "Fasting", AuthorID: int64Ptr(9), Popularity: 10, CreatedAt: personalizationNow.Add(-90 * 24 * time.Hour)},
		{ID: 3, CategoryID: int64Ptr(4), CategoryName: "History", Popularity: 100, CreatedAt: personalizationNow},
	}

	out := svc.Personalize(results, profile, 10)

	for _, r := range out {
		if r.CategoryID != nil && *r.CategoryID == 3 {
			assert.GreaterOrEqual(t, r.PersonalizedScore, 1.5*r.BaseScore)
		}
	}
	// 40 * 1.5 * 1.2 * 1.1
	assert.InDelta(t, 79.2, out[1].PersonalizedScore, 1e-9)
	assert.Equal(t, int64(3), out[0].ID)
	assert.InDelta(t, 110.0, out[0].PersonalizedScore, 1e-9)
}

func TestPersonalize_TruncatesToLimit(t *testing.T) {
	svc := newPersonalizationService(t, new(MockSearchHistoryRepository), nil, 0)
	results := []*entities.SearchResult{{ID: 1}, {ID: 2}, {ID: 3}}

	assert.Len(t, svc.Personalize(results, nil, 2), 2)
	assert.Len(t, svc.Personalize(results, &entities.UserSearchProfile{SearchFrequency: 1}, 1), 1)
}

func TestBuildProfile(t *testing.T) {
	history := new(MockSearchHistoryRepository)
	svc := newPersonalizationService(t, history, nil, 0)
	ctx := context.Background()

	searches := []*entities.SearchHistoryRecord{
		{Query: "Ramadan timetable", CreatedAt: personalizationNow},
		{Query: "ramadan timetable", CreatedAt: personalizationNow.Add(-24 * time.Hour)},
		{Query: "wudu steps", CreatedAt: personalizationNow.Add(-2 * 24 * time.Hour)},
		{Query: "iftar recipes", CreatedAt: personalizationNow.Add(-4 * 24 * time.Hour)},
	}
	views := []*entities.ContentView{
		{CategoryID: int64Ptr(1), CategoryName: "Fasting", AuthorID: int64Ptr(7), AuthorName: "Ahmad"},
		{CategoryID: int64Ptr(2), CategoryName: "Prayer", AuthorID: int64Ptr(7), AuthorName: "Ahmad"},
		{CategoryID: int64Ptr(1), CategoryName: "Fasting", AuthorID: int64Ptr(8), AuthorName: "Yusuf"},
		{CategoryID: int64Ptr(1), CategoryName: "Fasting"},
	}
	history.On("RecentSearches", mock.Anything, int64(42), 100).Return(searches, nil)
	history.On("RecentViews", mock.Anything, int64(42), 50).Return(views, nil)

	profile, err := svc.BuildProfile(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), profile.UserID)
	assert.Equal(t, []entities.WeightedRef{
		{ID: 1, Name: "Fasting", Count: 3},
		{ID: 2, Name: "Prayer", Count: 1},
	}, profile.PreferredCategories)
	assert.Equal(t, []entities.WeightedRef{
		{ID: 7, Name: "Ahmad", Count: 2},
		{ID: 8, Name: "Yusuf", Count: 1},
	}, profile.PreferredAuthors)
	assert.Equal(t, []string{"fasting", "prayer"}, profile.Interests)
	assert.Equal(t, []string{"ramadan timetable", "wudu steps", "iftar recipes"}, profile.CommonQueries)
	assert.InDelta(t, 1.0, profile.SearchFrequency, 1e-9)
	history.AssertExpectations(t)
}

func TestProfileFor_UsesCache(t *testing.T) {
	history := new(MockSearchHistoryRepository)
	cache := new(MockCacheProvider)
	svc := newPersonalizationService(t, history, cache, 300)

	cached, err := json.Marshal(&entities.UserSearchProfile{UserID: 7, Interests: []string{"hajj"}})
	require.NoError(t, err)
	cache.On("Get", mock.Anything, "search_profile:7").Return(cached, nil)

	profile := svc.ProfileFor(context.Background(), int64Ptr(7))

	require.NotNil(t, profile)
	assert.Equal(t, []string{"hajj"}, profile.Interests)
	history.AssertNotCalled(t, "RecentSearches", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileFor_BuildsAndStoresOnMiss(t *testing.T) {
	history := new(MockSearchHistoryRepository)
	cache := new(MockCacheProvider)
	svc := newPersonalizationService(t, history, cache, 300)

	cache.On("Get", mock.Anything, "search_profile:7").Return(nil, providers.ErrCacheMiss)
	cache.On("Set", mock.Anything, "search_profile:7", mock.Anything, 300).Return(nil)
	history.On("RecentSearches", mock.Anything, int64(7), 100).Return([]*entities.SearchHistoryRecord{}, nil)
	history.On("RecentViews", mock.Anything, int64(7), 50).Return([]*entities.ContentView{}, nil)

	profile := svc.ProfileFor(context.Background(), int64Ptr(7))

	require.NotNil(t, profile)
	assert.True(t, profile.IsEmpty())
	cache.AssertExpectations(t)
}

func TestProfileFor_DegradesOnFailure(t *testing.T) {
	history := new(MockSearchHistoryRepository)
	svc := newPersonalizationService(t, history, nil, 0)

	history.On("RecentSearches", mock.Anything, int64(7), 100).Return(nil, errors.New("connection refused"))

	assert.Nil(t, svc.ProfileFor(context.Background(), int64Ptr(7)))
	assert.Nil(t, svc.ProfileFor(context.Background(), nil))
}
