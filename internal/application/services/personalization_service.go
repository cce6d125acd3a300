package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/providers"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
)

const (
	preferredCategoryBoost = 1.5
	preferredAuthorBoost   = 1.3
	interestBoost          = 1.2
	freshContentBoost      = 1.1

	freshContentAge          = 30 * day
	frequentSearcherPerDay   = 2.0
	profileTopRefs           = 5
	profileTopInterests      = 5
	profileCommonQueries     = 10
	defaultSearchHistorySize = 100
	defaultViewHistorySize   = 50

	profileCacheName   = "search_profile"
	profileCachePrefix = "search_profile:"
)

// PersonalizationConfig sizes the history read for a profile and its cache lifetime.
type PersonalizationConfig struct {
	SearchHistoryWindow int
	ViewHistoryWindow   int
	// ProfileCacheTTL in seconds; zero disables the profile cache.
	ProfileCacheTTL int
}

// PersonalizationService builds user profiles from history and re-ranks results with them.
type PersonalizationService struct {
	history  repositories.SearchHistoryRepository
	cache    providers.CacheProvider
	taxonomy *Taxonomy
	scorer   *RelevanceScorer
	cfg      PersonalizationConfig
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewPersonalizationService creates a personalization service. cache may be nil.
func NewPersonalizationService(
	history repositories.SearchHistoryRepository,
	cache providers.CacheProvider,
	taxonomy *Taxonomy,
	scorer *RelevanceScorer,
	cfg PersonalizationConfig,
) *PersonalizationService {
	if cfg.SearchHistoryWindow <= 0 {
		cfg.SearchHistoryWindow = defaultSearchHistorySize
	}
	if cfg.ViewHistoryWindow <= 0 {
		cfg.ViewHistoryWindow = defaultViewHistorySize
	}
	return &PersonalizationService{
		history:  history,
		cache:    cache,
		taxonomy: taxonomy,
		scorer:   scorer,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *PersonalizationService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *PersonalizationService) SetClock(now func() time.Time) {
	s.now = now
}

// BuildProfile derives a profile from the user's recent searches and views.
func (s *PersonalizationService) BuildProfile(ctx context.Context, userID int64) (*entities.UserSearchProfile, error) {
	searches, err := s.history.RecentSearches(ctx, userID, s.cfg.SearchHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to read search history: %w", err)
	}
	views, err := s.history.RecentViews(ctx, userID, s.cfg.ViewHistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to read view history: %w", err)
	}

	profile := &entities.UserSearchProfile{
		UserID:              userID,
		Interests:           []string{},
		PreferredCategories: []entities.WeightedRef{},
		PreferredAuthors:    []entities.WeightedRef{},
		CommonQueries:       []string{},
	}

	var categories, authors refTally
	for _, v := range views {
		if v.CategoryID != nil {
			categories.add(*v.CategoryID, v.CategoryName)
		}
		if v.AuthorID != nil {
			authors.add(*v.AuthorID, v.AuthorName)
		}
	}
	profile.PreferredCategories = categories.top(profileTopRefs)
	profile.PreferredAuthors = authors.top(profileTopRefs)

	var interests, queries textTally
	for _, h := range searches {
		for _, topic := range s.taxonomy.InterestTopicsIn(h.Query) {
			interests.add(topic)
		}
		if q := strings.ToLower(strings.TrimSpace(h.Query)); q != "" {
			queries.add(q)
		}
	}
	profile.Interests = interests.top(profileTopInterests)
	profile.CommonQueries = queries.top(profileCommonQueries)
	profile.SearchFrequency = searchFrequency(searches)

	return profile, nil
}

// searchFrequency is searches per day between the oldest and newest record,
// counting a span shorter than a day as one day.
func searchFrequency(searches []*entities.SearchHistoryRecord) float64 {
	if len(searches) == 0 {
		return 0
	}
	oldest, newest := searches[0].CreatedAt, searches[0].CreatedAt
	for _, h := range searches[1:] {
		if h.CreatedAt.Before(oldest) {
			oldest = h.CreatedAt
		}
		if h.CreatedAt.After(newest) {
			newest = h.CreatedAt
		}
	}
	days := int(newest.Sub(oldest) / day)
	if days < 1 {
		days = 1
	}
	return float64(len(searches)) / float64(days)
}

// ProfileFor returns the actor's profile, from cache when possible. Any
// failure degrades to a nil profile, which makes Personalize an identity.
func (s *PersonalizationService) ProfileFor(ctx context.Context, actorID *int64) *entities.UserSearchProfile {
	if actorID == nil {
		return nil
	}
	logger := observability.LoggerFromContext(ctx)
	key := fmt.Sprintf("%s%d", profileCachePrefix, *actorID)

	if s.cache != nil && s.cfg.ProfileCacheTTL > 0 {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			var profile entities.UserSearchProfile
			if jsonErr := json.Unmarshal(data, &profile); jsonErr == nil {
				s.metrics.RecordCache(ctx, profileCacheName, true)
				return &profile
			}
			logger.Warn().Int64("user_id", *actorID).Msg("discarding unreadable cached search profile")
		case !errors.Is(err, providers.ErrCacheMiss):
			logger.Warn().Err(err).Int64("user_id", *actorID).Msg("search profile cache unavailable")
		}
		s.metrics.RecordCache(ctx, profileCacheName, false)
	}

	profile, err := s.BuildProfile(ctx, *actorID)
	if err != nil {
		logger.Warn().Err(err).Int64("user_id", *actorID).Msg("failed to build search profile, skipping personalization")
		s.metrics.RecordBackgroundFailure(ctx, "build_profile")
		return nil
	}

	if s.cache != nil && s.cfg.ProfileCacheTTL > 0 {
		if data, err := json.Marshal(profile); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cfg.ProfileCacheTTL); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to cache search profile")
			}
		}
	}
	return profile
}

// Personalize scores a copy of results against profile, sorts it by
// personalized score descending and truncates it to limit. A nil or empty
// profile leaves the order alone and copies the base score.
func (s *PersonalizationService) Personalize(results []*entities.SearchResult, profile *entities.UserSearchProfile, limit int) []*entities.SearchResult {
	out := make([]*entities.SearchResult, len(results))
	for i, r := range results {
		c := *r
		if c.BaseScore == 0 {
			c.BaseScore = s.scorer.BaseScore(&c)
		}
		out[i] = &c
	}

	if profile.IsEmpty() {
		for _, r := range out {
			r.PersonalizedScore = r.BaseScore
		}
	} else {
		now := s.now()
		for _, r := range out {
			r.PersonalizedScore = r.BaseScore * s.boost(r, profile, now)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PersonalizedScore > out[j].PersonalizedScore
		})
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// boost is the product of every profile boost that applies to r.
func (s *PersonalizationService) boost(r *entities.SearchResult, profile *entities.UserSearchProfile, now time.Time) float64 {
	factor := 1.0
	if matchesRef(profile.PreferredCategories, r.CategoryID, r.CategoryName) {
		factor *= preferredCategoryBoost
	}
	if matchesRef(profile.PreferredAuthors, r.AuthorID, r.AuthorName) {
		factor *= preferredAuthorBoost
	}
	if s.matchesInterest(r.CategoryName, profile.Interests) {
		factor *= interestBoost
	}
	if now.Sub(r.CreatedAt) < freshContentAge && profile.SearchFrequency > frequentSearcherPerDay {
		factor *= freshContentBoost
	}
	return factor
}

// matchesRef prefers the id and falls back to a case-insensitive name match
// when the result carries no id.
func matchesRef(refs []entities.WeightedRef, id *int64, name string) bool {
	for _, ref := range refs {
		if id != nil {
			if ref.ID == *id {
				return true
			}
			continue
		}
		if name != "" && strings.EqualFold(ref.Name, name) {
			return true
		}
	}
	return false
}

func (s *PersonalizationService) matchesInterest(categoryName string, interests []string) bool {
	category := strings.ToLower(categoryName)
	if category == "" {
		return false
	}
	for _, topic := range interests {
		for _, kw := range s.taxonomy.InterestKeywords(topic) {
			if kw != "" && strings.Contains(category, kw) {
				return true
			}
		}
	}
	return false
}

// refTally counts ids in order of first appearance.
type refTally struct {
	refs  []entities.WeightedRef
	index map[int64]int
}

func (t *refTally) add(id int64, name string) {
	if t.index == nil {
		t.index = make(map[int64]int)
	}
	if i, ok := t.index[id]; ok {
		t.refs[i].Count++
		return
	}
	t.index[id] = len(t.refs)
	t.refs = append(t.refs, entities.WeightedRef{ID: id, Name: name, Count: 1})
}

func (t *refTally) top(n int) []entities.WeightedRef {
	out := make([]entities.WeightedRef, len(t.refs))
	copy(out, t.refs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type textTally struct {
	order  []string
	counts map[string]int
}

func (t *textTally) add(s string) {
	if t.counts == nil {
		t.counts = make(map[string]int)
	}
	if _, ok := t.counts[s]; !ok {
		t.order = append(t.order, s)
	}
	t.counts[s]++
}

func (t *textTally) top(n int) []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	sort.SliceStable(out, func(i, j int) bool { return t.counts[out[i]] > t.counts[out[j]] })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
