package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

const (
	MinSuggestLimit     = 1
	MaxSuggestLimit     = 20
	DefaultSuggestLimit = 10

	popularQueryMaxLength = 3
	popularRelevance      = 30
)

// SuggestRequest is one autocomplete keystroke.
type SuggestRequest struct {
	Query       string
	ContentType entities.ContentType
	Limit       int

	ActorID   *int64
	SessionID string
	IP        string
	UserAgent string
}

// SuggestionService aggregates per-type autocomplete matches with popular searches.
type SuggestionService struct {
	adapters    map[entities.ContentType]repositories.ContentSearchRepository
	suggestions repositories.SuggestionRepository
	analytics   *SearchAnalyticsService
}

// NewSuggestionService indexes adapters by the content type they serve.
func NewSuggestionService(
	adapters []repositories.ContentSearchRepository,
	suggestions repositories.SuggestionRepository,
	analytics *SearchAnalyticsService,
) *SuggestionService {
	byType := make(map[entities.ContentType]repositories.ContentSearchRepository, len(adapters))
	for _, a := range adapters {
		byType[a.ContentType()] = a
	}
	return &SuggestionService{
		adapters:    byType,
		suggestions: suggestions,
		analytics:   analytics,
	}
}

// ClampSuggestLimit bounds limit to [1, 20]; a limit below 1 takes the default.
func ClampSuggestLimit(limit int) int {
	switch {
	case limit < MinSuggestLimit:
		return DefaultSuggestLimit
	case limit > MaxSuggestLimit:
		return MaxSuggestLimit
	default:
		return limit
	}
}

// Suggest returns at most limit suggestions, highest relevance first. A
// failing content type contributes nothing. Every non-empty request is
// logged and counted in the background.
func (s *SuggestionService) Suggest(ctx context.Context, req SuggestRequest) ([]*entities.Suggestion, error) {
	query := strings.TrimSpace(req.Query)
	limit := ClampSuggestLimit(req.Limit)
	contentType := req.ContentType
	if contentType == "" {
		contentType = entities.ContentTypeAll
	}

	types := contentType.Expand()
	for _, ct := range types {
		if _, ok := s.adapters[ct]; !ok {
			return nil, apperrors.NewValidationError("unsupported content type: " + string(ct))
		}
	}
	if query == "" {
		return []*entities.Suggestion{}, nil
	}

	ctx, span := observability.StartSpan(ctx, "SuggestionService.Suggest")
	defer span.End()

	var (
		mu         sync.Mutex
		candidates []*entities.Suggestion
	)
	collect := func(found []*entities.Suggestion) {
		mu.Lock()
		candidates = append(candidates, found...)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, ct := range types {
		adapter := s.adapters[ct]
		g.Go(func() error {
			found, err := adapter.Suggest(gctx, query, limit)
			if err != nil {
				observability.LoggerFromContext(gctx).Warn().Err(err).
					Str("content_type", string(adapter.ContentType())).
					Str("query", query).
					Msg("suggestion lookup failed")
				return nil
			}
			collect(found)
			return nil
		})
	}
	if s.suggestions != nil && utf8.RuneCountInString(query) <= popularQueryMaxLength {
		g.Go(func() error {
			stats, err := s.suggestions.PopularByPrefix(gctx, query, limit)
			if err != nil {
				observability.LoggerFromContext(gctx).Warn().Err(err).Str("query", query).Msg("popular search lookup failed")
				return nil
			}
			collect(popularSuggestions(stats))
			return nil
		})
	}
	_ = g.Wait()

	ranked := rankSuggestions(candidates, limit)
	if s.analytics != nil {
		s.analytics.TrackSuggestion(ctx, &entities.SearchEvent{
			Query:       query,
			UserID:      req.ActorID,
			ContentType: contentType,
			ResultCount: len(ranked),
			SessionID:   req.SessionID,
			IP:          req.IP,
			UserAgent:   req.UserAgent,
			CreatedAt:   time.Now(),
		})
	}

	return ranked, nil
}

func popularSuggestions(stats []*entities.SuggestionStat) []*entities.Suggestion {
	out := make([]*entities.Suggestion, 0, len(stats))
	for _, st := range stats {
		out = append(out, &entities.Suggestion{
			Text:        st.Text,
			Type:        entities.SuggestionPopular,
			ContentType: st.ContentType,
			Relevance:   popularRelevance,
		})
	}
	return out
}

// rankSuggestions keeps the most relevant entry per (type, text), orders by
// relevance descending then text, and truncates to limit.
func rankSuggestions(candidates []*entities.Suggestion, limit int) []*entities.Suggestion {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if ta, tb := strings.ToLower(a.Text), strings.ToLower(b.Text); ta != tb {
			return ta < tb
		}
		return a.ContentType.Rank() < b.ContentType.Rank()
	})

	type key struct {
		kind entities.SuggestionType
		text string
	}
	seen := make(map[key]struct{}, len(candidates))
	out := make([]*entities.Suggestion, 0, limit)
	for _, c := range candidates {
		k := key{kind: c.Type, text: strings.ToLower(c.Text)}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}
