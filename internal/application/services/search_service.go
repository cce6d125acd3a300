package services

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
	"github.com/drkhalidabdullah/islamwiki-sub001/pkg/config"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

const defaultAdapterTimeout = 3 * time.Second

// SearchOptions selects the optional stages of one search.
type SearchOptions struct {
	Policy              repositories.MatchPolicy
	Cluster             bool
	Personalize         bool
	Insights            bool
	Recommendations     bool
	RecommendationLimit int
	IncludeDrafts       bool

	// Timeout bounds the whole fan-out; zero uses the configured adapter timeout.
	Timeout time.Duration
}

// SearchService parses a query, fans it out to every content adapter and
// assembles the response.
type SearchService struct {
	adapters map[entities.ContentType]repositories.ContentSearchRepository
	parser   *QueryParser
	scorer   *RelevanceScorer
	cfg      config.SearchConfig

	clustering      *ClusteringService
	personalization *PersonalizationService
	analytics       *SearchAnalyticsService
	insights        *InsightsService
	metrics         *observability.Metrics
}

func NewSearchService(
	adapters []repositories.ContentSearchRepository,
	parser *QueryParser,
	scorer *RelevanceScorer,
	cfg config.SearchConfig,
) *SearchService {
	byType := make(map[entities.ContentType]repositories.ContentSearchRepository, len(adapters))
	for _, a := range adapters {
		byType[a.ContentType()] = a
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = defaultAdapterTimeout
	}
	return &SearchService{
		adapters: byType,
		parser:   parser,
		scorer:   scorer,
		cfg:      cfg,
	}
}

func (s *SearchService) SetClustering(clustering *ClusteringService) {
	s.clustering = clustering
}

func (s *SearchService) SetPersonalization(personalization *PersonalizationService) {
	s.personalization = personalization
}

func (s *SearchService) SetAnalytics(analytics *SearchAnalyticsService) {
	s.analytics = analytics
}

func (s *SearchService) SetInsights(insights *InsightsService) {
	s.insights = insights
}

func (s *SearchService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// Search runs q against every content type it covers. Adapter failures and
// timeouts never fail the search: the type is returned empty and listed in
// Faults. Only an unknown content type is an error.
func (s *SearchService) Search(ctx context.Context, q entities.SearchQuery, opts SearchOptions) (*entities.SearchResponse, error) {
	start := time.Now()
	q.Normalize(s.cfg.DefaultPageSize, s.cfg.MinPageSize, s.cfg.MaxPageSize)

	types := q.ContentType.Expand()
	for _, ct := range types {
		if _, ok := s.adapters[ct]; !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported content type: %s", ct))
		}
	}

	ctx, span := observability.StartSpan(ctx, "SearchService.Search",
		attribute.String("search.content_type", string(q.ContentType)),
		attribute.String("search.sort", string(q.Sort)),
	)
	defer span.End()

	parsed := s.parser.Parse(q.Text)
	resp := &entities.SearchResponse{
		Query:   q,
		Parsed:  parsed,
		Results: []*entities.TypeResults{},
	}

	// Without text there is nothing to rank unless a category narrows the browse.
	if parsed.IsEmpty() && (s.cfg.RequireQuery || q.CategoryID == nil) {
		if !s.cfg.RequireQuery {
			s.track(ctx, q, 0)
		}
		return resp, nil
	}

	policy := opts.Policy
	if policy == "" {
		policy = repositories.MatchPhraseAnyField
	}
	filter := repositories.ContentSearchFilter{
		Phrase:        parsed.Normalized,
		Terms:         parsed.Terms(),
		Policy:        policy,
		CategoryID:    q.CategoryID,
		Sort:          q.Sort,
		Limit:         q.PageSize,
		Offset:        q.Offset(),
		ActorID:       q.ActorID,
		IncludeDrafts: opts.IncludeDrafts,
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.AdapterTimeout
	}
	resp.Results = s.searchAll(ctx, types, filter, timeout)

	for _, tr := range resp.Results {
		s.scorer.Sort(tr.Results, q.Sort, parsed.Normalized)
		resp.TotalCount += tr.TotalCount
		if tr.Degraded {
			resp.Faults = append(resp.Faults, tr.ContentType)
		}
	}
	resp.Degraded = len(resp.Faults) > 0

	if opts.Cluster && s.clustering != nil {
		resp.Clusters = s.clustering.Cluster(resp.All(), parsed)
	}

	if opts.Personalize && s.personalization != nil {
		profile := s.personalization.ProfileFor(ctx, q.ActorID)
		for _, tr := range resp.Results {
			tr.Results = s.personalization.Personalize(tr.Results, profile, q.PageSize)
		}
	}

	s.enrich(ctx, resp, q, opts)
	s.track(ctx, q, resp.TotalCount)

	if resp.Degraded {
		span.SetAttributes(attribute.Int("search.faults", len(resp.Faults)))
	}
	s.metrics.RecordSearch(ctx, string(q.ContentType), resp.Degraded, time.Since(start))
	return resp, nil
}

// searchAll runs one adapter per content type concurrently and returns
// their pages in fixed priority order, whatever order they finish in.
func (s *SearchService) searchAll(ctx context.Context, types []entities.ContentType, filter repositories.ContentSearchFilter, timeout time.Duration) []*entities.TypeResults {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]*entities.TypeResults, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, ct := range types {
		adapter := s.adapters[ct]
		g.Go(func() error {
			results[i] = s.searchOne(gctx, adapter, filter)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

type adapterOutcome struct {
	page *repositories.ContentPage
	err  error
}

// searchOne waits for the adapter or the deadline, whichever comes first,
// so an adapter that ignores its context still cannot hold up the response.
func (s *SearchService) searchOne(ctx context.Context, adapter repositories.ContentSearchRepository, filter repositories.ContentSearchFilter) *entities.TypeResults {
	ct := adapter.ContentType()
	ctx, span := observability.StartSpan(ctx, "SearchService.searchOne", attribute.String("search.content_type", string(ct)))
	defer span.End()

	start := time.Now()
	done := make(chan adapterOutcome, 1)
	go func() {
		page, err := adapter.Search(ctx, filter)
		done <- adapterOutcome{page: page, err: err}
	}()

	var outcome adapterOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		outcome.err = ctx.Err()
	}

	tr := &entities.TypeResults{ContentType: ct, Results: []*entities.SearchResult{}}
	if outcome.err != nil || outcome.page == nil {
		err := outcome.err
		if err == nil {
			err = fmt.Errorf("adapter returned no page")
		}
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("content_type", string(ct)).
			Str("query", filter.Phrase).
			Msg("content search failed, returning no results for type")
		s.metrics.RecordAdapter(ctx, string(ct), true, time.Since(start))
		tr.Degraded = true
		return tr
	}

	s.metrics.RecordAdapter(ctx, string(ct), false, time.Since(start))
	if outcome.page.Results != nil {
		tr.Results = outcome.page.Results
	}
	tr.TotalCount = outcome.page.TotalCount
	return tr
}

// enrich attaches insights and recommendations. Their failures only drop
// the section.
func (s *SearchService) enrich(ctx context.Context, resp *entities.SearchResponse, q entities.SearchQuery, opts SearchOptions) {
	if s.insights == nil || resp.Parsed.IsEmpty() {
		return
	}
	logger := observability.LoggerFromContext(ctx)

	if opts.Insights {
		insights, err := s.insights.InsightsFor(ctx, q.Text, q.ActorID)
		if err != nil {
			logger.Warn().Err(err).Str("query", q.Text).Msg("failed to build search insights")
		} else {
			resp.Insights = insights
		}
	}
	if opts.Recommendations {
		recs, err := s.insights.RecommendationsFor(ctx, q.Text, q.ActorID, opts.RecommendationLimit)
		if err != nil {
			logger.Warn().Err(err).Str("query", q.Text).Msg("failed to build search recommendations")
		} else {
			resp.Recommendations = recs
		}
	}
}

func (s *SearchService) track(ctx context.Context, q entities.SearchQuery, resultCount int) {
	if s.analytics == nil {
		return
	}
	s.analytics.TrackSearch(ctx, &entities.SearchEvent{
		Query:       q.Text,
		UserID:      q.ActorID,
		ContentType: q.ContentType,
		ResultCount: resultCount,
		SessionID:   q.SessionID,
		IP:          q.IP,
		UserAgent:   q.UserAgent,
		CreatedAt:   time.Now(),
	})
}
