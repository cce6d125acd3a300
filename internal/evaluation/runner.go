package evaluation

import (
	"context"
	"time"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
)

// Searcher is the slice of the search engine the runner drives.
type Searcher interface {
	Search(ctx context.Context, q entities.SearchQuery, opts services.SearchOptions) (*entities.SearchResponse, error)
}

// Runner replays golden queries against a Searcher and scores the rankings.
type Runner struct {
	searcher Searcher
	policy   repositories.MatchPolicy
	k        int
}

func NewRunner(searcher Searcher, policy repositories.MatchPolicy, k int) *Runner {
	if k <= 0 {
		k = DefaultK
	}
	return &Runner{searcher: searcher, policy: policy, k: k}
}

// Run evaluates every query in order. A failing query is recorded and does not stop the run.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	logger := observability.LoggerFromContext(ctx)
	summary := &EvalSummary{
		K:            r.k,
		TotalQueries: len(queries),
		ByIntent:     make(map[entities.Intent]IntentSummary),
		Results:      make([]EvalResult, 0, len(queries)),
	}

	for _, gq := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := r.runOne(ctx, gq)
		if result.Error != "" {
			logger.Warn().Str("query_id", gq.ID).Str("error", result.Error).Msg("golden query failed")
		}
		summary.Results = append(summary.Results, result)
	}

	finalize(summary)
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, gq GoldenQuery) EvalResult {
	result := EvalResult{QueryID: gq.ID, Query: gq.Query, Intent: gq.Intent}

	contentType := gq.ContentType
	if contentType == "" {
		contentType = entities.ContentTypeAll
	}

	start := time.Now()
	resp, err := r.searcher.Search(ctx, entities.SearchQuery{
		Text:        gq.Query,
		ContentType: contentType,
		Sort:        entities.SortRelevance,
		Page:        1,
		PageSize:    r.k,
	}, services.SearchOptions{Policy: r.policy})
	result.Latency = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	urls := make([]string, 0, r.k)
	for _, res := range resp.All() {
		urls = append(urls, res.URL)
	}
	if resp.Parsed != nil {
		result.ParsedIntent = resp.Parsed.Intent
	}
	result.IntentMatched = result.ParsedIntent == gq.Intent
	result.RecallAtK = RecallAtK(gq.ExpectedURLs, urls, r.k)
	result.MRRAtK = MRRAtK(gq.ExpectedURLs, urls, r.k)
	result.ResultCount = resp.TotalCount
	result.TopURLs = topK(urls, r.k)
	result.Degraded = resp.Degraded
	return result
}

func finalize(s *EvalSummary) {
	if len(s.Results) == 0 {
		return
	}

	matched := 0
	for _, res := range s.Results {
		s.AvgRecall += res.RecallAtK
		s.AvgMRR += res.MRRAtK
		s.AvgLatency += res.Latency
		if res.IntentMatched {
			matched++
		}
		if res.ResultCount > 0 {
			s.QueriesWithHits++
		}
		if res.Degraded {
			s.DegradedQueries++
		}
		if res.Error != "" {
			s.FailedQueries++
		}

		is := s.ByIntent[res.Intent]
		is.Count++
		is.AvgRecall += res.RecallAtK
		is.AvgMRR += res.MRRAtK
		s.ByIntent[res.Intent] = is
	}

	n := float64(len(s.Results))
	s.AvgRecall /= n
	s.AvgMRR /= n
	s.IntentAccuracy = float64(matched) / n
	s.AvgLatency /= time.Duration(len(s.Results))

	for intent, is := range s.ByIntent {
		is.AvgRecall /= float64(is.Count)
		is.AvgMRR /= float64(is.Count)
		s.ByIntent[intent] = is
	}
}
