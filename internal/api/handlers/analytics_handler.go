package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
)

const (
	defaultZeroResultLimit = 50
	maxZeroResultLimit     = 500
)

// InsightsEngine derives insight cards and recommendations for a query.
type InsightsEngine interface {
	InsightsFor(ctx context.Context, query string, userID *int64) ([]*entities.Insight, error)
	RecommendationsFor(ctx context.Context, query string, userID *int64, limit int) ([]*entities.Recommendation, error)
}

// StatsEngine reads aggregates of the search event log.
type StatsEngine interface {
	StatsFor(ctx context.Context, query string, period entities.Period) (*entities.SearchStatistics, error)
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}

// AnalyticsHandler serves the read side of search analytics
type AnalyticsHandler struct {
	insights InsightsEngine
	stats    StatsEngine
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(insights InsightsEngine, stats StatsEngine) *AnalyticsHandler {
	return &AnalyticsHandler{insights: insights, stats: stats}
}

// GetInsights handles GET /api/search/insights
func (h *AnalyticsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		respondWithError(w, http.StatusBadRequest, "query is required")
		return
	}

	actorID, err := actorFromRequest(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	insights, err := h.insights.InsightsFor(r.Context(), query, actorID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	// Recommendations are best effort on this endpoint.
	recommendations, err := h.insights.RecommendationsFor(r.Context(), query, actorID, queryInt(r, "limit", 0))
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("recommendations unavailable")
		recommendations = nil
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":           query,
		"insights":        nonNilInsights(insights),
		"recommendations": nonNilRecommendations(recommendations),
	})
}

// GetStats handles GET /api/search/stats. An empty q aggregates every query.
func (h *AnalyticsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	period := entities.Period(strings.ToLower(r.URL.Query().Get("period")))
	switch period {
	case entities.PeriodDay, entities.PeriodWeek, entities.PeriodMonth, entities.PeriodYear:
	case "":
		period = entities.PeriodWeek
	default:
		respondWithError(w, http.StatusBadRequest, "period must be one of day, week, month, year")
		return
	}

	stats, err := h.stats.StatsFor(r.Context(), strings.TrimSpace(r.URL.Query().Get("q")), period)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetZeroResultQueries handles GET /api/search/zero-results
func (h *AnalyticsHandler) GetZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultZeroResultLimit)
	if limit <= 0 {
		limit = defaultZeroResultLimit
	}
	if limit > maxZeroResultLimit {
		limit = maxZeroResultLimit
	}

	events, err := h.stats.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if events == nil {
		events = []*entities.SearchEvent{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}

func nonNilInsights(in []*entities.Insight) []*entities.Insight {
	if in == nil {
		return []*entities.Insight{}
	}
	return in
}

func nonNilRecommendations(in []*entities.Recommendation) []*entities.Recommendation {
	if in == nil {
		return []*entities.Recommendation{}
	}
	return in
}
