package handlers

import (
	"context"
	"net/http"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

// SearchEngine runs a full multi-type search.
type SearchEngine interface {
	Search(ctx context.Context, q entities.SearchQuery, opts services.SearchOptions) (*entities.SearchResponse, error)
}

// SearchHandler serves one search entry point. Entry points differ only in
// how multi-term queries are matched.
type SearchHandler struct {
	engine SearchEngine
	policy repositories.MatchPolicy
}

// NewSearchHandler creates a search handler bound to a match policy
func NewSearchHandler(engine SearchEngine, policy repositories.MatchPolicy) *SearchHandler {
	return &SearchHandler{engine: engine, policy: policy}
}

// Search handles GET /api/search
//
// Parameters: q, type, category, sort, page, page_size, and the stage
// toggles cluster, personalize, insights and recommendations.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	contentType, ok := entities.ParseContentType(params.Get("type"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "unknown content type")
		return
	}

	categoryID, err := queryInt64Ptr(r, "category")
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	actorID, err := actorFromRequest(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	q := entities.SearchQuery{
		Text:        params.Get("q"),
		ContentType: contentType,
		CategoryID:  categoryID,
		Sort:        entities.ParseSortMode(params.Get("sort")),
		Page:        queryInt(r, "page", 1),
		PageSize:    queryInt(r, "page_size", 0),
		ActorID:     actorID,
		SessionID:   sessionFromRequest(r),
		IP:          middleware.ClientIP(r),
		UserAgent:   r.UserAgent(),
	}

	opts := services.SearchOptions{
		Policy:              h.policy,
		Cluster:             queryBool(r, "cluster", true),
		Personalize:         queryBool(r, "personalize", actorID != nil),
		Insights:            queryBool(r, "insights", false),
		Recommendations:     queryBool(r, "recommendations", false),
		RecommendationLimit: queryInt(r, "recommendation_limit", 0),
	}

	resp, err := h.engine.Search(r.Context(), q, opts)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if resp == nil {
		respondWithAppError(w, r, apperrors.NewInternalError("search returned no response", nil))
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}
