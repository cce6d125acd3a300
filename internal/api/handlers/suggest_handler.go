package handlers

import (
	"context"
	"net/http"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

// SuggestionEngine produces autocomplete suggestions.
type SuggestionEngine interface {
	Suggest(ctx context.Context, req services.SuggestRequest) ([]*entities.Suggestion, error)
}

// SuggestHandler handles autocomplete requests
type SuggestHandler struct {
	engine SuggestionEngine
}

// NewSuggestHandler creates a new suggest handler
func NewSuggestHandler(engine SuggestionEngine) *SuggestHandler {
	return &SuggestHandler{engine: engine}
}

// Suggest handles GET /api/search/suggest
func (h *SuggestHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	contentType, ok := entities.ParseContentType(r.URL.Query().Get("type"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "unknown content type")
		return
	}

	actorID, err := actorFromRequest(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	req := services.SuggestRequest{
		Query:       r.URL.Query().Get("q"),
		ContentType: contentType,
		Limit:       services.ClampSuggestLimit(queryInt(r, "limit", services.DefaultSuggestLimit)),
		ActorID:     actorID,
		SessionID:   sessionFromRequest(r),
		IP:          middleware.ClientIP(r),
		UserAgent:   r.UserAgent(),
	}

	suggestions, err := h.engine.Suggest(r.Context(), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []*entities.Suggestion{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}
