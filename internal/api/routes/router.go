package routes

import (
	"net/http"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/handlers"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
)

// SearchHandlers groups the per entry point search handlers. Index and
// Advanced may be nil, in which case only the API entry point is served.
type SearchHandlers struct {
	API      *handlers.SearchHandler
	Advanced *handlers.SearchHandler
	Index    *handlers.SearchHandler
}

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	search    SearchHandlers
	suggest   *handlers.SuggestHandler
	analytics *handlers.AnalyticsHandler

	cacheMiddleware *middleware.CacheMiddleware
	rateLimiter     *middleware.RateLimiter
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// NewRouter creates a new router
func NewRouter(
	search SearchHandlers,
	suggest *handlers.SuggestHandler,
	analytics *handlers.AnalyticsHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	rateLimiter *middleware.RateLimiter,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:             http.NewServeMux(),
		search:          search,
		suggest:         suggest,
		analytics:       analytics,
		cacheMiddleware: cacheMiddleware,
		rateLimiter:     rateLimiter,
		metrics:         metrics,
	}
}

// SetAllowedOrigins restricts CORS to origins. Unset admits any origin.
func (r *Router) SetAllowedOrigins(origins []string) {
	r.allowedOrigins = origins
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Search entry points
	r.mux.HandleFunc("GET /api/search", r.search.API.Search)
	if r.search.Advanced != nil {
		r.mux.HandleFunc("GET /api/search/advanced", r.search.Advanced.Search)
	}
	if r.search.Index != nil {
		r.mux.HandleFunc("GET /search", r.search.Index.Search)
	}

	// Autocomplete fires per keystroke and is throttled per caller
	var suggest http.Handler = http.HandlerFunc(r.suggest.Suggest)
	if r.rateLimiter != nil {
		suggest = r.rateLimiter.Middleware(suggest)
	}
	r.mux.Handle("GET /api/search/suggest", suggest)

	// Analytics endpoints
	r.mux.HandleFunc("GET /api/search/insights", r.analytics.GetInsights)
	r.mux.HandleFunc("GET /api/search/stats", r.analytics.GetStats)
	r.mux.HandleFunc("GET /api/search/zero-results", r.analytics.GetZeroResultQueries)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORS(r.allowedOrigins)(handler)

	return handler
}
