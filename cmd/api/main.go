package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/adapters/cache"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/adapters/database"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/handlers"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/middleware"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/api/routes"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/application/services"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/providers"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/redis"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
	"github.com/drkhalidabdullah/islamwiki-sub001/pkg/config"
)

const cacheNamespace = "islamwiki"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Environment, cfg.Server.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Redis only memoizes profiles and analytics responses; the engine runs without it.
	var cacheProvider providers.CacheProvider
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, caching disabled")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient.Client(), cacheNamespace)
	}

	taxonomy, err := services.LoadTaxonomy(cfg.Search.TaxonomyPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Search.TaxonomyPath).Msg("failed to load search taxonomy")
	}

	adapters := []repositories.ContentSearchRepository{
		database.NewArticleAdapter(pgClient),
		database.NewUserAdapter(pgClient),
		database.NewPostAdapter(pgClient),
		database.NewGroupAdapter(pgClient),
		database.NewEventAdapter(pgClient),
		database.NewCommunityAdapter(pgClient),
		database.NewMessageAdapter(pgClient),
	}
	eventRepo := database.NewSearchAnalyticsAdapter(pgClient)
	suggestionRepo := database.NewSuggestionAdapter(pgClient)
	historyRepo := database.NewHistoryAdapter(pgClient)
	catalogRepo := database.NewCatalogAdapter(pgClient)
	if cacheProvider != nil {
		catalogRepo = database.NewCachedCatalogAdapter(catalogRepo, cacheProvider)
	}

	scorer := services.NewRelevanceScorer()

	analyticsService := services.NewSearchAnalyticsService(eventRepo, suggestionRepo)
	analyticsService.SetMetrics(metrics)

	personalizationService := services.NewPersonalizationService(historyRepo, cacheProvider, taxonomy, scorer, services.PersonalizationConfig{
		SearchHistoryWindow: cfg.Search.SearchHistoryWindow,
		ViewHistoryWindow:   cfg.Search.ViewHistoryWindow,
		ProfileCacheTTL:     cfg.Search.ProfileCacheTTL,
	})
	personalizationService.SetMetrics(metrics)

	insightsService := services.NewInsightsService(analyticsService, eventRepo, catalogRepo, taxonomy)

	searchService := services.NewSearchService(adapters, services.NewQueryParser(taxonomy), scorer, cfg.Search)
	searchService.SetClustering(services.NewClusteringService(taxonomy, 0))
	searchService.SetPersonalization(personalizationService)
	searchService.SetAnalytics(analyticsService)
	searchService.SetInsights(insightsService)
	searchService.SetMetrics(metrics)

	suggestionService := services.NewSuggestionService(adapters, suggestionRepo, analyticsService)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, cfg.Search.StatsCacheTTL, metrics)
	}
	rateLimiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Search.SuggestRatePerSecond,
		Burst:             cfg.Search.SuggestBurst,
	})

	router := routes.NewRouter(
		routes.SearchHandlers{
			API:      handlers.NewSearchHandler(searchService, repositories.ParseMatchPolicy(cfg.Search.APIMatchPolicy)),
			Advanced: handlers.NewSearchHandler(searchService, repositories.ParseMatchPolicy(cfg.Search.AdvancedMatchPolicy)),
			Index:    handlers.NewSearchHandler(searchService, repositories.ParseMatchPolicy(cfg.Search.IndexMatchPolicy)),
		},
		handlers.NewSuggestHandler(suggestionService),
		handlers.NewAnalyticsHandler(insightsService, analyticsService),
		cacheMiddleware,
		rateLimiter,
		metrics,
	)
	router.SetAllowedOrigins(cfg.Server.AllowedOrigins)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Let in-flight analytics writes land before the pool closes.
	analyticsService.Wait()

	log.Info().Msg("server stopped")
}
