package main

import (
	"context"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/adapters/database"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/observability"
	"github.com/drkhalidabdullah/islamwiki-sub001/pkg/config"
)

// seedQuery is one sample query with how often it was run and how recently.
type seedQuery struct {
	text        string
	contentType entities.ContentType
	searches    int
	results     int
	// recentShare is the fraction of searches that fall inside the last week.
	recentShare float64
}

// Seeds the search event log and suggestion counters so that trends,
// insights and popular suggestions have data in a local environment.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("islamwiki-seed", cfg.Server.Environment, cfg.Server.LogLevel)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating analytics tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE search_events, suggestion_stats, content_views`); err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	events := database.NewSearchAnalyticsAdapter(pgClient)
	suggestions := database.NewSuggestionAdapter(pgClient)

	queries := []seedQuery{
		{text: "zakat", contentType: entities.ContentTypeAll, searches: 1400, results: 25, recentShare: 0.2},
		{text: "ramadan timetable", contentType: entities.ContentTypeArticles, searches: 300, results: 8, recentShare: 0.7},
		{text: "wudu steps", contentType: entities.ContentTypeArticles, searches: 120, results: 5, recentShare: 0.05},
		{text: "eid gathering", contentType: entities.ContentTypeEvents, searches: 60, results: 3, recentShare: 0.6},
		{text: "hajj visa", contentType: entities.ContentTypeAll, searches: 40, results: 0, recentShare: 0.3},
		{text: "seerah", contentType: entities.ContentTypeArticles, searches: 80, results: 12, recentShare: 0.05},
		{text: "islamic calendar", contentType: entities.ContentTypeAll, searches: 90, results: 6, recentShare: 0.4},
	}

	rng := rand.New(rand.NewPCG(1, 2))
	now := time.Now()
	week := 7 * 24 * time.Hour
	year := 365 * 24 * time.Hour

	for _, q := range queries {
		failed := 0
		for i := 0; i < q.searches; i++ {
			age := week + time.Duration(rng.Int64N(int64(year-week)))
			if rng.Float64() < q.recentShare {
				age = time.Duration(rng.Int64N(int64(week)))
			}

			userID := rng.Int64N(200) + 1
			event := &entities.SearchEvent{
				Query:       q.text,
				UserID:      &userID,
				ContentType: q.contentType,
				ResultCount: q.results,
				SessionID:   "seed",
				CreatedAt:   now.Add(-age),
			}
			if err := events.LogEvent(ctx, event); err != nil {
				failed++
				continue
			}
			if err := suggestions.Increment(ctx, q.text, q.contentType); err != nil {
				failed++
			}
		}
		log.Info().Str("query", q.text).Int("searches", q.searches).Int("failed", failed).Msg("seeded query")
	}

	log.Info().Msg("seeding completed")
}
