package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

// SearchAnalyticsAdapter reads and appends the search_events log.
type SearchAnalyticsAdapter struct {
	client *postgres.Client
}

func NewSearchAnalyticsAdapter(client *postgres.Client) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{client: client}
}

func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.ContentType == "" {
		event.ContentType = entities.ContentTypeAll
	}

	query := `
		INSERT INTO search_events
		(id, query_text, user_id, content_type, results_count, session_id, ip, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		event.ID,
		event.Query,
		event.UserID,
		string(event.ContentType),
		event.ResultCount,
		nullString(event.SessionID),
		nullString(event.IP),
		nullString(event.UserAgent),
		event.CreatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}

	return nil
}

func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, query_text, user_id, content_type, results_count, session_id, ip, user_agent, created_at
		FROM search_events
		WHERE results_count = 0 AND query_text <> ''
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	var events []*entities.SearchEvent
	for rows.Next() {
		e := &entities.SearchEvent{}
		var userID sql.NullInt64
		var sessionID, ip, userAgent sql.NullString
		err := rows.Scan(
			&e.ID,
			&e.Query,
			&userID,
			&e.ContentType,
			&e.ResultCount,
			&sessionID,
			&ip,
			&userAgent,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		e.UserID = nullInt64Ptr(userID)
		e.SessionID = sessionID.String
		e.IP = ip.String
		e.UserAgent = userAgent.String
		events = append(events, e)
	}

	return events, rows.Err()
}

// queryMatches compares query_text case-insensitively with the trimmed query.
func queryMatches(query string) exp.Expression {
	return goqu.Func("LOWER", goqu.I("query_text")).Eq(strings.ToLower(strings.TrimSpace(query)))
}

func windowStatsQuery(query string, from, to time.Time) *goqu.SelectDataset {
	ds := pg.From("search_events").
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.COUNT(goqu.DISTINCT("user_id")),
			goqu.COALESCE(goqu.AVG("results_count"), 0),
			goqu.L("COUNT(*) FILTER (WHERE results_count > 0)"),
		).
		Where(
			goqu.I("created_at").Gte(from),
			goqu.I("created_at").Lt(to),
		)
	if strings.TrimSpace(query) != "" {
		ds = ds.Where(queryMatches(query))
	}
	return ds.Prepared(true)
}

// WindowStats aggregates events in [from, to)
func (a *SearchAnalyticsAdapter) WindowStats(ctx context.Context, query string, from, to time.Time) (*entities.WindowStats, error) {
	sqlQuery, args, err := windowStatsQuery(query, from, to).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build window stats query", err)
	}

	stats := &entities.WindowStats{}
	err = a.client.DB().QueryRowContext(ctx, sqlQuery, args...).Scan(
		&stats.TotalSearches,
		&stats.UniqueSearchers,
		&stats.AvgResults,
		&stats.Successful,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate search events", err)
	}
	return stats, nil
}

// CountQuery counts events for query since the given time
func (a *SearchAnalyticsAdapter) CountQuery(ctx context.Context, query string, since time.Time) (int, error) {
	ds := pg.From("search_events").Select(goqu.COUNT(goqu.Star())).Where(queryMatches(query))
	if !since.IsZero() {
		ds = ds.Where(goqu.I("created_at").Gte(since))
	}

	sqlQuery, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query count", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count query", err)
	}
	return count, nil
}

// UserQueryCount counts how often a user searched exactly query
func (a *SearchAnalyticsAdapter) UserQueryCount(ctx context.Context, userID int64, query string) (int, error) {
	sqlQuery, args, err := pg.From("search_events").
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.Ex{"user_id": userID}, queryMatches(query)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build user query count", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count user query", err)
	}
	return count, nil
}

// UserQueries returns a user's distinct past queries, most recent first
func (a *SearchAnalyticsAdapter) UserQueries(ctx context.Context, userID int64, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT LOWER(query_text) AS q
		FROM search_events
		WHERE user_id = $1 AND query_text <> ''
		GROUP BY LOWER(query_text)
		ORDER BY MAX(created_at) DESC
		LIMIT $2
	`

	rows, err := a.client.DB().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user queries", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, apperrors.NewInternalError("failed to scan user query", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

func similarQueriesQuery(keywords []string, exclude string, limit int) *goqu.SelectDataset {
	ors := make([]exp.Expression, 0, len(keywords))
	for _, kw := range keywords {
		ors = append(ors, goqu.I("query_text").ILike(containsPattern(kw)))
	}

	lowered := goqu.Func("LOWER", goqu.I("query_text"))
	return pg.From("search_events").
		Select(
			lowered.As("query"),
			goqu.COUNT(goqu.Star()).As("frequency"),
			goqu.AVG("results_count").As("avg_results"),
		).
		Where(
			goqu.Or(ors...),
			lowered.Neq(strings.ToLower(strings.TrimSpace(exclude))),
		).
		GroupBy(lowered).
		Having(goqu.AVG("results_count").Gt(0)).
		Order(
			goqu.I("avg_results").Desc(),
			goqu.I("frequency").Desc(),
			goqu.I("query").Asc(),
		).
		Limit(uint(limit)).
		Prepared(true)
}

// SimilarQueries returns distinct queries sharing any keyword with the current one
func (a *SearchAnalyticsAdapter) SimilarQueries(ctx context.Context, keywords []string, exclude string, limit int) ([]*entities.QueryAggregate, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	sqlQuery, args, err := similarQueriesQuery(keywords, exclude, limit).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build similar queries query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get similar queries", err)
	}
	defer rows.Close()

	var aggregates []*entities.QueryAggregate
	for rows.Next() {
		agg := &entities.QueryAggregate{}
		if err := rows.Scan(&agg.Query, &agg.Frequency, &agg.AvgResults); err != nil {
			return nil, apperrors.NewInternalError("failed to scan similar query", err)
		}
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
