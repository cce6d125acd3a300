package database

import (
	"context"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

// SuggestionAdapter maintains the popular-search counters in suggestion_stats
type SuggestionAdapter struct {
	client *postgres.Client
}

// NewSuggestionAdapter creates a new suggestion counter adapter
func NewSuggestionAdapter(client *postgres.Client) repositories.SuggestionRepository {
	return &SuggestionAdapter{client: client}
}

// incrementQuery is a single upsert so concurrent identical queries never
// lose an update.
func incrementQuery(text string, contentType entities.ContentType) *goqu.InsertDataset {
	if contentType == "" {
		contentType = entities.ContentTypeAll
	}
	return pg.Insert("suggestion_stats").
		Rows(goqu.Record{
			"suggestion_text": text,
			"suggestion_type": string(entities.SuggestionPopular),
			"content_type":    string(contentType),
			"search_count":    1,
		}).
		OnConflict(goqu.DoUpdate("suggestion_text, content_type", goqu.Record{
			"search_count": goqu.L("suggestion_stats.search_count + 1"),
			"updated_at":   goqu.L("NOW()"),
		})).
		Prepared(true)
}

// Increment inserts the counter row with count 1 or increments it on conflict
func (a *SuggestionAdapter) Increment(ctx context.Context, text string, contentType entities.ContentType) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	query, args, err := incrementQuery(text, contentType).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build suggestion upsert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to increment suggestion counter", err)
	}
	return nil
}

func popularByPrefixQuery(prefix string, limit int) *goqu.SelectDataset {
	return pg.From("suggestion_stats").
		Select("suggestion_text", "suggestion_type", "content_type", "search_count", "click_count", "is_active").
		Where(
			goqu.Ex{"is_active": true},
			goqu.I("suggestion_text").ILike(prefixPattern(prefix)),
		).
		Order(goqu.I("search_count").Desc(), goqu.I("suggestion_text").Asc()).
		Limit(uint(clampSuggestLimit(limit))).
		Prepared(true)
}

// PopularByPrefix returns active counters starting with prefix, most searched first
func (a *SuggestionAdapter) PopularByPrefix(ctx context.Context, prefix string, limit int) ([]*entities.SuggestionStat, error) {
	query, args, err := popularByPrefixQuery(strings.TrimSpace(prefix), limit).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build popular searches query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get popular searches", err)
	}
	defer rows.Close()

	var stats []*entities.SuggestionStat
	for rows.Next() {
		s := &entities.SuggestionStat{}
		if err := rows.Scan(&s.Text, &s.Type, &s.ContentType, &s.SearchCount, &s.ClickCount, &s.IsActive); err != nil {
			return nil, apperrors.NewInternalError("failed to scan popular search", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
