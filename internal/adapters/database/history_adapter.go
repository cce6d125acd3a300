package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

// HistoryAdapter reads the per-user search and reading history
type HistoryAdapter struct {
	client *postgres.Client
}

// NewHistoryAdapter creates a new history adapter
func NewHistoryAdapter(client *postgres.Client) repositories.SearchHistoryRepository {
	return &HistoryAdapter{client: client}
}

// RecentSearches returns the user's latest search events
func (a *HistoryAdapter) RecentSearches(ctx context.Context, userID int64, limit int) ([]*entities.SearchHistoryRecord, error) {
	query, args, err := pg.From("search_events").
		Select("user_id", "query_text", "content_type", "results_count", "created_at").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search history query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get search history", err)
	}
	defer rows.Close()

	var records []*entities.SearchHistoryRecord
	for rows.Next() {
		r := &entities.SearchHistoryRecord{}
		if err := rows.Scan(&r.UserID, &r.Query, &r.ContentType, &r.ResultsCount, &r.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan search history", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func recentViewsQuery(userID int64, limit int) *goqu.SelectDataset {
	return pg.From(goqu.T("content_views").As("v")).
		LeftJoin(goqu.T("articles").As("a"), goqu.On(
			goqu.Ex{"v.content_type": string(entities.ContentTypeArticles)},
			goqu.I("v.content_id").Eq(goqu.I("a.id")),
		)).
		LeftJoin(goqu.T("content_categories").As("c"), goqu.On(goqu.I("a.category_id").Eq(goqu.I("c.id")))).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("a.author_id").Eq(goqu.I("u.id")))).
		Select(
			"v.user_id", "v.content_type", "v.content_id",
			"a.category_id", goqu.I("c.name").As("category_name"),
			"a.author_id", goqu.COALESCE(goqu.I("u.display_name"), goqu.I("u.username")).As("author_name"),
			"v.viewed_at",
		).
		Where(goqu.Ex{"v.user_id": userID}).
		Order(goqu.I("v.viewed_at").Desc()).
		Limit(uint(limit)).
		Prepared(true)
}

// RecentViews returns the user's latest content views with article category and author
func (a *HistoryAdapter) RecentViews(ctx context.Context, userID int64, limit int) ([]*entities.ContentView, error) {
	query, args, err := recentViewsQuery(userID, limit).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build view history query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get view history", err)
	}
	defer rows.Close()

	var views []*entities.ContentView
	for rows.Next() {
		v := &entities.ContentView{}
		var categoryID, authorID sql.NullInt64
		var categoryName, authorName sql.NullString
		err := rows.Scan(
			&v.UserID,
			&v.ContentType,
			&v.ContentID,
			&categoryID,
			&categoryName,
			&authorID,
			&authorName,
			&v.ViewedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan view history", err)
		}
		v.CategoryID = nullInt64Ptr(categoryID)
		v.CategoryName = categoryName.String
		v.AuthorID = nullInt64Ptr(authorID)
		v.AuthorName = authorName.String
		views = append(views, v)
	}
	return views, rows.Err()
}
