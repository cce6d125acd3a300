package database

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/doug-martin/goqu/v9"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
)

var communityFields = searchFields{
	Title:      goqu.I("cc.title"),
	Body:       goqu.I("cc.content"),
	Popularity: goqu.I("cc.views_count"),
	Recency:    goqu.I("cc.updated_at"),
	Created:    goqu.I("cc.created_at"),
	ID:         goqu.I("cc.id"),
}

// CommunityAdapter searches published community contributions
type CommunityAdapter struct {
	client *postgres.Client
}

// NewCommunityAdapter creates a new community content search adapter
func NewCommunityAdapter(client *postgres.Client) repositories.ContentSearchRepository {
	return &CommunityAdapter{client: client}
}

// ContentType returns community
func (a *CommunityAdapter) ContentType() entities.ContentType {
	return entities.ContentTypeCommunity
}

func (a *CommunityAdapter) base(filter repositories.ContentSearchFilter) *goqu.SelectDataset {
	ds := pg.From(goqu.T("community_content").As("cc")).
		LeftJoin(goqu.T("content_categories").As("c"), goqu.On(goqu.I("cc.category_id").Eq(goqu.I("c.id")))).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("cc.author_id").Eq(goqu.I("u.id")))).
		Where(goqu.Ex{"cc.status": "published"})

	if filter.CategoryID != nil {
		ds = ds.Where(goqu.Ex{"cc.category_id": *filter.CategoryID})
	}
	return ds
}

func (a *CommunityAdapter) buildQueries(filter repositories.ContentSearchFilter) contentQueries {
	return buildContentQueries(a.base(filter), communityFields, filter,
		"cc.id", "cc.title", "cc.content", "cc.content_type",
		"cc.category_id", goqu.I("c.name").As("category_name"),
		"cc.author_id", goqu.COALESCE(goqu.I("u.display_name"), goqu.I("u.username")).As("author_name"),
		"cc.views_count", "cc.likes_count", "cc.created_at", "cc.updated_at",
	)
}

// Search runs a filtered, ordered, paginated community content lookup
func (a *CommunityAdapter) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	return runContentQueries(ctx, a.client, entities.ContentTypeCommunity, a.buildQueries(filter), scanCommunity)
}

func scanCommunity(rows *sql.Rows) (*entities.SearchResult, error) {
	r := &entities.SearchResult{}
	var content, kind, categoryName, authorName sql.NullString
	var categoryID, authorID sql.NullInt64
	var likes int64
	var updatedAt sql.NullTime

	err := rows.Scan(
		&r.ID,
		&r.Title,
		&content,
		&kind,
		&categoryID,
		&categoryName,
		&authorID,
		&authorName,
		&r.Popularity,
		&likes,
		&r.CreatedAt,
		&updatedAt,
		&r.RankBucket,
	)
	if err != nil {
		return nil, err
	}

	r.URL = "/community/" + strconv.FormatInt(r.ID, 10)
	r.Excerpt = truncateText(content.String, excerptLength)
	r.Body = content.String
	r.CategoryID = nullInt64Ptr(categoryID)
	r.CategoryName = categoryName.String
	r.AuthorID = nullInt64Ptr(authorID)
	r.AuthorName = authorName.String
	if updatedAt.Valid {
		r.RecencyAt = updatedAt.Time
	}
	r.Extra = map[string]any{
		"kind":        kind.String,
		"likes_count": likes,
	}

	return r, nil
}

// Suggest returns published community content whose title or body contain partial
func (a *CommunityAdapter) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	ds := suggestQuery(a.base(repositories.ContentSearchFilter{}), communityFields, partial, limit,
		"cc.id", "cc.title", "cc.content")

	return runSuggestQuery(ctx, a.client, entities.ContentTypeCommunity, ds, func(rows *sql.Rows) (*entities.Suggestion, error) {
		var id int64
		var title string
		var content sql.NullString
		if err := rows.Scan(&id, &title, &content); err != nil {
			return nil, err
		}
		return &entities.Suggestion{
			Text:      title,
			URL:       "/community/" + strconv.FormatInt(id, 10),
			Relevance: defaultSuggestionScores.score(partial, []string{title}, []string{content.String}),
		}, nil
	})
}
