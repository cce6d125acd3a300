package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
)

var articleFields = searchFields{
	Title:      goqu.I("a.title"),
	Excerpt:    goqu.I("a.excerpt"),
	Body:       goqu.I("a.content"),
	Popularity: goqu.I("a.view_count"),
	Recency:    goqu.I("a.updated_at"),
	Created:    goqu.I("a.created_at"),
	ID:         goqu.I("a.id"),
}

// ArticleAdapter searches wiki articles
type ArticleAdapter struct {
	client *postgres.Client
}

// NewArticleAdapter creates a new article search adapter
func NewArticleAdapter(client *postgres.Client) repositories.ContentSearchRepository {
	return &ArticleAdapter{client: client}
}

// ContentType returns articles
func (a *ArticleAdapter) ContentType() entities.ContentType {
	return entities.ContentTypeArticles
}

func (a *ArticleAdapter) base(filter repositories.ContentSearchFilter) *goqu.SelectDataset {
	ds := pg.From(goqu.T("articles").As("a")).
		LeftJoin(goqu.T("content_categories").As("c"), goqu.On(goqu.I("a.category_id").Eq(goqu.I("c.id")))).
		LeftJoin(goqu.T("users").As("u"), goqu.On(goqu.I("a.author_id").Eq(goqu.I("u.id"))))

	if !filter.IncludeDrafts {
		ds = ds.Where(goqu.Ex{"a.status": "published"})
	}
	if filter.CategoryID != nil {
		ds = ds.Where(goqu.Ex{"a.category_id": *filter.CategoryID})
	}
	return ds
}

func (a *ArticleAdapter) buildQueries(filter repositories.ContentSearchFilter) contentQueries {
	return buildContentQueries(a.base(filter), articleFields, filter,
		"a.id", "a.title", "a.slug", "a.excerpt", "a.content",
		"a.category_id", goqu.I("c.name").As("category_name"),
		"a.author_id", goqu.COALESCE(goqu.I("u.display_name"), goqu.I("u.username")).As("author_name"),
		"a.view_count", "a.created_at", "a.published_at", "a.updated_at",
	)
}

// Search runs a filtered, ordered, paginated article lookup
func (a *ArticleAdapter) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	return runContentQueries(ctx, a.client, entities.ContentTypeArticles, a.buildQueries(filter), scanArticle)
}

func scanArticle(rows *sql.Rows) (*entities.SearchResult, error) {
	r := &entities.SearchResult{}
	var slug, excerpt, content, categoryName, authorName sql.NullString
	var categoryID, authorID sql.NullInt64
	var publishedAt, updatedAt sql.NullTime

	err := rows.Scan(
		&r.ID,
		&r.Title,
		&slug,
		&excerpt,
		&content,
		&categoryID,
		&categoryName,
		&authorID,
		&authorName,
		&r.Popularity,
		&r.CreatedAt,
		&publishedAt,
		&updatedAt,
		&r.RankBucket,
	)
	if err != nil {
		return nil, err
	}

	r.URL = "/wiki/" + slug.String
	r.Excerpt = excerpt.String
	if r.Excerpt == "" {
		r.Excerpt = truncateText(content.String, excerptLength)
	}
	r.Body = content.String
	r.CategoryID = nullInt64Ptr(categoryID)
	r.CategoryName = categoryName.String
	r.AuthorID = nullInt64Ptr(authorID)
	r.AuthorName = authorName.String
	if publishedAt.Valid {
		t := publishedAt.Time
		r.SecondaryDate = &t
	}
	if updatedAt.Valid {
		r.RecencyAt = updatedAt.Time
	}
	r.Extra = map[string]any{"slug": slug.String}

	return r, nil
}

// Suggest returns published articles whose title, excerpt or body contain partial
func (a *ArticleAdapter) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	ds := suggestQuery(a.base(repositories.ContentSearchFilter{}), articleFields, partial, limit,
		"a.title", "a.slug", "a.excerpt")

	return runSuggestQuery(ctx, a.client, entities.ContentTypeArticles, ds, func(rows *sql.Rows) (*entities.Suggestion, error) {
		var title string
		var slug, excerpt sql.NullString
		if err := rows.Scan(&title, &slug, &excerpt); err != nil {
			return nil, err
		}
		return &entities.Suggestion{
			Text:      title,
			URL:       "/wiki/" + slug.String,
			Relevance: articleSuggestionScores.score(partial, []string{title}, []string{excerpt.String}),
		}, nil
	})
}
