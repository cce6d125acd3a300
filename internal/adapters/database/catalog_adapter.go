package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

// CatalogAdapter answers article and category questions for insights
type CatalogAdapter struct {
	client   *postgres.Client
	articles *ArticleAdapter
}

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client *postgres.Client) repositories.CatalogRepository {
	return &CatalogAdapter{
		client:   client,
		articles: &ArticleAdapter{client: client},
	}
}

func coverageQuery(phrase string) *goqu.SelectDataset {
	return pg.From(goqu.T("articles").As("a")).
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.COUNT(goqu.DISTINCT("a.category_id")),
			goqu.COUNT(goqu.DISTINCT("a.author_id")),
		).
		Where(
			goqu.Ex{"a.status": "published"},
			anyFieldContains(articleFields.textFields(), phrase),
		).
		Prepared(true)
}

// Coverage counts published articles, categories and authors matching phrase
func (a *CatalogAdapter) Coverage(ctx context.Context, phrase string) (*entities.ContentCoverage, error) {
	query, args, err := coverageQuery(phrase).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build coverage query", err)
	}

	coverage := &entities.ContentCoverage{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&coverage.Articles,
		&coverage.Categories,
		&coverage.Authors,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get content coverage", err)
	}
	return coverage, nil
}

func relatedCategoriesQuery(keywords []string, limit int) *goqu.SelectDataset {
	ors := make([]exp.Expression, 0, len(keywords)*2)
	for _, kw := range keywords {
		pattern := containsPattern(kw)
		ors = append(ors,
			goqu.I("c.name").ILike(pattern),
			goqu.I("c.description").ILike(pattern),
		)
	}

	return pg.From(goqu.T("content_categories").As("c")).
		LeftJoin(goqu.T("articles").As("a"), goqu.On(
			goqu.I("a.category_id").Eq(goqu.I("c.id")),
			goqu.Ex{"a.status": "published"},
		)).
		Select("c.id", "c.name", "c.slug", "c.description", goqu.COUNT("a.id").As("article_count")).
		Where(goqu.Ex{"c.is_active": true}, goqu.Or(ors...)).
		GroupBy("c.id", "c.name", "c.slug", "c.description").
		Order(goqu.I("article_count").Desc(), goqu.I("c.name").Asc()).
		Limit(uint(limit)).
		Prepared(true)
}

// RelatedCategories returns active categories whose name or description
// mention a keyword, largest first
func (a *CatalogAdapter) RelatedCategories(ctx context.Context, keywords []string, limit int) ([]*entities.CategorySummary, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	query, args, err := relatedCategoriesQuery(keywords, limit).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build related categories query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get related categories", err)
	}
	defer rows.Close()

	var categories []*entities.CategorySummary
	for rows.Next() {
		c := &entities.CategorySummary{}
		var slug, description *string
		if err := rows.Scan(&c.ID, &c.Name, &slug, &description, &c.ArticleCount); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category", err)
		}
		if slug != nil {
			c.Slug = *slug
		}
		if description != nil {
			c.Description = *description
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// PopularArticles returns published articles matching phrase, most viewed first
func (a *CatalogAdapter) PopularArticles(ctx context.Context, phrase string, limit int) ([]*entities.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	page, err := a.articles.Search(ctx, repositories.ContentSearchFilter{
		Phrase: phrase,
		Policy: repositories.MatchPhraseAnyField,
		Sort:   entities.SortViews,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}
