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

// Posts have a single text column; it serves as the title for matching.
var postFields = searchFields{
	Title:      goqu.I("p.content"),
	Popularity: goqu.I("p.likes_count"),
	Recency:    goqu.I("p.updated_at"),
	Created:    goqu.I("p.created_at"),
	ID:         goqu.I("p.id"),
}

// PostAdapter searches member posts
type PostAdapter struct {
	client *postgres.Client
}

// NewPostAdapter creates a new post search adapter
func NewPostAdapter(client *postgres.Client) repositories.ContentSearchRepository {
	return &PostAdapter{client: client}
}

// ContentType returns posts
func (a *PostAdapter) ContentType() entities.ContentType {
	return entities.ContentTypePosts
}

// base limits posts to public ones plus the actor's own.
func (a *PostAdapter) base(actorID *int64) *goqu.SelectDataset {
	ds := pg.From(goqu.T("user_posts").As("p")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("p.user_id").Eq(goqu.I("u.id"))))

	if actorID != nil {
		return ds.Where(goqu.Or(
			goqu.Ex{"p.is_public": true},
			goqu.Ex{"p.user_id": *actorID},
		))
	}
	return ds.Where(goqu.Ex{"p.is_public": true})
}

func (a *PostAdapter) buildQueries(filter repositories.ContentSearchFilter) contentQueries {
	return buildContentQueries(a.base(filter.ActorID), postFields, filter,
		"p.id", "p.content", "p.post_type", "p.is_public",
		"p.user_id", goqu.COALESCE(goqu.I("u.display_name"), goqu.I("u.username")).As("author_name"),
		"p.likes_count", "p.comments_count", "p.created_at", "p.updated_at",
	)
}

// Search runs a filtered, ordered, paginated post lookup
func (a *PostAdapter) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	if filter.CategoryID != nil {
		return &repositories.ContentPage{}, nil
	}
	return runContentQueries(ctx, a.client, entities.ContentTypePosts, a.buildQueries(filter), scanPost)
}

func scanPost(rows *sql.Rows) (*entities.SearchResult, error) {
	r := &entities.SearchResult{}
	var content string
	var postType, authorName sql.NullString
	var isPublic bool
	var authorID int64
	var comments int64
	var updatedAt sql.NullTime

	err := rows.Scan(
		&r.ID,
		&content,
		&postType,
		&isPublic,
		&authorID,
		&authorName,
		&r.Popularity,
		&comments,
		&r.CreatedAt,
		&updatedAt,
		&r.RankBucket,
	)
	if err != nil {
		return nil, err
	}

	r.Title = truncateText(content, titleLength)
	r.URL = "/posts/" + strconv.FormatInt(r.ID, 10)
	r.Excerpt = truncateText(content, excerptLength)
	r.Body = content
	r.AuthorID = &authorID
	r.AuthorName = authorName.String
	if updatedAt.Valid {
		r.RecencyAt = updatedAt.Time
	}
	r.Extra = map[string]any{
		"post_type":      postType.String,
		"is_public":      isPublic,
		"comments_count": comments,
	}

	return r, nil
}

// Suggest returns public posts containing partial
func (a *PostAdapter) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	ds := suggestQuery(a.base(nil), postFields, partial, limit, "p.id", "p.content")

	return runSuggestQuery(ctx, a.client, entities.ContentTypePosts, ds, func(rows *sql.Rows) (*entities.Suggestion, error) {
		var id int64
		var content string
		if err := rows.Scan(&id, &content); err != nil {
			return nil, err
		}
		return &entities.Suggestion{
			Text:      truncateText(content, titleLength),
			URL:       "/posts/" + strconv.FormatInt(id, 10),
			Relevance: defaultSuggestionScores.score(partial, []string{content}, nil),
		}, nil
	})
}
