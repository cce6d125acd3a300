package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
)

var userFields = searchFields{
	Title:      goqu.I("u.username"),
	Excerpt:    goqu.I("u.display_name"),
	Body:       goqu.I("u.bio"),
	Popularity: goqu.I("u.profile_views"),
	Recency:    goqu.I("u.last_login_at"),
	Created:    goqu.I("u.created_at"),
	ID:         goqu.I("u.id"),
}

// UserAdapter searches member profiles
type UserAdapter struct {
	client *postgres.Client
}

// NewUserAdapter creates a new user search adapter
func NewUserAdapter(client *postgres.Client) repositories.ContentSearchRepository {
	return &UserAdapter{client: client}
}

// ContentType returns users
func (a *UserAdapter) ContentType() entities.ContentType {
	return entities.ContentTypeUsers
}

func (a *UserAdapter) base() *goqu.SelectDataset {
	return pg.From(goqu.T("users").As("u")).
		Where(
			goqu.Ex{"u.is_active": true},
			goqu.Ex{"u.is_banned": false},
		)
}

func (a *UserAdapter) buildQueries(filter repositories.ContentSearchFilter) contentQueries {
	return buildContentQueries(a.base(), userFields, filter,
		"u.id", "u.username", "u.display_name", "u.bio",
		"u.profile_views", "u.created_at", "u.last_login_at",
	)
}

// Search runs a filtered, ordered, paginated user lookup. Profiles carry no
// category, so a category filter matches none of them.
func (a *UserAdapter) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	if filter.CategoryID != nil {
		return &repositories.ContentPage{}, nil
	}
	return runContentQueries(ctx, a.client, entities.ContentTypeUsers, a.buildQueries(filter), scanUser)
}

func scanUser(rows *sql.Rows) (*entities.SearchResult, error) {
	r := &entities.SearchResult{}
	var username string
	var displayName, bio sql.NullString
	var lastLogin sql.NullTime

	err := rows.Scan(
		&r.ID,
		&username,
		&displayName,
		&bio,
		&r.Popularity,
		&r.CreatedAt,
		&lastLogin,
		&r.RankBucket,
	)
	if err != nil {
		return nil, err
	}

	r.Title = username
	if displayName.String != "" {
		r.Title = displayName.String
	}
	r.URL = "/profile/" + username
	r.Excerpt = truncateText(bio.String, excerptLength)
	r.Body = bio.String
	if lastLogin.Valid {
		t := lastLogin.Time
		r.SecondaryDate = &t
		r.RecencyAt = t
	}
	r.Extra = map[string]any{
		"username":     username,
		"display_name": displayName.String,
	}

	return r, nil
}

// Suggest returns active members whose username, display name or bio contain partial
func (a *UserAdapter) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	ds := suggestQuery(a.base(), userFields, partial, limit, "u.username", "u.display_name", "u.bio")

	return runSuggestQuery(ctx, a.client, entities.ContentTypeUsers, ds, func(rows *sql.Rows) (*entities.Suggestion, error) {
		var username string
		var displayName, bio sql.NullString
		if err := rows.Scan(&username, &displayName, &bio); err != nil {
			return nil, err
		}
		text := username
		if displayName.String != "" {
			text = displayName.String
		}
		return &entities.Suggestion{
			Text:      text,
			URL:       "/profile/" + username,
			Relevance: userSuggestionScores.score(partial, []string{username, displayName.String}, []string{bio.String}),
		}, nil
	})
}
