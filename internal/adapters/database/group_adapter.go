package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
)

const secretGroupPrivacy = "secret"

var groupFields = searchFields{
	Title:      goqu.I("g.name"),
	Excerpt:    goqu.I("g.description"),
	Popularity: goqu.I("g.members_count"),
	Recency:    goqu.I("g.created_at"),
	Created:    goqu.I("g.created_at"),
	ID:         goqu.I("g.id"),
}

// GroupAdapter searches community groups
type GroupAdapter struct {
	client *postgres.Client
}

// NewGroupAdapter creates a new group search adapter
func NewGroupAdapter(client *postgres.Client) repositories.ContentSearchRepository {
	return &GroupAdapter{client: client}
}

// ContentType returns groups
func (a *GroupAdapter) ContentType() entities.ContentType {
	return entities.ContentTypeGroups
}

// base hides inactive groups and secret groups the actor is not a member of.
func (a *GroupAdapter) base(actorID *int64) *goqu.SelectDataset {
	ds := pg.From(goqu.T("groups").As("g")).
		Where(goqu.Ex{"g.is_active": true})

	if actorID == nil {
		return ds.Where(goqu.I("g.privacy").Neq(secretGroupPrivacy))
	}
	return ds.Where(goqu.Or(
		goqu.I("g.privacy").Neq(secretGroupPrivacy),
		goqu.L("EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = g.id AND gm.user_id = ?)", *actorID),
	))
}

func (a *GroupAdapter) buildQueries(filter repositories.ContentSearchFilter) contentQueries {
	return buildContentQueries(a.base(filter.ActorID), groupFields, filter,
		"g.id", "g.name", "g.slug", "g.description", "g.privacy",
		"g.created_by", "g.members_count", "g.created_at",
	)
}

// Search runs a filtered, ordered, paginated group lookup
func (a *GroupAdapter) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	if filter.CategoryID != nil {
		return &repositories.ContentPage{}, nil
	}
	return runContentQueries(ctx, a.client, entities.ContentTypeGroups, a.buildQueries(filter), scanGroup)
}

func scanGroup(rows *sql.Rows) (*entities.SearchResult, error) {
	r := &entities.SearchResult{}
	var slug, description, privacy sql.NullString
	var createdBy sql.NullInt64

	err := rows.Scan(
		&r.ID,
		&r.Title,
		&slug,
		&description,
		&privacy,
		&createdBy,
		&r.Popularity,
		&r.CreatedAt,
		&r.RankBucket,
	)
	if err != nil {
		return nil, err
	}

	r.URL = "/groups/" + slug.String
	r.Excerpt = truncateText(description.String, excerptLength)
	r.AuthorID = nullInt64Ptr(createdBy)
	r.Extra = map[string]any{
		"slug":    slug.String,
		"privacy": privacy.String,
	}

	return r, nil
}

// Suggest returns visible groups whose name or description contain partial
func (a *GroupAdapter) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	ds := suggestQuery(a.base(nil), groupFields, partial, limit, "g.name", "g.slug", "g.description")

	return runSuggestQuery(ctx, a.client, entities.ContentTypeGroups, ds, func(rows *sql.Rows) (*entities.Suggestion, error) {
		var name string
		var slug, description sql.NullString
		if err := rows.Scan(&name, &slug, &description); err != nil {
			return nil, err
		}
		return &entities.Suggestion{
			Text:      name,
			URL:       "/groups/" + slug.String,
			Relevance: defaultSuggestionScores.score(partial, []string{name}, []string{description.String}),
		}, nil
	})
}
