package database

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
)

var eventFields = searchFields{
	Title:      goqu.I("e.title"),
	Excerpt:    goqu.I("e.description"),
	Others:     []exp.IdentifierExpression{goqu.I("e.location")},
	Popularity: goqu.I("e.attendees_count"),
	Recency:    goqu.I("e.start_date"),
	Created:    goqu.I("e.created_at"),
	ID:         goqu.I("e.id"),
}

// EventAdapter searches public events
type EventAdapter struct {
	client *postgres.Client
}

// NewEventAdapter creates a new event search adapter
func NewEventAdapter(client *postgres.Client) repositories.ContentSearchRepository {
	return &EventAdapter{client: client}
}

// ContentType returns events
func (a *EventAdapter) ContentType() entities.ContentType {
	return entities.ContentTypeEvents
}

func (a *EventAdapter) base() *goqu.SelectDataset {
	return pg.From(goqu.T("events").As("e")).
		Where(goqu.Ex{"e.is_public": true})
}

func (a *EventAdapter) buildQueries(filter repositories.ContentSearchFilter) contentQueries {
	return buildContentQueries(a.base(), eventFields, filter,
		"e.id", "e.title", "e.description", "e.location",
		"e.start_date", "e.end_date", "e.created_by",
		"e.attendees_count", "e.created_at",
	)
}

// Search runs a filtered, ordered, paginated event lookup
func (a *EventAdapter) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	if filter.CategoryID != nil {
		return &repositories.ContentPage{}, nil
	}
	return runContentQueries(ctx, a.client, entities.ContentTypeEvents, a.buildQueries(filter), scanEvent)
}

func scanEvent(rows *sql.Rows) (*entities.SearchResult, error) {
	r := &entities.SearchResult{}
	var description, location sql.NullString
	var startDate, endDate sql.NullTime
	var createdBy sql.NullInt64

	err := rows.Scan(
		&r.ID,
		&r.Title,
		&description,
		&location,
		&startDate,
		&endDate,
		&createdBy,
		&r.Popularity,
		&r.CreatedAt,
		&r.RankBucket,
	)
	if err != nil {
		return nil, err
	}

	r.URL = "/events/" + strconv.FormatInt(r.ID, 10)
	r.Excerpt = truncateText(description.String, excerptLength)
	r.AuthorID = nullInt64Ptr(createdBy)
	if startDate.Valid {
		t := startDate.Time
		r.SecondaryDate = &t
		r.RecencyAt = t
	}
	r.Extra = map[string]any{"location": location.String}
	if endDate.Valid {
		r.Extra["end_date"] = endDate.Time
	}

	return r, nil
}

// Suggest returns public events whose title, description or location contain partial
func (a *EventAdapter) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	ds := suggestQuery(a.base(), eventFields, partial, limit, "e.id", "e.title", "e.description", "e.location")

	return runSuggestQuery(ctx, a.client, entities.ContentTypeEvents, ds, func(rows *sql.Rows) (*entities.Suggestion, error) {
		var id int64
		var title string
		var description, location sql.NullString
		if err := rows.Scan(&id, &title, &description, &location); err != nil {
			return nil, err
		}
		return &entities.Suggestion{
			Text:      title,
			URL:       "/events/" + strconv.FormatInt(id, 10),
			Relevance: defaultSuggestionScores.score(partial, []string{title}, []string{description.String, location.String}),
		}, nil
	})
}
