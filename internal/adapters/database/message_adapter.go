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

var messageFields = searchFields{
	Title:   goqu.I("m.subject"),
	Body:    goqu.I("m.content"),
	Recency: goqu.I("m.created_at"),
	Created: goqu.I("m.created_at"),
	ID:      goqu.I("m.id"),
}

// MessageAdapter searches the actor's own conversations. It is never part
// of an "all" search.
type MessageAdapter struct {
	client *postgres.Client
}

// NewMessageAdapter creates a new message search adapter
func NewMessageAdapter(client *postgres.Client) repositories.ContentSearchRepository {
	return &MessageAdapter{client: client}
}

// ContentType returns messages
func (a *MessageAdapter) ContentType() entities.ContentType {
	return entities.ContentTypeMessages
}

func (a *MessageAdapter) base(actorID int64) *goqu.SelectDataset {
	return pg.From(goqu.T("messages").As("m")).
		Join(goqu.T("users").As("s"), goqu.On(goqu.I("m.sender_id").Eq(goqu.I("s.id")))).
		Where(goqu.Or(
			goqu.Ex{"m.sender_id": actorID},
			goqu.Ex{"m.recipient_id": actorID},
		))
}

func (a *MessageAdapter) buildQueries(actorID int64, filter repositories.ContentSearchFilter) contentQueries {
	return buildContentQueries(a.base(actorID), messageFields, filter,
		"m.id", "m.subject", "m.content",
		"m.sender_id", goqu.COALESCE(goqu.I("s.display_name"), goqu.I("s.username")).As("sender_name"),
		"m.recipient_id", "m.is_read", "m.created_at",
	)
}

// Search looks up messages the actor sent or received. Anonymous callers
// get an empty page without touching the store.
func (a *MessageAdapter) Search(ctx context.Context, filter repositories.ContentSearchFilter) (*repositories.ContentPage, error) {
	if filter.CategoryID != nil {
		return &repositories.ContentPage{}, nil
	}
	if filter.ActorID == nil {
		return &repositories.ContentPage{}, nil
	}
	return runContentQueries(ctx, a.client, entities.ContentTypeMessages, a.buildQueries(*filter.ActorID, filter), scanMessage)
}

func scanMessage(rows *sql.Rows) (*entities.SearchResult, error) {
	r := &entities.SearchResult{}
	var subject, content, senderName sql.NullString
	var senderID, recipientID int64
	var isRead bool

	err := rows.Scan(
		&r.ID,
		&subject,
		&content,
		&senderID,
		&senderName,
		&recipientID,
		&isRead,
		&r.CreatedAt,
		&r.RankBucket,
	)
	if err != nil {
		return nil, err
	}

	r.Title = subject.String
	if r.Title == "" {
		r.Title = truncateText(content.String, titleLength)
	}
	r.URL = "/messages/" + strconv.FormatInt(r.ID, 10)
	r.Excerpt = truncateText(content.String, excerptLength)
	r.Body = content.String
	r.AuthorID = &senderID
	r.AuthorName = senderName.String
	r.Extra = map[string]any{
		"recipient_id": recipientID,
		"is_read":      isRead,
	}

	return r, nil
}

// Suggest never exposes private conversations to autocomplete.
func (a *MessageAdapter) Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error) {
	return nil, nil
}
