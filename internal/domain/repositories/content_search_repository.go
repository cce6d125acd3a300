package repositories

import (
	"context"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

// MatchPolicy decides how a multi-term query is matched against the
// searchable fields of a content record.
type MatchPolicy string

const (
	// MatchPhraseAnyField matches when the full phrase appears in any field.
	MatchPhraseAnyField MatchPolicy = "phrase_any_field"

	// MatchAllTermsAnyField matches when every term appears in at least one
	// field (AND across terms, OR across fields).
	MatchAllTermsAnyField MatchPolicy = "all_terms_any_field"
)

// ParseMatchPolicy maps a configuration value to a MatchPolicy.
func ParseMatchPolicy(s string) MatchPolicy {
	if MatchPolicy(s) == MatchAllTermsAnyField {
		return MatchAllTermsAnyField
	}
	return MatchPhraseAnyField
}

// ContentSearchFilter is the input of one adapter lookup.
type ContentSearchFilter struct {
	Phrase     string
	Terms      []string
	Policy     MatchPolicy
	CategoryID *int64
	Sort       entities.SortMode
	Limit      int
	Offset     int

	// ActorID drives visibility (own private posts, own conversations).
	ActorID *int64

	// IncludeDrafts lifts the published-only filter on articles.
	IncludeDrafts bool
}

// HasText reports whether the filter carries any text predicate.
func (f ContentSearchFilter) HasText() bool {
	if f.Policy == MatchAllTermsAnyField {
		return len(f.Terms) > 0
	}
	return f.Phrase != ""
}

// ContentPage is one page of an adapter lookup with the unpaginated count.
type ContentPage struct {
	Results    []*entities.SearchResult
	TotalCount int
}

// ContentSearchRepository is implemented once per content type.
type ContentSearchRepository interface {
	// ContentType returns the type this adapter serves.
	ContentType() entities.ContentType

	// Search runs a filtered, ordered, paginated lookup.
	Search(ctx context.Context, filter ContentSearchFilter) (*ContentPage, error)

	// Suggest returns lightweight matches for autocomplete, scored per match class.
	Suggest(ctx context.Context, partial string, limit int) ([]*entities.Suggestion, error)
}
