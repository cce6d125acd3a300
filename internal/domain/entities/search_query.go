package entities

import "strings"

// SearchQuery is the request value handed to the search engine by the web layer.
type SearchQuery struct {
	Text        string      `json:"query"`
	ContentType ContentType `json:"content_type"`
	CategoryID  *int64      `json:"category_id,omitempty"`
	Sort        SortMode    `json:"sort"`
	Page        int         `json:"page"`
	PageSize    int         `json:"page_size"`

	// ActorID is the authenticated user, nil for anonymous callers.
	ActorID *int64 `json:"-"`

	SessionID string `json:"-"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// Normalize enforces page >= 1 and a page size within [minSize, maxSize].
// A non-positive page size takes defaultSize.
func (q *SearchQuery) Normalize(defaultSize, minSize, maxSize int) {
	q.Text = strings.TrimSpace(q.Text)
	if q.ContentType == "" {
		q.ContentType = ContentTypeAll
	}
	if q.Sort == "" {
		q.Sort = SortRelevance
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultSize
	}
	if q.PageSize < minSize {
		q.PageSize = minSize
	}
	if q.PageSize > maxSize {
		q.PageSize = maxSize
	}
}

// Offset returns the row offset of the requested page.
func (q *SearchQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Intent is the coarse purpose detected in a query.
type Intent string

const (
	IntentSearch     Intent = "search"
	IntentDefinition Intent = "definition"
	IntentHowTo      Intent = "how_to"
	IntentComparison Intent = "comparison"
	IntentLocation   Intent = "location"
	IntentTime       Intent = "time"
	IntentPerson     Intent = "person"
)

// ParsedQuery is the output of the query parser.
type ParsedQuery struct {
	Raw            string   `json:"raw"`
	Normalized     string   `json:"normalized"`
	Keywords       []string `json:"keywords"`
	Intent         Intent   `json:"intent"`
	Timeframe      *string  `json:"timeframe,omitempty"`
	EntityType     *string  `json:"entity_type,omitempty"`
	CategoryFilter *string  `json:"category_filter,omitempty"`
}

// IsEmpty reports whether the query carries no text at all.
func (p *ParsedQuery) IsEmpty() bool {
	return p == nil || p.Normalized == ""
}

// Terms returns the distinct whitespace-separated terms of the normalized
// text, without stop-word filtering.
func (p *ParsedQuery) Terms() []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range strings.Fields(p.Normalized) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}
