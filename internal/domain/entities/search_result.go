package entities

import "time"

// SearchResult is the uniform record every content adapter produces.
type SearchResult struct {
	ContentType   ContentType `json:"content_type"`
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	URL           string      `json:"url"`
	Excerpt       string      `json:"excerpt"`
	CreatedAt     time.Time   `json:"created_at"`
	SecondaryDate *time.Time  `json:"secondary_date,omitempty"`
	Popularity    int64       `json:"popularity_metric"`
	CategoryID    *int64      `json:"category_id,omitempty"`
	CategoryName  string      `json:"category_name,omitempty"`
	AuthorID      *int64      `json:"author_id,omitempty"`
	AuthorName    string      `json:"author_name,omitempty"`

	BaseScore         float64 `json:"base_score"`
	PersonalizedScore float64 `json:"personalized_score,omitempty"`
	RankBucket        int     `json:"rank_bucket,omitempty"`

	// Body is the long text field used for bucket 4 matching. It is never serialized.
	Body string `json:"-"`
	// RecencyAt is the timestamp the adapter orders relevance ties by.
	RecencyAt time.Time `json:"-"`

	// Extra carries type-specific fields (location, privacy, post type...).
	Extra map[string]any `json:"extra,omitempty"`
}

// Recency returns RecencyAt, falling back to CreatedAt.
func (r *SearchResult) Recency() time.Time {
	if r.RecencyAt.IsZero() {
		return r.CreatedAt
	}
	return r.RecencyAt
}

// TypeResults is one content type's page of results.
type TypeResults struct {
	ContentType ContentType     `json:"content_type"`
	Results     []*SearchResult `json:"results"`
	TotalCount  int             `json:"total_count"`
	// Degraded is set when the adapter failed or timed out; TotalCount is then 0.
	Degraded bool `json:"degraded,omitempty"`
}

// SearchResponse is the full answer to a SearchQuery.
type SearchResponse struct {
	Query           SearchQuery       `json:"query"`
	Parsed          *ParsedQuery      `json:"parsed"`
	Results         []*TypeResults    `json:"results_by_type"`
	TotalCount      int               `json:"total_count"`
	Degraded        bool              `json:"degraded"`
	Faults          []ContentType     `json:"faults,omitempty"`
	Clusters        []*Cluster        `json:"clusters,omitempty"`
	Insights        []*Insight        `json:"insights,omitempty"`
	Recommendations []*Recommendation `json:"recommendations,omitempty"`
}

// ByType returns the results for ct, or nil if ct was not searched.
func (r *SearchResponse) ByType(ct ContentType) *TypeResults {
	for _, tr := range r.Results {
		if tr.ContentType == ct {
			return tr
		}
	}
	return nil
}

// All returns every result in merge order.
func (r *SearchResponse) All() []*SearchResult {
	var out []*SearchResult
	for _, tr := range r.Results {
		out = append(out, tr.Results...)
	}
	return out
}
