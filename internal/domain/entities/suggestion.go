package entities

// SuggestionType is the origin of a suggestion.
type SuggestionType string

const (
	SuggestionContent  SuggestionType = "content"
	SuggestionPopular  SuggestionType = "popular"
	SuggestionTrending SuggestionType = "trending"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Text        string         `json:"text"`
	Type        SuggestionType `json:"type"`
	ContentType ContentType    `json:"content_type,omitempty"`
	URL         string         `json:"url,omitempty"`
	Relevance   int            `json:"relevance"`
}

// SuggestionStat is the persisted counter row behind popular searches.
type SuggestionStat struct {
	Text        string         `json:"suggestion_text" db:"suggestion_text"`
	Type        SuggestionType `json:"suggestion_type" db:"suggestion_type"`
	ContentType ContentType    `json:"content_type,omitempty" db:"content_type"`
	SearchCount int64          `json:"search_count" db:"search_count"`
	ClickCount  int64          `json:"click_count" db:"click_count"`
	IsActive    bool           `json:"is_active" db:"is_active"`
}
