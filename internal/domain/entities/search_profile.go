package entities

// WeightedRef is a category or author with its occurrence count in a user's history.
type WeightedRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// UserSearchProfile is derived from a user's search and reading history.
type UserSearchProfile struct {
	UserID              int64         `json:"user_id"`
	Interests           []string      `json:"interests"`
	PreferredCategories []WeightedRef `json:"preferred_categories"`
	PreferredAuthors    []WeightedRef `json:"preferred_authors"`
	SearchFrequency     float64       `json:"search_frequency"`
	CommonQueries       []string      `json:"common_queries"`
}

// IsEmpty reports whether the profile carries no signal at all.
func (p *UserSearchProfile) IsEmpty() bool {
	return p == nil ||
		(len(p.Interests) == 0 &&
			len(p.PreferredCategories) == 0 &&
			len(p.PreferredAuthors) == 0 &&
			len(p.CommonQueries) == 0 &&
			p.SearchFrequency == 0)
}
