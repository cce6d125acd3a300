package entities

import "strings"

// ContentType discriminates the searchable collections of the wiki.
type ContentType string

const (
	ContentTypeAll       ContentType = "all"
	ContentTypeArticles  ContentType = "articles"
	ContentTypeUsers     ContentType = "users"
	ContentTypePosts     ContentType = "posts"
	ContentTypeGroups    ContentType = "groups"
	ContentTypeEvents    ContentType = "events"
	ContentTypeCommunity ContentType = "community"

	// ContentTypeMessages is only searched on explicit request and never
	// participates in an "all" search.
	ContentTypeMessages ContentType = "messages"
)

// ContentTypePriority is the fixed merge order of a multi-type search.
var ContentTypePriority = []ContentType{
	ContentTypeArticles,
	ContentTypeUsers,
	ContentTypePosts,
	ContentTypeGroups,
	ContentTypeEvents,
	ContentTypeCommunity,
}

// ParseContentType maps user input to a ContentType. Empty input means all.
func ParseContentType(s string) (ContentType, bool) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if ct == "" {
		return ContentTypeAll, true
	}
	switch ct {
	case ContentTypeAll, ContentTypeMessages:
		return ct, true
	}
	for _, known := range ContentTypePriority {
		if known == ct {
			return ct, true
		}
	}
	return "", false
}

// Expand returns the concrete content types a filter covers, in merge order.
func (c ContentType) Expand() []ContentType {
	if c == ContentTypeAll || c == "" {
		out := make([]ContentType, len(ContentTypePriority))
		copy(out, ContentTypePriority)
		return out
	}
	return []ContentType{c}
}

// Rank returns the merge position of c; unknown types sort last.
func (c ContentType) Rank() int {
	for i, known := range ContentTypePriority {
		if known == c {
			return i
		}
	}
	return len(ContentTypePriority)
}

// SortMode selects the ordering applied by a content adapter.
type SortMode string

const (
	SortRelevance  SortMode = "relevance"
	SortTitle      SortMode = "title"
	SortDate       SortMode = "date"
	SortDateNewest SortMode = "date_newest"
	SortDateOldest SortMode = "date_oldest"
	SortViews      SortMode = "views"
	SortPopularity SortMode = "popularity"
)

// ParseSortMode maps user input to a SortMode, defaulting to relevance.
func ParseSortMode(s string) SortMode {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case SortTitle, SortDate, SortDateNewest, SortDateOldest, SortViews, SortPopularity:
		return m
	default:
		return SortRelevance
	}
}
