package entities

import (
	"time"
)

// SearchEvent represents a single executed search for analytics.
type SearchEvent struct {
	ID          string      `json:"id" db:"id"`
	Query       string      `json:"query" db:"query_text"`
	UserID      *int64      `json:"user_id,omitempty" db:"user_id"`
	ContentType ContentType `json:"content_type" db:"content_type"`
	ResultCount int         `json:"results_count" db:"results_count"`
	SessionID   string      `json:"session_id,omitempty" db:"session_id"`
	IP          string      `json:"ip,omitempty" db:"ip"`
	UserAgent   string      `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// SearchHistoryRecord is one past search of a user, read back for profiling.
type SearchHistoryRecord struct {
	UserID       int64       `json:"user_id"`
	Query        string      `json:"query"`
	ContentType  ContentType `json:"content_type"`
	ResultsCount int         `json:"results_count"`
	CreatedAt    time.Time   `json:"created_at"`
}

// ContentView is one item of a user's reading history.
type ContentView struct {
	UserID       int64       `json:"user_id"`
	ContentType  ContentType `json:"content_type"`
	ContentID    int64       `json:"content_id"`
	CategoryID   *int64      `json:"category_id,omitempty"`
	CategoryName string      `json:"category_name,omitempty"`
	AuthorID     *int64      `json:"author_id,omitempty"`
	AuthorName   string      `json:"author_name,omitempty"`
	ViewedAt     time.Time   `json:"viewed_at"`
}
