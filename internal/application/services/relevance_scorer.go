package services

import (
	"sort"
	"strings"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

// Rank buckets, best first.
const (
	BucketTitlePrefix = 1
	BucketTitle       = 2
	BucketExcerpt     = 3
	BucketBody        = 4
	BucketNoMatch     = 5
)

// RelevanceScorer ranks results by plain string containment. It mirrors the
// CASE ordering the content adapters push down to SQL so merged lists can
// be ordered in memory the same way.
type RelevanceScorer struct{}

func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{}
}

// Bucket computes the rank bucket of r for phrase.
func (s *RelevanceScorer) Bucket(r *entities.SearchResult, phrase string) int {
	p := strings.ToLower(strings.TrimSpace(phrase))
	if p == "" {
		return BucketNoMatch
	}
	title := strings.ToLower(r.Title)
	switch {
	case strings.HasPrefix(title, p):
		return BucketTitlePrefix
	case strings.Contains(title, p):
		return BucketTitle
	case strings.Contains(strings.ToLower(r.Excerpt), p):
		return BucketExcerpt
	case strings.Contains(strings.ToLower(r.Body), p):
		return BucketBody
	default:
		return BucketNoMatch
	}
}

// BaseScore is the popularity-based starting point of personalization.
func (s *RelevanceScorer) BaseScore(r *entities.SearchResult) float64 {
	if r.Popularity > 0 {
		return float64(r.Popularity)
	}
	return 1
}

// Score fills RankBucket (unless an adapter already did) and BaseScore.
func (s *RelevanceScorer) Score(results []*entities.SearchResult, phrase string) {
	for _, r := range results {
		if r.RankBucket == 0 {
			r.RankBucket = s.Bucket(r, phrase)
		}
		if r.BaseScore == 0 {
			r.BaseScore = s.BaseScore(r)
		}
	}
}

// Sort orders results in place for mode. The sort is stable and every mode
// ends on content type and id, so equal keys keep a fixed order.
func (s *RelevanceScorer) Sort(results []*entities.SearchResult, mode entities.SortMode, phrase string) {
	s.Score(results, phrase)
	sort.SliceStable(results, func(i, j int) bool {
		return s.Less(results[i], results[j], mode)
	})
}

// Less reports whether a ranks before b under mode.
func (s *RelevanceScorer) Less(a, b *entities.SearchResult, mode entities.SortMode) bool {
	switch mode {
	case entities.SortTitle:
		if ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title); ta != tb {
			return ta < tb
		}
		return ascendingIdentity(a, b)
	case entities.SortDateOldest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return ascendingIdentity(a, b)
	case entities.SortDate, entities.SortDateNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return descendingIdentity(a, b)
	case entities.SortViews, entities.SortPopularity:
		return popularityThenRecency(a, b)
	default:
		if a.RankBucket != b.RankBucket {
			return a.RankBucket < b.RankBucket
		}
		return popularityThenRecency(a, b)
	}
}

func popularityThenRecency(a, b *entities.SearchResult) bool {
	if a.Popularity != b.Popularity {
		return a.Popularity > b.Popularity
	}
	if ra, rb := a.Recency(), b.Recency(); !ra.Equal(rb) {
		return ra.After(rb)
	}
	return descendingIdentity(a, b)
}

func ascendingIdentity(a, b *entities.SearchResult) bool {
	if a.ContentType != b.ContentType {
		return a.ContentType.Rank() < b.ContentType.Rank()
	}
	return a.ID < b.ID
}

func descendingIdentity(a, b *entities.SearchResult) bool {
	if a.ContentType != b.ContentType {
		return a.ContentType.Rank() < b.ContentType.Rank()
	}
	return a.ID > b.ID
}
