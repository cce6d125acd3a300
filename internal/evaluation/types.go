package evaluation

import (
	"time"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

// DefaultK is the cutoff used for recall and reciprocal rank.
const DefaultK = 10

var knownIntents = map[entities.Intent]struct{}{
	entities.IntentSearch:     {},
	entities.IntentDefinition: {},
	entities.IntentHowTo:      {},
	entities.IntentComparison: {},
	entities.IntentLocation:   {},
	entities.IntentTime:       {},
	entities.IntentPerson:     {},
}

// IsKnownIntent reports whether i is one the query parser can produce.
func IsKnownIntent(i entities.Intent) bool {
	_, ok := knownIntents[i]
	return ok
}

// GoldenQuery is one labelled query with the URLs a good ranking should surface.
type GoldenQuery struct {
	ID           string               `json:"id"`
	Query        string               `json:"query"`
	ContentType  entities.ContentType `json:"content_type,omitempty"`
	Intent       entities.Intent      `json:"intent"`
	ExpectedURLs []string             `json:"expected_urls"`
	Difficulty   string               `json:"difficulty"`
}

// EvalResult is the outcome of running a single golden query.
type EvalResult struct {
	QueryID       string          `json:"query_id"`
	Query         string          `json:"query"`
	Intent        entities.Intent `json:"intent"`
	ParsedIntent  entities.Intent `json:"parsed_intent"`
	IntentMatched bool            `json:"intent_matched"`
	RecallAtK     float64         `json:"recall_at_k"`
	MRRAtK        float64         `json:"mrr_at_k"`
	ResultCount   int             `json:"result_count"`
	TopURLs       []string        `json:"top_urls"`
	Degraded      bool            `json:"degraded"`
	Latency       time.Duration   `json:"latency_ns"`
	Error         string          `json:"error,omitempty"`
}

// EvalSummary aggregates results across a golden set.
type EvalSummary struct {
	K               int                               `json:"k"`
	TotalQueries    int                               `json:"total_queries"`
	AvgRecall       float64                           `json:"avg_recall"`
	AvgMRR          float64                           `json:"avg_mrr"`
	IntentAccuracy  float64                           `json:"intent_accuracy"`
	AvgLatency      time.Duration                     `json:"avg_latency_ns"`
	QueriesWithHits int                               `json:"queries_with_hits"`
	DegradedQueries int                               `json:"degraded_queries"`
	FailedQueries   int                               `json:"failed_queries"`
	ByIntent        map[entities.Intent]IntentSummary `json:"by_intent"`
	Results         []EvalResult                      `json:"results"`
}

// IntentSummary holds per-intent averages.
type IntentSummary struct {
	Count     int     `json:"count"`
	AvgRecall float64 `json:"avg_recall"`
	AvgMRR    float64 `json:"avg_mrr"`
}
