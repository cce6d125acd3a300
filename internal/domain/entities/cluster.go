package entities

// ClusterType names the strategy that produced a cluster.
type ClusterType string

const (
	ClusterCategory ClusterType = "category"
	ClusterAuthor   ClusterType = "author"
	ClusterTime     ClusterType = "time"
	ClusterTopic    ClusterType = "topic"
	ClusterActivity ClusterType = "activity"
)

// Cluster groups results of one query. Size always equals len(Members) and
// is never zero.
type Cluster struct {
	Type           ClusterType     `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Members        []*SearchResult `json:"members"`
	RelevanceScore float64         `json:"relevance_score"`
	Size           int             `json:"size"`
	IconHint       string          `json:"icon_hint"`

	TotalViews int64         `json:"total_views"`
	AvgViews   float64       `json:"avg_views"`
	TopResult  *SearchResult `json:"top_result,omitempty"`
	Summary    string        `json:"summary"`
}

// Weight is the ordering key of clusters: relevance times size.
func (c *Cluster) Weight() float64 {
	return c.RelevanceScore * float64(c.Size)
}
