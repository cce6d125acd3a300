package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
)

const (
	uncategorizedLabel  = "Uncategorized"
	topicOverlapMinimum = 0.3
	topicLabelKeywords  = 3
	activityRelevance   = 0.5
	day                 = 24 * time.Hour
	recentWindow        = 7 * day
	monthWindow         = 30 * day
	yearWindow          = 365 * day
)

// timeBucket is an age range of the time clustering strategy.
type timeBucket struct {
	label  string
	maxAge time.Duration // zero: unbounded
	weight float64
}

var articleTimeBuckets = []timeBucket{
	{label: "Recent", maxAge: recentWindow, weight: 1.0},
	{label: "This Month", maxAge: monthWindow, weight: 0.8},
	{label: "This Year", maxAge: yearWindow, weight: 0.6},
	{label: "Older", weight: 0.6},
}

var userActivityBuckets = []timeBucket{
	{label: "New", maxAge: monthWindow},
	{label: "Recent", maxAge: yearWindow},
	{label: "Established"},
}

// clusterTypeOrder breaks weight ties between strategies.
var clusterTypeOrder = map[entities.ClusterType]int{
	entities.ClusterCategory: 0,
	entities.ClusterAuthor:   1,
	entities.ClusterTime:     2,
	entities.ClusterTopic:    3,
	entities.ClusterActivity: 4,
}

// ClusteringService groups one query's results into named clusters.
type ClusteringService struct {
	taxonomy    *Taxonomy
	maxClusters int
	now         func() time.Time
}

// NewClusteringService creates a clustering service. maxClusters <= 0 keeps
// every cluster.
func NewClusteringService(taxonomy *Taxonomy, maxClusters int) *ClusteringService {
	return &ClusteringService{
		taxonomy:    taxonomy,
		maxClusters: maxClusters,
		now:         time.Now,
	}
}

// SetClock replaces the time source used for age buckets.
func (s *ClusteringService) SetClock(now func() time.Time) {
	s.now = now
}

// Cluster partitions results by content type, runs the strategies of each
// type and orders every produced cluster by relevance times size. Fewer
// than two results never produce clusters.
func (s *ClusteringService) Cluster(results []*entities.SearchResult, parsed *entities.ParsedQuery) []*entities.Cluster {
	if len(results) < 2 {
		return nil
	}

	var terms []string
	if parsed != nil {
		terms = parsed.Keywords
	}
	now := s.now()

	byType := make(map[entities.ContentType][]*entities.SearchResult)
	for _, r := range results {
		byType[r.ContentType] = append(byType[r.ContentType], r)
	}

	var clusters []*entities.Cluster
	if articles := byType[entities.ContentTypeArticles]; len(articles) > 0 {
		clusters = append(clusters, s.byCategory(articles, terms)...)
		clusters = append(clusters, s.byAuthor(articles, terms)...)
		clusters = append(clusters, s.byTime(articles, now)...)
		clusters = append(clusters, s.byTopic(articles, terms)...)
	}
	if users := byType[entities.ContentTypeUsers]; len(users) > 0 {
		clusters = append(clusters, s.byActivity(users, now)...)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if wa, wb := a.Weight(), b.Weight(); wa != wb {
			return wa > wb
		}
		if a.Size != b.Size {
			return a.Size > b.Size
		}
		if a.Type != b.Type {
			return clusterTypeOrder[a.Type] < clusterTypeOrder[b.Type]
		}
		return a.Title < b.Title
	})

	if s.maxClusters > 0 && len(clusters) > s.maxClusters {
		clusters = clusters[:s.maxClusters]
	}
	for _, c := range clusters {
		finalizeCluster(c)
	}
	return clusters
}

// group keeps results under a label in order of first appearance.
type group struct {
	label   string
	members []*entities.SearchResult
}

func groupBy(results []*entities.SearchResult, key func(*entities.SearchResult) (string, bool)) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, r := range results {
		label, ok := key(r)
		if !ok {
			continue
		}
		g, exists := index[label]
		if !exists {
			g = &group{label: label}
			index[label] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, r)
	}
	return groups
}

// labelRelevance is the fraction of query terms contained in label.
func labelRelevance(label string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	l := strings.ToLower(label)
	matched := 0
	for _, t := range terms {
		if strings.Contains(l, strings.ToLower(t)) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func newCluster(t entities.ClusterType, title, description, icon string, relevance float64, members []*entities.SearchResult) *entities.Cluster {
	m := make([]*entities.SearchResult, len(members))
	copy(m, members)
	return &entities.Cluster{
		Type:           t,
		Title:          title,
		Description:    description,
		Members:        m,
		RelevanceScore: relevance,
		Size:           len(m),
		IconHint:       icon,
	}
}

func (s *ClusteringService) byCategory(articles []*entities.SearchResult, terms []string) []*entities.Cluster {
	groups := groupBy(articles, func(r *entities.SearchResult) (string, bool) {
		if strings.TrimSpace(r.CategoryName) == "" {
			return uncategorizedLabel, true
		}
		return r.CategoryName, true
	})

	clusters := make([]*entities.Cluster, 0, len(groups))
	for _, g := range groups {
		clusters = append(clusters, newCluster(entities.ClusterCategory, g.label,
			fmt.Sprintf("Articles in the %s category", g.label), "folder",
			labelRelevance(g.label, terms), g.members))
	}
	return clusters
}

func (s *ClusteringService) byAuthor(articles []*entities.SearchResult, terms []string) []*entities.Cluster {
	groups := groupBy(articles, func(r *entities.SearchResult) (string, bool) {
		name := strings.TrimSpace(r.AuthorName)
		return name, name != ""
	})

	var clusters []*entities.Cluster
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		clusters = append(clusters, newCluster(entities.ClusterAuthor, g.label,
			fmt.Sprintf("Articles written by %s", g.label), "user",
			labelRelevance(g.label, terms), g.members))
	}
	return clusters
}

func bucketFor(buckets []timeBucket, age time.Duration) timeBucket {
	for _, b := range buckets {
		if b.maxAge == 0 || age < b.maxAge {
			return b
		}
	}
	return buckets[len(buckets)-1]
}

func (s *ClusteringService) byTime(articles []*entities.SearchResult, now time.Time) []*entities.Cluster {
	members := make(map[string][]*entities.SearchResult)
	for _, r := range articles {
		b := bucketFor(articleTimeBuckets, now.Sub(r.CreatedAt))
		members[b.label] = append(members[b.label], r)
	}

	var clusters []*entities.Cluster
	for _, b := range articleTimeBuckets {
		if len(members[b.label]) == 0 {
			continue
		}
		clusters = append(clusters, newCluster(entities.ClusterTime, b.label,
			fmt.Sprintf("Articles published %s", strings.ToLower(b.label)), "clock",
			b.weight, members[b.label]))
	}
	return clusters
}

type topicGroup struct {
	label    string
	keywords map[string]struct{}
	members  []*entities.SearchResult
}

func keywordOverlap(a, b map[string]struct{}) float64 {
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	if larger == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	return float64(shared) / float64(larger)
}

// byTopic is a greedy single pass: each article joins the first group whose
// seed keywords overlap its own by more than 30%, or seeds a new group
// named after its first three keywords.
func (s *ClusteringService) byTopic(articles []*entities.SearchResult, terms []string) []*entities.Cluster {
	var groups []*topicGroup
	for _, r := range articles {
		keywords := s.taxonomy.Keywords(r.Title + " " + r.Excerpt)
		if len(keywords) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(keywords))
		for _, k := range keywords {
			set[k] = struct{}{}
		}

		joined := false
		for _, g := range groups {
			if keywordOverlap(set, g.keywords) > topicOverlapMinimum {
				g.members = append(g.members, r)
				joined = true
				break
			}
		}
		if joined {
			continue
		}

		labelWords := keywords
		if len(labelWords) > topicLabelKeywords {
			labelWords = labelWords[:topicLabelKeywords]
		}
		groups = append(groups, &topicGroup{
			label:    strings.Join(labelWords, " "),
			keywords: set,
			members:  []*entities.SearchResult{r},
		})
	}

	var clusters []*entities.Cluster
	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		clusters = append(clusters, newCluster(entities.ClusterTopic, g.label,
			fmt.Sprintf("Articles about %s", g.label), "tag",
			labelRelevance(g.label, terms), g.members))
	}
	return clusters
}

func (s *ClusteringService) byActivity(users []*entities.SearchResult, now time.Time) []*entities.Cluster {
	members := make(map[string][]*entities.SearchResult)
	for _, r := range users {
		b := bucketFor(userActivityBuckets, now.Sub(r.CreatedAt))
		members[b.label] = append(members[b.label], r)
	}

	var clusters []*entities.Cluster
	for _, b := range userActivityBuckets {
		if len(members[b.label]) == 0 {
			continue
		}
		clusters = append(clusters, newCluster(entities.ClusterActivity, b.label+" Members",
			fmt.Sprintf("%s members of the community", b.label), "users",
			activityRelevance, members[b.label]))
	}
	return clusters
}

// finalizeCluster attaches view aggregates, the top result and a summary line.
func finalizeCluster(c *entities.Cluster) {
	c.Size = len(c.Members)
	c.TotalViews = 0
	c.TopResult = nil
	for _, m := range c.Members {
		c.TotalViews += m.Popularity
		if c.TopResult == nil || m.Popularity > c.TopResult.Popularity {
			c.TopResult = m
		}
	}
	if c.Size > 0 {
		c.AvgViews = float64(c.TotalViews) / float64(c.Size)
	}
	c.Summary = clusterSummary(c)
}

func clusterSummary(c *entities.Cluster) string {
	noun := "results"
	if c.Size == 1 {
		noun = "result"
	}
	switch c.Type {
	case entities.ClusterCategory:
		return fmt.Sprintf("%d %s in %s", c.Size, noun, c.Title)
	case entities.ClusterAuthor:
		return fmt.Sprintf("%d articles by %s", c.Size, c.Title)
	case entities.ClusterTime:
		return fmt.Sprintf("%d %s from %s", c.Size, noun, strings.ToLower(c.Title))
	case entities.ClusterTopic:
		return fmt.Sprintf("%d articles about %s", c.Size, c.Title)
	case entities.ClusterActivity:
		return fmt.Sprintf("%d %s", c.Size, strings.ToLower(c.Title))
	default:
		return fmt.Sprintf("%d %s", c.Size, noun)
	}
}
