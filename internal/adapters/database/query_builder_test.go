package database

import (
	"context"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
)

func renderSQL(t *testing.T, ds *goqu.SelectDataset) (string, []interface{}) {
	t.Helper()
	query, args, err := ds.ToSQL()
	require.NoError(t, err)
	return query, args
}

func int64Ptr(v int64) *int64 { return &v }

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_a\\b`, escapeLike(`100%_a\b`))
	assert.Equal(t, `%salah%`, containsPattern("salah"))
	assert.Equal(t, `sal\_ah%`, prefixPattern("sal_ah"))
}

func TestArticleQueries_Visibility(t *testing.T) {
	adapter := &ArticleAdapter{}

	t.Run("published only by default", func(t *testing.T) {
		q := adapter.buildQueries(repositories.ContentSearchFilter{Phrase: "prayer", Sort: entities.SortRelevance, Limit: 20})
		query, args := renderSQL(t, q.Data)

		assert.Contains(t, query, `"a"."status" = $`)
		assert.Contains(t, args, "published")
	})

	t.Run("drafts lift the status filter", func(t *testing.T) {
		q := adapter.buildQueries(repositories.ContentSearchFilter{Phrase: "prayer", IncludeDrafts: true})
		query, args := renderSQL(t, q.Data)

		assert.NotContains(t, query, `"a"."status"`)
		assert.NotContains(t, args, "published")
	})

	t.Run("category filter", func(t *testing.T) {
		q := adapter.buildQueries(repositories.ContentSearchFilter{CategoryID: int64Ptr(3)})
		query, args := renderSQL(t, q.Count)

		assert.Contains(t, query, `"a"."category_id" = $`)
		assert.Contains(t, args, int64(3))
	})
}

func TestUncategorizedAdapters_CategoryFilterMatchesNothing(t *testing.T) {
	filter := repositories.ContentSearchFilter{
		Phrase:     "prayer",
		Terms:      []string{"prayer"},
		CategoryID: int64Ptr(4),
		ActorID:    int64Ptr(7),
		Limit:      20,
	}

	adapters := []repositories.ContentSearchRepository{
		&UserAdapter{},
		&PostAdapter{},
		&GroupAdapter{},
		&EventAdapter{},
		&MessageAdapter{},
	}
	for _, adapter := range adapters {
		t.Run(string(adapter.ContentType()), func(t *testing.T) {
			// nil client: any query would panic
			page, err := adapter.Search(context.Background(), filter)

			require.NoError(t, err)
			assert.Empty(t, page.Results)
			assert.Zero(t, page.TotalCount)
		})
	}
}

func TestArticleQueries_MatchPolicy(t *testing.T) {
	adapter := &ArticleAdapter{}

	t.Run("phrase across fields", func(t *testing.T) {
		q := adapter.buildQueries(repositories.ContentSearchFilter{
			Phrase: "prayer times",
			Terms:  []string{"prayer", "times"},
			Policy: repositories.MatchPhraseAnyField,
		})
		query, args := renderSQL(t, q.Count)

		assert.Contains(t, query, "ILIKE")
		assert.Contains(t, query, " OR ")
		assert.Contains(t, args, "%prayer times%")
		assert.NotContains(t, args, "%times%")
	})

	t.Run("every term in some field", func(t *testing.T) {
		q := adapter.buildQueries(repositories.ContentSearchFilter{
			Phrase: "prayer times",
			Terms:  []string{"prayer", "times"},
			Policy: repositories.MatchAllTermsAnyField,
		})
		query, args := renderSQL(t, q.Count)

		assert.Contains(t, query, " AND ")
		assert.Contains(t, args, "%prayer%")
		assert.Contains(t, args, "%times%")
	})

	t.Run("no text means no text predicate", func(t *testing.T) {
		q := adapter.buildQueries(repositories.ContentSearchFilter{})
		query, _ := renderSQL(t, q.Count)
		assert.NotContains(t, query, "ILIKE")

		data, _ := renderSQL(t, q.Data)
		assert.NotContains(t, data, "CASE")
		assert.NotContains(t, data, `"rank_bucket" ASC`)
	})

	t.Run("user input is bound, never interpolated", func(t *testing.T) {
		q := adapter.buildQueries(repositories.ContentSearchFilter{Phrase: "x'; DROP TABLE articles; --"})
		query, _ := renderSQL(t, q.Data)
		assert.NotContains(t, query, "DROP TABLE")
	})
}

func TestArticleQueries_Ordering(t *testing.T) {
	adapter := &ArticleAdapter{}
	base := repositories.ContentSearchFilter{Phrase: "prayer", Limit: 10, Offset: 20}

	cases := []struct {
		sort entities.SortMode
		want string
	}{
		{entities.SortRelevance, `ORDER BY "rank_bucket" ASC, "a"."view_count" DESC NULLS LAST, "a"."updated_at" DESC NULLS LAST, "a"."id" DESC`},
		{entities.SortTitle, `ORDER BY "a"."title" ASC, "a"."id" ASC`},
		{entities.SortDate, `ORDER BY "a"."created_at" DESC, "a"."id" DESC`},
		{entities.SortDateNewest, `ORDER BY "a"."created_at" DESC, "a"."id" DESC`},
		{entities.SortDateOldest, `ORDER BY "a"."created_at" ASC, "a"."id" ASC`},
		{entities.SortViews, `ORDER BY "a"."view_count" DESC NULLS LAST, "a"."updated_at" DESC NULLS LAST, "a"."id" DESC`},
		{entities.SortPopularity, `ORDER BY "a"."view_count" DESC NULLS LAST, "a"."updated_at" DESC NULLS LAST, "a"."id" DESC`},
	}

	for _, tc := range cases {
		t.Run(string(tc.sort), func(t *testing.T) {
			filter := base
			filter.Sort = tc.sort
			query, _ := renderSQL(t, adapter.buildQueries(filter).Data)
			assert.Contains(t, query, tc.want)
			assert.Contains(t, query, "LIMIT")
			assert.Contains(t, query, "OFFSET")
		})
	}
}

func TestArticleQueries_RelevanceBucket(t *testing.T) {
	q := (&ArticleAdapter{}).buildQueries(repositories.ContentSearchFilter{Phrase: "prayer"})
	query, args := renderSQL(t, q.Data)

	assert.Contains(t, query, "CASE WHEN")
	assert.Contains(t, query, `AS "rank_bucket"`)
	assert.Contains(t, args, "prayer%")
	assert.Contains(t, args, "%prayer%")
}

func TestCountQuery_IgnoresPagination(t *testing.T) {
	q := (&ArticleAdapter{}).buildQueries(repositories.ContentSearchFilter{Phrase: "fiqh", Limit: 10, Offset: 30})
	query, _ := renderSQL(t, q.Count)

	assert.Contains(t, query, "COUNT(*)")
	assert.NotContains(t, query, "ORDER BY")
	assert.NotContains(t, query, "LIMIT")
	assert.NotContains(t, query, "OFFSET")
}

func TestUserQueries_ActiveAndNotBanned(t *testing.T) {
	q := (&UserAdapter{}).buildQueries(repositories.ContentSearchFilter{Phrase: "ahmad"})
	query, _ := renderSQL(t, q.Count)

	assert.Contains(t, query, `"u"."is_active" IS TRUE`)
	assert.Contains(t, query, `"u"."is_banned" IS FALSE`)
	assert.Contains(t, query, `"u"."bio" ILIKE`)
}

func TestPostQueries_Visibility(t *testing.T) {
	adapter := &PostAdapter{}

	t.Run("anonymous sees public posts", func(t *testing.T) {
		query, _ := renderSQL(t, adapter.buildQueries(repositories.ContentSearchFilter{}).Count)
		assert.Contains(t, query, `"p"."is_public" IS TRUE`)
		assert.NotContains(t, query, `"p"."user_id" = $`)
	})

	t.Run("actor also sees own posts", func(t *testing.T) {
		query, args := renderSQL(t, adapter.buildQueries(repositories.ContentSearchFilter{ActorID: int64Ptr(7)}).Count)
		assert.Contains(t, query, `"p"."is_public" IS TRUE`)
		assert.Contains(t, query, `"p"."user_id" = $`)
		assert.Contains(t, args, int64(7))
	})
}

func TestGroupQueries_SecretGroups(t *testing.T) {
	adapter := &GroupAdapter{}

	query, args := renderSQL(t, adapter.buildQueries(repositories.ContentSearchFilter{}).Count)
	assert.Contains(t, query, `"g"."privacy" != $`)
	assert.Contains(t, args, "secret")
	assert.NotContains(t, query, "group_members")

	query, args = renderSQL(t, adapter.buildQueries(repositories.ContentSearchFilter{ActorID: int64Ptr(4)}).Count)
	assert.Contains(t, query, "EXISTS (SELECT 1 FROM group_members")
	assert.Contains(t, args, int64(4))
}

func TestEventQueries_SearchesLocation(t *testing.T) {
	query, _ := renderSQL(t, (&EventAdapter{}).buildQueries(repositories.ContentSearchFilter{Phrase: "london"}).Count)
	assert.Contains(t, query, `"e"."is_public" IS TRUE`)
	assert.Contains(t, query, `"e"."location" ILIKE`)
}

func TestCommunityQueries_PublishedOnly(t *testing.T) {
	query, args := renderSQL(t, (&CommunityAdapter{}).buildQueries(repositories.ContentSearchFilter{Phrase: "zakat"}).Count)
	assert.Contains(t, query, `"cc"."status" = $`)
	assert.Contains(t, args, "published")
}

func TestMessageAdapter_RequiresActor(t *testing.T) {
	adapter := &MessageAdapter{}

	page, err := adapter.Search(context.Background(), repositories.ContentSearchFilter{Phrase: "salam"})
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Zero(t, page.TotalCount)

	query, args := renderSQL(t, adapter.buildQueries(9, repositories.ContentSearchFilter{Phrase: "salam"}).Count)
	assert.Contains(t, query, `"m"."sender_id" = $`)
	assert.Contains(t, query, `"m"."recipient_id" = $`)
	assert.Contains(t, args, int64(9))
}

func TestSuggestionScores(t *testing.T) {
	t.Run("articles", func(t *testing.T) {
		s := articleSuggestionScores
		assert.Equal(t, 100, s.score("pray", []string{"Prayer Times"}, []string{""}))
		assert.Equal(t, 90, s.score("times", []string{"Prayer Times"}, []string{""}))
		assert.Equal(t, 70, s.score("dawn", []string{"Fajr"}, []string{"The prayer at dawn"}))
		assert.Equal(t, 50, s.score("wudu", []string{"Fajr"}, []string{"The prayer at dawn"}))
	})

	t.Run("users", func(t *testing.T) {
		s := userSuggestionScores
		assert.Equal(t, 100, s.score("abd", []string{"abdullah", "Abdullah Khan"}, []string{""}))
		assert.Equal(t, 80, s.score("khan", []string{"abdullah", "Abdullah Khan"}, []string{""}))
		assert.Equal(t, 60, s.score("hadith", []string{"abdullah", ""}, []string{"Student of hadith"}))
		assert.Equal(t, 40, s.score("zzz", []string{"abdullah", ""}, []string{""}))
	})
}

func TestSuggestQuery(t *testing.T) {
	ds := suggestQuery((&ArticleAdapter{}).base(repositories.ContentSearchFilter{}), articleFields, "isl", 500, "a.title")
	query, args := renderSQL(t, ds)
	assert.Contains(t, query, `ORDER BY "a"."view_count" DESC NULLS LAST, "a"."id" DESC`)
	assert.Contains(t, args, "%isl%")
	assert.Contains(t, args, "published")

	assert.Equal(t, 1, clampSuggestLimit(0))
	assert.Equal(t, 7, clampSuggestLimit(7))
	assert.Equal(t, maxSuggestLimit, clampSuggestLimit(500))
}

func TestIncrementQuery_IsAtomicUpsert(t *testing.T) {
	query, args, err := incrementQuery("islam", entities.ContentTypeAll).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO")
	assert.Contains(t, query, "ON CONFLICT (suggestion_text, content_type) DO UPDATE SET")
	assert.Contains(t, query, "suggestion_stats.search_count + 1")
	assert.Contains(t, args, "islam")
	assert.Contains(t, args, "all")
}

func TestWindowStatsQuery(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	query, args := renderSQL(t, windowStatsQuery("Prayer ", from, to))
	assert.Contains(t, query, `COUNT(DISTINCT("user_id"))`)
	assert.Contains(t, query, "FILTER (WHERE results_count > 0)")
	assert.Contains(t, query, `LOWER("query_text")`)
	assert.Contains(t, args, "prayer")

	query, _ = renderSQL(t, windowStatsQuery("", from, to))
	assert.NotContains(t, query, "LOWER")
}

func TestSimilarQueriesQuery(t *testing.T) {
	query, args := renderSQL(t, similarQueriesQuery([]string{"prayer", "times"}, "Prayer Times", 5))
	assert.Contains(t, query, "GROUP BY")
	assert.Contains(t, query, "HAVING")
	assert.Contains(t, query, `ORDER BY "avg_results" DESC, "frequency" DESC`)
	assert.Contains(t, args, "%prayer%")
	assert.Contains(t, args, "prayer times")
}

func TestRelatedCategoriesQuery(t *testing.T) {
	query, args := renderSQL(t, relatedCategoriesQuery([]string{"fasting"}, 3))
	assert.Contains(t, query, `"c"."is_active" IS TRUE`)
	assert.Contains(t, query, `ORDER BY "article_count" DESC, "c"."name" ASC`)
	assert.Contains(t, args, "%fasting%")
	assert.Contains(t, args, "published")
}

func TestRecentViewsQuery(t *testing.T) {
	query, args := renderSQL(t, recentViewsQuery(12, 50))
	assert.Contains(t, query, `"content_views" AS "v"`)
	assert.Contains(t, query, `ORDER BY "v"."viewed_at" DESC`)
	assert.Contains(t, args, int64(12))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("  short ", 10))
	assert.Equal(t, "abcde...", truncateText("abcdefghij", 5))
	assert.Equal(t, "صلاة...", truncateText("صلاةالفجر", 4))
}
