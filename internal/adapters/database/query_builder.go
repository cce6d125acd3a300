package database

import (
	"context"
	"database/sql"
	"strings"
	"unicode/utf8"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/entities"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/domain/repositories"
	"github.com/drkhalidabdullah/islamwiki-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/drkhalidabdullah/islamwiki-sub001/pkg/errors"
)

// pg renders prepared postgres statements; user input is always bound.
var pg = goqu.Dialect("postgres")

const (
	excerptLength    = 200
	titleLength      = 80
	maxSuggestLimit  = 20
	rankBucketColumn = "rank_bucket"
)

// searchFields names the columns one content collection is matched and
// ordered by. Nil fields are skipped.
type searchFields struct {
	Title   exp.IdentifierExpression
	Excerpt exp.IdentifierExpression
	Body    exp.IdentifierExpression
	Others  []exp.IdentifierExpression

	Popularity exp.IdentifierExpression
	Recency    exp.IdentifierExpression
	Created    exp.IdentifierExpression
	ID         exp.IdentifierExpression
}

func (f searchFields) textFields() []exp.IdentifierExpression {
	var out []exp.IdentifierExpression
	for _, field := range []exp.IdentifierExpression{f.Title, f.Excerpt, f.Body} {
		if field != nil {
			out = append(out, field)
		}
	}
	return append(out, f.Others...)
}

// escapeLike escapes LIKE metacharacters so input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

func prefixPattern(s string) string {
	return escapeLike(s) + "%"
}

// anyFieldContains is an OR across fields of a case-insensitive substring test.
func anyFieldContains(fields []exp.IdentifierExpression, text string) exp.ExpressionList {
	pattern := containsPattern(text)
	ors := make([]exp.Expression, 0, len(fields))
	for _, field := range fields {
		ors = append(ors, field.ILike(pattern))
	}
	return goqu.Or(ors...)
}

// matchExpression builds the text predicate of a filter. The phrase policy
// ORs the full phrase across fields; the all-terms policy requires every
// term in at least one field. It returns nil when the filter has no text.
func (f searchFields) matchExpression(filter repositories.ContentSearchFilter) exp.Expression {
	if !filter.HasText() {
		return nil
	}
	fields := f.textFields()
	if filter.Policy == repositories.MatchAllTermsAnyField {
		ands := make([]exp.Expression, 0, len(filter.Terms))
		for _, term := range filter.Terms {
			ands = append(ands, anyFieldContains(fields, term))
		}
		return goqu.And(ands...)
	}
	return anyFieldContains(fields, filter.Phrase)
}

// relevanceBucket mirrors the in-memory rank buckets: title prefix, title
// substring, excerpt, body, no direct match.
func (f searchFields) relevanceBucket(phrase string) exp.AliasedExpression {
	if phrase == "" {
		return goqu.L("5").As(rankBucketColumn)
	}
	c := goqu.Case()
	contains := containsPattern(phrase)
	if f.Title != nil {
		c = c.When(f.Title.ILike(prefixPattern(phrase)), goqu.L("1")).
			When(f.Title.ILike(contains), goqu.L("2"))
	}
	if f.Excerpt != nil {
		c = c.When(f.Excerpt.ILike(contains), goqu.L("3"))
	}
	if f.Body != nil {
		c = c.When(f.Body.ILike(contains), goqu.L("4"))
	}
	return c.Else(goqu.L("5")).As(rankBucketColumn)
}

// bucketPhrase is the text the relevance bucket is computed against.
func bucketPhrase(filter repositories.ContentSearchFilter) string {
	if filter.Phrase != "" {
		return filter.Phrase
	}
	return strings.Join(filter.Terms, " ")
}

// orderBy maps a sort mode to columns. Every mode ends on the id so equal
// keys never come back in arbitrary order.
func (f searchFields) orderBy(filter repositories.ContentSearchFilter) []exp.OrderedExpression {
	var order []exp.OrderedExpression
	popularityThenRecency := func() {
		if f.Popularity != nil {
			order = append(order, f.Popularity.Desc().NullsLast())
		}
		if f.Recency != nil {
			order = append(order, f.Recency.Desc().NullsLast())
		}
	}

	switch filter.Sort {
	case entities.SortTitle:
		order = append(order, f.Title.Asc())
		return append(order, f.ID.Asc())
	case entities.SortDateOldest:
		order = append(order, f.Created.Asc())
		return append(order, f.ID.Asc())
	case entities.SortDate, entities.SortDateNewest:
		order = append(order, f.Created.Desc())
	case entities.SortViews, entities.SortPopularity:
		popularityThenRecency()
	default:
		if filter.HasText() {
			order = append(order, goqu.I(rankBucketColumn).Asc())
		}
		popularityThenRecency()
	}
	return append(order, f.ID.Desc())
}

// contentQueries is the pair of statements behind one adapter lookup.
type contentQueries struct {
	Data  *goqu.SelectDataset
	Count *goqu.SelectDataset
}

// buildContentQueries applies the text predicate, ordering and pagination to
// base. The count statement shares the predicate and ignores pagination.
func buildContentQueries(base *goqu.SelectDataset, fields searchFields, filter repositories.ContentSearchFilter, columns ...interface{}) contentQueries {
	if match := fields.matchExpression(filter); match != nil {
		base = base.Where(match)
	}

	columns = append(columns, fields.relevanceBucket(bucketPhrase(filter)))
	data := base.Select(columns...).Order(fields.orderBy(filter)...)
	if filter.Limit > 0 {
		data = data.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		data = data.Offset(uint(filter.Offset))
	}

	return contentQueries{
		Data:  data.Prepared(true),
		Count: base.Select(goqu.COUNT(goqu.Star())).Prepared(true),
	}
}

type rowScanner func(rows *sql.Rows) (*entities.SearchResult, error)

// runContentQueries executes both statements and scans the page.
func runContentQueries(ctx context.Context, client *postgres.Client, ct entities.ContentType, q contentQueries, scan rowScanner) (*repositories.ContentPage, error) {
	countSQL, countArgs, err := q.Count.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build count query for "+string(ct), err)
	}

	page := &repositories.ContentPage{}
	if err := client.DB().QueryRowContext(ctx, countSQL, countArgs...).Scan(&page.TotalCount); err != nil {
		return nil, apperrors.NewInternalError("failed to count "+string(ct), err)
	}
	if page.TotalCount == 0 {
		return page, nil
	}

	query, args, err := q.Data.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build search query for "+string(ct), err)
	}

	rows, err := client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search "+string(ct), err)
	}
	defer rows.Close()

	for rows.Next() {
		result, err := scan(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan "+string(ct)+" result", err)
		}
		result.ContentType = ct
		page.Results = append(page.Results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate "+string(ct)+" results", err)
	}

	return page, nil
}

// suggestionScores are the fixed relevance values of one content type's
// autocomplete match classes.
type suggestionScores struct {
	Prefix    int
	Primary   int
	Secondary int
	Fallback  int
}

var (
	articleSuggestionScores = suggestionScores{Prefix: 100, Primary: 90, Secondary: 70, Fallback: 50}
	userSuggestionScores    = suggestionScores{Prefix: 100, Primary: 80, Secondary: 60, Fallback: 40}
	defaultSuggestionScores = suggestionScores{Prefix: 100, Primary: 80, Secondary: 60, Fallback: 40}
)

// score classifies a candidate. Only the first primary field is tested for
// a prefix match.
func (s suggestionScores) score(partial string, primary []string, secondary []string) int {
	p := strings.ToLower(partial)
	if len(primary) > 0 && strings.HasPrefix(strings.ToLower(primary[0]), p) {
		return s.Prefix
	}
	for _, field := range primary {
		if strings.Contains(strings.ToLower(field), p) {
			return s.Primary
		}
	}
	for _, field := range secondary {
		if strings.Contains(strings.ToLower(field), p) {
			return s.Secondary
		}
	}
	return s.Fallback
}

func clampSuggestLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > maxSuggestLimit {
		return maxSuggestLimit
	}
	return limit
}

// suggestQuery selects candidates whose text fields contain partial, most
// popular first.
func suggestQuery(base *goqu.SelectDataset, fields searchFields, partial string, limit int, columns ...interface{}) *goqu.SelectDataset {
	ds := base.Select(columns...).Where(anyFieldContains(fields.textFields(), partial))
	var order []exp.OrderedExpression
	if fields.Popularity != nil {
		order = append(order, fields.Popularity.Desc().NullsLast())
	}
	order = append(order, fields.ID.Desc())
	return ds.Order(order...).Limit(uint(clampSuggestLimit(limit))).Prepared(true)
}

// runSuggestQuery executes a suggestion statement.
func runSuggestQuery(ctx context.Context, client *postgres.Client, ct entities.ContentType, ds *goqu.SelectDataset, scan func(rows *sql.Rows) (*entities.Suggestion, error)) ([]*entities.Suggestion, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build suggestion query for "+string(ct), err)
	}

	rows, err := client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to fetch "+string(ct)+" suggestions", err)
	}
	defer rows.Close()

	var suggestions []*entities.Suggestion
	for rows.Next() {
		s, err := scan(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan "+string(ct)+" suggestion", err)
		}
		s.Type = entities.SuggestionContent
		s.ContentType = ct
		suggestions = append(suggestions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate "+string(ct)+" suggestions", err)
	}
	return suggestions, nil
}

// truncateText shortens s to at most n runes, appending an ellipsis.
func truncateText(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
