package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

func codes(records []*domain.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Code)
	}
	return out
}

func searchFixture() []*domain.Record {
	return []*domain.Record{
		rec("ERROR_UNKNOWN", "Unknown Error", "Error occurred while handling http_ok mapping", "Error Codes"),
		rec("HTTP_OK", "200", "The request has succeeded", "HTTP"),
		rec("HTTP_NOT_FOUND", "404", "Resource not found", "HTTP"),
		rec("SQL_ERROR_SYNTAX", "SQL1001", "Invalid SQL syntax", "Error Codes"),
		rec("MAX_RETRIES", "5", "Maximum number of retries", "Max"),
	}
}

func TestSearch_ExactTierFirst(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	results, stats := SearchWithStats(idx, records, "http_ok", 0)
	assert.Equal(t, []string{"HTTP_OK", "ERROR_UNKNOWN"}, codes(results))
	assert.Equal(t, 1, stats.Matched[TierExact])
	assert.Equal(t, 1, stats.Matched[TierSubstring])
	assert.False(t, stats.Ran(TierFuzzy))
}

func TestSearch_CaseAndWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	assert.Equal(t, Search(idx, records, "http_ok", 0), Search(idx, records, "  HTTP_OK \t", 0))
}

func TestSearch_ValueAndTokenLookup(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	assert.Equal(t, []string{"HTTP_NOT_FOUND"}, codes(Search(idx, records, "404", 0)))

	results := Search(idx, records, "http", 0)
	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, []string{"HTTP_OK", "HTTP_NOT_FOUND"}, codes(results[:2]))
}

func TestSearch_SubstringTierOrderAndFields(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	// "syntax" is a token of SQL_ERROR_SYNTAX and appears nowhere else.
	assert.Equal(t, []string{"SQL_ERROR_SYNTAX"}, codes(Search(idx, records, "syntax", 0)))

	// matches descriptions only, in record order
	results, stats := SearchWithStats(idx, records, "resource", 0)
	assert.Equal(t, []string{"HTTP_NOT_FOUND"}, codes(results))
	assert.Equal(t, 0, stats.Matched[TierExact])
	assert.Equal(t, 1, stats.Matched[TierSubstring])

	// value substring
	assert.Equal(t, []string{"SQL_ERROR_SYNTAX"}, codes(Search(idx, records, "sql100", 0)))
}

func TestSearch_FuzzyFallback(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	results, stats := SearchWithStats(idx, records, "hok", 0)
	assert.Equal(t, []string{"HTTP_OK"}, codes(results))
	assert.True(t, stats.Ran(TierFuzzy))
	assert.Equal(t, 1, stats.Matched[TierFuzzy])
	assert.Zero(t, stats.Matched[TierExact])
	assert.Zero(t, stats.Matched[TierSubstring])
}

func TestSearch_FuzzyNotRunWhenEarlierTierMatched(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	// "retries" matches MAX_RETRIES by token; "mrs" would fuzzy-match it too.
	_, stats := SearchWithStats(idx, records, "retries", 0)
	assert.False(t, stats.Ran(TierFuzzy))

	// substring-only hit also suppresses the fuzzy tier
	_, stats = SearchWithStats(idx, records, "maximum", 0)
	assert.Equal(t, 1, stats.Matched[TierSubstring])
	assert.False(t, stats.Ran(TierFuzzy))
}

func TestSearch_NoDuplicates(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	// HTTP_OK matches both exact ("200" value) and substring ("200") tiers.
	results := Search(idx, records, "200", 0)
	assert.Equal(t, []string{"HTTP_OK"}, codes(results))

	seen := make(map[*domain.Record]bool)
	for _, r := range Search(idx, records, "e", 0) {
		assert.False(t, seen[r], "duplicate %s", r.Code)
		seen[r] = true
	}
}

func TestSearch_IdentityNotValueDedupe(t *testing.T) {
	t.Parallel()

	a := rec("DUP_CODE", "1", "same", "Dup")
	b := rec("DUP_CODE", "1", "same", "Dup")
	records := []*domain.Record{a, b}
	idx := Build(records)

	results := Search(idx, records, "dup_code", 0)
	require.Len(t, results, 2)
	assert.Same(t, a, results[0])
	assert.Same(t, b, results[1])
}

func TestSearch_LimitEnforced(t *testing.T) {
	t.Parallel()

	var records []*domain.Record
	for i := 0; i < 10; i++ {
		records = append(records, rec(fmt.Sprintf("HTTP_CODE_%d", i), fmt.Sprint(i), "", "HTTP"))
	}
	extra := rec("OTHER", "x", "mentions http", "Other")
	records = append(records, extra)
	idx := Build(records)

	results := Search(idx, records, "http", 3)
	assert.Equal(t, []string{"HTTP_CODE_0", "HTTP_CODE_1", "HTTP_CODE_2"}, codes(results))

	results, stats := SearchWithStats(idx, records, "http", 3)
	assert.Len(t, results, 3)
	assert.False(t, stats.Ran(TierSubstring), "substring tier skipped once limit is reached")

	unbounded := Search(idx, records, "http", 0)
	assert.Len(t, unbounded, 11)
	assert.Same(t, extra, unbounded[10], "substring matches follow exact matches")

	assert.Len(t, Search(idx, records, "http", -1), 11)
}

func TestSearch_BlankQuery(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	for _, q := range []string{"", "   ", "\t\n"} {
		results, stats := SearchWithStats(idx, records, q, 10)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		assert.Empty(t, stats.Tiers, "no tier runs for %q", q)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	t.Parallel()

	records := searchFixture()
	idx := Build(records)

	results, stats := SearchWithStats(idx, records, "zzz", 0)
	assert.Empty(t, results)
	assert.Equal(t, []Tier{TierExact, TierSubstring, TierFuzzy}, stats.Tiers)
}

func TestSearch_EmptySnapshot(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Search(nil, nil, "anything", 5))
	assert.Empty(t, Search(Build(nil), nil, "anything", 5))
}

func TestFuzzyMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query  string
		target string
		want   bool
	}{
		{query: "hok", target: "http_ok", want: true},
		{query: "http_ok", target: "http_ok", want: true},
		{query: "koh", target: "http_ok", want: false},
		{query: "hokk", target: "http_ok", want: false},
		{query: "", target: "anything", want: true},
		{query: "a", target: "", want: false},
		{query: "erx", target: "error_syntax", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, FuzzyMatch(tt.query, tt.target))
		})
	}
}

func TestTierString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "exact", TierExact.String())
	assert.Equal(t, "substring", TierSubstring.String())
	assert.Equal(t, "fuzzy", TierFuzzy.String())
	assert.Equal(t, "unknown", Tier(9).String())
}

func BenchmarkSearch(b *testing.B) {
	var records []*domain.Record
	for i := 0; i < 5000; i++ {
		records = append(records, rec(fmt.Sprintf("CODE_%05d_VALUE", i), fmt.Sprint(i), fmt.Sprintf("Description %d", i), "Codes"))
	}
	idx := Build(records)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Search(idx, records, "code_04999_value", 20)
	}
}
