package index

import (
	"strings"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// Tier identifies one stage of the search policy.
type Tier int

const (
	// TierExact looks the query up in the code/value/token map.
	TierExact Tier = iota
	// TierSubstring scans code, description and value for the query.
	TierSubstring
	// TierFuzzy matches the query as a subsequence of the code.
	TierFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierSubstring:
		return "substring"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// Stats reports how a query was served.
type Stats struct {
	Tiers   []Tier
	Matched map[Tier]int
}

// Ran reports whether the given tier was executed.
func (s Stats) Ran(tier Tier) bool {
	for _, t := range s.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Search runs a tiered query over records. A limit <= 0 means unbounded.
func Search(idx *Index, records []*domain.Record, query string, limit int) []*domain.Record {
	results, _ := SearchWithStats(idx, records, query, limit)
	return results
}

// SearchWithStats is Search that also reports which tiers ran.
//
// Tiers run in order and each only while the result set is under limit.
// The fuzzy tier only runs when the first two tiers found nothing at all.
// Records are deduplicated by identity, keeping the position of the earliest
// tier that matched them.
func SearchWithStats(idx *Index, records []*domain.Record, query string, limit int) ([]*domain.Record, Stats) {
	stats := Stats{Matched: make(map[Tier]int, 3)}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*domain.Record{}, stats
	}

	rs := newResultSet(limit)

	stats.Tiers = append(stats.Tiers, TierExact)
	if idx != nil {
		for _, r := range idx.Lookup(q) {
			if rs.full() {
				break
			}
			if rs.add(r) {
				stats.Matched[TierExact]++
			}
		}
	}

	if !rs.full() {
		stats.Tiers = append(stats.Tiers, TierSubstring)
		for _, r := range records {
			if rs.full() {
				break
			}
			if r == nil || rs.has(r) {
				continue
			}
			if strings.Contains(r.CodeLower(), q) ||
				strings.Contains(r.DescriptionLower(), q) ||
				strings.Contains(r.ValueLower(), q) {
				rs.add(r)
				stats.Matched[TierSubstring]++
			}
		}
	}

	if rs.len() == 0 {
		stats.Tiers = append(stats.Tiers, TierFuzzy)
		for _, r := range records {
			if rs.full() {
				break
			}
			if r != nil && FuzzyMatch(q, r.CodeLower()) {
				rs.add(r)
				stats.Matched[TierFuzzy]++
			}
		}
	}

	return rs.items, stats
}

// FuzzyMatch reports whether every character of query appears in target in order.
// Both arguments are expected to be lowercased already.
func FuzzyMatch(query, target string) bool {
	if query == "" {
		return true
	}
	qi := 0
	q := []rune(query)
	for _, c := range target {
		if c == q[qi] {
			qi++
			if qi == len(q) {
				return true
			}
		}
	}
	return false
}

// resultSet is an insertion-ordered identity set with an optional cap.
type resultSet struct {
	items []*domain.Record
	seen  map[*domain.Record]struct{}
	limit int
}

func newResultSet(limit int) *resultSet {
	capacity := limit
	if capacity <= 0 || capacity > 64 {
		capacity = 16
	}
	return &resultSet{
		items: make([]*domain.Record, 0, capacity),
		seen:  make(map[*domain.Record]struct{}, capacity),
		limit: limit,
	}
}

func (s *resultSet) add(r *domain.Record) bool {
	if r == nil || s.full() {
		return false
	}
	if _, ok := s.seen[r]; ok {
		return false
	}
	s.seen[r] = struct{}{}
	s.items = append(s.items, r)
	return true
}

func (s *resultSet) has(r *domain.Record) bool {
	_, ok := s.seen[r]
	return ok
}

func (s *resultSet) full() bool {
	return s.limit > 0 && len(s.items) >= s.limit
}

func (s *resultSet) len() int {
	return len(s.items)
}
