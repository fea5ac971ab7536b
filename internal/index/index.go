// Package index builds the in-memory lookup structures over a record set and
// runs tiered queries against them.
package index

import (
	"strings"
	"unicode"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// DefaultCategory is assigned to records that arrive without a category.
const DefaultCategory = "Uncategorized"

// Index is an immutable lookup structure built from a record set.
// Full codes, values and code tokens share one key namespace.
type Index struct {
	exact      map[string][]*domain.Record
	categories map[string][]*domain.Record
	order      []string
	size       int
}

// Build indexes records in input order. It does no I/O and never mutates the records.
func Build(records []*domain.Record) *Index {
	idx := &Index{
		exact:      make(map[string][]*domain.Record, len(records)*2),
		categories: make(map[string][]*domain.Record),
	}

	for _, r := range records {
		if r == nil {
			continue
		}
		idx.size++
		idx.addToCategory(r)

		code := r.CodeLower()
		if code == "" {
			continue
		}

		keys := make(map[string]struct{}, 4)
		idx.addKey(keys, code, r)
		if value := r.ValueLower(); value != "" {
			idx.addKey(keys, value, r)
		}
		for _, token := range tokenize(code) {
			idx.addKey(keys, token, r)
		}
	}

	return idx
}

// addKey inserts r under key unless this record was already added there.
func (idx *Index) addKey(seen map[string]struct{}, key string, r *domain.Record) {
	if _, ok := seen[key]; ok {
		return
	}
	seen[key] = struct{}{}
	idx.exact[key] = append(idx.exact[key], r)
}

// CategoryOf returns the category a record is grouped under.
func CategoryOf(r *domain.Record) string {
	if r.Category == "" {
		return DefaultCategory
	}
	return r.Category
}

func (idx *Index) addToCategory(r *domain.Record) {
	category := CategoryOf(r)
	if _, ok := idx.categories[category]; !ok {
		idx.order = append(idx.order, category)
	}
	idx.categories[category] = append(idx.categories[category], r)
}

// tokenize splits a lowercased code on whitespace, underscores and hyphens.
func tokenize(code string) []string {
	return strings.FieldsFunc(code, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
}

// Lookup returns the records stored under a normalized key.
// The returned slice is shared and must not be modified.
func (idx *Index) Lookup(key string) []*domain.Record {
	return idx.exact[key]
}

// Len returns the number of indexed records.
func (idx *Index) Len() int {
	return idx.size
}

// Categories returns category names in first-seen order.
func (idx *Index) Categories() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

// Category returns a copy of the records grouped under name.
func (idx *Index) Category(name string) []*domain.Record {
	records := idx.categories[name]
	if records == nil {
		return nil
	}
	out := make([]*domain.Record, len(records))
	copy(out, records)
	return out
}

// Grouped returns a fresh category map; callers may modify it freely.
func (idx *Index) Grouped() map[string][]*domain.Record {
	out := make(map[string][]*domain.Record, len(idx.categories))
	for name := range idx.categories {
		out[name] = idx.Category(name)
	}
	return out
}
