package domain

import "strings"

// Record represents one constant discovered in a reference source.
// It is the unit produced by extraction, stored in the index and returned by search.
//
// Records are treated as immutable once built with NewRecord; identity is the pointer,
// so two records with equal fields that came from different declarations stay distinct.
type Record struct {
	// Code is the declared identifier, e.g. "HTTP_OK". Never empty.
	Code string `json:"code" yaml:"code"`

	// Value is the literal value when it can be determined statically.
	// Example: "200", "SQL1001", "Duration.ofSeconds(30)"
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Description is the documentation associated with the declaration.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Category is derived from the naming convention of Code.
	// Example: "Error Codes", "HTTP", "General"
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Tags are keyword tags derived from Code and Description.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	codeLower        string
	descriptionLower string
	valueLower       string
}

// Field name constants shared by dataset codecs and tool output.
const (
	FieldCode        = "code"
	FieldValue       = "value"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldTags        = "tags"
)

// NewRecord builds a Record and computes its lowercase search projections.
// Tags are deduplicated preserving first-seen order; nil tags become an empty set.
func NewRecord(code, value, description, category string, tags []string) *Record {
	r := &Record{
		Code:        code,
		Value:       value,
		Description: description,
		Category:    category,
		Tags:        dedupeTags(tags),
	}
	r.codeLower = strings.ToLower(code)
	r.descriptionLower = strings.ToLower(description)
	r.valueLower = strings.ToLower(value)
	return r
}

// CodeLower returns the lowercase projection of Code.
func (r *Record) CodeLower() string {
	return r.codeLower
}

// DescriptionLower returns the lowercase projection of Description.
func (r *Record) DescriptionLower() string {
	return r.descriptionLower
}

// ValueLower returns the lowercase projection of Value.
func (r *Record) ValueLower() string {
	return r.valueLower
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// String renders the record as "CODE (value) - description".
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.Code)
	if r.Value != "" {
		sb.WriteString(" (")
		sb.WriteString(r.Value)
		sb.WriteString(")")
	}
	sb.WriteString(" - ")
	sb.WriteString(r.Description)
	return sb.String()
}

func dedupeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
