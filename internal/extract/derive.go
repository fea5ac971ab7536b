package extract

import (
	"strings"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// Category names produced by Categorize.
const (
	CategoryErrorCodes  = "Error Codes"
	CategoryHTTP        = "HTTP"
	CategoryStatusCodes = "Status Codes"
	CategorySQL         = "SQL"
	CategoryCodes       = "Codes"
	CategoryGeneral     = "General"
)

// Tag names produced by DeriveTags.
const (
	TagError          = "error"
	TagHTTP           = "http"
	TagDatabase       = "database"
	TagAuthentication = "authentication"
	TagAPI            = "api"
	TagTimeout        = "timeout"
)

// tagRule maps keywords found in a code or description to a tag.
// descOnly keywords are only matched against the description.
type tagRule struct {
	tag      string
	keywords []string
	descOnly []string
}

// tagRules is evaluated in order; each rule contributes at most one tag.
var tagRules = []tagRule{
	{tag: TagError, keywords: []string{"error"}},
	{tag: TagHTTP, keywords: []string{"http"}},
	{tag: TagDatabase, keywords: []string{"sql"}, descOnly: []string{"database"}},
	{tag: TagAuthentication, keywords: []string{"auth"}},
	{tag: TagAPI, keywords: []string{"api"}},
	{tag: TagTimeout, keywords: []string{"timeout"}},
}

// Categorize derives a category from the naming convention of a constant.
// Rules are applied in a fixed priority order:
//   - ERROR_ prefix or _ERROR_ infix -> "Error Codes"
//   - HTTP_ prefix -> "HTTP"
//   - STATUS_ prefix -> "Status Codes"
//   - SQL_ prefix -> "SQL"
//   - _CODE infix -> "Codes"
//   - otherwise the capitalized segment before the first underscore,
//     or "General" when there is none.
func Categorize(code string) string {
	switch {
	case strings.HasPrefix(code, "ERROR_") || strings.Contains(code, "_ERROR_"):
		return CategoryErrorCodes
	case strings.HasPrefix(code, "HTTP_"):
		return CategoryHTTP
	case strings.HasPrefix(code, "STATUS_"):
		return CategoryStatusCodes
	case strings.HasPrefix(code, "SQL_"):
		return CategorySQL
	case strings.Contains(code, "_CODE"):
		return CategoryCodes
	}

	if idx := strings.IndexByte(code, '_'); idx > 0 {
		return capitalize(code[:idx])
	}
	return CategoryGeneral
}

// DeriveTags returns keyword tags found in the lowercased code and description.
// The result may be empty but is never nil.
func DeriveTags(code, description string) []string {
	lowerCode := strings.ToLower(code)
	lowerDesc := strings.ToLower(description)

	tags := make([]string, 0, 2)
	for _, rule := range tagRules {
		if ruleMatches(rule, lowerCode, lowerDesc) {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}

func ruleMatches(rule tagRule, lowerCode, lowerDesc string) bool {
	for _, kw := range rule.keywords {
		if strings.Contains(lowerCode, kw) || strings.Contains(lowerDesc, kw) {
			return true
		}
	}
	for _, kw := range rule.descOnly {
		if strings.Contains(lowerDesc, kw) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// newConstantRecord applies the shared derivation rules to an extracted constant.
// When no documentation was found the value doubles as the description, unless it
// just repeats the code.
func newConstantRecord(code, value, description string) *domain.Record {
	if description == "" && value != code {
		description = value
	}
	return domain.NewRecord(code, value, description, Categorize(code), DeriveTags(code, description))
}
