package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// declarationPattern matches a single-line constant declaration:
//
//	[@Annotation] <modifiers> <type> <IDENT> = <initializer>;
//
// String and char literals inside the initializer may contain ';'.
var declarationPattern = regexp.MustCompile(
	`^(?:@[\w.]+(?:\([^)]*\))?\s+)*` +
		`((?:(?:public|protected|private|static|final|transient|volatile)\s+)+)` +
		`([\w$.]+(?:\s*<[^=;]*?>)?(?:\s*\[\s*\])*)\s+` +
		`([A-Za-z_$][\w$]*)\s*=\s*` +
		`((?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|[^;"'])+?)\s*;`,
)

// checkInterval is how many lines are scanned between context checks.
const checkInterval = 1000

// TextExtractor recovers constants from declaration text with regular expressions.
// It needs nothing but the raw lines and is the fallback for every other strategy.
type TextExtractor struct{}

// NewTextExtractor creates a new regex-based extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Name returns the strategy name.
func (e *TextExtractor) Name() string {
	return StrategyText
}

// declaration is a matched constant declaration line.
type declaration struct {
	name     string
	value    string
	trailing string
}

// Extract scans the source line by line and returns one record per matched declaration.
// Lines that do not match the declaration pattern are skipped.
func (e *TextExtractor) Extract(ctx context.Context, source []byte) ([]*domain.Record, error) {
	content := strings.ReplaceAll(string(source), "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var records []*domain.Record
	for i, raw := range lines {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "package ") || strings.HasPrefix(line, "import ") {
			continue
		}

		decl, ok := parseDeclaration(line)
		if !ok {
			continue
		}

		description := precedingComment(lines, i)
		if description == "" {
			description = decl.trailing
		}

		records = append(records, newConstantRecord(decl.name, decl.value, description))
	}

	return records, nil
}

// parseDeclaration matches a trimmed line against the declaration pattern.
func parseDeclaration(line string) (declaration, bool) {
	loc := declarationPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return declaration{}, false
	}

	modifiers := strings.Fields(line[loc[2]:loc[3]])
	if !hasModifier(modifiers, "static") || !hasModifier(modifiers, "final") {
		return declaration{}, false
	}

	decl := declaration{
		name:  line[loc[6]:loc[7]],
		value: normalizeValue(line[loc[8]:loc[9]]),
	}
	decl.trailing = trailingComment(line[loc[1]:])
	return decl, true
}

// trailingComment returns the text of a comment following the terminator, if any.
func trailingComment(rest string) string {
	rest = strings.TrimSpace(rest)
	switch {
	case strings.HasPrefix(rest, "//"):
		return cleanLineComment(rest)
	case strings.HasPrefix(rest, "/*"):
		return cleanBlockComment(rest)
	}
	return ""
}

// precedingComment searches backwards from a declaration for its documentation.
// Blank lines and annotation lines are skipped; the first comment found wins and
// any other code line stops the search.
func precedingComment(lines []string, idx int) string {
	for j := idx - 1; j >= 0; j-- {
		line := strings.TrimSpace(lines[j])
		switch {
		case line == "" || strings.HasPrefix(line, "@"):
			continue
		case strings.HasSuffix(line, "*/"):
			if open := strings.Index(line, "/*"); open > 0 {
				// trailing comment of some other statement
				return ""
			}
			start := j
			for start >= 0 && !strings.HasPrefix(strings.TrimSpace(lines[start]), "/*") {
				start--
			}
			if start < 0 {
				return ""
			}
			return cleanBlockComment(strings.Join(lines[start:j+1], "\n"))
		case strings.HasPrefix(line, "//"):
			return cleanLineComment(line)
		default:
			return ""
		}
	}
	return ""
}

func hasModifier(modifiers []string, want string) bool {
	for _, m := range modifiers {
		if m == want {
			return true
		}
	}
	return false
}
