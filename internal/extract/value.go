package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// wrapperPattern matches factory idioms such as Integer.valueOf(1000) or Long.of(5).
var wrapperPattern = regexp.MustCompile(`^[\w$.]+\.(?:valueOf|of)\s*\((.*)\)$`)

// normalizeValue cleans a raw initializer expression.
// String and char literals are unquoted, single-argument valueOf/of wrappers are
// unwrapped, and anything else is kept as raw expression text.
func normalizeValue(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return v
	}

	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		if s, err := strconv.Unquote(v); err == nil {
			return s
		}
		if !strings.Contains(v[1:len(v)-1], `"`) {
			return v[1 : len(v)-1]
		}
		return v
	}

	if len(v) >= 3 && v[0] == '\'' && v[len(v)-1] == '\'' {
		return v[1 : len(v)-1]
	}

	if m := wrapperPattern.FindStringSubmatch(v); m != nil {
		inner := strings.TrimSpace(m[1])
		if inner != "" && isSingleArgument(inner) {
			return normalizeValue(inner)
		}
	}

	return strings.Join(strings.Fields(v), " ")
}

// isSingleArgument reports whether an argument list holds exactly one top-level argument.
func isSingleArgument(args string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(args); i++ {
		c := args[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				return false
			}
		}
	}
	return true
}
