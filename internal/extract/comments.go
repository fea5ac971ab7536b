package extract

import "strings"

// cleanBlockComment turns a /** ... */ or /* ... */ comment into a single line.
// Leading stars are removed and tag lines such as "@param" or "@deprecated" are skipped.
func cleanBlockComment(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")

	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "*"))
		if line == "" || strings.HasPrefix(line, "@") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

// cleanLineComment strips the // marker from a single-line comment.
func cleanLineComment(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "/")
	return strings.TrimSpace(text)
}

// cleanComment dispatches on the comment style.
func cleanComment(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/*") {
		return cleanBlockComment(text)
	}
	return cleanLineComment(text)
}
