package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// Terminal palette
const (
	colorAccent = "39"  // codes and headers
	colorValue  = "214" // literal values
	colorMuted  = "245" // categories, tags, hints
	colorError  = "196"
)

// Styles holds the lipgloss styles used by the terminal renderer.
type Styles struct {
	Header   lipgloss.Style
	Code     lipgloss.Style
	Value    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Category lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Code:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAccent)),
		Value:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorValue)),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)),
		Category: lipgloss.NewStyle().Underline(true),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle(),
		Code:     lipgloss.NewStyle(),
		Value:    lipgloss.NewStyle(),
		Muted:    lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Category: lipgloss.NewStyle(),
	}
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Renderer prints reference data for terminal use.
type Renderer struct {
	w      io.Writer
	styles Styles
}

// NewRenderer returns a renderer that colors output only when w is a terminal
// and NO_COLOR is unset.
func NewRenderer(w io.Writer) *Renderer {
	styles := PlainStyles()
	if _, noColor := os.LookupEnv("NO_COLOR"); !noColor && IsTTY(w) {
		styles = DefaultStyles()
	}
	return NewRendererWithStyles(w, styles)
}

// NewRendererWithStyles returns a renderer with explicit styles.
func NewRendererWithStyles(w io.Writer, styles Styles) *Renderer {
	return &Renderer{w: w, styles: styles}
}

// Records prints lookup results.
func (r *Renderer) Records(query string, records []*domain.Record) {
	if len(records) == 0 {
		r.printf("%s\n", r.styles.Muted.Render("No references found for query: "+query))
		return
	}

	r.printf("%s\n\n", r.styles.Header.Render(fmt.Sprintf("%d references for '%s'", len(records), query)))
	for _, rec := range records {
		r.record(rec)
	}
}

func (r *Renderer) record(rec *domain.Record) {
	line := r.styles.Code.Render(rec.Code)
	if rec.Value != "" {
		line += " = " + r.styles.Value.Render(rec.Value)
	}
	if rec.Category != "" {
		line += "  " + r.styles.Muted.Render("["+rec.Category+"]")
	}
	r.printf("%s\n", line)

	if rec.Description != "" && rec.Description != rec.Value {
		r.printf("    %s\n", rec.Description)
	}
	if len(rec.Tags) > 0 {
		r.printf("    %s\n", r.styles.Muted.Render("tags: "+strings.Join(rec.Tags, ", ")))
	}
}

// Categories prints category names with their record counts.
func (r *Renderer) Categories(names []string, grouped map[string][]*domain.Record) {
	if len(names) == 0 {
		r.printf("%s\n", r.styles.Muted.Render("No reference categories available"))
		return
	}

	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	for _, name := range names {
		r.printf("%s%s %s\n",
			r.styles.Category.Render(name),
			strings.Repeat(" ", width-len(name)),
			r.styles.Muted.Render(fmt.Sprintf("%4d", len(grouped[name]))))
	}
}

// Category prints every record of one category.
func (r *Renderer) Category(name string, records []*domain.Record) {
	r.printf("%s\n\n", r.styles.Header.Render(fmt.Sprintf("%s (%d)", name, len(records))))
	for _, rec := range records {
		r.record(rec)
	}
}

// Exported reports a completed export.
func (r *Renderer) Exported(path string, count int, source string) {
	r.printf("Exported %s references from %s source to %s\n",
		r.styles.Value.Render(fmt.Sprint(count)), source, r.styles.Code.Render(path))
}

// Error prints an error line.
func (r *Renderer) Error(err error) {
	r.printf("%s\n", r.styles.Error.Render("error: "+err.Error()))
}

func (r *Renderer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}
