package app

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

func plainRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRendererWithStyles(&buf, PlainStyles()), &buf
}

func TestRenderer_Records(t *testing.T) {
	r, buf := plainRenderer()
	r.Records("timeout", []*domain.Record{
		domain.NewRecord("CONNECTION_TIMEOUT", "30", "Connection timeout in seconds", "Connection", []string{"timeout"}),
		domain.NewRecord("MAX_RETRIES", "3", "3", "Max", nil),
	})

	want := "2 references for 'timeout'\n\n" +
		"CONNECTION_TIMEOUT = 30  [Connection]\n" +
		"    Connection timeout in seconds\n" +
		"    tags: timeout\n" +
		"MAX_RETRIES = 3  [Max]\n"
	if got := buf.String(); got != want {
		t.Errorf("Unexpected output:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderer_NoRecords(t *testing.T) {
	r, buf := plainRenderer()
	r.Records("zzz", nil)

	if got := buf.String(); got != "No references found for query: zzz\n" {
		t.Errorf("Unexpected output: %q", got)
	}
}

func TestRenderer_Categories(t *testing.T) {
	r, buf := plainRenderer()
	grouped := map[string][]*domain.Record{
		"HTTP":        make([]*domain.Record, 12),
		"Error Codes": make([]*domain.Record, 3),
	}
	r.Categories([]string{"HTTP", "Error Codes"}, grouped)

	want := "HTTP          12\nError Codes    3\n"
	if got := buf.String(); got != want {
		t.Errorf("Unexpected output:\n%q\nwant:\n%q", got, want)
	}

	buf.Reset()
	r.Categories(nil, nil)
	if got := buf.String(); got != "No reference categories available\n" {
		t.Errorf("Unexpected output: %q", got)
	}
}

func TestRenderer_CategoryAndExport(t *testing.T) {
	r, buf := plainRenderer()
	r.Category("HTTP", []*domain.Record{domain.NewRecord("HTTP_OK", "200", "OK", "HTTP", nil)})
	if got := buf.String(); !strings.HasPrefix(got, "HTTP (1)\n\nHTTP_OK = 200  [HTTP]\n") {
		t.Errorf("Unexpected output: %q", got)
	}

	buf.Reset()
	r.Exported("/tmp/refs.json", 25, "bundled")
	if got := buf.String(); got != "Exported 25 references from bundled source to /tmp/refs.json\n" {
		t.Errorf("Unexpected output: %q", got)
	}

	buf.Reset()
	r.Error(errors.New("boom"))
	if got := buf.String(); got != "error: boom\n" {
		t.Errorf("Unexpected output: %q", got)
	}
}

func TestNewRenderer_PlainForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).Records("x", []*domain.Record{domain.NewRecord("HTTP_OK", "200", "OK", "HTTP", nil)})

	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("Expected no ANSI escapes for a buffer, got %q", buf.String())
	}
}

func TestIsTTY(t *testing.T) {
	var buf bytes.Buffer
	if IsTTY(&buf) {
		t.Error("Buffer is not a terminal")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	defer func() { _ = f.Close() }()
	if IsTTY(f) {
		t.Error("Regular file is not a terminal")
	}
}
