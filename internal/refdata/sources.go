package refdata

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// Source names reported for the installed dataset.
const (
	SourcePreferredJSON = "preferred-json"
	SourceText          = "text"
	SourceJSON          = "json"
	SourceBundled       = "bundled"
	SourceNone          = "none"
)

const bundledDataset = "defaults/references.json"

//go:embed defaults/references.json
var defaultsFS embed.FS

var (
	// ErrNoSource is returned when a source path matches no files.
	ErrNoSource = errors.New("no source files found")

	// ErrBinaryFile is returned for files that look binary.
	ErrBinaryFile = errors.New("file appears to be binary")

	// ErrFileTooLarge is returned for files over the configured size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// datasetRecord is the on-disk JSON/YAML shape of a record.
type datasetRecord struct {
	Code        string     `json:"code" yaml:"code"`
	Value       scalarText `json:"value,omitempty" yaml:"value,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// scalarText is a string field that also accepts number and boolean scalars.
type scalarText string

func (v *scalarText) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = ""
	case string:
		*v = scalarText(t)
	case json.Number:
		*v = scalarText(t.String())
	case bool:
		*v = scalarText(strconv.FormatBool(t))
	default:
		return fmt.Errorf("value must be a string, number or boolean, got %s", data)
	}
	return nil
}

func (v *scalarText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a scalar", node.Line)
	}
	if node.Tag == "!!null" {
		*v = ""
		return nil
	}
	*v = scalarText(node.Value)
	return nil
}

func (d datasetRecord) toRecord() *domain.Record {
	return domain.NewRecord(d.Code, string(d.Value), d.Description, d.Category, d.Tags)
}

func fromRecord(r *domain.Record) datasetRecord {
	return datasetRecord{
		Code:        r.Code,
		Value:       scalarText(r.Value),
		Description: r.Description,
		Category:    r.Category,
		Tags:        r.Tags,
	}
}

// resolve walks the configured sources in priority order and returns the
// records of the first one that yields any. Source failures are logged and
// skipped; only cancellation is returned as an error.
func (s *Service) resolve(ctx context.Context) ([]*domain.Record, string, error) {
	cfg := s.settings

	type candidate struct {
		name string
		load func(context.Context) ([]*domain.Record, error)
	}

	var candidates []candidate
	if cfg.PreferJSON && cfg.JSONPath != "" {
		candidates = append(candidates, candidate{SourcePreferredJSON, func(context.Context) ([]*domain.Record, error) {
			return s.loadDataset(cfg.JSONPath)
		}})
	}
	if cfg.JavaPath != "" {
		candidates = append(candidates, candidate{SourceText, func(ctx context.Context) ([]*domain.Record, error) {
			return s.loadText(ctx, cfg.JavaPath)
		}})
	}
	if !cfg.PreferJSON && cfg.JSONPath != "" {
		candidates = append(candidates, candidate{SourceJSON, func(context.Context) ([]*domain.Record, error) {
			return s.loadDataset(cfg.JSONPath)
		}})
	}
	candidates = append(candidates, candidate{SourceBundled, func(context.Context) ([]*domain.Record, error) {
		return loadBundled()
	}})

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		records, err := c.load(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", ctxErr
			}
			s.logger.Warn("Reference source failed", "source", c.name, "error", err)
			continue
		}
		if len(records) == 0 {
			s.logger.Info("Reference source yielded no records", "source", c.name)
			continue
		}

		s.logger.Info("Loaded references", "source", c.name, "count", len(records))
		return records, c.name, nil
	}

	s.logger.Warn("No reference source yielded records, installing empty dataset")
	return []*domain.Record{}, SourceNone, nil
}

// loadText extracts records from a single file or every file matched by a
// doublestar pattern. Files are extracted concurrently and concatenated in
// sorted path order; a failing file contributes nothing.
func (s *Service) loadText(ctx context.Context, pattern string) ([]*domain.Record, error) {
	files, err := expandSourcePattern(pattern)
	if err != nil {
		return nil, err
	}

	perFile := make([][]*domain.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, path := range files {
		g.Go(func() error {
			content, err := s.readSourceFile(path)
			if err != nil {
				s.logger.Warn("Skipping reference file", "path", path, "error", err)
				return nil
			}

			records, err := s.extractor.Extract(gctx, content)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("Failed to extract constants", "path", path, "error", err)
				return nil
			}

			s.logger.Debug("Extracted constants", "path", path, "count", len(records))
			perFile[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []*domain.Record
	for _, r := range perFile {
		records = append(records, r...)
	}
	return records, nil
}

var defaultSourceFilter = NewSourceFilter()

// expandSourcePattern returns the files a configured path refers to, sorted.
// A path naming an existing file is used as is; glob matches go through
// the default source filter.
func expandSourcePattern(pattern string) ([]string, error) {
	if info, err := os.Stat(pattern); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrNoSource, pattern)
		}
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to expand pattern %q: %w", pattern, err)
	}

	base, _ := watchRoot(pattern)
	matches = defaultSourceFilter.Filter(base, matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, pattern)
	}

	sort.Strings(matches)
	return matches, nil
}

// readSourceFile reads a file after checking its size, and rejects binary content.
func (s *Service) readSourceFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, info.Size(), s.maxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if IsBinary(content) {
		return nil, ErrBinaryFile
	}
	return content, nil
}

// loadDataset reads a JSON or YAML dataset file.
func (s *Service) loadDataset(path string) ([]*domain.Record, error) {
	content, err := s.readSourceFile(path)
	if err != nil {
		return nil, err
	}
	return parseDataset(content, filepath.Ext(path))
}

func loadBundled() ([]*domain.Record, error) {
	content, err := defaultsFS.ReadFile(bundledDataset)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundled dataset: %w", err)
	}
	return parseDataset(content, ".json")
}

// parseDataset decodes a record array. Entries without a code are dropped.
func parseDataset(content []byte, ext string) ([]*domain.Record, error) {
	var entries []datasetRecord
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse YAML dataset: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse JSON dataset: %w", err)
		}
	}

	records := make([]*domain.Record, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Code) == "" {
			continue
		}
		records = append(records, e.toRecord())
	}
	return records, nil
}

// IsBinary checks if the content appears to be binary by looking for null bytes
// in the first 512 bytes.
func IsBinary(content []byte) bool {
	checkLen := min(len(content), 512)

	for i := range checkLen {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
