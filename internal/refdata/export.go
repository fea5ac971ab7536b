package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// Export writes the installed records as a dataset the loader accepts.
// The format follows the file extension (.yaml/.yml or JSON).
func (s *Service) Export(path string) (int, error) {
	snap := s.current()
	if snap == nil {
		return 0, ErrNotLoaded
	}
	if err := WriteDataset(path, snap.records); err != nil {
		return 0, err
	}
	return len(snap.records), nil
}

// WriteDataset writes records to path atomically.
// Uses write-to-temp + rename so readers never observe a partial file.
func WriteDataset(path string, records []*domain.Record) error {
	entries := make([]datasetRecord, 0, len(records))
	for _, r := range records {
		entries = append(entries, fromRecord(r))
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(entries)
	default:
		data, err = json.MarshalIndent(entries, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create dataset temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write dataset temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close dataset temp file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to set dataset permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename dataset file: %w", err)
	}

	return nil
}
