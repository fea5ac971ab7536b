package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/sha1n/mcp-reflookup-server/internal/config"
	"github.com/sha1n/mcp-reflookup-server/internal/refdata"
)

// DefaultLoadTimeout bounds how long a terminal command waits for the dataset.
const DefaultLoadTimeout = 30 * time.Second

// ErrCategoryNotFound is returned when a requested category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// CommandParams contains dependencies for the terminal subcommands
type CommandParams struct {
	LoadSettings  func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	NewService    func(*config.ReferenceSettings, *slog.Logger) (*refdata.Service, error)
	Out           io.Writer
	Logger        *slog.Logger
	LoadTimeout   time.Duration
}

// DefaultCommandParams returns production dependencies. Only warnings are
// logged so that stdout stays readable.
func DefaultCommandParams() CommandParams {
	return CommandParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateSettings,
		NewService:    NewReferenceService,
		Out:           os.Stdout,
		Logger:        slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		LoadTimeout:   DefaultLoadTimeout,
	}
}

// NewReferenceService creates the reference service for the given settings.
func NewReferenceService(settings *config.ReferenceSettings, logger *slog.Logger) (*refdata.Service, error) {
	return refdata.NewService(settings, refdata.WithLogger(logger))
}

// openReferences loads settings, creates the service and waits for the first install.
func openReferences(ctx context.Context, params CommandParams, flags *pflag.FlagSet) (*refdata.Service, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := params.ValidSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := params.NewService(&settings.Reference, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reference service: %w", err)
	}

	timeout := params.LoadTimeout
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := svc.WaitLoaded(waitCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("failed to load references: %w", err)
	}
	return svc, nil
}

// RunSearch looks up query and prints the matches.
func RunSearch(ctx context.Context, params CommandParams, flags *pflag.FlagSet, query, category string, limit int) error {
	if limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}

	svc, err := openReferences(ctx, params, flags)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if limit == 0 {
		limit = svc.MaxResults()
	}

	NewRenderer(params.Out).Records(query, svc.Lookup(query, category, limit))
	return nil
}

// RunCategories prints all categories, or the records of one category.
func RunCategories(ctx context.Context, params CommandParams, flags *pflag.FlagSet, category string) error {
	svc, err := openReferences(ctx, params, flags)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	r := NewRenderer(params.Out)
	if category == "" {
		r.Categories(svc.Categories(), svc.GroupedByCategory())
		return nil
	}

	name, ok := svc.CategoryName(category)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}
	r.Category(name, svc.Category(name))
	return nil
}

// RunExport writes the loaded dataset to path.
func RunExport(ctx context.Context, params CommandParams, flags *pflag.FlagSet, path string) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}

	svc, err := openReferences(ctx, params, flags)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	count, err := svc.Export(path)
	if err != nil {
		return fmt.Errorf("failed to export references: %w", err)
	}

	NewRenderer(params.Out).Exported(path, count, svc.Status().Source)
	return nil
}
