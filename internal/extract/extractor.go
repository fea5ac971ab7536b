package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// Strategy names accepted by ForStrategy.
const (
	StrategyAuto       = "auto"
	StrategyText       = "text"
	StrategyTreeSitter = "treesitter"
)

// Extractor turns the contents of a reference source into records.
type Extractor interface {
	// Name returns a short strategy name used in logs.
	Name() string
	// Extract returns the constants found in source, in declaration order.
	Extract(ctx context.Context, source []byte) ([]*domain.Record, error)
}

// Chain tries extractors in order and returns the first non-empty result.
// A strategy that fails or finds nothing hands over to the next one.
type Chain struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewChain creates a chain over the given extractors.
func NewChain(logger *slog.Logger, extractors ...Extractor) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		extractors: extractors,
		logger:     logger,
	}
}

// NewDefault returns the structured extractor with the regex extractor as fallback.
func NewDefault(logger *slog.Logger) *Chain {
	return NewChain(logger, NewTreeSitterExtractor(), NewTextExtractor())
}

// ForStrategy returns the extractor configured by name.
func ForStrategy(name string, logger *slog.Logger) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyAuto, "":
		return NewDefault(logger), nil
	case StrategyText:
		return NewTextExtractor(), nil
	case StrategyTreeSitter:
		return NewChain(logger, NewTreeSitterExtractor()), nil
	default:
		return nil, fmt.Errorf("unknown extractor strategy: %s", name)
	}
}

// Name returns the names of the chained strategies.
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.extractors))
	for _, e := range c.extractors {
		names = append(names, e.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Extract runs each strategy until one yields records.
// An error is returned only when every strategy failed.
func (c *Chain) Extract(ctx context.Context, source []byte) ([]*domain.Record, error) {
	var errs []error
	for _, e := range c.extractors {
		records, err := safeExtract(ctx, e, source)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn("Extraction strategy failed, falling back", "strategy", e.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		if len(records) == 0 {
			c.logger.Debug("Extraction strategy found no constants", "strategy", e.Name())
			continue
		}
		c.logger.Debug("Extraction strategy succeeded", "strategy", e.Name(), "count", len(records))
		return records, nil
	}

	if len(errs) == len(c.extractors) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return nil, nil
}

// safeExtract converts a panicking strategy into an error.
func safeExtract(ctx context.Context, e Extractor, source []byte) (records []*domain.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return e.Extract(ctx, source)
}
