// Package refdata loads the reference dataset in the background and serves
// lookups against the most recently installed snapshot.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sha1n/mcp-reflookup-server/internal/config"
	"github.com/sha1n/mcp-reflookup-server/internal/domain"
	"github.com/sha1n/mcp-reflookup-server/internal/extract"
	"github.com/sha1n/mcp-reflookup-server/internal/index"
)

const (
	// DefaultMaxResults caps tool results when the settings leave it unset
	DefaultMaxResults = 20

	// DefaultMaxFileSize is the source file size limit when the settings leave it unset
	DefaultMaxFileSize = 4 * 1024 * 1024

	// DefaultWorkers bounds concurrent file extraction when the settings leave it unset
	DefaultWorkers = 4
)

// ErrNotLoaded is returned by operations that need an installed dataset.
var ErrNotLoaded = errors.New("reference data not loaded")

// LoadFunc produces the record set for one load cycle along with the name of
// the source it came from.
type LoadFunc func(ctx context.Context) ([]*domain.Record, string, error)

// snapshot is an immutable record set and its index.
type snapshot struct {
	records    []*domain.Record
	index      *index.Index
	generation uint64
	source     string
	loadedAt   time.Time
}

// Status describes the loader state.
type Status struct {
	Ready      bool
	Loaded     bool
	Loading    bool
	Generation uint64
	Records    int
	Source     string
	LoadedAt   time.Time
}

// Service owns the reference dataset. Loading is single-flight and runs in
// the background; reads never block on a load and never fail.
type Service struct {
	settings  *config.ReferenceSettings
	logger    *slog.Logger
	extractor extract.Extractor
	load      LoadFunc
	cache     *queryCache

	maxResults  int
	maxFileSize int64
	workers     int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// stateMu guards the cycle state below; it is never held while a cycle runs.
	stateMu    sync.Mutex
	loading    bool
	loaded     bool
	closed     bool
	generation uint64
	listeners  []func()
	loadedCh   chan struct{}
	watcher    *Watcher

	// mu guards snap.
	mu   sync.RWMutex
	snap *snapshot

	loadCount atomic.Int64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExtractor overrides the configured extraction strategy.
func WithExtractor(e extract.Extractor) Option {
	return func(s *Service) {
		s.extractor = e
	}
}

// WithLoadFunc replaces source resolution entirely.
func WithLoadFunc(fn LoadFunc) Option {
	return func(s *Service) {
		s.load = fn
	}
}

// NewService creates a reference data service. Nothing is loaded until
// LoadAsync or the first read.
func NewService(settings *config.ReferenceSettings, opts ...Option) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}

	s := &Service{
		settings:    settings,
		logger:      slog.Default(),
		maxResults:  settings.MaxResults,
		maxFileSize: settings.MaxFileSize,
		workers:     settings.Workers,
		loadedCh:    make(chan struct{}),
	}
	if s.maxResults <= 0 {
		s.maxResults = DefaultMaxResults
	}
	if s.maxFileSize <= 0 {
		s.maxFileSize = DefaultMaxFileSize
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.extractor == nil {
		e, err := extract.ForStrategy(settings.Extractor, s.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor: %w", err)
		}
		s.extractor = e
	}
	if s.load == nil {
		s.load = s.resolve
	}

	cache, err := newQueryCache(settings.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create query cache: %w", err)
	}
	s.cache = cache

	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// Settings returns the settings the service was created with.
func (s *Service) Settings() *config.ReferenceSettings {
	return s.settings
}

// MaxResults returns the default result cap for interactive lookups.
func (s *Service) MaxResults() int {
	return s.maxResults
}

// LoadAsync starts a load cycle unless one is running or data is already loaded.
func (s *Service) LoadAsync() {
	s.stateMu.Lock()
	if s.closed || s.loaded || s.loading {
		s.stateMu.Unlock()
		return
	}
	s.loading = true
	gen := s.generation
	s.wg.Add(1)
	s.loadCount.Add(1)
	s.stateMu.Unlock()

	go s.runCycle(gen)
}

// Reload invalidates the current cycle and starts a new one. Readers keep
// seeing the previous snapshot until the new one is installed. A cycle still
// in flight from before the call discards its result.
func (s *Service) Reload() {
	s.stateMu.Lock()
	if s.closed {
		s.stateMu.Unlock()
		return
	}
	s.generation++
	s.loaded = false
	s.loading = false
	select {
	case <-s.loadedCh:
		s.loadedCh = make(chan struct{})
	default:
	}
	s.stateMu.Unlock()

	s.logger.Info("Reloading references")
	s.LoadAsync()
}

// OnLoaded registers a one-shot callback for the next cycle completion.
// If data is already loaded the callback runs before OnLoaded returns.
func (s *Service) OnLoaded(callback func()) {
	if callback == nil {
		return
	}

	s.stateMu.Lock()
	if s.loaded {
		s.stateMu.Unlock()
		s.runListener(callback)
		return
	}
	s.listeners = append(s.listeners, callback)
	s.stateMu.Unlock()
}

// IsLoaded reports whether the current generation has been installed.
func (s *Service) IsLoaded() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.loaded
}

// Ready reports whether any snapshot has been installed. It stays true
// during a reload, while IsLoaded does not.
func (s *Service) Ready() bool {
	return s.current() != nil
}

// WaitLoaded triggers a load and blocks until data is installed or ctx is done.
func (s *Service) WaitLoaded(ctx context.Context) error {
	s.LoadAsync()

	s.stateMu.Lock()
	ch := s.loadedCh
	s.stateMu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Generation returns the current cycle generation. It increases on every Reload.
func (s *Service) Generation() uint64 {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.generation
}

// LoadCount returns the number of load cycles started so far.
func (s *Service) LoadCount() int64 {
	return s.loadCount.Load()
}

// Status returns a point-in-time view of the loader.
func (s *Service) Status() Status {
	s.stateMu.Lock()
	st := Status{
		Loaded:     s.loaded,
		Loading:    s.loading,
		Generation: s.generation,
	}
	s.stateMu.Unlock()

	if snap := s.current(); snap != nil {
		st.Ready = true
		st.Records = len(snap.records)
		st.Source = snap.source
		st.LoadedAt = snap.loadedAt
	}
	return st
}

// Search runs a tiered lookup against the installed snapshot.
// A limit <= 0 is unbounded. Before the first install the result is empty.
func (s *Service) Search(query string, limit int) []*domain.Record {
	s.LoadAsync()

	snap := s.current()
	if snap == nil {
		return []*domain.Record{}
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*domain.Record{}
	}

	key := cacheKey(snap.generation, q, limit)
	if cached, ok := s.cache.get(key); ok {
		return cached
	}

	results := index.Search(snap.index, snap.records, q, limit)
	s.cache.add(key, results)
	return results
}

// SearchAll is Search without a limit.
func (s *Service) SearchAll(query string) []*domain.Record {
	return s.Search(query, 0)
}

// GetAll returns a copy of every installed record in source order.
func (s *Service) GetAll() []*domain.Record {
	s.LoadAsync()

	snap := s.current()
	if snap == nil {
		return []*domain.Record{}
	}
	return copyRecords(snap.records)
}

// GroupedByCategory returns the installed records keyed by category.
func (s *Service) GroupedByCategory() map[string][]*domain.Record {
	s.LoadAsync()

	snap := s.current()
	if snap == nil {
		return map[string][]*domain.Record{}
	}
	return snap.index.Grouped()
}

// Categories returns category names in first-seen order.
func (s *Service) Categories() []string {
	s.LoadAsync()

	snap := s.current()
	if snap == nil {
		return []string{}
	}
	return snap.index.Categories()
}

// Category returns the records of one category.
func (s *Service) Category(name string) []*domain.Record {
	s.LoadAsync()

	snap := s.current()
	if snap == nil {
		return []*domain.Record{}
	}
	records := snap.index.Category(name)
	if records == nil {
		return []*domain.Record{}
	}
	return records
}

// CategoryName resolves name case-insensitively to an installed category.
func (s *Service) CategoryName(name string) (string, bool) {
	for _, c := range s.Categories() {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// Lookup is Search restricted to one category when category is non-empty.
// Categories match case-insensitively and the limit applies after filtering.
func (s *Service) Lookup(query, category string, limit int) []*domain.Record {
	if category == "" {
		return s.Search(query, limit)
	}

	out := []*domain.Record{}
	for _, r := range s.SearchAll(query) {
		if !strings.EqualFold(index.CategoryOf(r), category) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Close stops the watcher, cancels any running cycle and waits for it to exit.
func (s *Service) Close() error {
	s.stateMu.Lock()
	if s.closed {
		s.stateMu.Unlock()
		return nil
	}
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.stateMu.Unlock()

	var err error
	if w != nil {
		err = w.Stop()
	}

	s.cancel()
	s.wg.Wait()
	return err
}

// current returns the installed snapshot, or nil before the first install.
func (s *Service) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// runCycle performs one load cycle for generation gen.
func (s *Service) runCycle(gen uint64) {
	defer s.wg.Done()

	start := time.Now()

	snap, err := s.buildSnapshot(gen)
	if err != nil {
		s.logger.Error("Reference load failed", "generation", gen, "error", err)
	} else {
		s.logger.Info("Reference load completed",
			"generation", gen,
			"source", snap.source,
			"count", len(snap.records),
			"duration", time.Since(start))
	}

	s.finishCycle(gen, snap, err)
}

// buildSnapshot resolves, extracts and indexes off-lock. Panics become errors.
func (s *Service) buildSnapshot(gen uint64) (snap *snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			snap = nil
			err = fmt.Errorf("load cycle panic: %v", r)
		}
	}()

	records, source, err := s.load(s.ctx)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*domain.Record{}
	}

	return &snapshot{
		records:    records,
		index:      index.Build(records),
		generation: gen,
		source:     source,
		loadedAt:   time.Now(),
	}, nil
}

// finishCycle installs a successful result and notifies listeners. A cycle
// whose generation was superseded by Reload leaves all state untouched.
func (s *Service) finishCycle(gen uint64, snap *snapshot, err error) {
	s.stateMu.Lock()
	if gen != s.generation {
		s.stateMu.Unlock()
		s.logger.Debug("Discarding stale load cycle", "generation", gen)
		return
	}

	if err == nil {
		s.mu.Lock()
		s.snap = snap
		s.mu.Unlock()

		s.cache.purge()
		s.loaded = true
		close(s.loadedCh)
	}
	s.loading = false

	listeners := s.listeners
	s.listeners = nil
	s.stateMu.Unlock()

	for _, l := range listeners {
		s.runListener(l)
	}
}

// runListener invokes a callback, logging instead of propagating a panic.
func (s *Service) runListener(callback func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Reference listener panicked", "panic", r)
		}
	}()
	callback()
}
