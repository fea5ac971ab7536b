package refdata

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the quiet period used when the settings leave it unset.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher watches the directories holding the configured sources and calls
// onChange after a quiet period, but only if the source content changed.
type Watcher struct {
	fsw      *fsnotify.Watcher
	paths    []string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	last uint64

	cancel   context.CancelFunc
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher over the given source paths or patterns.
func NewWatcher(paths []string, debounce time.Duration, onChange func(), logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no source paths to watch")
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		paths:    paths,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		doneCh:   make(chan struct{}),
	}

	for _, p := range paths {
		dir, recursive := watchRoot(p)
		if err := w.addDir(dir, recursive); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// watchRoot returns the directory to watch for a source path and whether the
// pattern reaches into subdirectories.
func watchRoot(path string) (string, bool) {
	slashed := filepath.ToSlash(path)
	base, pattern := doublestar.SplitPattern(slashed)
	if pattern == "" || !strings.ContainsAny(pattern, "*?[{") {
		return filepath.Dir(path), false
	}
	return filepath.FromSlash(base), strings.Contains(pattern, "/") || strings.Contains(pattern, "**")
}

func (w *Watcher) addDir(dir string, recursive bool) error {
	if !recursive {
		return w.fsw.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

// Start records the current fingerprint and begins watching.
func (w *Watcher) Start(ctx context.Context) {
	w.last = Fingerprint(w.paths)

	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
}

// Stop ends watching and releases the underlying watcher. It is idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			<-w.doneCh
		} else {
			close(w.doneCh)
		}
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.doneCh)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDir(event.Name, true); err != nil {
						w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.check()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

// check fires onChange when the source fingerprint differs from the last one seen.
func (w *Watcher) check() {
	fp := Fingerprint(w.paths)
	if fp == w.last {
		w.logger.Debug("Reference sources unchanged, skipping reload")
		return
	}
	w.last = fp

	w.logger.Info("Reference sources changed")
	if w.onChange != nil {
		w.onChange()
	}
}

// Fingerprint hashes the names and contents of every file the paths refer to.
// Missing or unreadable files simply do not contribute.
func Fingerprint(paths []string) uint64 {
	var files []string
	for _, p := range paths {
		matches, err := expandSourcePattern(p)
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	h := xxhash.New()
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		_, _ = h.WriteString(f)
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(content)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// StartWatching begins reloading whenever the configured source files change.
func (s *Service) StartWatching(ctx context.Context) error {
	var paths []string
	if s.settings.JavaPath != "" {
		paths = append(paths, s.settings.JavaPath)
	}
	if s.settings.JSONPath != "" {
		paths = append(paths, s.settings.JSONPath)
	}

	w, err := NewWatcher(paths, s.settings.WatchDebounce, s.Reload, s.logger)
	if err != nil {
		return err
	}

	s.stateMu.Lock()
	if s.closed || s.watcher != nil {
		s.stateMu.Unlock()
		_ = w.Stop()
		return fmt.Errorf("service is closed or already watching")
	}
	s.watcher = w
	s.stateMu.Unlock()

	w.Start(ctx)
	s.logger.Info("Watching reference sources", "paths", paths)
	return nil
}
