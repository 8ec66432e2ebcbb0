// Package watch reports writes to SQL files under a path.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 100 * time.Millisecond

// Handler is called with the path of a changed SQL file.
type Handler func(path string)

// Config configures a Watcher.
type Config struct {
	// Path is a .sql file or a directory watched recursively.
	Path     string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher reports changed .sql files to a Handler.
type Watcher struct {
	root     string
	file     string
	debounce time.Duration
	logger   *slog.Logger
}

// New validates cfg.Path and creates a Watcher.
func New(cfg Config) (*Watcher, error) {
	root := filepath.Clean(cfg.Path)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.Path, err)
	}

	w := &Watcher{
		root:     root,
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.DiscardHandler)
	}

	if !info.IsDir() {
		if !IsSQLFile(root) {
			return nil, fmt.Errorf("not a .sql file: %s", cfg.Path)
		}
		// Editors often replace files on save, so watch the parent directory.
		w.file = root
		w.root = filepath.Dir(root)
	}
	return w, nil
}

// IsSQLFile reports whether path has a .sql extension.
func IsSQLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// Run watches until ctx is canceled, calling fn from the Run goroutine once
// per debounced change.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if w.file != "" {
		err = watcher.Add(w.root)
	} else {
		err = w.addTree(watcher, w.root)
	}
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.logger.Debug("watching", "path", w.root, "file", w.file)

	deb := newDebouncer(w.debounce)
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case f := <-deb.ready:
			if path, ok := deb.take(f); ok {
				fn(path)
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Has(fsnotify.Create) && w.file == "" {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.wants(event.Name) {
				continue
			}

			deb.touch(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// firing is a timer expiry for path. gen identifies the timer that fired.
type firing struct {
	path string
	gen  uint64
}

// debouncer coalesces bursts of events per path. Only the owning goroutine
// calls touch, take and stop; timer goroutines only call deliver.
type debouncer struct {
	delay  time.Duration
	ready  chan firing
	done   chan struct{}
	gen    uint64
	timers map[string]pendingTimer
}

type pendingTimer struct {
	timer *time.Timer
	gen   uint64
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		ready:  make(chan firing),
		done:   make(chan struct{}),
		timers: make(map[string]pendingTimer),
	}
}

// touch (re)starts the timer for path, superseding any earlier one.
func (d *debouncer) touch(path string) {
	if p, ok := d.timers[path]; ok {
		p.timer.Stop()
	}
	d.gen++
	f := firing{path: path, gen: d.gen}
	d.timers[path] = pendingTimer{
		timer: time.AfterFunc(d.delay, func() { d.deliver(f) }),
		gen:   f.gen,
	}
}

// deliver hands f to the owner, or drops it once the debouncer is stopped.
func (d *debouncer) deliver(f firing) {
	select {
	case d.ready <- f:
	case <-d.done:
	}
}

// take accepts f if it came from the current timer for its path. Firings
// from superseded timers are dropped.
func (d *debouncer) take(f firing) (string, bool) {
	p, ok := d.timers[f.path]
	if !ok || p.gen != f.gen {
		return "", false
	}
	delete(d.timers, f.path)
	return f.path, true
}

func (d *debouncer) stop() {
	close(d.done)
	for _, p := range d.timers {
		p.timer.Stop()
	}
}

func (w *Watcher) wants(path string) bool {
	if w.file != "" {
		return filepath.Clean(path) == w.file
	}
	return IsSQLFile(path)
}

// addTree adds dir and its subdirectories, skipping hidden ones.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
