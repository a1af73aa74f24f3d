package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/shared/observability"
	"ripple/internal/shared/util"
)

const DefaultDebounce = 300 * time.Millisecond

type Options struct {
	Root        string
	Debounce    time.Duration
	Ignore      []string
	IgnoredDirs []string
	Extensions  []string
}

// Watcher reports batches of changed source files under a project root.
// Paths handed to the callback are canonical and sorted.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	root        string
	debounce    time.Duration
	ignore      []glob.Glob
	ignoredDirs map[string]bool
	extensions  map[string]bool
	onChange    func([]string)
	callbackMu  sync.Mutex

	pending   map[string]bool
	pendingMu sync.Mutex
	timer     *time.Timer
}

func New(opts Options, onChange func([]string)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfiguration, "resolve watch root")
	}

	compiled := make([]glob.Glob, 0, len(opts.Ignore))
	for _, pattern := range opts.Ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, coreerrors.Wrap(fmt.Errorf("invalid ignore pattern %q: %w", pattern, err), coreerrors.CodeConfiguration, "compile watch rules")
		}
		compiled = append(compiled, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher:   fsw,
		root:        root,
		debounce:    debounce,
		ignore:      compiled,
		ignoredDirs: make(map[string]bool, len(opts.IgnoredDirs)),
		extensions:  make(map[string]bool, len(opts.Extensions)),
		onChange:    onChange,
		pending:     make(map[string]bool),
	}
	for _, name := range opts.IgnoredDirs {
		w.ignoredDirs[name] = true
	}
	for _, ext := range opts.Extensions {
		if ext = strings.ToLower(strings.TrimSpace(ext)); ext != "" {
			w.extensions[ext] = true
		}
	}
	return w, nil
}

// Watch registers every directory below the given source dirs, resolved
// against the root, and starts delivering events.
func (w *Watcher) Watch(dirs []string) error {
	for _, dir := range dirs {
		if err := w.watchRecursive(util.ResolveUnder(w.root, dir)); err != nil {
			return coreerrors.AddContext(
				coreerrors.Wrap(err, coreerrors.CodeFileAccess, "watch source dir"),
				coreerrors.CtxPath, dir,
			)
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(start string) error {
	return filepath.Walk(start, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if p != start && w.shouldExcludeDir(p) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(p)
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if !w.shouldExcludeDir(event.Name) {
						if err := w.watchRecursive(event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if rel, ok := w.accept(event.Name); ok {
				w.scheduleChange(rel)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) scheduleChange(rel string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[rel] = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()
	w.onChange(paths)
}

func (w *Watcher) shouldExcludeDir(p string) bool {
	base := filepath.Base(p)
	if w.ignoredDirs[base] {
		return true
	}
	rel, ok := util.CanonicalPath(w.root, p)
	if !ok {
		return true
	}
	return w.ignored(rel)
}

// accept maps an event path onto its canonical form when it names a
// watched source file.
func (w *Watcher) accept(p string) (string, bool) {
	rel, ok := util.CanonicalPath(w.root, p)
	if !ok {
		return "", false
	}
	if len(w.extensions) > 0 && !w.extensions[strings.ToLower(path.Ext(rel))] {
		return "", false
	}
	if w.ignored(rel) {
		return "", false
	}
	return rel, true
}

func (w *Watcher) ignored(rel string) bool {
	base := path.Base(rel)
	for _, g := range w.ignore {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(dir string) {
	_ = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if rel, ok := w.accept(p); ok {
			w.scheduleChange(rel)
		}
		return nil
	})
}
