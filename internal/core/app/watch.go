package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"ripple/internal/core/ports"
	"ripple/internal/core/watcher"
	"ripple/internal/engine/graph"
	"ripple/internal/engine/stale"
)

// WatchUpdate is emitted once per debounced batch of source changes.
type WatchUpdate struct {
	Changed []string
	Build   ports.BuildResult
	Stale   stale.Result
}

// Watch builds the graph, then rebuilds it after every batch of source
// changes and emits the stale set rooted at the changed files. It returns
// nil once ctx is done.
func (a *App) Watch(ctx context.Context, emit func(WatchUpdate)) error {
	svc := a.AnalysisService()
	if _, err := svc.BuildGraph(ctx); err != nil {
		return err
	}

	batches := make(chan []string, 1)
	ignoredDirs := append([]string{filepath.Base(a.Paths.StateDir)}, graph.DefaultIgnoredDirs...)
	w, err := watcher.New(watcher.Options{
		Root:        a.Paths.ProjectRoot,
		Debounce:    a.Config.Watch.Debounce(),
		Ignore:      a.Config.Scan.Ignore,
		IgnoredDirs: ignoredDirs,
		Extensions:  a.Config.Scan.Extensions,
	}, func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}()
	if err := w.Watch(a.Config.Scan.SourceDirs); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", a.Paths.ProjectRoot, "dirs", a.Config.Scan.SourceDirs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case changed := <-batches:
			built, err := svc.BuildGraph(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Warn("rebuild failed", "changed", len(changed), "error", err)
				continue
			}
			res, err := svc.PropagateStale(ctx, ports.StaleRequest{Changed: changed})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Warn("stale propagation failed", "error", err)
				continue
			}
			emit(WatchUpdate{Changed: changed, Build: built, Stale: res})
		}
	}
}
