package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ripple/internal/core/config"
	coreerrors "ripple/internal/core/errors"
	"ripple/internal/core/ports"
	"ripple/internal/data/artifact"
	"ripple/internal/data/history"
	"ripple/internal/data/testmap"
	"ripple/internal/engine/graph"
	"ripple/internal/engine/parser"
)

// App wires configuration to the graph builder and the persisted stores.
// Every analysis loads a fresh snapshot; nothing is cached between calls.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	builder   ports.GraphBuilder
	artifacts ports.ArtifactStore
	history   ports.HistoryStore
	tests     ports.TestMapSource

	closers []func() error
}

// Dependencies lets callers inject adapters. Builder and Artifacts are
// required; History and Tests are optional.
type Dependencies struct {
	Builder   ports.GraphBuilder
	Artifacts ports.ArtifactStore
	History   ports.HistoryStore
	Tests     ports.TestMapSource
}

// New builds an App with the default adapters for cfg. A history database
// that cannot be opened disables history instead of failing the command.
func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	builder, err := NewGraphBuilder(cfg, paths)
	if err != nil {
		return nil, err
	}

	deps := Dependencies{
		Builder:   builder,
		Artifacts: artifact.NewStore(paths.GraphArtifact),
		Tests:     testmap.NewSource(paths.TestMap),
	}

	var store *history.Store
	if cfg.History.IsEnabled() && paths.HistoryDB != "" {
		store, err = history.Open(paths.HistoryDB)
		if err != nil {
			slog.Warn("build history disabled", "path", paths.HistoryDB, "error", err, "corrupt", history.IsCorruptError(err))
			store = nil
		} else {
			deps.History = store
		}
	}

	a, err := NewWithDependencies(cfg, paths, deps)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	if store != nil {
		a.closers = append(a.closers, store.Close)
	}
	return a, nil
}

func NewWithDependencies(cfg *config.Config, paths config.ResolvedPaths, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, coreerrors.New(coreerrors.CodeConfiguration, "config is required")
	}
	if deps.Builder == nil {
		return nil, coreerrors.New(coreerrors.CodeInternal, "graph builder dependency is required")
	}
	if deps.Artifacts == nil {
		return nil, coreerrors.New(coreerrors.CodeInternal, "artifact store dependency is required")
	}
	return &App{
		Config:    cfg,
		Paths:     paths,
		builder:   deps.Builder,
		artifacts: deps.Artifacts,
		history:   deps.History,
		tests:     deps.Tests,
	}, nil
}

// NewGraphBuilder translates the scan section of cfg into a graph.Builder
// rooted at the resolved project root.
func NewGraphBuilder(cfg *config.Config, paths config.ResolvedPaths) (*graph.Builder, error) {
	lang, err := parser.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, coreerrors.AddContext(err, coreerrors.CtxLanguage, cfg.Language)
	}
	return graph.NewBuilder(graph.BuildOptions{
		Scan: graph.ScanOptions{
			Root:       paths.ProjectRoot,
			SourceDirs: cfg.Scan.SourceDirs,
			Include:    cfg.Scan.Include,
			Ignore:     cfg.Scan.Ignore,
			Extensions: cfg.Scan.Extensions,
		},
		Language:          lang,
		Concurrency:       cfg.Scan.Concurrency,
		MaxFilesPerSecond: cfg.Scan.MaxFilesPerSecond,
	}, parser.NewExtractor(cfg.Scan.Extractor))
}

// AnalysisService returns the driving-port view of a.
func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

// Close releases stores opened by New.
func (a *App) Close(_ context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close app: %w", err)
	}
	return nil
}

// loadGraph reads the current artifact. A missing artifact is a hard stop.
func (a *App) loadGraph() (*graph.DependencyGraph, error) {
	g, err := a.artifacts.Load()
	if err != nil {
		return nil, coreerrors.AddContext(err, coreerrors.CtxOperation, "load_graph")
	}
	return g, nil
}

// loadTestMap returns nil when no mapping is configured or present. A map
// that exists but cannot be read is logged and ignored.
func (a *App) loadTestMap() *testmap.TestMap {
	if a.tests == nil {
		return nil
	}
	m, err := a.tests.Load()
	if err != nil {
		slog.Warn("ignoring test map", "error", err)
		return nil
	}
	return m
}
