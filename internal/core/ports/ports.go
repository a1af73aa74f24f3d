package ports

import (
	"context"
	"time"

	"ripple/internal/data/history"
	"ripple/internal/data/testmap"
	"ripple/internal/engine/graph"
	"ripple/internal/engine/impact"
	"ripple/internal/engine/priority"
	"ripple/internal/engine/stale"
)

// GraphBuilder produces a fresh dependency graph snapshot.
type GraphBuilder interface {
	Build(ctx context.Context) (*graph.DependencyGraph, error)
}

// ArtifactStore persists and reloads graph snapshots.
type ArtifactStore interface {
	Save(g *graph.DependencyGraph) error
	Load() (*graph.DependencyGraph, error)
	Path() string
}

// HistoryStore abstracts build-record persistence for trend reporting.
type HistoryStore interface {
	RecordBuild(ctx context.Context, b history.Build) error
	RecentBuilds(ctx context.Context, projectKey string, limit int) ([]history.Build, error)
}

// TestMapSource loads the optional source to test mapping. A nil map with a
// nil error means no mapping is available.
type TestMapSource interface {
	Load() (*testmap.TestMap, error)
}

// BuildResult summarizes a completed and persisted build.
type BuildResult struct {
	Graph           *graph.DependencyGraph
	ArtifactPath    string
	Duration        time.Duration
	HistoryRecorded bool
}

// ImpactRequest names changed files. A nil Depth uses the configured depth.
type ImpactRequest struct {
	Changed []string
	Depth   *int
}

// StaleRequest names changed files explicitly. With no files, modification
// times are compared against the artifact's generation time.
type StaleRequest struct {
	Changed  []string
	MaxDepth *int
}

type PrioritizeRequest struct {
	Failures []priority.FailingUnit
}

// CycleReport lists cycles from the current artifact.
type CycleReport struct {
	Total  int           `json:"total"`
	Cycles []graph.Cycle `json:"cycles"`
}

// ChainResult is the shortest forward import path between two files.
type ChainResult struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Found bool     `json:"found"`
	Path  []string `json:"path"`
}

// AnalysisService is the driving-port surface over build and analysis use
// cases.
type AnalysisService interface {
	BuildGraph(ctx context.Context) (BuildResult, error)
	AnalyzeImpact(ctx context.Context, req ImpactRequest) (impact.Result, error)
	PropagateStale(ctx context.Context, req StaleRequest) (stale.Result, error)
	PrioritizeFixes(ctx context.Context, req PrioritizeRequest) (priority.Result, error)
	ListCycles(ctx context.Context, limit int) (CycleReport, error)
	TraceImportChain(ctx context.Context, from, to string) (ChainResult, error)
	BuildHistory(ctx context.Context, limit int) (history.TrendReport, error)
	LoadGraph(ctx context.Context) (*graph.DependencyGraph, error)
}
