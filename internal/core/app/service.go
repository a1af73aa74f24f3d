package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/core/ports"
	"ripple/internal/data/history"
	"ripple/internal/engine/graph"
	"ripple/internal/engine/impact"
	"ripple/internal/engine/priority"
	"ripple/internal/engine/stale"
	"ripple/internal/shared/observability"
	"ripple/internal/shared/util"
)

type analysisService struct {
	app *App
	now func() time.Time
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app, now: time.Now}
}

// BuildGraph rebuilds the graph, writes the artifact and records the build.
// Nothing is written unless the build completes.
func (s *analysisService) BuildGraph(ctx context.Context) (ports.BuildResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysisService.BuildGraph")
	defer span.End()

	start := s.now()
	g, err := s.app.builder.Build(ctx)
	if err != nil {
		return ports.BuildResult{}, coreerrors.AddContext(err, coreerrors.CtxOperation, "build_graph")
	}
	duration := s.now().Sub(start)

	if err := s.app.artifacts.Save(g); err != nil {
		return ports.BuildResult{}, coreerrors.AddContext(err, coreerrors.CtxOperation, "save_artifact")
	}

	result := ports.BuildResult{
		Graph:        g,
		ArtifactPath: s.app.artifacts.Path(),
		Duration:     duration,
	}

	if s.app.history != nil {
		err := s.app.history.RecordBuild(ctx, history.Build{
			BuildID:        g.BuildID,
			ProjectKey:     s.app.Config.History.ProjectKey,
			GeneratedAt:    g.GeneratedAt,
			TargetLanguage: g.TargetLanguage,
			TotalFiles:     g.Stats.TotalFiles,
			TotalEdges:     g.Stats.TotalEdges,
			CycleCount:     g.Stats.CycleCount,
			Skipped:        g.Skipped,
			Duration:       duration,
		})
		if err != nil {
			slog.Warn("failed to record build history", "build_id", g.BuildID, "error", err)
		} else {
			result.HistoryRecorded = true
		}
	}

	span.SetAttributes(
		attribute.String("build.id", g.BuildID),
		attribute.Bool("history.recorded", result.HistoryRecorded),
	)
	return result, nil
}

func (s *analysisService) AnalyzeImpact(ctx context.Context, req ports.ImpactRequest) (impact.Result, error) {
	_, span := observability.Tracer.Start(ctx, "analysisService.AnalyzeImpact",
		trace.WithAttributes(attribute.Int("changed.count", len(req.Changed))))
	defer span.End()
	defer observeDuration("impact", s.now())

	if err := ctx.Err(); err != nil {
		return impact.Result{}, err
	}
	changed := normalizeFiles(req.Changed)
	if len(changed) == 0 {
		return impact.Result{}, coreerrors.New(coreerrors.CodeValidationError, "impact analysis needs at least one changed file")
	}

	g, err := s.app.loadGraph()
	if err != nil {
		return impact.Result{}, err
	}

	opts := impact.Options{
		Depth:         s.app.Config.Impact.DepthOrDefault(),
		RiskThreshold: s.app.Config.Impact.RiskThreshold,
		RiskTop:       s.app.Config.Impact.RiskTop,
	}
	if req.Depth != nil {
		opts.Depth = *req.Depth
	}
	if tm := s.app.loadTestMap(); tm != nil {
		opts.Tests = tm
	}

	result := impact.Analyze(g, changed, opts)
	for _, file := range result.Unknown {
		slog.Debug("changed file not in graph", "error", coreerrors.Unresolved(file))
	}
	span.SetAttributes(attribute.Int("affected.count", len(result.Affected)))
	return result, nil
}

func (s *analysisService) PropagateStale(ctx context.Context, req ports.StaleRequest) (stale.Result, error) {
	_, span := observability.Tracer.Start(ctx, "analysisService.PropagateStale")
	defer span.End()
	defer observeDuration("stale", s.now())

	if err := ctx.Err(); err != nil {
		return stale.Result{}, err
	}
	g, err := s.app.loadGraph()
	if err != nil {
		return stale.Result{}, err
	}

	var direct []stale.DirectFile
	if changed := normalizeFiles(req.Changed); len(changed) > 0 {
		direct = stale.Explicit(changed)
	} else {
		direct = stale.DetectModified(s.app.Paths.ProjectRoot, g)
	}

	maxDepth := s.app.Config.Stale.MaxDepthOrDefault()
	if req.MaxDepth != nil {
		maxDepth = *req.MaxDepth
	}

	result := stale.Propagate(g, direct, maxDepth)
	if tm := s.app.loadTestMap(); tm != nil {
		result = result.WithTests(tm)
	}
	span.SetAttributes(
		attribute.Int("direct.count", len(result.DirectStale)),
		attribute.Int("propagated.count", len(result.PropagatedStale)),
	)
	return result, nil
}

func (s *analysisService) PrioritizeFixes(ctx context.Context, req ports.PrioritizeRequest) (priority.Result, error) {
	_, span := observability.Tracer.Start(ctx, "analysisService.PrioritizeFixes",
		trace.WithAttributes(attribute.Int("failures.count", len(req.Failures))))
	defer span.End()
	defer observeDuration("prioritize", s.now())

	if err := ctx.Err(); err != nil {
		return priority.Result{}, err
	}
	g, err := s.app.loadGraph()
	if err != nil {
		return priority.Result{}, err
	}

	hints := make([]priority.Hint, 0, len(s.app.Config.Prioritize.Hints))
	for _, h := range s.app.Config.Prioritize.Hints {
		hints = append(hints, priority.Hint{Dir: h.Dir, Priority: h.Priority})
	}

	var sources priority.SourceLookup
	if tm := s.app.loadTestMap(); tm != nil {
		sources = tm
	}

	result := priority.Prioritize(g, req.Failures, sources, hints)
	for _, unit := range result.Unmapped {
		slog.Debug("failing unit has no source mapping", "test", unit)
	}
	return result, nil
}

func (s *analysisService) ListCycles(ctx context.Context, limit int) (ports.CycleReport, error) {
	if err := ctx.Err(); err != nil {
		return ports.CycleReport{}, err
	}
	g, err := s.app.loadGraph()
	if err != nil {
		return ports.CycleReport{}, err
	}
	cycles := g.Cycles
	if limit > 0 && len(cycles) > limit {
		cycles = cycles[:limit]
	}
	return ports.CycleReport{Total: len(g.Cycles), Cycles: cycles}, nil
}

func (s *analysisService) TraceImportChain(ctx context.Context, from, to string) (ports.ChainResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.ChainResult{}, err
	}
	from = util.NormalizePatternPath(from)
	to = util.NormalizePatternPath(to)
	if from == "" || to == "" {
		return ports.ChainResult{}, coreerrors.New(coreerrors.CodeValidationError, "import chain needs two files")
	}

	g, err := s.app.loadGraph()
	if err != nil {
		return ports.ChainResult{}, err
	}
	for _, file := range []string{from, to} {
		if !g.Has(file) {
			return ports.ChainResult{}, coreerrors.Unresolved(file)
		}
	}

	path, found := g.ImportChain(from, to)
	return ports.ChainResult{From: from, To: to, Found: found, Path: path}, nil
}

func (s *analysisService) BuildHistory(ctx context.Context, limit int) (history.TrendReport, error) {
	if s.app.history == nil {
		return history.TrendReport{}, coreerrors.New(coreerrors.CodeConfiguration, "build history is disabled")
	}
	builds, err := s.app.history.RecentBuilds(ctx, s.app.Config.History.ProjectKey, limit)
	if err != nil {
		return history.TrendReport{}, coreerrors.Wrap(err, coreerrors.CodeFileAccess, "load build history")
	}
	return history.BuildTrendReport(s.app.Config.History.ProjectKey, builds)
}

// LoadGraph returns the current artifact as stored.
func (s *analysisService) LoadGraph(ctx context.Context) (*graph.DependencyGraph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.app.loadGraph()
}

func observeDuration(task string, start time.Time) {
	observability.AnalysisDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
}

func normalizeFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if norm := util.NormalizePatternPath(strings.TrimSpace(f)); norm != "" {
			out = append(out, norm)
		}
	}
	return util.UniqueStrings(out)
}
