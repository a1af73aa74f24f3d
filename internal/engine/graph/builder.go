package graph

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/engine/parser"
	"ripple/internal/engine/resolver"
	"ripple/internal/shared/observability"
	"ripple/internal/shared/util"
)

type BuildOptions struct {
	Scan              ScanOptions
	Language          parser.Language
	Concurrency       int
	MaxFilesPerSecond float64
}

// Builder produces a fresh DependencyGraph on every Build call. It has no
// side effects beyond reading the project tree.
type Builder struct {
	opts      BuildOptions
	scanner   *Scanner
	extractor parser.Extractor
	limiter   *util.Limiter

	readFile func(string) ([]byte, error)
	now      func() time.Time
}

func NewBuilder(opts BuildOptions, extractor parser.Extractor) (*Builder, error) {
	scanner, err := NewScanner(opts.Scan)
	if err != nil {
		return nil, err
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if extractor == nil {
		extractor = parser.NewPatternExtractor()
	}
	return &Builder{
		opts:      opts,
		scanner:   scanner,
		extractor: extractor,
		limiter:   util.NewLimiter(opts.MaxFilesPerSecond, opts.Concurrency),
		readFile:  os.ReadFile,
		now:       time.Now,
	}, nil
}

type fileResult struct {
	specs []string
	ok    bool
}

func (b *Builder) Build(ctx context.Context) (*DependencyGraph, error) {
	ctx, span := observability.Tracer.Start(ctx, "graph.Build")
	defer span.End()

	start := time.Now()
	generatedAt := b.now().UTC()

	paths, err := b.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	observability.FilesScanned.Set(float64(len(paths)))
	span.SetAttributes(attribute.Int("files.scanned", len(paths)))

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, rel := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := b.limiter.Wait(gctx, 1); err != nil {
				return err
			}
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := b.readFile(filepath.Join(b.scanner.Root(), filepath.FromSlash(rel)))
			if err != nil {
				slog.Warn("skipping unreadable file", "path", rel, "error", coreerrors.FileAccess(rel, err))
				return nil
			}
			results[i] = fileResult{
				specs: b.extractor.Extract(content, b.opts.Language.ForFile(rel)),
				ok:    true,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	known := make([]string, 0, len(paths))
	skipped := 0
	for i, rel := range paths {
		if results[i].ok {
			known = append(known, rel)
		} else {
			skipped++
		}
	}
	if skipped > 0 {
		observability.FilesSkippedTotal.WithLabelValues("unreadable").Add(float64(skipped))
	}

	res := resolver.NewResolver(known, b.opts.Scan.Extensions)
	imports := make(map[string][]string, len(known))
	for i, rel := range paths {
		if !results[i].ok {
			continue
		}
		targets, unresolved := res.ResolveAll(rel, results[i].specs)
		for _, spec := range unresolved {
			slog.Debug("unresolved import", "error", coreerrors.UnresolvedSpecifier(rel, spec))
		}
		observability.UnresolvedImportsTotal.Add(float64(len(unresolved)))
		imports[rel] = targets
	}

	dg := NewDependencyGraph(imports)
	dg.BuildID = uuid.NewString()
	dg.GeneratedAt = generatedAt
	dg.Root = b.scanner.Root()
	dg.TargetLanguage = string(b.opts.Language)
	dg.Skipped = skipped

	elapsed := time.Since(start)
	observability.BuildDuration.Observe(elapsed.Seconds())
	observability.GraphNodes.Set(float64(dg.Stats.TotalFiles))
	observability.GraphEdges.Set(float64(dg.Stats.TotalEdges))
	observability.GraphCycles.Set(float64(dg.Stats.CycleCount))
	span.SetAttributes(
		attribute.Int("graph.files", dg.Stats.TotalFiles),
		attribute.Int("graph.edges", dg.Stats.TotalEdges),
		attribute.Int("graph.cycles", dg.Stats.CycleCount),
	)

	slog.Info("dependency graph built",
		"files", dg.Stats.TotalFiles,
		"edges", dg.Stats.TotalEdges,
		"cycles", dg.Stats.CycleCount,
		"skipped", skipped,
		"duration", elapsed,
	)
	return dg, nil
}
