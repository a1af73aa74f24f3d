package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"ripple/internal/core/app"
	"ripple/internal/core/config"
	coreerrors "ripple/internal/core/errors"
	"ripple/internal/core/ports"
	"ripple/internal/engine/priority"
	"ripple/internal/shared/observability"
	"ripple/internal/ui/report"
)

const (
	VERSION           = "0.3.0"
	defaultConfigPath = "ripple.toml"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type options struct {
	configPath  string
	build       bool
	impact      bool
	stale       bool
	prioritize  string
	cycles      bool
	chain       string
	history     int
	export      string
	watch       bool
	changed     string
	changedFrom string
	depth       int
	maxDepth    int
	limit       int
	format      string
	verbose     bool
	version     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var opts options
	fs := flag.NewFlagSet("ripple", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.build, "build", false, "Rebuild the dependency graph artifact")
	fs.BoolVar(&opts.impact, "impact", false, "Report files affected by the changed files")
	fs.BoolVar(&opts.stale, "stale", false, "Propagate staleness from changed or modified files")
	fs.StringVar(&opts.prioritize, "prioritize", "", "Rank fixes for the failing units in this file (- for stdin)")
	fs.BoolVar(&opts.cycles, "cycles", false, "List import cycles in the current artifact")
	fs.StringVar(&opts.chain, "chain", "", "Shortest import chain between two files: from,to")
	fs.IntVar(&opts.history, "history", 0, "Show the last N recorded builds")
	fs.StringVar(&opts.export, "export", "", "Render the current graph as a diagram: dot or mermaid")
	fs.BoolVar(&opts.watch, "watch", false, "Rebuild on source changes and report stale files")
	fs.StringVar(&opts.changed, "changed", "", "Comma separated changed files")
	fs.StringVar(&opts.changedFrom, "changed-from", "", "File listing changed files, one per line")
	fs.IntVar(&opts.depth, "depth", -1, "Impact depth (0-2, default from config)")
	fs.IntVar(&opts.maxDepth, "max-depth", -1, "Stale propagation depth (0-25, default from config)")
	fs.IntVar(&opts.limit, "limit", 0, "Maximum cycles to list (0 = all)")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json or tsv")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	return opts, fs.Args(), nil
}

func (o options) commandCount() int {
	n := 0
	for _, set := range []bool{o.build, o.impact, o.stale, o.prioritize != "", o.cycles, o.chain != "", o.history > 0, o.export != "", o.watch} {
		if set {
			n++
		}
	}
	return n
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "ripple v%s\n", VERSION)
		return exitOK
	}

	logLevel := slog.LevelInfo
	if opts.verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel})))

	if opts.commandCount() != 1 {
		fmt.Fprintln(stderr, "exactly one of -build, -impact, -stale, -prioritize, -cycles, -chain, -history, -export or -watch is required")
		return exitUsage
	}
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitUsage
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitError
	}
	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to resolve working directory", "error", err)
		return exitError
	}
	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		return exitError
	}

	shutdown, err := observability.SetupTracing(ctx, cfg.Observability.TracingEndpoint, VERSION)
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		shutdown = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	a, err := app.New(cfg, paths)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitError
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			slog.Warn("failed to close app", "error", err)
		}
	}()

	if opts.watch {
		return runWatch(ctx, a, format, stdout)
	}

	out, err := dispatch(ctx, a.AnalysisService(), opts, rest, stdin, format)
	if werr := observability.WriteTextfile(paths.MetricsTextfile); werr != nil {
		slog.Warn("failed to write metrics", "error", werr)
	}
	if err != nil {
		if coreerrors.IsCode(err, coreerrors.CodeArtifactMissing) {
			fmt.Fprintln(stderr, "no dependency graph found; run `ripple -build` first")
		}
		slog.Error("command failed", "error", err)
		return exitError
	}

	if _, err := stdout.Write(out); err != nil {
		slog.Error("failed to write output", "error", err)
		return exitError
	}
	return exitOK
}

func dispatch(ctx context.Context, svc ports.AnalysisService, opts options, rest []string, stdin io.Reader, format report.Format) ([]byte, error) {
	switch {
	case opts.build:
		res, err := svc.BuildGraph(ctx)
		if err != nil {
			return nil, err
		}
		return report.Build(res, format)

	case opts.impact:
		changed, err := changedFiles(opts, rest)
		if err != nil {
			return nil, err
		}
		req := ports.ImpactRequest{Changed: changed}
		if opts.depth >= 0 {
			req.Depth = &opts.depth
		}
		res, err := svc.AnalyzeImpact(ctx, req)
		if err != nil {
			return nil, err
		}
		return report.Impact(res, format)

	case opts.stale:
		changed, err := changedFiles(opts, rest)
		if err != nil {
			return nil, err
		}
		req := ports.StaleRequest{Changed: changed}
		if opts.maxDepth >= 0 {
			req.MaxDepth = &opts.maxDepth
		}
		res, err := svc.PropagateStale(ctx, req)
		if err != nil {
			return nil, err
		}
		return report.Stale(res, format)

	case opts.prioritize != "":
		failures, err := readFailures(opts.prioritize, stdin)
		if err != nil {
			return nil, err
		}
		res, err := svc.PrioritizeFixes(ctx, ports.PrioritizeRequest{Failures: failures})
		if err != nil {
			return nil, err
		}
		return report.Priority(res, format)

	case opts.cycles:
		res, err := svc.ListCycles(ctx, opts.limit)
		if err != nil {
			return nil, err
		}
		return report.Cycles(res, format)

	case opts.chain != "":
		ends := app.SplitList(opts.chain)
		if len(ends) != 2 {
			return nil, coreerrors.New(coreerrors.CodeValidationError, "-chain expects two files: from,to")
		}
		res, err := svc.TraceImportChain(ctx, ends[0], ends[1])
		if err != nil {
			return nil, err
		}
		return report.Chain(res, format)

	case opts.export != "":
		kind, err := report.ParseExportKind(opts.export)
		if err != nil {
			return nil, err
		}
		g, err := svc.LoadGraph(ctx)
		if err != nil {
			return nil, err
		}
		return report.Export(g, kind)

	default:
		res, err := svc.BuildHistory(ctx, opts.history)
		if err != nil {
			return nil, err
		}
		return report.Trend(res, format)
	}
}

func runWatch(ctx context.Context, a *app.App, format report.Format, stdout io.Writer) int {
	err := a.Watch(ctx, func(u app.WatchUpdate) {
		out, err := report.Stale(u.Stale, format)
		if err != nil {
			slog.Warn("failed to render stale report", "error", err)
			return
		}
		if _, err := stdout.Write(out); err != nil {
			slog.Warn("failed to write output", "error", err)
		}
	})
	if err != nil {
		slog.Error("watch failed", "error", err)
		return exitError
	}
	return exitOK
}

// changedFiles merges -changed, -changed-from and positional arguments.
func changedFiles(opts options, rest []string) ([]string, error) {
	files := app.SplitList(opts.changed)
	if opts.changedFrom != "" {
		fromFile, err := app.ReadChangedFiles(opts.changedFrom)
		if err != nil {
			return nil, err
		}
		files = append(files, fromFile...)
	}
	return append(files, rest...), nil
}

func readFailures(path string, stdin io.Reader) ([]priority.FailingUnit, error) {
	if strings.TrimSpace(path) == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeFileAccess, "read failing units from stdin")
		}
		return app.ParseFailingUnits(data)
	}
	return app.ReadFailingUnits(path)
}

// loadConfig reads path. When the default file is absent the built-in
// defaults are used so ripple works in an unconfigured project.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", path)
		cfg := config.DefaultConfig()
		config.ApplyEnvOverrides(cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}
