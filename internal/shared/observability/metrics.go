package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ripple_graph_build_seconds",
		Help:    "Time spent building the dependency graph.",
		Buckets: prometheus.DefBuckets,
	})

	FilesScanned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_files_scanned",
		Help: "Number of source files enumerated by the last build.",
	})

	FilesSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_files_skipped_total",
		Help: "Files excluded from the graph during a build, by reason.",
	}, []string{"reason"})

	UnresolvedImportsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ripple_unresolved_imports_total",
		Help: "Relative import specifiers that matched no scanned file.",
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_graph_nodes_total",
		Help: "Total number of files in the dependency graph.",
	})

	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_graph_edges_total",
		Help: "Total number of import edges in the dependency graph.",
	})

	GraphCycles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ripple_graph_cycles_total",
		Help: "Number of elementary cycles reported by the last build.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ripple_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	ArtifactWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ripple_artifact_writes_total",
		Help: "Total number of graph artifacts persisted.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ripple_watcher_events_total",
		Help: "Total number of file system events received in watch mode.",
	})
)

// WriteTextfile dumps the default registry in the node-exporter textfile
// format. Commands are short lived, so this replaces a scrape endpoint.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
