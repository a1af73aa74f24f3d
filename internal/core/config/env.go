package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: RIPPLE_[SECTION]_[KEY] (e.g., RIPPLE_SCAN_CONCURRENCY).
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Language, "RIPPLE_LANGUAGE")

	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "RIPPLE_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "RIPPLE_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.GraphArtifact, "RIPPLE_PATHS_GRAPH_ARTIFACT")
	setEnvString(&cfg.Paths.TestMap, "RIPPLE_PATHS_TEST_MAP")

	// Scan
	setEnvString(&cfg.Scan.Extractor, "RIPPLE_SCAN_EXTRACTOR")
	setEnvInt(&cfg.Scan.Concurrency, "RIPPLE_SCAN_CONCURRENCY")
	setEnvFloat64(&cfg.Scan.MaxFilesPerSecond, "RIPPLE_SCAN_MAX_FILES_PER_SECOND")

	// History
	setEnvBoolPtr(&cfg.History.Enabled, "RIPPLE_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "RIPPLE_HISTORY_PATH")

	// Observability
	setEnvString(&cfg.Observability.MetricsTextfile, "RIPPLE_OBSERVABILITY_METRICS_TEXTFILE")
	setEnvString(&cfg.Observability.TracingEndpoint, "RIPPLE_OBSERVABILITY_TRACING_ENDPOINT")

	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	cfg.Scan.Extractor = strings.ToLower(strings.TrimSpace(cfg.Scan.Extractor))
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}
