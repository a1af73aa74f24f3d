package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	coreerrors "ripple/internal/core/errors"
)

const (
	ExtractorPattern = "pattern"
	ExtractorSyntax  = "syntax"

	DefaultImpactDepth   = 2
	DefaultRiskThreshold = 50
	DefaultRiskTop       = 10
	DefaultStaleDepth    = 2
	DefaultDebounceMS    = 300

	maxDefaultConcurrency = 16
)

type Config struct {
	Version       int           `toml:"version"`
	Language      string        `toml:"language"`
	Paths         Paths         `toml:"paths"`
	Scan          Scan          `toml:"scan"`
	Impact        Impact        `toml:"impact"`
	Stale         Stale         `toml:"stale"`
	Prioritize    Prioritize    `toml:"prioritize"`
	History       History       `toml:"history"`
	Watch         Watch         `toml:"watch"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot   string `toml:"project_root"`
	StateDir      string `toml:"state_dir"`
	GraphArtifact string `toml:"graph_artifact"`
	TestMap       string `toml:"test_map"`
}

type Scan struct {
	SourceDirs        []string `toml:"source_dirs"`
	Include           string   `toml:"include"`
	Ignore            []string `toml:"ignore"`
	Extensions        []string `toml:"extensions"`
	Extractor         string   `toml:"extractor"`
	Concurrency       int      `toml:"concurrency"`
	MaxFilesPerSecond float64  `toml:"max_files_per_second"`
}

type Impact struct {
	Depth         *int `toml:"depth"`
	RiskThreshold int  `toml:"risk_threshold"`
	RiskTop       int  `toml:"risk_top"`
}

type Stale struct {
	MaxDepth *int `toml:"max_depth"`
}

type Prioritize struct {
	Hints []PriorityHint `toml:"hints"`
}

type PriorityHint struct {
	Dir      string `toml:"dir"`
	Priority int    `toml:"priority"`
}

type History struct {
	Enabled    *bool  `toml:"enabled"`
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Watch struct {
	DebounceMS int `toml:"debounce_ms"`
}

type Observability struct {
	MetricsTextfile string `toml:"metrics_textfile"`
	TracingEndpoint string `toml:"tracing_endpoint"`
}

// languageExtensions lists the default source extensions per target
// language, in resolution priority order.
var languageExtensions = map[string][]string{
	"typescript": {".ts", ".tsx", ".js", ".jsx"},
	"javascript": {".js", ".jsx", ".mjs", ".cjs"},
	"python":     {".py"},
	"go":         {".go"},
	"rust":       {".rs"},
}

// SupportedLanguages returns the accepted values for the language key.
func SupportedLanguages() []string {
	return []string{"go", "javascript", "python", "rust", "typescript"}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfiguration, "read config file")
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfiguration, "parse config file")
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns a fully defaulted configuration scanning the whole
// project root as TypeScript.
func DefaultConfig() *Config {
	cfg := &Config{
		Language: "typescript",
		Scan: Scan{
			SourceDirs: []string{"."},
		},
	}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	if cfg.Language == "" {
		cfg.Language = "typescript"
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = ".ripple"
	}
	if strings.TrimSpace(cfg.Paths.GraphArtifact) == "" {
		cfg.Paths.GraphArtifact = "graph.json"
	}
	if strings.TrimSpace(cfg.Paths.TestMap) == "" {
		cfg.Paths.TestMap = "test-map.json"
	}

	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = append([]string(nil), languageExtensions[cfg.Language]...)
	}
	cfg.Scan.Extractor = strings.ToLower(strings.TrimSpace(cfg.Scan.Extractor))
	if cfg.Scan.Extractor == "" {
		cfg.Scan.Extractor = ExtractorPattern
	}
	if cfg.Scan.Concurrency <= 0 {
		cfg.Scan.Concurrency = runtime.NumCPU()
		if cfg.Scan.Concurrency > maxDefaultConcurrency {
			cfg.Scan.Concurrency = maxDefaultConcurrency
		}
	}

	if cfg.Impact.Depth == nil {
		depth := DefaultImpactDepth
		cfg.Impact.Depth = &depth
	}
	if cfg.Impact.RiskThreshold <= 0 {
		cfg.Impact.RiskThreshold = DefaultRiskThreshold
	}
	if cfg.Impact.RiskTop <= 0 {
		cfg.Impact.RiskTop = DefaultRiskTop
	}
	if cfg.Stale.MaxDepth == nil {
		depth := DefaultStaleDepth
		cfg.Stale.MaxDepth = &depth
	}

	if cfg.History.Enabled == nil {
		enabled := true
		cfg.History.Enabled = &enabled
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if strings.TrimSpace(cfg.History.ProjectKey) == "" {
		cfg.History.ProjectKey = "default"
	}
	if cfg.Watch.DebounceMS <= 0 {
		cfg.Watch.DebounceMS = DefaultDebounceMS
	}
}

func (h History) IsEnabled() bool {
	if h.Enabled == nil {
		return true
	}
	return *h.Enabled
}

func (i Impact) DepthOrDefault() int {
	if i.Depth == nil {
		return DefaultImpactDepth
	}
	return *i.Depth
}

func (s Stale) MaxDepthOrDefault() int {
	if s.MaxDepth == nil {
		return DefaultStaleDepth
	}
	return *s.MaxDepth
}

func (w Watch) Debounce() time.Duration {
	if w.DebounceMS <= 0 {
		return DefaultDebounceMS * time.Millisecond
	}
	return time.Duration(w.DebounceMS) * time.Millisecond
}
