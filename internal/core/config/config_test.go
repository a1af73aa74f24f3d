package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	coreerrors "ripple/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ripple.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
language = "typescript"

[paths]
project_root = "."
graph_artifact = "deps.json"

[scan]
source_dirs = ["src", "lib"]
include = "**/*.ts"
ignore = ["**/*.d.ts", "fixtures"]
extractor = "syntax"
concurrency = 4

[impact]
depth = 0
risk_threshold = 25

[stale]
max_depth = 7

[[prioritize.hints]]
dir = "src/core"
priority = 5

[history]
enabled = false

[watch]
debounce_ms = 50
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Scan.SourceDirs) != 2 || cfg.Scan.SourceDirs[1] != "lib" {
		t.Errorf("unexpected source dirs: %v", cfg.Scan.SourceDirs)
	}
	if cfg.Scan.Extractor != ExtractorSyntax {
		t.Errorf("expected syntax extractor, got %q", cfg.Scan.Extractor)
	}
	if cfg.Scan.Concurrency != 4 {
		t.Errorf("expected concurrency 4, got %d", cfg.Scan.Concurrency)
	}
	if got := strings.Join(cfg.Scan.Extensions, ","); got != ".ts,.tsx,.js,.jsx" {
		t.Errorf("expected typescript default extensions, got %s", got)
	}
	if cfg.Impact.DepthOrDefault() != 0 {
		t.Errorf("explicit depth 0 must survive defaults, got %d", cfg.Impact.DepthOrDefault())
	}
	if cfg.Impact.RiskThreshold != 25 {
		t.Errorf("expected risk threshold 25, got %d", cfg.Impact.RiskThreshold)
	}
	if cfg.Impact.RiskTop != DefaultRiskTop {
		t.Errorf("expected default risk top, got %d", cfg.Impact.RiskTop)
	}
	if cfg.Stale.MaxDepthOrDefault() != 7 {
		t.Errorf("expected stale depth 7, got %d", cfg.Stale.MaxDepthOrDefault())
	}
	if len(cfg.Prioritize.Hints) != 1 || cfg.Prioritize.Hints[0].Priority != 5 {
		t.Errorf("unexpected hints: %+v", cfg.Prioritize.Hints)
	}
	if cfg.History.IsEnabled() {
		t.Errorf("expected history disabled")
	}
	if cfg.Watch.Debounce() != 50*time.Millisecond {
		t.Errorf("expected 50ms debounce, got %s", cfg.Watch.Debounce())
	}
	if cfg.Paths.GraphArtifact != "deps.json" {
		t.Errorf("expected graph artifact override, got %q", cfg.Paths.GraphArtifact)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
language = "python"
[scan]
source_dirs = ["app"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if got := strings.Join(cfg.Scan.Extensions, ","); got != ".py" {
		t.Errorf("expected python extensions, got %s", got)
	}
	if cfg.Scan.Extractor != ExtractorPattern {
		t.Errorf("expected pattern extractor, got %q", cfg.Scan.Extractor)
	}
	if cfg.Scan.Concurrency < 1 {
		t.Errorf("expected positive default concurrency, got %d", cfg.Scan.Concurrency)
	}
	if cfg.Impact.DepthOrDefault() != DefaultImpactDepth {
		t.Errorf("expected default impact depth, got %d", cfg.Impact.DepthOrDefault())
	}
	if cfg.Stale.MaxDepthOrDefault() != DefaultStaleDepth {
		t.Errorf("expected default stale depth, got %d", cfg.Stale.MaxDepthOrDefault())
	}
	if !cfg.History.IsEnabled() {
		t.Errorf("expected history enabled by default")
	}
	if cfg.Watch.DebounceMS != DefaultDebounceMS {
		t.Errorf("expected default debounce, got %d", cfg.Watch.DebounceMS)
	}
	if cfg.Paths.StateDir != ".ripple" {
		t.Errorf("expected default state dir, got %q", cfg.Paths.StateDir)
	}
}

func TestLoad_ConfigurationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "MissingSourceDirs",
			content: `language = "go"`,
			wantMsg: "scan.source_dirs",
		},
		{
			name: "UnknownLanguage",
			content: `
language = "cobol"
[scan]
source_dirs = ["src"]
`,
			wantMsg: "language must be one of",
		},
		{
			name: "BadExtractor",
			content: `
[scan]
source_dirs = ["src"]
extractor = "magic"
`,
			wantMsg: "scan.extractor",
		},
		{
			name: "BadIgnoreGlob",
			content: `
[scan]
source_dirs = ["src"]
ignore = ["[unterminated"]
`,
			wantMsg: "scan.ignore",
		},
		{
			name: "BadExtension",
			content: `
[scan]
source_dirs = ["src"]
extensions = ["ts"]
`,
			wantMsg: "scan.extensions",
		},
		{
			name: "EmptyHintDir",
			content: `
[scan]
source_dirs = ["src"]
[[prioritize.hints]]
dir = ""
`,
			wantMsg: "prioritize.hints",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !coreerrors.IsCode(err, coreerrors.CodeConfiguration) {
				t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected %q in %q", tc.wantMsg, err.Error())
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !coreerrors.IsCode(err, coreerrors.CodeConfiguration) {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("RIPPLE_SCAN_CONCURRENCY", "3")
	t.Setenv("RIPPLE_HISTORY_ENABLED", "false")
	t.Setenv("RIPPLE_LANGUAGE", " Go ")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	if cfg.Scan.Concurrency != 3 {
		t.Errorf("expected concurrency 3, got %d", cfg.Scan.Concurrency)
	}
	if cfg.History.IsEnabled() {
		t.Errorf("expected history disabled by env")
	}
	if cfg.Language != "go" {
		t.Errorf("expected normalized language, got %q", cfg.Language)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
