package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvedPaths holds absolute locations for everything a command reads or
// writes. They are resolved once at the boundary and passed down explicitly.
type ResolvedPaths struct {
	ProjectRoot     string
	StateDir        string
	GraphArtifact   string
	TestMap         string
	HistoryDB       string
	MetricsTextfile string
}

func ResolvePaths(cfg *Config, cwd string) (ResolvedPaths, error) {
	if strings.TrimSpace(cwd) == "" {
		return ResolvedPaths{}, fmt.Errorf("cwd must not be empty")
	}

	projectRoot := strings.TrimSpace(cfg.Paths.ProjectRoot)
	if projectRoot != "" {
		projectRoot = ResolveRelative(cwd, projectRoot)
	} else {
		root, err := DetectProjectRoot([]string{cwd})
		if err != nil {
			return ResolvedPaths{}, err
		}
		projectRoot = root
	}

	stateDir := ResolveRelative(projectRoot, cfg.Paths.StateDir)

	resolved := ResolvedPaths{
		ProjectRoot:   filepath.Clean(projectRoot),
		StateDir:      stateDir,
		GraphArtifact: ResolveRelative(stateDir, cfg.Paths.GraphArtifact),
		TestMap:       ResolveRelative(stateDir, cfg.Paths.TestMap),
		HistoryDB:     ResolveRelative(stateDir, cfg.History.Path),
	}
	if textfile := strings.TrimSpace(cfg.Observability.MetricsTextfile); textfile != "" {
		resolved.MetricsTextfile = ResolveRelative(stateDir, textfile)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// DetectProjectRoot walks up from each candidate until a directory holding a
// project marker is found, falling back to the working directory.
func DetectProjectRoot(candidates []string) (string, error) {
	markers := []string{
		"ripple.toml",
		".git",
		"go.mod",
		"package.json",
		"pyproject.toml",
		"Cargo.toml",
	}

	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) == "" {
			continue
		}

		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		root := abs
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			root = filepath.Dir(abs)
		}

		for {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
					return filepath.Clean(root), nil
				}
			}
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(cwd), nil
}
