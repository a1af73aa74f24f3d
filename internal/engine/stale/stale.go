// Package stale propagates staleness from changed files to everything that
// imports them, level by level.
package stale

import (
	"log/slog"
	"os"
	"sort"
	"time"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/engine/graph"
	"ripple/internal/shared/util"
)

const (
	MaxDepth     = 25
	DefaultDepth = 2
)

// DirectFile is a level-0 root. ModifiedAt is set when the file was found by
// comparing modification times.
type DirectFile struct {
	File       string     `json:"file"`
	ModifiedAt *time.Time `json:"modifiedAt,omitempty"`
}

// PropagatedFile is a dependent reached at Level hops from a root. Source is
// the file one hop closer to the root that discovered it.
type PropagatedFile struct {
	File   string `json:"file"`
	Level  int    `json:"level"`
	Source string `json:"source"`
}

type Result struct {
	MaxDepth        int              `json:"maxDepth"`
	DirectStale     []DirectFile     `json:"directStale"`
	PropagatedStale []PropagatedFile `json:"propagatedStale"`
	Summary         map[int]int      `json:"summary"`
	Tests           []string         `json:"tests,omitempty"`
}

// TestLookup translates a file set into the tests that cover it.
type TestLookup interface {
	TestsFor(files []string) []string
}

// ClampDepth bounds a requested depth to [0, MaxDepth].
func ClampDepth(depth int) int {
	if depth < 0 {
		return 0
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

// Explicit turns a supplied changed-file list into direct roots.
func Explicit(files []string) []DirectFile {
	unique := util.SortedCopy(util.UniqueStrings(files))
	out := make([]DirectFile, 0, len(unique))
	for _, file := range unique {
		out = append(out, DirectFile{File: file})
	}
	return out
}

// DetectModified returns every known file whose modification time is
// strictly after the graph's generation time. Files that cannot be stat'ed
// are logged and skipped.
func DetectModified(root string, g *graph.DependencyGraph) []DirectFile {
	out := make([]DirectFile, 0)
	for _, path := range g.Paths() {
		info, err := os.Stat(util.ResolveUnder(root, path))
		if err != nil {
			slog.Debug("skipping stale check", "path", path, "error", coreerrors.FileAccess(path, err))
			continue
		}
		if !info.ModTime().After(g.GeneratedAt) {
			continue
		}
		modified := info.ModTime().UTC()
		out = append(out, DirectFile{File: path, ModifiedAt: &modified})
	}
	return out
}

// Propagate runs a multi-source leveled BFS over ImportedBy. Every root
// starts at level 0; a file is visited once, so its level is the minimum
// distance to any root and its source is its first discoverer. A file at
// maxDepth is reported but not expanded.
func Propagate(g *graph.DependencyGraph, direct []DirectFile, maxDepth int) Result {
	maxDepth = ClampDepth(maxDepth)

	roots := make([]DirectFile, 0, len(direct))
	seenRoot := make(map[string]bool, len(direct))
	for _, d := range direct {
		if d.File == "" || seenRoot[d.File] {
			continue
		}
		seenRoot[d.File] = true
		roots = append(roots, d)
	}
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].File < roots[j].File })

	result := Result{
		MaxDepth:        maxDepth,
		DirectStale:     roots,
		PropagatedStale: []PropagatedFile{},
		Summary:         map[int]int{0: len(roots)},
	}

	type entry struct {
		file  string
		level int
	}
	visited := make(map[string]bool, len(roots))
	queue := make([]entry, 0, len(roots))
	for _, root := range roots {
		visited[root.File] = true
		queue = append(queue, entry{file: root.File})
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		if curr.level >= maxDepth {
			continue
		}
		for _, dep := range g.Dependents(curr.file) {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			level := curr.level + 1
			result.PropagatedStale = append(result.PropagatedStale, PropagatedFile{
				File:   dep,
				Level:  level,
				Source: curr.file,
			})
			result.Summary[level]++
			queue = append(queue, entry{file: dep, level: level})
		}
	}
	return result
}

// Files returns the direct and propagated files of r, roots first.
func (r Result) Files() []string {
	out := make([]string, 0, len(r.DirectStale)+len(r.PropagatedStale))
	for _, d := range r.DirectStale {
		out = append(out, d.File)
	}
	for _, p := range r.PropagatedStale {
		out = append(out, p.File)
	}
	return out
}

// Levels returns the summary levels in ascending order.
func (r Result) Levels() []int {
	levels := make([]int, 0, len(r.Summary))
	for level := range r.Summary {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// WithTests attaches the tests covering every stale file.
func (r Result) WithTests(tests TestLookup) Result {
	if tests != nil {
		r.Tests = tests.TestsFor(r.Files())
	}
	return r
}
