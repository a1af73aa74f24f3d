// Package impact answers "what does changing these files affect" over the
// reverse edges of a dependency graph.
package impact

import (
	"sort"

	"ripple/internal/engine/graph"
	"ripple/internal/shared/util"
)

const (
	MaxDepth             = 2
	DefaultDepth         = 2
	DefaultRiskThreshold = 50
	DefaultRiskTop       = 10
)

// TestLookup translates a file set into the tests that cover it.
type TestLookup interface {
	TestsFor(files []string) []string
}

type Options struct {
	Depth         int
	RiskThreshold int
	RiskTop       int
	Tests         TestLookup
}

// DefaultOptions returns depth 2, threshold 50 and a top 10 risk list.
func DefaultOptions() Options {
	return Options{
		Depth:         DefaultDepth,
		RiskThreshold: DefaultRiskThreshold,
		RiskTop:       DefaultRiskTop,
	}
}

// RiskEntry is a changed file and the number of distinct files that
// transitively import it.
type RiskEntry struct {
	File  string `json:"file"`
	Reach int    `json:"reach"`
}

type Result struct {
	Changed         []string            `json:"changed"`
	Depth           int                 `json:"depth"`
	L1              []string            `json:"l1"`
	L2              []string            `json:"l2"`
	Affected        []string            `json:"affected"`
	HighRisk        []RiskEntry         `json:"highRisk"`
	ModuleBreakdown map[string][]string `json:"moduleBreakdown"`
	Tests           []string            `json:"tests,omitempty"`
	Unknown         []string            `json:"unknown,omitempty"`
}

// Layers holds the output of a layered traversal.
type Layers struct {
	L1       []string
	L2       []string
	Affected []string
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

// Analyze runs the layered traversal, risk scoring, module breakdown and
// optional test translation for one changed-file set.
func Analyze(g *graph.DependencyGraph, changed []string, opts Options) Result {
	changed = util.UniqueStrings(changed)
	depth := ClampDepth(opts.Depth)

	layers := Layered(g, changed, depth)
	result := Result{
		Changed:         changed,
		Depth:           depth,
		L1:              layers.L1,
		L2:              layers.L2,
		Affected:        layers.Affected,
		HighRisk:        Risk(g, changed, opts.RiskThreshold, opts.RiskTop),
		ModuleBreakdown: ModuleBreakdown(layers.Affected),
	}

	for _, file := range changed {
		if !g.Has(file) {
			result.Unknown = append(result.Unknown, file)
		}
	}

	if opts.Tests != nil {
		scope := make([]string, 0, len(changed)+len(layers.Affected))
		scope = append(scope, changed...)
		scope = append(scope, layers.Affected...)
		result.Tests = opts.Tests.TestsFor(scope)
	}
	return result
}

// Layered walks ImportedBy breadth first from every changed file at once.
// Files at distance 1 land in L1, distance 2 in L2. Changed files are never
// reported as affected.
func Layered(g *graph.DependencyGraph, changed []string, depth int) Layers {
	depth = ClampDepth(depth)
	layers := Layers{L1: []string{}, L2: []string{}, Affected: []string{}}

	visited := make(map[string]bool, len(changed))
	frontier := make([]string, 0, len(changed))
	for _, file := range util.SortedCopy(changed) {
		if visited[file] {
			continue
		}
		visited[file] = true
		frontier = append(frontier, file)
	}

	for level := 1; level <= depth && len(frontier) > 0; level++ {
		next := make([]string, 0)
		for _, file := range frontier {
			for _, dep := range g.Dependents(file) {
				if visited[dep] {
					continue
				}
				visited[dep] = true
				next = append(next, dep)
			}
		}
		sort.Strings(next)
		switch level {
		case 1:
			layers.L1 = next
		case 2:
			layers.L2 = next
		}
		frontier = next
	}

	layers.Affected = append(layers.Affected, layers.L1...)
	layers.Affected = append(layers.Affected, layers.L2...)
	sort.Strings(layers.Affected)
	return layers
}

// Reach counts the distinct files that transitively import file. The
// traversal is unbounded; the visited set keeps cycles finite.
func Reach(g *graph.DependencyGraph, file string) int {
	visited := map[string]bool{file: true}
	queue := []string{file}
	count := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, dep := range g.ImportedBy(curr) {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			count++
			queue = append(queue, dep)
		}
	}
	return count
}

// Risk scores each changed file by its unbounded reach and returns those at
// or above threshold, highest first, capped to top entries.
func Risk(g *graph.DependencyGraph, changed []string, threshold, top int) []RiskEntry {
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}
	if top <= 0 {
		top = DefaultRiskTop
	}

	entries := make([]RiskEntry, 0)
	for _, file := range util.UniqueStrings(changed) {
		if reach := Reach(g, file); reach >= threshold {
			entries = append(entries, RiskEntry{File: file, Reach: reach})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Reach != entries[j].Reach {
			return entries[i].Reach > entries[j].Reach
		}
		return entries[i].File < entries[j].File
	})
	if len(entries) > top {
		entries = entries[:top]
	}
	return entries
}

// ModuleBreakdown groups files by their first path segment.
func ModuleBreakdown(files []string) map[string][]string {
	out := make(map[string][]string)
	for _, file := range files {
		mod := util.FirstSegment(file)
		out[mod] = append(out[mod], file)
	}
	for mod := range out {
		sort.Strings(out[mod])
	}
	return out
}
