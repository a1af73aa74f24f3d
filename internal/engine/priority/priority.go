// Package priority orders failing source files so that fixes with the
// largest cascading effect come first.
package priority

import (
	"sort"
	"strings"

	"ripple/internal/engine/graph"
	"ripple/internal/shared/util"
)

const (
	RootCauseLimit = 10
	BatchSize      = 5
)

// FailingUnit is one failing test and how many times it failed.
type FailingUnit struct {
	Test     string `json:"test"`
	Failures int    `json:"failures"`
}

// Hint raises the priority of files under Dir. The longest matching Dir
// wins.
type Hint struct {
	Dir      string `json:"dir"`
	Priority int    `json:"priority"`
}

// SourceLookup maps a test back to the source file it covers.
type SourceLookup interface {
	SourceFor(test string) (string, bool)
}

type Entry struct {
	File           string   `json:"file"`
	FailureCount   int      `json:"failureCount"`
	Dependents     int      `json:"dependents"`
	PotentialFixes int      `json:"potentialFixes"`
	HintPriority   int      `json:"hintPriority,omitempty"`
	Tests          []string `json:"tests"`
}

type Result struct {
	RootCauses         []Entry    `json:"rootCauses"`
	DeferredRootCauses []Entry    `json:"deferredRootCauses,omitempty"`
	LeafNodes          []Entry    `json:"leafNodes"`
	Independent        [][]string `json:"independent"`
	Unmapped           []string   `json:"unmapped,omitempty"`
}

// Ordered returns every ranked file in remediation order.
func (r Result) Ordered() []string {
	out := make([]string, 0, len(r.RootCauses)+len(r.DeferredRootCauses)+len(r.LeafNodes))
	for _, group := range [][]Entry{r.RootCauses, r.DeferredRootCauses, r.LeafNodes} {
		for _, e := range group {
			out = append(out, e.File)
		}
	}
	return out
}

// Prioritize maps failing units to source files and ranks them by direct
// dependents, potential cascading fixes and failure count. Units that map
// to no known source are reported in Unmapped.
func Prioritize(g *graph.DependencyGraph, failures []FailingUnit, sources SourceLookup, hints []Hint) Result {
	bySource := make(map[string]*Entry)
	unmapped := make([]string, 0)
	seenUnmapped := make(map[string]bool)

	for _, unit := range failures {
		test := strings.TrimSpace(unit.Test)
		if test == "" {
			continue
		}
		count := unit.Failures
		if count <= 0 {
			count = 1
		}

		src, ok := mapToSource(g, sources, test)
		if !ok {
			if !seenUnmapped[test] {
				seenUnmapped[test] = true
				unmapped = append(unmapped, test)
			}
			continue
		}

		entry, exists := bySource[src]
		if !exists {
			entry = &Entry{File: src, Tests: []string{}}
			bySource[src] = entry
		}
		entry.FailureCount += count
		entry.Tests = append(entry.Tests, test)
	}

	ranked := make([]Entry, 0, len(bySource))
	for _, src := range util.SortedStringKeys(bySource) {
		entry := bySource[src]
		entry.Tests = util.SortedCopy(util.UniqueStrings(entry.Tests))
		dependents := g.ImportedBy(src)
		entry.Dependents = len(dependents)
		for _, dep := range dependents {
			if failing, ok := bySource[dep]; ok {
				entry.PotentialFixes += failing.FailureCount
			}
		}
		entry.HintPriority = hintPriority(src, hints)
		ranked = append(ranked, *entry)
	}
	sort.SliceStable(ranked, func(i, j int) bool { return less(ranked[i], ranked[j]) })

	result := Result{
		RootCauses:  []Entry{},
		LeafNodes:   []Entry{},
		Independent: [][]string{},
	}
	for _, entry := range ranked {
		switch {
		case entry.Dependents == 0:
			result.LeafNodes = append(result.LeafNodes, entry)
		case len(result.RootCauses) < RootCauseLimit:
			result.RootCauses = append(result.RootCauses, entry)
		default:
			result.DeferredRootCauses = append(result.DeferredRootCauses, entry)
		}
	}

	for start := 0; start < len(result.LeafNodes); start += BatchSize {
		end := start + BatchSize
		if end > len(result.LeafNodes) {
			end = len(result.LeafNodes)
		}
		batch := make([]string, 0, end-start)
		for _, entry := range result.LeafNodes[start:end] {
			batch = append(batch, entry.File)
		}
		result.Independent = append(result.Independent, batch)
	}

	if len(unmapped) > 0 {
		sort.Strings(unmapped)
		result.Unmapped = unmapped
	}
	return result
}

func mapToSource(g *graph.DependencyGraph, sources SourceLookup, test string) (string, bool) {
	if sources != nil {
		if src, ok := sources.SourceFor(test); ok && g.Has(src) {
			return src, true
		}
	}
	if norm := util.NormalizePatternPath(test); g.Has(norm) {
		return norm, true
	}
	return "", false
}

func less(a, b Entry) bool {
	if a.Dependents != b.Dependents {
		return a.Dependents > b.Dependents
	}
	if a.PotentialFixes != b.PotentialFixes {
		return a.PotentialFixes > b.PotentialFixes
	}
	if a.FailureCount != b.FailureCount {
		return a.FailureCount > b.FailureCount
	}
	if a.HintPriority != b.HintPriority {
		return a.HintPriority > b.HintPriority
	}
	return a.File < b.File
}

func hintPriority(path string, hints []Hint) int {
	best, bestLen := 0, -1
	for _, h := range hints {
		dir := util.NormalizePatternPath(h.Dir)
		if dir == "" || !util.HasPathPrefix(path, dir) {
			continue
		}
		if len(dir) > bestLen {
			best, bestLen = h.Priority, len(dir)
		}
	}
	return best
}
