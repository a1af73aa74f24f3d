package graph

import (
	"sort"
	"time"
)

// Version is the artifact schema version written by this build of ripple.
const Version = 1

// FileNode is one scanned source file. Imports and ImportedBy are sets; their
// order carries no meaning.
type FileNode struct {
	Path       string
	Imports    []string
	ImportedBy []string
}

// Cycle is one elementary cycle in DFS discovery order.
type Cycle []string

type Stats struct {
	TotalFiles int
	TotalEdges int
	CycleCount int
}

// DependencyGraph is an immutable snapshot of a project's file-level import
// graph. Analyzers receive it explicitly and never modify it.
type DependencyGraph struct {
	Version        int
	BuildID        string
	GeneratedAt    time.Time
	Root           string
	TargetLanguage string
	Files          map[string]*FileNode
	Cycles         []Cycle
	Stats          Stats
	Skipped        int
}

// NewDependencyGraph assembles a snapshot from forward adjacency keyed by
// canonical path. Targets that are not keys themselves are dropped so every
// edge joins two known files, and self edges are dropped. Reverse edges,
// cycles and stats are derived.
func NewDependencyGraph(imports map[string][]string) *DependencyGraph {
	files := make(map[string]*FileNode, len(imports))
	for path := range imports {
		files[path] = &FileNode{Path: path}
	}

	paths := sortedPaths(files)
	for _, path := range paths {
		seen := make(map[string]bool, len(imports[path]))
		node := files[path]
		for _, target := range imports[path] {
			if _, ok := files[target]; !ok || seen[target] || target == path {
				continue
			}
			seen[target] = true
			node.Imports = append(node.Imports, target)
		}
	}

	// Second pass: reverse edges.
	edges := 0
	for _, path := range paths {
		for _, target := range files[path].Imports {
			files[target].ImportedBy = append(files[target].ImportedBy, path)
			edges++
		}
	}

	cycles := DetectCycles(files)
	return &DependencyGraph{
		Version: Version,
		Files:   files,
		Cycles:  cycles,
		Stats: Stats{
			TotalFiles: len(files),
			TotalEdges: edges,
			CycleCount: len(cycles),
		},
	}
}

// Has reports whether path is a known file.
func (g *DependencyGraph) Has(path string) bool {
	_, ok := g.Files[path]
	return ok
}

// Imports returns the forward edges of path, or nil for unknown files.
func (g *DependencyGraph) Imports(path string) []string {
	if node, ok := g.Files[path]; ok {
		return node.Imports
	}
	return nil
}

// ImportedBy returns the reverse edges of path, or nil for unknown files.
func (g *DependencyGraph) ImportedBy(path string) []string {
	if node, ok := g.Files[path]; ok {
		return node.ImportedBy
	}
	return nil
}

// Dependents returns the sorted direct importers of path.
func (g *DependencyGraph) Dependents(path string) []string {
	return sortedCopy(g.ImportedBy(path))
}

// Paths returns every known file in lexicographic order.
func (g *DependencyGraph) Paths() []string {
	return sortedPaths(g.Files)
}

// ImportChain returns the shortest forward import path from one file to
// another, preferring lexicographically smaller hops on ties.
func (g *DependencyGraph) ImportChain(from, to string) ([]string, bool) {
	if !g.Has(from) || !g.Has(to) {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, next := range sortedCopy(g.Imports(curr)) {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					node = prev[node]
					path = append(path, node)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}
			queue = append(queue, next)
		}
	}
	return nil, false
}

func sortedPaths(files map[string]*FileNode) []string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func sortedCopy(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
