package report

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/engine/graph"
	"ripple/internal/shared/util"
)

// ExportKind selects a diagram syntax for the whole graph.
type ExportKind string

const (
	ExportDOT     ExportKind = "dot"
	ExportMermaid ExportKind = "mermaid"
)

func ParseExportKind(value string) (ExportKind, error) {
	switch ExportKind(strings.ToLower(strings.TrimSpace(value))) {
	case ExportDOT:
		return ExportDOT, nil
	case ExportMermaid:
		return ExportMermaid, nil
	}
	return "", coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("unknown export kind %q (want dot or mermaid)", value))
}

// Export renders g as a diagram. Files are grouped by top-level module and
// edges that close a cycle are highlighted.
func Export(g *graph.DependencyGraph, kind ExportKind) ([]byte, error) {
	switch kind {
	case ExportDOT:
		return []byte(exportDOT(g)), nil
	case ExportMermaid:
		return []byte(exportMermaid(g)), nil
	}
	return nil, coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("unknown export kind %q", kind))
}

func exportDOT(g *graph.DependencyGraph) string {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  splines=polyline;\n")
	buf.WriteString("  overlap=false;\n\n")

	cycleEdges := cycleEdgeSet(g.Cycles)
	cycleFiles := cycleFileSet(g.Cycles)

	groups := groupByModule(g.Paths())
	for i, module := range util.SortedStringKeys(groups) {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", module)
		buf.WriteString("    style=filled;\n")
		buf.WriteString("    color=\"whitesmoke\";\n")
		buf.WriteString("    node [fillcolor=\"white\", style=\"rounded,filled\"];\n")
		for _, file := range groups[module] {
			if cycleFiles[file] {
				fmt.Fprintf(&buf, "    %q [fillcolor=\"mistyrose\", color=\"red\", penwidth=2.0];\n", file)
			} else {
				fmt.Fprintf(&buf, "    %q [color=\"darkslategrey\"];\n", file)
			}
		}
		buf.WriteString("  }\n")
	}
	buf.WriteString("\n")

	for _, from := range g.Paths() {
		for _, to := range util.SortedCopy(g.Imports(from)) {
			if cycleEdges[from+"->"+to] {
				fmt.Fprintf(&buf, "  %q -> %q [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", from, to)
			} else {
				fmt.Fprintf(&buf, "  %q -> %q [color=\"forestgreen\"];\n", from, to)
			}
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

func exportMermaid(g *graph.DependencyGraph) string {
	var b strings.Builder
	b.WriteString("flowchart LR\n")

	paths := g.Paths()
	ids := makeMermaidIDs(paths)
	cycleEdges := cycleEdgeSet(g.Cycles)
	cycleFiles := cycleFileSet(g.Cycles)

	groups := groupByModule(paths)
	for _, module := range util.SortedStringKeys(groups) {
		fmt.Fprintf(&b, "  subgraph mod_%s[\"%s\"]\n", sanitizeMermaidID(module), escapeMermaidLabel(module))
		for _, file := range groups[module] {
			fmt.Fprintf(&b, "    %s[\"%s\"]\n", ids[file], escapeMermaidLabel(file))
		}
		b.WriteString("  end\n")
	}

	inCycle := make([]string, 0, len(cycleFiles))
	for _, file := range paths {
		if cycleFiles[file] {
			inCycle = append(inCycle, ids[file])
		}
	}
	if len(inCycle) > 0 {
		b.WriteString("  classDef cycleNode fill:#ffecec,stroke:#cc0000,stroke-width:2px;\n")
		fmt.Fprintf(&b, "  class %s cycleNode;\n", strings.Join(inCycle, ","))
	}

	b.WriteString("\n")
	linkIndex := 0
	cycleLinks := make([]string, 0)
	for _, from := range paths {
		for _, to := range util.SortedCopy(g.Imports(from)) {
			label := ""
			if cycleEdges[from+"->"+to] {
				label = "|CYCLE|"
				cycleLinks = append(cycleLinks, fmt.Sprint(linkIndex))
			}
			fmt.Fprintf(&b, "  %s -->%s %s\n", ids[from], label, ids[to])
			linkIndex++
		}
	}
	if len(cycleLinks) > 0 {
		fmt.Fprintf(&b, "  linkStyle %s stroke:#cc0000,stroke-width:3px;\n", strings.Join(cycleLinks, ","))
	}
	return b.String()
}

func groupByModule(paths []string) map[string][]string {
	groups := make(map[string][]string)
	for _, p := range paths {
		module := util.FirstSegment(p)
		groups[module] = append(groups[module], p)
	}
	for _, files := range groups {
		sort.Strings(files)
	}
	return groups
}

func cycleEdgeSet(cycles []graph.Cycle) map[string]bool {
	edges := make(map[string]bool)
	for _, cycle := range cycles {
		for i := range cycle {
			edges[cycle[i]+"->"+cycle[(i+1)%len(cycle)]] = true
		}
	}
	return edges
}

func cycleFileSet(cycles []graph.Cycle) map[string]bool {
	files := make(map[string]bool)
	for _, cycle := range cycles {
		for _, file := range cycle {
			files[file] = true
		}
	}
	return files
}

func sanitizeMermaidID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if out == "" {
		return "m"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "m_" + out
	}
	return out
}

// makeMermaidIDs assigns stable node IDs. Names that sanitize to the same ID
// get a numeric suffix in input order.
func makeMermaidIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeMermaidID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
