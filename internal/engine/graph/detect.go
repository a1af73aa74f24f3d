package graph

import (
	"sort"
	"strings"
)

const (
	white = iota
	gray
	black
)

type dfsFrame struct {
	node string
	next []string
	idx  int
}

// DetectCycles runs an iterative three-color DFS over forward edges. Roots
// and neighbours are visited in lexicographic order. A back edge into a gray
// node yields the stack slice from that node to the current one; cycles with
// the same node set are reported once.
func DetectCycles(files map[string]*FileNode) []Cycle {
	color := make(map[string]int, len(files))
	seen := make(map[string]bool)
	var cycles []Cycle

	for _, root := range sortedPaths(files) {
		if color[root] != white {
			continue
		}

		color[root] = gray
		path := []string{root}
		onPath := map[string]int{root: 0}
		stack := []*dfsFrame{{node: root, next: knownNeighbours(files, root)}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.idx == len(top.next) {
				color[top.node] = black
				delete(onPath, top.node)
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}

			next := top.next[top.idx]
			top.idx++

			switch color[next] {
			case white:
				color[next] = gray
				onPath[next] = len(path)
				path = append(path, next)
				stack = append(stack, &dfsFrame{node: next, next: knownNeighbours(files, next)})
			case gray:
				start := onPath[next]
				cycle := make(Cycle, len(path)-start)
				copy(cycle, path[start:])
				if key := cycleKey(cycle); !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}
	return cycles
}

func knownNeighbours(files map[string]*FileNode, path string) []string {
	node, ok := files[path]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(node.Imports))
	for _, next := range node.Imports {
		if _, known := files[next]; known {
			out = append(out, next)
		}
	}
	sort.Strings(out)
	return out
}

func cycleKey(c Cycle) string {
	nodes := append([]string(nil), c...)
	sort.Strings(nodes)
	return strings.Join(nodes, "\x00")
}
