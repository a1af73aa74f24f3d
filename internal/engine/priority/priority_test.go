package priority

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"ripple/internal/engine/graph"
)

type sourceMap map[string]string

func (m sourceMap) SourceFor(test string) (string, bool) {
	src, ok := m[test]
	return src, ok
}

// fixture: util is imported by api and cli; api is imported by cli.
func fixture() *graph.DependencyGraph {
	return graph.NewDependencyGraph(map[string][]string{
		"src/util.ts":  nil,
		"src/api.ts":   {"src/util.ts"},
		"src/cli.ts":   {"src/api.ts", "src/util.ts"},
		"src/leaf1.ts": nil,
		"src/leaf2.ts": nil,
	})
}

func TestPrioritize_Ranking(t *testing.T) {
	t.Parallel()
	g := fixture()
	tests := sourceMap{
		"util.test": "src/util.ts",
		"api.test":  "src/api.ts",
		"cli.test":  "src/cli.ts",
		"l1.test":   "src/leaf1.ts",
		"l2.test":   "src/leaf2.ts",
	}
	failures := []FailingUnit{
		{Test: "util.test", Failures: 1},
		{Test: "api.test", Failures: 3},
		{Test: "cli.test", Failures: 2},
		{Test: "l1.test"},
		{Test: "l2.test", Failures: 4},
		{Test: "nobody.test", Failures: 1},
	}

	res := Prioritize(g, failures, tests, nil)

	if len(res.RootCauses) != 2 {
		t.Fatalf("RootCauses = %+v", res.RootCauses)
	}
	util, api := res.RootCauses[0], res.RootCauses[1]
	if util.File != "src/util.ts" || util.Dependents != 2 || util.PotentialFixes != 5 {
		t.Fatalf("unexpected first root cause %+v", util)
	}
	if api.File != "src/api.ts" || api.Dependents != 1 || api.PotentialFixes != 2 || api.FailureCount != 3 {
		t.Fatalf("unexpected second root cause %+v", api)
	}

	var leaves []string
	for _, e := range res.LeafNodes {
		leaves = append(leaves, e.File)
	}
	// cli has no importers; leaves are ordered by failure count.
	if !reflect.DeepEqual(leaves, []string{"src/leaf2.ts", "src/cli.ts", "src/leaf1.ts"}) {
		t.Fatalf("LeafNodes = %v", leaves)
	}
	if !reflect.DeepEqual(res.Independent, [][]string{{"src/leaf2.ts", "src/cli.ts", "src/leaf1.ts"}}) {
		t.Fatalf("Independent = %v", res.Independent)
	}
	if !reflect.DeepEqual(res.Unmapped, []string{"nobody.test"}) {
		t.Fatalf("Unmapped = %v", res.Unmapped)
	}
	if res.LeafNodes[2].FailureCount != 1 {
		t.Fatalf("missing failure count defaults to 1, got %d", res.LeafNodes[2].FailureCount)
	}
}

func TestPrioritize_Partition(t *testing.T) {
	t.Parallel()
	imports := map[string][]string{}
	failures := []FailingUnit{}
	// 12 hubs each imported by one user, plus 13 standalone files.
	for i := 0; i < 12; i++ {
		hub := fmt.Sprintf("hub%02d.py", i)
		imports[hub] = nil
		imports[fmt.Sprintf("user%02d.py", i)] = []string{hub}
		failures = append(failures, FailingUnit{Test: hub, Failures: i + 1})
	}
	for i := 0; i < 13; i++ {
		file := fmt.Sprintf("solo%02d.py", i)
		imports[file] = nil
		failures = append(failures, FailingUnit{Test: file, Failures: 1})
	}
	g := graph.NewDependencyGraph(imports)

	res := Prioritize(g, failures, nil, nil)

	if len(res.RootCauses) != RootCauseLimit {
		t.Fatalf("expected %d root causes, got %d", RootCauseLimit, len(res.RootCauses))
	}
	if len(res.DeferredRootCauses) != 2 {
		t.Fatalf("expected 2 deferred root causes, got %d", len(res.DeferredRootCauses))
	}
	for _, e := range res.RootCauses {
		if e.Dependents == 0 {
			t.Fatalf("%s has no dependents but is a root cause", e.File)
		}
	}
	if res.RootCauses[0].File != "hub11.py" {
		t.Fatalf("highest failure count should lead ties on dependents, got %s", res.RootCauses[0].File)
	}

	var leaves, batched []string
	for _, e := range res.LeafNodes {
		if e.Dependents != 0 {
			t.Fatalf("%s has dependents but is a leaf", e.File)
		}
		leaves = append(leaves, e.File)
	}
	for _, batch := range res.Independent {
		if len(batch) > BatchSize {
			t.Fatalf("batch too large: %v", batch)
		}
		batched = append(batched, batch...)
	}
	sort.Strings(leaves)
	sort.Strings(batched)
	if !reflect.DeepEqual(leaves, batched) || len(leaves) != 13 {
		t.Fatalf("leaf nodes %v and batches %v differ", leaves, batched)
	}
	if len(res.Independent) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(res.Independent))
	}
}

func TestPrioritize_Hints(t *testing.T) {
	t.Parallel()
	g := graph.NewDependencyGraph(map[string][]string{
		"a/x.go":      nil,
		"b/core/y.go": nil,
		"b/z.go":      nil,
	})
	hints := []Hint{
		{Dir: "b", Priority: 1},
		{Dir: "b/core", Priority: 9},
		{Dir: "a", Priority: 5},
	}
	failures := []FailingUnit{{Test: "a/x.go"}, {Test: "b/core/y.go"}, {Test: "b/z.go"}}

	res := Prioritize(g, failures, nil, hints)
	got := res.Ordered()
	want := []string{"b/core/y.go", "a/x.go", "b/z.go"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Ordered = %v, want %v", got, want)
	}
	if res.LeafNodes[0].HintPriority != 9 {
		t.Fatalf("longest prefix must win, got %d", res.LeafNodes[0].HintPriority)
	}
}

func TestPrioritize_MergesUnitsPerSource(t *testing.T) {
	t.Parallel()
	g := fixture()
	tests := sourceMap{"a.test": "src/api.ts", "b.test": "src/api.ts", "ghost.test": "src/ghost.ts"}
	res := Prioritize(g, []FailingUnit{
		{Test: "b.test", Failures: 2},
		{Test: "a.test", Failures: 1},
		{Test: "ghost.test"},
		{Test: "  "},
	}, tests, nil)

	if len(res.RootCauses) != 1 {
		t.Fatalf("RootCauses = %+v", res.RootCauses)
	}
	entry := res.RootCauses[0]
	if entry.FailureCount != 3 || !reflect.DeepEqual(entry.Tests, []string{"a.test", "b.test"}) {
		t.Fatalf("unexpected merged entry %+v", entry)
	}
	if !reflect.DeepEqual(res.Unmapped, []string{"ghost.test"}) {
		t.Fatalf("mapping to a file outside the graph must be unmapped, got %v", res.Unmapped)
	}
}

func TestPrioritize_Empty(t *testing.T) {
	t.Parallel()
	res := Prioritize(fixture(), nil, nil, nil)
	if len(res.RootCauses) != 0 || len(res.LeafNodes) != 0 || len(res.Independent) != 0 || res.Unmapped != nil {
		t.Fatalf("expected empty result, got %+v", res)
	}
}
