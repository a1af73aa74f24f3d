package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ripple/internal/core/ports"
	"ripple/internal/engine/graph"
	"ripple/internal/engine/impact"
	"ripple/internal/engine/priority"
	"ripple/internal/engine/stale"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{" json ", FormatJSON, false},
		{"tsv", FormatTSV, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func chainGraph() *graph.DependencyGraph {
	return graph.NewDependencyGraph(map[string][]string{
		"src/a.ts": {"src/b.ts"},
		"src/b.ts": {"src/c.ts"},
		"src/c.ts": nil,
	})
}

func TestImpact(t *testing.T) {
	t.Parallel()
	res := impact.Analyze(chainGraph(), []string{"src/c.ts", "gone.ts"}, impact.DefaultOptions())

	text, err := Impact(res, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Impact of 2 changed file(s), depth 2", "Level 1 (1)", "src/b.ts", "Not in graph: gone.ts", "src: 2"} {
		if !strings.Contains(string(text), want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}

	tsv, err := Impact(res, FormatTSV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tsv), "affected\tsrc/a.ts\t2\n") {
		t.Fatalf("unexpected tsv:\n%s", tsv)
	}

	raw, err := Impact(res, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"l1", "l2", "affected", "highRisk", "moduleBreakdown"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("json missing %q: %s", key, raw)
		}
	}
}

func TestStale(t *testing.T) {
	t.Parallel()
	modified := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	res := stale.Propagate(chainGraph(), []stale.DirectFile{{File: "src/c.ts", ModifiedAt: &modified}}, 2)

	text, err := Stale(res, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"src/c.ts (modified 2026-03-01T00:00:00Z)", "L2 src/a.ts <- src/b.ts", "Summary: L0=1 L1=1 L2=1"} {
		if !strings.Contains(string(text), want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}

	tsv, err := Stale(res, FormatTSV)
	if err != nil {
		t.Fatal(err)
	}
	want := "File\tLevel\tSource\nsrc/c.ts\t0\t\nsrc/b.ts\t1\tsrc/c.ts\nsrc/a.ts\t2\tsrc/b.ts\n"
	if string(tsv) != want {
		t.Fatalf("tsv = %q, want %q", tsv, want)
	}

	empty, err := Stale(stale.Propagate(chainGraph(), nil, 2), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(empty), "Graph is up to date.") {
		t.Fatalf("unexpected output:\n%s", empty)
	}
}

func TestPriority(t *testing.T) {
	t.Parallel()
	res := priority.Prioritize(chainGraph(), []priority.FailingUnit{
		{Test: "src/c.ts", Failures: 2},
		{Test: "src/a.ts", Failures: 1},
		{Test: "nowhere"},
	}, nil, nil)

	text, err := Priority(res, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Root causes (1)", "1. src/c.ts  dependents=1", "batch 1: src/a.ts", "Fix order: src/c.ts, src/a.ts", "Unmapped failures: nowhere"} {
		if !strings.Contains(string(text), want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}

	tsv, err := Priority(res, FormatTSV)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tsv), "1\troot_cause\tsrc/c.ts\t1\t0\t2\n2\tleaf\tsrc/a.ts\t0\t0\t1\n") {
		t.Fatalf("unexpected tsv:\n%s", tsv)
	}
}

func TestCyclesAndChain(t *testing.T) {
	t.Parallel()
	g := graph.NewDependencyGraph(map[string][]string{"X": {"Y"}, "Y": {"X"}})

	text, err := Cycles(ports.CycleReport{Total: len(g.Cycles), Cycles: g.Cycles}, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(text), "1. X -> Y -> X") {
		t.Fatalf("unexpected cycles output:\n%s", text)
	}

	none, err := Cycles(ports.CycleReport{}, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(none), "No import cycles.") {
		t.Fatalf("unexpected output:\n%s", none)
	}

	chain, err := Chain(ports.ChainResult{From: "a", To: "c", Found: true, Path: []string{"a", "b", "c"}}, FormatText)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(chain), "a -> b -> c") || !strings.Contains(string(chain), "2 hop(s)") {
		t.Fatalf("unexpected chain output:\n%s", chain)
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	g := chainGraph()
	g.BuildID = "abc"
	out, err := Build(ports.BuildResult{Graph: g, ArtifactPath: "/tmp/graph.json", Duration: 1500 * time.Millisecond}, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	var summary BuildSummary
	if err := json.Unmarshal(out, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.BuildID != "abc" || summary.TotalFiles != 3 || summary.TotalEdges != 2 || summary.DurationMS != 1500 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
