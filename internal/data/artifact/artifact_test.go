package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/engine/graph"
)

func sampleGraph() *graph.DependencyGraph {
	g := graph.NewDependencyGraph(map[string][]string{
		"src/a.ts": {"src/c.ts", "src/b.ts"},
		"src/b.ts": {"src/a.ts"},
		"src/c.ts": nil,
	})
	g.BuildID = "build-1"
	g.GeneratedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.Root = "/repo"
	g.TargetLanguage = "typescript"
	return g
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state", "graph.json")
	store := NewStore(path)
	original := sampleGraph()

	if err := store.Save(original); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.BuildID != original.BuildID || loaded.Root != original.Root || loaded.TargetLanguage != original.TargetLanguage {
		t.Fatalf("metadata mismatch: got %q %q %q", loaded.BuildID, loaded.Root, loaded.TargetLanguage)
	}
	if !loaded.GeneratedAt.Equal(original.GeneratedAt) {
		t.Fatalf("GeneratedAt = %v, want %v", loaded.GeneratedAt, original.GeneratedAt)
	}
	if loaded.Stats != original.Stats {
		t.Fatalf("Stats = %+v, want %+v", loaded.Stats, original.Stats)
	}
	if !reflect.DeepEqual(loaded.Cycles, original.Cycles) {
		t.Fatalf("Cycles = %v, want %v", loaded.Cycles, original.Cycles)
	}
	if !reflect.DeepEqual(loaded.Paths(), original.Paths()) {
		t.Fatalf("Paths = %v, want %v", loaded.Paths(), original.Paths())
	}
	if got := loaded.Imports("src/a.ts"); !reflect.DeepEqual(got, []string{"src/b.ts", "src/c.ts"}) {
		t.Fatalf("Imports(a) = %v", got)
	}
	if got := loaded.ImportedBy("src/c.ts"); !reflect.DeepEqual(got, []string{"src/a.ts"}) {
		t.Fatalf("ImportedBy(c) = %v", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files must not be left behind, found %d entries", len(entries))
	}
}

func TestStore_DocumentShape(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := NewStore(path).Save(sampleGraph()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"version", "generated", "root", "targetLanguage", "files", "cycles", "stats"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("document is missing %q", key)
		}
	}

	var doc struct {
		Files map[string]struct {
			Imports    []string `json:"imports"`
			ImportedBy []string `json:"importedBy"`
		} `json:"files"`
		Stats struct {
			TotalFiles int `json:"totalFiles"`
			TotalEdges int `json:"totalEdges"`
			CycleCount int `json:"cycleCount"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := doc.Files["src/a.ts"].Imports; !reflect.DeepEqual(got, []string{"src/b.ts", "src/c.ts"}) {
		t.Fatalf("edges are written sorted, got %v", got)
	}
	if doc.Files["src/c.ts"].Imports == nil {
		t.Fatal("empty edge sets are written as arrays")
	}
	if doc.Stats.TotalFiles != 3 || doc.Stats.TotalEdges != 3 || doc.Stats.CycleCount != 1 {
		t.Fatalf("unexpected stats %+v", doc.Stats)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()
	_, err := NewStore(filepath.Join(t.TempDir(), "absent.json")).Load()
	if !coreerrors.IsCode(err, coreerrors.CodeArtifactMissing) {
		t.Fatalf("expected CodeArtifactMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "ripple -build") {
		t.Fatalf("error should point at the build command: %v", err)
	}
}

func TestStore_SaveKeepsPreviousOnFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	store := NewStore(path)
	if err := store.Save(sampleGraph()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	// A directory squatting on the target makes the rename fail.
	blocked := NewStore(filepath.Join(dir, "blocked"))
	if err := os.MkdirAll(filepath.Join(dir, "blocked", "child"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := blocked.Save(sampleGraph()); err == nil {
		t.Fatal("expected save over a directory to fail")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("previous artifact was modified")
	}
}

func TestUnmarshal_Validation(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"{not json", `{"version": 99, "files": {}}`} {
		if _, err := Unmarshal([]byte(input)); !coreerrors.IsCode(err, coreerrors.CodeValidationError) {
			t.Fatalf("Unmarshal(%q) error = %v, want CodeValidationError", input, err)
		}
	}
}

func TestUnmarshal_DropsDanglingEdges(t *testing.T) {
	t.Parallel()
	g, err := Unmarshal([]byte(`{
		"version": 1,
		"generated": "2026-01-01T00:00:00Z",
		"files": {
			"a.py": {"imports": ["b.py", "gone.py"], "importedBy": []},
			"b.py": {"imports": [], "importedBy": ["a.py", "gone.py"]}
		}
	}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := g.Imports("a.py"); !reflect.DeepEqual(got, []string{"b.py"}) {
		t.Fatalf("Imports(a.py) = %v", got)
	}
	if got := g.ImportedBy("b.py"); !reflect.DeepEqual(got, []string{"a.py"}) {
		t.Fatalf("ImportedBy(b.py) = %v", got)
	}
}
