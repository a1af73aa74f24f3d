package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/engine/graph"
	"ripple/internal/shared/observability"
	"ripple/internal/shared/util"
)

type document struct {
	Version        int                     `json:"version"`
	BuildID        string                  `json:"buildId,omitempty"`
	Generated      time.Time               `json:"generated"`
	Root           string                  `json:"root"`
	TargetLanguage string                  `json:"targetLanguage"`
	Files          map[string]fileDocument `json:"files"`
	Cycles         [][]string              `json:"cycles"`
	Stats          statsDocument           `json:"stats"`
	Skipped        int                     `json:"skipped,omitempty"`
}

type fileDocument struct {
	Imports    []string `json:"imports"`
	ImportedBy []string `json:"importedBy"`
}

type statsDocument struct {
	TotalFiles int `json:"totalFiles"`
	TotalEdges int `json:"totalEdges"`
	CycleCount int `json:"cycleCount"`
}

// Store persists graph snapshots as a single JSON document.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Save writes g atomically; a failed write leaves any previous artifact in
// place. Edge lists are written sorted.
func (s *Store) Save(g *graph.DependencyGraph) error {
	data, err := Marshal(g)
	if err != nil {
		return coreerrors.Wrap(err, coreerrors.CodeInternal, "encode graph artifact")
	}
	if err := util.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeFileAccess, "write graph artifact"),
			coreerrors.CtxPath, s.path,
		)
	}
	observability.ArtifactWritesTotal.Inc()
	return nil
}

// Load reads a fresh snapshot. A missing file is reported as
// ARTIFACT_MISSING so callers can ask for a rebuild.
func (s *Store) Load() (*graph.DependencyGraph, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, coreerrors.ArtifactMissing(s.path, err)
		}
		return nil, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeFileAccess, "read graph artifact"),
			coreerrors.CtxPath, s.path,
		)
	}
	g, err := Unmarshal(data)
	if err != nil {
		return nil, coreerrors.AddContext(err, coreerrors.CtxPath, s.path)
	}
	return g, nil
}

func Marshal(g *graph.DependencyGraph) ([]byte, error) {
	doc := document{
		Version:        g.Version,
		BuildID:        g.BuildID,
		Generated:      g.GeneratedAt.UTC(),
		Root:           g.Root,
		TargetLanguage: g.TargetLanguage,
		Files:          make(map[string]fileDocument, len(g.Files)),
		Cycles:         make([][]string, 0, len(g.Cycles)),
		Stats: statsDocument{
			TotalFiles: g.Stats.TotalFiles,
			TotalEdges: g.Stats.TotalEdges,
			CycleCount: g.Stats.CycleCount,
		},
		Skipped: g.Skipped,
	}
	if doc.Version == 0 {
		doc.Version = graph.Version
	}
	for path, node := range g.Files {
		doc.Files[path] = fileDocument{
			Imports:    sortedOrEmpty(node.Imports),
			ImportedBy: sortedOrEmpty(node.ImportedBy),
		}
	}
	for _, c := range g.Cycles {
		doc.Cycles = append(doc.Cycles, append([]string(nil), c...))
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal decodes an artifact. Edges naming files absent from the document
// are dropped so the loaded snapshot keeps every edge between known files.
func Unmarshal(data []byte) (*graph.DependencyGraph, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode graph artifact")
	}
	if doc.Version > graph.Version {
		return nil, coreerrors.New(coreerrors.CodeValidationError,
			fmt.Sprintf("graph artifact version %d is newer than supported version %d", doc.Version, graph.Version))
	}

	g := &graph.DependencyGraph{
		Version:        doc.Version,
		BuildID:        doc.BuildID,
		GeneratedAt:    doc.Generated,
		Root:           doc.Root,
		TargetLanguage: doc.TargetLanguage,
		Files:          make(map[string]*graph.FileNode, len(doc.Files)),
		Stats: graph.Stats{
			TotalFiles: doc.Stats.TotalFiles,
			TotalEdges: doc.Stats.TotalEdges,
			CycleCount: doc.Stats.CycleCount,
		},
		Skipped: doc.Skipped,
	}
	for path := range doc.Files {
		g.Files[path] = &graph.FileNode{Path: path}
	}
	for path, fd := range doc.Files {
		node := g.Files[path]
		node.Imports = knownOnly(doc.Files, fd.Imports)
		node.ImportedBy = knownOnly(doc.Files, fd.ImportedBy)
	}
	for _, c := range doc.Cycles {
		g.Cycles = append(g.Cycles, graph.Cycle(c))
	}
	return g, nil
}

func sortedOrEmpty(values []string) []string {
	out := append(make([]string, 0, len(values)), values...)
	sort.Strings(out)
	return out
}

func knownOnly(files map[string]fileDocument, values []string) []string {
	var out []string
	for _, v := range values {
		if _, ok := files[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
