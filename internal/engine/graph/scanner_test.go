package graph

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	coreerrors "ripple/internal/core/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/app.ts":                  "",
		"src/util.tsx":                "",
		"src/types.d.ts":              "",
		"src/readme.md":               "",
		"src/node_modules/x/index.ts": "",
		"src/dist/bundle.js":          "",
		"src/fixtures/data.ts":        "",
		"src/deep/a/b/c.ts":           "",
		"lib/other.ts":                "",
		"root.ts":                     "",
	})

	s, err := NewScanner(ScanOptions{
		Root:       root,
		SourceDirs: []string{"src", "src/deep", "missing"},
		Ignore:     []string{"**/*.d.ts", "fixtures"},
		Extensions: []string{".ts", ".tsx", ".js"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"src/app.ts", "src/deep/a/b/c.ts", "src/util.tsx"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
}

func TestScanner_Include(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pkg/a.py":      "",
		"pkg/test_a.py": "",
		"pkg/sub/b.py":  "",
	})

	s, err := NewScanner(ScanOptions{
		Root:       root,
		SourceDirs: []string{"."},
		Include:    "pkg/**",
		Ignore:     []string{"test_*.py"},
		Extensions: []string{".py"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"pkg/a.py", "pkg/sub/b.py"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Scan() = %v, want %v", got, want)
	}
}

func TestScanner_SkipsSymlinkedDirs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/a.go":       "",
		"shared/real.go": "",
	})
	if err := os.Symlink(filepath.Join(root, "shared"), filepath.Join(root, "src", "linked")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "src", "linked"), filepath.Join(root, "src", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	s, err := NewScanner(ScanOptions{Root: root, SourceDirs: []string{"src"}, Extensions: []string{".go"}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"src/a.go"}) {
		t.Fatalf("expected symlinked dirs to be skipped, got %v", got)
	}
}

func TestScanner_Cancelled(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.rs": ""})

	s, err := NewScanner(ScanOptions{Root: root, SourceDirs: []string{"."}, Extensions: []string{".rs"}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestNewScanner_ConfigurationErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		opts ScanOptions
	}{
		{"NoSourceDirs", ScanOptions{Root: "."}},
		{"BadInclude", ScanOptions{Root: ".", SourceDirs: []string{"."}, Include: "[abc"}},
		{"BadIgnore", ScanOptions{Root: ".", SourceDirs: []string{"."}, Ignore: []string{"{a,b"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScanner(tc.opts)
			if !coreerrors.IsCode(err, coreerrors.CodeConfiguration) {
				t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
			}
		})
	}
}
