package resolver

import (
	"reflect"
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()
	r := NewResolver([]string{
		"src/app.ts",
		"src/util.ts",
		"src/util.js",
		"src/view.tsx",
		"src/lib/index.ts",
		"src/lib/index.js",
		"src/data.json",
		"shared/types.ts",
		"main.ts",
	}, []string{".ts", ".tsx", ".js"})

	tests := []struct {
		name     string
		importer string
		spec     string
		want     string
		ok       bool
	}{
		{"ExtensionPriority", "src/app.ts", "./util", "src/util.ts", true},
		{"SecondExtension", "src/app.ts", "./view", "src/view.tsx", true},
		{"IndexFile", "src/app.ts", "./lib", "src/lib/index.ts", true},
		{"ExactExtension", "src/app.ts", "./util.js", "src/util.js", true},
		{"ExactExtensionMiss", "src/app.ts", "./view.ts", "", false},
		{"NonSourceExtension", "src/app.ts", "./data.json", "src/data.json", true},
		{"ParentDir", "src/app.ts", "../shared/types", "shared/types.ts", true},
		{"RootImporter", "main.ts", "./src/app", "src/app.ts", true},
		{"EscapesRoot", "main.ts", "../outside", "", false},
		{"EscapesDeep", "src/app.ts", "../../etc/passwd", "", false},
		{"Bare", "src/app.ts", "react", "", false},
		{"Absolute", "src/app.ts", "/src/util", "", false},
		{"Missing", "src/app.ts", "./nope", "", false},
		{"ProjectRoot", "src/app.ts", "../", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.importer, tt.spec)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Resolve(%q, %q) = %q, %v; want %q, %v", tt.importer, tt.spec, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolver_DirectoryForms(t *testing.T) {
	t.Parallel()
	r := NewResolver([]string{
		"index.ts",
		"src/index.ts",
		"src/a/index.ts",
		"src/a/b.ts",
		"src/a/c/d.ts",
	}, []string{".ts"})

	tests := []struct {
		name     string
		importer string
		spec     string
		want     string
		ok       bool
	}{
		{"ParentSlash", "src/a/b.ts", "../", "src/index.ts", true},
		{"ParentBare", "src/a/b.ts", "..", "src/index.ts", true},
		{"CurrentSlash", "src/a/b.ts", "./", "src/a/index.ts", true},
		{"CurrentBare", "src/a/b.ts", ".", "src/a/index.ts", true},
		{"GrandParent", "src/a/c/d.ts", "../..", "src/index.ts", true},
		{"ProjectRootIndex", "src/a/b.ts", "../..", "index.ts", true},
		{"ParentSlashFromLeaf", "src/a/c/d.ts", "../", "src/a/index.ts", true},
		{"EscapesRoot", "index.ts", "..", "", false},
		{"NoIndex", "src/a/c/d.ts", ".", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.importer, tt.spec)
			if got != tt.want || ok != tt.ok {
				t.Fatalf("Resolve(%q, %q) = %q, %v; want %q, %v", tt.importer, tt.spec, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolver_ResolveAll(t *testing.T) {
	t.Parallel()
	r := NewResolver([]string{"a.py", "b.py", "pkg/c.py"}, []string{".py"})

	got, unresolved := r.ResolveAll("a.py", []string{"./b", "os", "./a", "./b", "./pkg/c", "./missing"})
	want := []string{"b.py", "pkg/c.py"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResolveAll() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(unresolved, []string{"./missing"}) {
		t.Fatalf("unexpected unresolved specifiers: %v", unresolved)
	}
}

func TestResolver_PythonRelativeForms(t *testing.T) {
	t.Parallel()
	r := NewResolver([]string{"app/models.py", "app/api/views.py", "common/log.py"}, []string{".py"})

	if got, ok := r.Resolve("app/api/views.py", "../models"); !ok || got != "app/models.py" {
		t.Fatalf("expected app/models.py, got %q %v", got, ok)
	}
	if got, ok := r.Resolve("app/api/views.py", "../../common/log"); !ok || got != "common/log.py" {
		t.Fatalf("expected common/log.py, got %q %v", got, ok)
	}
}
