package app

import (
	"bufio"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/engine/priority"
)

func TestParseChangedFiles(t *testing.T) {
	t.Parallel()
	data := []byte("# changed since main\nsrc/a.ts\n\n  ./src/b.ts  \nsrc/a.ts\n")
	got, err := ParseChangedFiles(data)
	want := []string{"src/a.ts", "src/b.ts"}
	if err != nil || !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseChangedFiles = %v, %v; want %v", got, err, want)
	}
}

func TestParseChangedFiles_LineTooLong(t *testing.T) {
	t.Parallel()
	data := []byte("src/a.ts\n" + strings.Repeat("x", bufio.MaxScanTokenSize+1) + "\n")
	got, err := ParseChangedFiles(data)
	if !coreerrors.IsCode(err, coreerrors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR, got %v, %v", got, err)
	}
	if got != nil {
		t.Fatalf("partial list must not be returned, got %v", got)
	}
}

func TestReadChangedFiles_LineTooLong(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "changed.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("y", bufio.MaxScanTokenSize+1)), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadChangedFiles(path)
	if !coreerrors.IsCode(err, coreerrors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error should name the list file: %v", err)
	}
}

func TestReadChangedFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "changed.txt")
	if err := os.WriteFile(path, []byte("x.py\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadChangedFiles(path)
	if err != nil || !reflect.DeepEqual(got, []string{"x.py"}) {
		t.Fatalf("ReadChangedFiles = %v, %v", got, err)
	}

	if _, err := ReadChangedFiles(filepath.Join(dir, "missing.txt")); !coreerrors.IsCode(err, coreerrors.CodeFileAccess) {
		t.Fatalf("expected FILE_ACCESS, got %v", err)
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()
	got := SplitList(" a.ts, ,b.ts,")
	if !reflect.DeepEqual(got, []string{"a.ts", "b.ts"}) {
		t.Fatalf("SplitList = %v", got)
	}
}

func TestParseFailingUnits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  []priority.FailingUnit
	}{
		{
			name:  "JSON",
			input: `[{"test": "t/a.test.ts", "failures": 3}, {"test": "t/b.test.ts"}, {"test": ""}]`,
			want: []priority.FailingUnit{
				{Test: "t/a.test.ts", Failures: 3},
				{Test: "t/b.test.ts", Failures: 1},
			},
		},
		{
			name:  "PlainLines",
			input: "t/a.test.ts\n# flaky\nt/b.test.ts\nt/a.test.ts\n",
			want: []priority.FailingUnit{
				{Test: "t/a.test.ts", Failures: 2},
				{Test: "t/b.test.ts", Failures: 1},
			},
		},
		{
			name:  "Empty",
			input: "  \n",
			want:  []priority.FailingUnit{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFailingUnits([]byte(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseFailingUnits = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFailingUnits_InvalidJSON(t *testing.T) {
	t.Parallel()
	_, err := ParseFailingUnits([]byte(`[{"test": }`))
	if !coreerrors.IsCode(err, coreerrors.CodeValidationError) {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
