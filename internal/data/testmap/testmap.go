package testmap

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/shared/util"
)

// TestMap is an externally produced source to test mapping.
type TestMap struct {
	SrcToTest map[string][]string `json:"srcToTest"`
	TestToSrc map[string]string   `json:"testToSrc"`
}

// Load reads a test map. A missing file is not an error: the map is
// optional and callers receive nil.
func Load(path string) (*TestMap, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeFileAccess, "read test map"),
			coreerrors.CtxPath, path,
		)
	}
	return Parse(data)
}

func Parse(data []byte) (*TestMap, error) {
	var m TestMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode test map")
	}
	if m.SrcToTest == nil {
		m.SrcToTest = make(map[string][]string)
	}
	if m.TestToSrc == nil {
		m.TestToSrc = make(map[string]string)
	}
	return &m, nil
}

// SourceFor maps a test back to the source file it covers.
func (m *TestMap) SourceFor(test string) (string, bool) {
	if m == nil {
		return "", false
	}
	src, ok := m.TestToSrc[util.NormalizePatternPath(test)]
	if !ok {
		src, ok = m.TestToSrc[test]
	}
	return src, ok && src != ""
}

// IsTest reports whether path is a known test file.
func (m *TestMap) IsTest(path string) bool {
	if m == nil {
		return false
	}
	_, ok := m.TestToSrc[path]
	return ok
}

// TestsFor translates files into a sorted, de-duplicated test list. Files
// that are themselves tests are included directly. A nil map yields nil.
func (m *TestMap) TestsFor(files []string) []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	out := make([]string, 0)
	add := func(test string) {
		if test != "" && !seen[test] {
			seen[test] = true
			out = append(out, test)
		}
	}
	for _, f := range files {
		for _, test := range m.SrcToTest[f] {
			add(test)
		}
		if m.IsTest(f) {
			add(f)
		}
	}
	sort.Strings(out)
	return out
}

// Source loads the test map at a fixed path on demand.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Load() (*TestMap, error) {
	if s == nil {
		return nil, nil
	}
	return Load(s.path)
}
