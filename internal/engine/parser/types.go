package parser

import (
	"fmt"
	"path"
	"strings"

	coreerrors "ripple/internal/core/errors"
)

// Language selects the syntax rules used to pull import specifiers out of a
// file.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangRust       Language = "rust"
)

// ParseLanguage maps a configured target language onto a Language.
func ParseLanguage(name string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(name))) {
	case LangTypeScript:
		return LangTypeScript, nil
	case LangTSX:
		return LangTSX, nil
	case LangJavaScript:
		return LangJavaScript, nil
	case LangPython:
		return LangPython, nil
	case LangGo:
		return LangGo, nil
	case LangRust:
		return LangRust, nil
	}
	return "", coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("unsupported language: %q", name))
}

// ForFile refines the target language for a single file. TypeScript projects
// carry JSX in .tsx and .jsx files, which need the tsx grammar.
func (l Language) ForFile(filePath string) Language {
	if l != LangTypeScript {
		return l
	}
	switch strings.ToLower(path.Ext(filePath)) {
	case ".tsx", ".jsx":
		return LangTSX
	}
	return l
}

func (l Language) ecmascript() bool {
	return l == LangTypeScript || l == LangTSX || l == LangJavaScript
}

// Extractor turns one file's content into an ordered, de-duplicated list of
// raw import specifiers. Implementations hold no per-call state and may be
// shared by concurrent workers.
type Extractor interface {
	Extract(content []byte, lang Language) []string
}

// IsRelative reports whether a specifier is a resolution candidate.
func IsRelative(specifier string) bool {
	if specifier == "." || specifier == ".." {
		return true
	}
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

type specifierList struct {
	seen  map[string]bool
	items []string
}

func newSpecifierList() *specifierList {
	return &specifierList{seen: make(map[string]bool)}
}

func (s *specifierList) add(spec string) {
	spec = strings.TrimSpace(spec)
	if spec == "" || s.seen[spec] {
		return
	}
	s.seen[spec] = true
	s.items = append(s.items, spec)
}

func (s *specifierList) list() []string {
	if len(s.items) == 0 {
		return nil
	}
	return s.items
}
