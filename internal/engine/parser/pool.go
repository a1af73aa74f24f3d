package parser

import (
	"sync"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// ParserPool recycles tree-sitter parser instances for one grammar so that
// builder workers do not pay sitter.NewParser() per file.
//
//	sp := pool.Get()
//	defer pool.Put(sp)
//	tree := sp.Parse(source, nil)
//
// Safe for concurrent use.
type ParserPool struct {
	lang   *sitter.Language
	pool   sync.Pool
	active atomic.Int64
}

// NewParserPool creates a pool for the given language grammar.
func NewParserPool(lang *sitter.Language) *ParserPool {
	p := &ParserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

// Get returns a parser configured for the pool's grammar.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Reset() elsewhere may have cleared the language.
	sp.SetLanguage(p.lang)
	p.active.Add(1)
	return sp
}

// Put resets sp and returns it to the pool. Callers must not use sp after.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.active.Add(-1)
	sp.Reset()
	p.pool.Put(sp)
}

// Active returns the number of parsers currently leased.
func (p *ParserPool) Active() int {
	return int(p.active.Load())
}

func grammarFor(lang Language) (*sitter.Language, bool) {
	switch lang {
	case LangGo:
		return sitter.NewLanguage(tree_sitter_go.Language()), true
	case LangJavaScript:
		return sitter.NewLanguage(tree_sitter_javascript.Language()), true
	case LangTypeScript:
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), true
	case LangTSX:
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), true
	case LangPython:
		return sitter.NewLanguage(tree_sitter_python.Language()), true
	case LangRust:
		return sitter.NewLanguage(tree_sitter_rust.Language()), true
	}
	return nil, false
}

func newLanguagePools() map[Language]*ParserPool {
	pools := make(map[Language]*ParserPool)
	for _, lang := range []Language{LangGo, LangJavaScript, LangTypeScript, LangTSX, LangPython, LangRust} {
		if grammar, ok := grammarFor(lang); ok {
			pools[lang] = NewParserPool(grammar)
		}
	}
	return pools
}
