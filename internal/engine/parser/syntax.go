package parser

import (
	"log/slog"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	ExtractorPattern = "pattern"
	ExtractorSyntax  = "syntax"
)

// NewExtractor returns the extractor for a configured mode. Unknown modes
// fall back to pattern matching.
func NewExtractor(mode string) Extractor {
	if strings.EqualFold(strings.TrimSpace(mode), ExtractorSyntax) {
		return NewSyntaxExtractor()
	}
	return NewPatternExtractor()
}

// SyntaxExtractor derives specifiers from tree-sitter parse trees. Files the
// grammar cannot parse cleanly go through the pattern extractor instead.
type SyntaxExtractor struct {
	pools    map[Language]*ParserPool
	engines  map[Language]*ExtractorEngine
	fallback *PatternExtractor
}

func NewSyntaxExtractor() *SyntaxExtractor {
	es := NewExtractorEngine(map[string]NodeHandler{
		"import_statement": extractESSource,
		"export_statement": extractESSource,
		"call_expression":  extractESCall,
	})
	return &SyntaxExtractor{
		pools: newLanguagePools(),
		engines: map[Language]*ExtractorEngine{
			LangTypeScript: es,
			LangTSX:        es,
			LangJavaScript: es,
			LangGo: NewExtractorEngine(map[string]NodeHandler{
				"import_spec": extractGoImportSpec,
			}),
			LangPython: NewExtractorEngine(map[string]NodeHandler{
				"import_statement":      extractPyImport,
				"import_from_statement": extractPyFromImport,
			}),
			LangRust: NewExtractorEngine(map[string]NodeHandler{
				"use_declaration": extractRustUse,
				"mod_item":        extractRustMod,
			}),
		},
		fallback: NewPatternExtractor(),
	}
}

func (e *SyntaxExtractor) Extract(content []byte, lang Language) []string {
	pool, ok := e.pools[lang]
	engine, hasEngine := e.engines[lang]
	if !ok || !hasEngine {
		return e.fallback.Extract(content, lang)
	}

	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		slog.Debug("syntax parse failed, using pattern extractor", "language", lang)
		return e.fallback.Extract(content, lang)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		slog.Debug("syntax tree has errors, using pattern extractor", "language", lang)
		return e.fallback.Extract(content, lang)
	}

	ctx := newExtractionContext(content)
	engine.Walk(ctx, root)
	return ctx.specs.list()
}

func extractESSource(ctx *ExtractionContext, node *sitter.Node) bool {
	if source := node.ChildByFieldName("source"); source != nil {
		ctx.Add(unquote(ctx.Text(source)))
		return true
	}
	return false
}

// extractESCall handles import('x') and require('x'). Other calls are walked
// so nested requires are still found.
func extractESCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return false
	}
	switch fn.Kind() {
	case "import":
	case "identifier":
		if ctx.Text(fn) != "require" {
			return false
		}
	default:
		return false
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return false
	}
	for i := uint(0); i < args.ChildCount(); i++ {
		arg := args.Child(i)
		if arg != nil && arg.Kind() == "string" {
			ctx.Add(unquote(ctx.Text(arg)))
			return true
		}
	}
	return false
}

func extractGoImportSpec(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "interpreted_string_literal", "raw_string_literal":
			ctx.Add(unquote(ctx.Text(child)))
		}
	}
	return true
}

func extractPyImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			ctx.Add(dottedToPath(ctx.Text(child)))
		case "aliased_import":
			ctx.Add(dottedToPath(ctx.Text(child.ChildByFieldName("name"))))
		}
	}
	return true
}

func extractPyFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	dots, module := splitPythonRelative(ctx.Text(node.ChildByFieldName("module_name")))

	var names []string
	afterImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		kind := child.Kind()
		if kind == "import" {
			afterImport = true
			continue
		}
		if !afterImport {
			continue
		}
		switch kind {
		case "dotted_name":
			names = append(names, ctx.Text(child))
		case "aliased_import":
			names = append(names, ctx.Text(child.ChildByFieldName("name")))
		}
	}

	ctx.Add(pythonFromSpecifiers(dots, module, names)...)
	return true
}

func extractRustUse(ctx *ExtractionContext, node *sitter.Node) bool {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return true
	}
	ctx.Add(rustUseSpecifiers(ctx.Text(arg))...)
	return true
}

// extractRustMod records `mod name;` declarations. Inline modules carry a
// body and are walked for nested use declarations instead.
func extractRustMod(ctx *ExtractionContext, node *sitter.Node) bool {
	if node.ChildByFieldName("body") != nil {
		return false
	}
	if name := ctx.Text(node.ChildByFieldName("name")); name != "" {
		ctx.Add("./" + name)
	}
	return true
}
