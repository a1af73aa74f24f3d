package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for a language-specific extractor.
// Returns true if the walker should not descend into the node's children.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the per-file state of one syntax walk.
type ExtractionContext struct {
	Source []byte
	specs  *specifierList
}

func newExtractionContext(source []byte) *ExtractionContext {
	return &ExtractionContext{Source: source, specs: newSpecifierList()}
}

func (c *ExtractionContext) Add(specs ...string) {
	for _, spec := range specs {
		c.specs.add(spec)
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
// Handlers are stateless, so one engine serves every file of its language.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

// Walk visits nodes in document order using an explicit stack.
func (e *ExtractorEngine) Walk(ctx *ExtractionContext, root *sitter.Node) {
	if root == nil {
		return
	}
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if handler, ok := e.handlers[node.Kind()]; ok && handler(ctx, node) {
			continue
		}
		for i := node.ChildCount(); i > 0; i-- {
			if child := node.Child(i - 1); child != nil {
				stack = append(stack, child)
			}
		}
	}
}
