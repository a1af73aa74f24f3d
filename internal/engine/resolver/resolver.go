package resolver

import (
	"path"
	"strings"

	"ripple/internal/engine/parser"
	"ripple/internal/shared/util"
)

// Resolver maps relative import specifiers onto the known-file set of one
// build. It is read-only after construction and safe for concurrent use.
type Resolver struct {
	known      map[string]bool
	extensions []string
}

// NewResolver builds a resolver over canonical project-relative paths.
// extensions are tried in order when a specifier has none.
func NewResolver(knownFiles []string, extensions []string) *Resolver {
	known := make(map[string]bool, len(knownFiles))
	for _, f := range knownFiles {
		if f = util.NormalizePatternPath(f); f != "" {
			known[f] = true
		}
	}
	return &Resolver{
		known:      known,
		extensions: append([]string(nil), extensions...),
	}
}

// Resolve returns the canonical path a specifier refers to. Bare specifiers,
// paths escaping the project root and misses all report false.
func (r *Resolver) Resolve(importer, specifier string) (string, bool) {
	if !parser.IsRelative(specifier) {
		return "", false
	}

	base := path.Join(path.Dir(importer), specifier)
	if base == ".." || strings.HasPrefix(base, "../") || strings.HasPrefix(base, "/") {
		return "", false
	}

	if directoryForm(specifier) {
		return r.resolveIndex(base)
	}
	if base == "." {
		return "", false
	}

	if path.Ext(path.Base(specifier)) != "" {
		if r.known[base] {
			return base, true
		}
		return "", false
	}

	for _, ext := range r.extensions {
		if candidate := base + ext; r.known[candidate] {
			return candidate, true
		}
	}
	return r.resolveIndex(base)
}

// resolveIndex tries index.<firstExt> under dir. "." is the project root.
func (r *Resolver) resolveIndex(dir string) (string, bool) {
	if len(r.extensions) == 0 {
		return "", false
	}
	candidate := path.Join(dir, "index"+r.extensions[0])
	if r.known[candidate] {
		return candidate, true
	}
	return "", false
}

// directoryForm reports whether a specifier names a directory outright:
// a trailing slash or a last segment of . or ..
func directoryForm(specifier string) bool {
	if strings.HasSuffix(specifier, "/") {
		return true
	}
	last := path.Base(specifier)
	return last == "." || last == ".."
}

// ResolveAll resolves specifiers in order, dropping duplicates and references
// back to the importer itself. Relative specifiers that match no known file
// are returned separately; bare specifiers are neither.
func (r *Resolver) ResolveAll(importer string, specifiers []string) (targets, unresolved []string) {
	seen := make(map[string]bool, len(specifiers))
	for _, spec := range specifiers {
		if !parser.IsRelative(spec) {
			continue
		}
		target, ok := r.Resolve(importer, spec)
		if !ok {
			unresolved = append(unresolved, spec)
			continue
		}
		if target == importer || seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	return targets, unresolved
}
