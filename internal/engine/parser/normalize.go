package parser

import (
	"strings"
)

// pythonFromSpecifiers normalizes `from <dots><module> import <names>`.
// A single leading dot is the current package, each further dot climbs one
// level. Without a module part every imported name is its own specifier.
func pythonFromSpecifiers(dots int, module string, names []string) []string {
	module = strings.TrimSpace(module)
	if dots == 0 {
		if module == "" {
			return nil
		}
		return []string{dottedToPath(module)}
	}

	prefix := "./"
	if dots > 1 {
		prefix = strings.Repeat("../", dots-1)
	}
	if module != "" {
		return []string{prefix + dottedToPath(module)}
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		name = pythonImportedName(name)
		if name == "" || name == "*" {
			continue
		}
		out = append(out, prefix+dottedToPath(name))
	}
	return out
}

// pythonImportSpecifiers normalizes the comma list of a plain `import` line.
func pythonImportSpecifiers(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if name := pythonImportedName(part); name != "" {
			out = append(out, dottedToPath(name))
		}
	}
	return out
}

func pythonImportedName(raw string) string {
	raw = strings.Trim(strings.TrimSpace(raw), "()")
	if i := strings.Index(raw, " as "); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func splitPythonRelative(text string) (int, string) {
	text = strings.TrimSpace(text)
	trimmed := strings.TrimLeft(text, ".")
	return len(text) - len(trimmed), trimmed
}

func dottedToPath(name string) string {
	return strings.ReplaceAll(strings.TrimSpace(name), ".", "/")
}

// rustUseSpecifiers truncates a `use` tree to its leading module segments.
// self and super become relative paths, and a group directly after them
// yields one specifier per member. Anything else is a bare crate name.
func rustUseSpecifiers(usePath string) []string {
	usePath = strings.TrimSpace(usePath)
	usePath = strings.TrimPrefix(usePath, "::")
	head, rest, _ := strings.Cut(usePath, "::")
	head = strings.TrimSpace(head)

	prefix := ""
	switch head {
	case "self":
		prefix = "./"
	case "super":
		prefix = "../"
		for {
			next, tail, ok := strings.Cut(rest, "::")
			if !ok || strings.TrimSpace(next) != "super" {
				break
			}
			prefix += "../"
			rest = tail
		}
		if strings.TrimSpace(rest) == "super" {
			return nil
		}
	default:
		if name := rustIdent(head); name != "" {
			return []string{name}
		}
		return nil
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "{") {
		if name := rustIdent(rest); name != "" {
			return []string{prefix + name}
		}
		return nil
	}
	var out []string
	for _, member := range splitRustGroup(rest) {
		first, _, _ := strings.Cut(member, "::")
		name := rustIdent(strings.TrimSpace(first))
		if name == "" || name == "self" {
			continue
		}
		out = append(out, prefix+name)
	}
	return out
}

// splitRustGroup returns the top-level members of a `{...}` group.
func splitRustGroup(group string) []string {
	group = strings.TrimPrefix(group, "{")
	if i := strings.LastIndex(group, "}"); i >= 0 {
		group = group[:i]
	}
	var members []string
	depth, start := 0, 0
	for i := 0; i < len(group); i++ {
		switch group[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				members = append(members, strings.TrimSpace(group[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(group[start:]); last != "" {
		members = append(members, last)
	}
	return members
}

// rustIdent keeps the identifier prefix of a segment, dropping trailing
// groups such as `{a, b}` or `*`.
func rustIdent(seg string) string {
	end := 0
	for end < len(seg) {
		c := seg[end]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			end++
			continue
		}
		break
	}
	return seg[:end]
}

func unquote(lit string) string {
	lit = strings.TrimSpace(lit)
	return strings.Trim(lit, "\"'`")
}
