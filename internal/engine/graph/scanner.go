package graph

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/shared/util"
)

// DefaultIgnoredDirs are directory names never descended into.
var DefaultIgnoredDirs = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	"vendor",
	"target",
	"__pycache__",
	".venv",
	"coverage",
	".next",
}

type ScanOptions struct {
	Root       string
	SourceDirs []string
	Include    string
	Ignore     []string
	Extensions []string
}

// Scanner enumerates the known-file set of a project.
type Scanner struct {
	root       string
	sourceDirs []string
	include    glob.Glob
	ignore     []glob.Glob
	ignoredDir map[string]bool
	extensions map[string]bool
}

func NewScanner(opts ScanOptions) (*Scanner, error) {
	if len(opts.SourceDirs) == 0 {
		return nil, coreerrors.New(coreerrors.CodeConfiguration, "no source directories configured")
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfiguration, "resolve project root")
	}

	s := &Scanner{
		root:       root,
		sourceDirs: append([]string(nil), opts.SourceDirs...),
		ignoredDir: make(map[string]bool, len(DefaultIgnoredDirs)),
		extensions: make(map[string]bool, len(opts.Extensions)),
	}
	for _, name := range DefaultIgnoredDirs {
		s.ignoredDir[name] = true
	}
	for _, ext := range opts.Extensions {
		s.extensions[strings.ToLower(ext)] = true
	}

	if include := strings.TrimSpace(opts.Include); include != "" {
		g, err := glob.Compile(include, '/')
		if err != nil {
			return nil, coreerrors.Wrap(fmt.Errorf("invalid include pattern %q: %w", include, err), coreerrors.CodeConfiguration, "compile scan rules")
		}
		s.include = g
	}
	for _, p := range opts.Ignore {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, coreerrors.Wrap(fmt.Errorf("invalid ignore pattern %q: %w", p, err), coreerrors.CodeConfiguration, "compile scan rules")
		}
		s.ignore = append(s.ignore, g)
	}
	return s, nil
}

func (s *Scanner) Root() string {
	return s.root
}

// Scan walks every source dir with an explicit stack and returns the sorted,
// de-duplicated canonical paths of matching files.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	for _, dir := range s.sourceDirs {
		start := util.ResolveUnder(s.root, dir)
		info, err := os.Stat(start)
		if err != nil {
			slog.Warn("skipping missing source dir", "dir", dir, "error", err)
			continue
		}
		if !info.IsDir() {
			slog.Warn("skipping source dir that is not a directory", "dir", dir)
			continue
		}
		if start != s.root {
			if _, ok := util.CanonicalPath(s.root, start); !ok {
				slog.Warn("skipping source dir outside project root", "dir", dir)
				continue
			}
		}

		stack := []string{start}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			entries, err := os.ReadDir(current)
			if err != nil {
				slog.Warn("skipping unreadable directory", "path", current, "error", err)
				continue
			}
			// Reverse order keeps the pop order lexicographic.
			for i := len(entries) - 1; i >= 0; i-- {
				entry := entries[i]
				full := filepath.Join(current, entry.Name())
				rel, ok := util.CanonicalPath(s.root, full)
				if !ok {
					continue
				}

				isDir := entry.IsDir()
				if entry.Type()&fs.ModeSymlink != 0 {
					target, err := os.Stat(full)
					if err != nil || target.IsDir() {
						continue
					}
					isDir = false
				}

				if isDir {
					if s.ignoredDir[entry.Name()] || s.ignored(rel) {
						continue
					}
					stack = append(stack, full)
					continue
				}

				if !s.accepts(rel) || seen[rel] {
					continue
				}
				seen[rel] = true
				files = append(files, rel)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func (s *Scanner) accepts(rel string) bool {
	if !s.extensions[strings.ToLower(path.Ext(rel))] {
		return false
	}
	if s.ignored(rel) {
		return false
	}
	if s.include != nil && !s.include.Match(rel) && !s.include.Match(path.Base(rel)) {
		return false
	}
	return true
}

func (s *Scanner) ignored(rel string) bool {
	base := path.Base(rel)
	for _, g := range s.ignore {
		if g.Match(rel) || g.Match(base) {
			return true
		}
	}
	return false
}
