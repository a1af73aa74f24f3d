package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	coreerrors "ripple/internal/core/errors"
)

// Validate checks a defaulted configuration. Every failure is reported as a
// CONFIGURATION_ERROR.
func Validate(cfg *Config) error {
	checks := []func(*Config) error{
		validateVersion,
		validateLanguage,
		validateScan,
		validateImpact,
		validatePrioritize,
	}
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return coreerrors.Wrap(err, coreerrors.CodeConfiguration, "invalid configuration")
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateLanguage(cfg *Config) error {
	if _, ok := languageExtensions[cfg.Language]; !ok {
		return fmt.Errorf("language must be one of %s, got %q", strings.Join(SupportedLanguages(), ", "), cfg.Language)
	}
	return nil
}

func validateScan(cfg *Config) error {
	dirs := 0
	for i, dir := range cfg.Scan.SourceDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("scan.source_dirs[%d] must not be empty", i)
		}
		dirs++
	}
	if dirs == 0 {
		return fmt.Errorf("scan.source_dirs must name at least one source directory")
	}

	if len(cfg.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	for i, ext := range cfg.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("scan.extensions[%d] must start with '.', got %q", i, ext)
		}
	}

	switch cfg.Scan.Extractor {
	case ExtractorPattern, ExtractorSyntax:
	default:
		return fmt.Errorf("scan.extractor must be one of: %s, %s", ExtractorPattern, ExtractorSyntax)
	}

	if cfg.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be >= 1, got %d", cfg.Scan.Concurrency)
	}
	if cfg.Scan.MaxFilesPerSecond < 0 {
		return fmt.Errorf("scan.max_files_per_second must be >= 0")
	}

	if include := strings.TrimSpace(cfg.Scan.Include); include != "" {
		if _, err := glob.Compile(include, '/'); err != nil {
			return fmt.Errorf("invalid scan.include pattern %q: %w", include, err)
		}
	}
	for _, p := range cfg.Scan.Ignore {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("invalid scan.ignore pattern %q: %w", p, err)
		}
	}
	return nil
}

func validateImpact(cfg *Config) error {
	if cfg.Impact.Depth != nil && *cfg.Impact.Depth < 0 {
		return fmt.Errorf("impact.depth must be >= 0, got %d", *cfg.Impact.Depth)
	}
	if cfg.Stale.MaxDepth != nil && *cfg.Stale.MaxDepth < 0 {
		return fmt.Errorf("stale.max_depth must be >= 0, got %d", *cfg.Stale.MaxDepth)
	}
	return nil
}

func validatePrioritize(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Prioritize.Hints))
	for i, hint := range cfg.Prioritize.Hints {
		dir := strings.TrimSpace(hint.Dir)
		if dir == "" {
			return fmt.Errorf("prioritize.hints[%d].dir must not be empty", i)
		}
		if seen[dir] {
			return fmt.Errorf("prioritize.hints[%d].dir %q is duplicated", i, dir)
		}
		seen[dir] = true
	}
	return nil
}
