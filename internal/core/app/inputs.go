package app

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"

	coreerrors "ripple/internal/core/errors"
	"ripple/internal/engine/priority"
)

// ParseChangedFiles reads one path per line. Blank lines and lines starting
// with # are ignored.
func ParseChangedFiles(data []byte) ([]string, error) {
	out := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "read changed-file list")
	}
	return normalizeFiles(out), nil
}

// ReadChangedFiles loads a changed-file list from path.
func ReadChangedFiles(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeFileAccess, "read changed-file list"),
			coreerrors.CtxPath, path,
		)
	}
	files, err := ParseChangedFiles(data)
	if err != nil {
		return nil, coreerrors.AddContext(err, coreerrors.CtxPath, path)
	}
	return files, nil
}

// SplitList splits a comma separated flag value into trimmed entries.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseFailingUnits accepts either a JSON array of {"test","failures"}
// objects or plain text with one test name per line. Repeated names in the
// plain form count as repeated failures.
func ParseFailingUnits(data []byte) ([]priority.FailingUnit, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []priority.FailingUnit{}, nil
	}

	if trimmed[0] == '[' {
		var units []priority.FailingUnit
		if err := json.Unmarshal(trimmed, &units); err != nil {
			return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "decode failing units")
		}
		out := make([]priority.FailingUnit, 0, len(units))
		for _, u := range units {
			u.Test = strings.TrimSpace(u.Test)
			if u.Test == "" {
				continue
			}
			if u.Failures <= 0 {
				u.Failures = 1
			}
			out = append(out, u)
		}
		return out, nil
	}

	counts := make(map[string]int)
	order := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if counts[line] == 0 {
			order = append(order, line)
		}
		counts[line]++
	}
	if err := scanner.Err(); err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeValidationError, "read failing units")
	}

	out := make([]priority.FailingUnit, 0, len(order))
	for _, test := range order {
		out = append(out, priority.FailingUnit{Test: test, Failures: counts[test]})
	}
	return out, nil
}

// ReadFailingUnits loads failing units from path.
func ReadFailingUnits(path string) ([]priority.FailingUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.AddContext(
			coreerrors.Wrap(err, coreerrors.CodeFileAccess, "read failing units"),
			coreerrors.CtxPath, path,
		)
	}
	return ParseFailingUnits(data)
}
