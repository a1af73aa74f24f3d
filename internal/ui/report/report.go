// Package report renders analysis results for people (styled text) and for
// automation (JSON and TSV).
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	coreerrors "ripple/internal/core/errors"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTSV:
		return FormatTSV, nil
	default:
		return "", coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("unknown output format %q (want text, json or tsv)", value))
	}
}

func renderJSON(v any) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeInternal, "encode report")
	}
	return append(out, '\n'), nil
}

// render dispatches on format. A nil tsv func falls back to text.
func render(format Format, v any, text func() string, tsv func() string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return renderJSON(v)
	case FormatTSV:
		if tsv != nil {
			return []byte(tsv()), nil
		}
	}
	return []byte(text()), nil
}
