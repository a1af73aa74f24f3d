package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeConfiguration       ErrorCode = "CONFIGURATION_ERROR"
	CodeArtifactMissing     ErrorCode = "ARTIFACT_MISSING"
	CodeFileAccess          ErrorCode = "FILE_ACCESS"
	CodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxSpecifier = "specifier"
	CtxHint      = "hint"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key/value pair to err, promoting plain errors to
// an INTERNAL_ERROR domain error.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// ArtifactMissing is returned by read-only consumers when no graph artifact
// exists at path.
func ArtifactMissing(path string, err error) error {
	de := &DomainError{
		Code:    CodeArtifactMissing,
		Message: "dependency graph artifact not found; run `ripple -build` first",
		Err:     err,
	}
	return de.WithContext(CtxPath, path).WithContext(CtxHint, "ripple -build")
}

// FileAccess wraps a per-file read failure during a build.
func FileAccess(path string, err error) error {
	de := &DomainError{Code: CodeFileAccess, Message: "cannot read source file", Err: err}
	return de.WithContext(CtxPath, path)
}

// UnresolvedSpecifier reports a relative import in importer that matches no
// known file. Builds log it and drop the edge.
func UnresolvedSpecifier(importer, specifier string) error {
	de := &DomainError{Code: CodeUnresolvedReference, Message: "import matches no known file"}
	return de.WithContext(CtxPath, importer).WithContext(CtxSpecifier, specifier)
}

// Unresolved reports a file or specifier absent from the known-file set.
func Unresolved(path string) error {
	de := &DomainError{Code: CodeUnresolvedReference, Message: "file is not part of the dependency graph"}
	return de.WithContext(CtxPath, path)
}
