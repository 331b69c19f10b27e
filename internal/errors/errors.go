// Package errors defines the typed failures a dataset build can end in.
// Every error is fatal to the build it occurs in; none are retried.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies the kind of build failure.
type Code string

const (
	CodeFetchFailed             Code = "FETCH_FAILED"
	CodeArchiveInvalid          Code = "ARCHIVE_INVALID"
	CodeBlockNotFound           Code = "BLOCK_NOT_FOUND"
	CodeHeaderNotFound          Code = "HEADER_NOT_FOUND"
	CodeMomentumColumnNotFound  Code = "MOMENTUM_COLUMN_NOT_FOUND"
	CodeNoOverlap               Code = "NO_OVERLAP"
	CodeEmptyMomentum           Code = "EMPTY_MOMENTUM"
	CodeExportFailed            Code = "EXPORT_FAILED"
)

// BuildError represents a build-specific error carrying enough context
// to diagnose the failure without re-running the pipeline.
type BuildError struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e == nil {
		return "unknown build error"
	}
	if len(e.Context) > 0 {
		return fmt.Sprintf("[%s] %s %v", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports code equality so sentinel comparison works through wrapping.
func (e *BuildError) Is(target error) bool {
	var other *BuildError
	if errors.As(target, &other) {
		return e != nil && other != nil && e.Code == other.Code
	}
	return false
}

// New creates a BuildError with the given code and message.
func New(code Code, message string) *BuildError {
	return &BuildError{Code: code, Message: message}
}

// Wrap creates a BuildError wrapping a cause.
func Wrap(code Code, message string, cause error) *BuildError {
	return &BuildError{Code: code, Message: message, Cause: cause}
}

// WithContext attaches a diagnostic key/value pair.
func (e *BuildError) WithContext(key string, value interface{}) *BuildError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Join aggregates multiple build failures into one error. A nil result
// means every build succeeded.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// HasCode reports whether err carries the given build failure code.
func HasCode(err error, code Code) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// NewFetchError creates a fetch failure for a source URL.
func NewFetchError(url string, cause error) *BuildError {
	return Wrap(CodeFetchFailed, "failed to download archive", cause).
		WithContext("url", url)
}

// NewBlockNotFound reports that no monthly section was located.
func NewBlockNotFound(source string) *BuildError {
	return New(CodeBlockNotFound, "monthly block not found").
		WithContext("source", source)
}

// NewHeaderNotFound reports that no header line exists above the block.
func NewHeaderNotFound(source string, dataStart int) *BuildError {
	return New(CodeHeaderNotFound, "header line not found above monthly block").
		WithContext("source", source).
		WithContext("data_start_line", dataStart)
}

// NewMomentumColumnNotFound reports that the harmonizer could not identify
// the momentum field, listing the columns that were available.
func NewMomentumColumnNotFound(available []string) *BuildError {
	return New(CodeMomentumColumnNotFound, "no momentum column candidate matched").
		WithContext("available_columns", available)
}

// NewNoOverlap reports a join with zero shared dates.
func NewNoOverlap(fiveRows, momRows int) *BuildError {
	return New(CodeNoOverlap, "five-factor and momentum tables share no dates").
		WithContext("five_factor_rows", fiveRows).
		WithContext("momentum_rows", momRows).
		WithContext("overlap", 0)
}

// NewEmptyMomentum reports that the joined momentum column has no values.
func NewEmptyMomentum(rows int) *BuildError {
	return New(CodeEmptyMomentum, "momentum column is entirely missing after join").
		WithContext("rows", rows)
}
