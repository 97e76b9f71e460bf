package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks a sweep log that cannot be turned into a
	// rectangular spectrogram. It aborts the affected file only.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound marks an input path or folder that resolves to no files
	ErrNotFound = errors.New("not found")

	// ErrOutputConflict marks an input whose artifact names are already
	// taken by an earlier input of the same run
	ErrOutputConflict = errors.New("output conflict")
)

// MalformedInputError describes where and why a sweep log was rejected
type MalformedInputError struct {
	Path   string
	Line   int
	Reason string
}

func (e *MalformedInputError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", ErrMalformedInput, e.Path, e.Line, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", ErrMalformedInput, e.Line, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %s", ErrMalformedInput, e.Path, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", ErrMalformedInput, e.Reason)
	}
}

// Unwrap allows errors.Is(err, ErrMalformedInput)
func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// Malformed returns a MalformedInputError for the given line
func Malformed(line int, format string, args ...any) error {
	return &MalformedInputError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// ErrorKind classifies err for reports
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrOutputConflict):
		return "output_conflict"
	default:
		return "internal"
	}
}
