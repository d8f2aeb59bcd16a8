// Package errors provides structured error types and exit codes for ctsdiff.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes of the ctsdiff binary.
const (
	ExitSuccess    = 0 // No unexpected divergence
	ExitError      = 1 // Usage, IO, parse or structural error
	ExitDivergence = 2 // Comparison found a divergence
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindUsage
	KindIO
	KindParse
	KindStructure
	KindDivergence
)

func (k ErrorKind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindStructure:
		return "structure"
	case KindDivergence:
		return "divergence"
	default:
		return "runtime"
	}
}

// Error is the base error type for ctsdiff.
type Error struct {
	Kind    ErrorKind
	Message string
	Path    string // Result file the error refers to, if any
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this error.
func (e *Error) ExitCode() int {
	if e.Kind == KindDivergence {
		return ExitDivergence
	}
	return ExitError
}

// Usage creates an error for invalid invocation.
func Usage(message string) *Error {
	return &Error{Kind: KindUsage, Message: message}
}

// Usagef creates a usage error with formatting.
func Usagef(format string, args ...any) *Error {
	return Usage(fmt.Sprintf(format, args...))
}

// IO wraps a failure to read or write a file.
func IO(message string, cause error) *Error {
	return &Error{Kind: KindIO, Message: message, Cause: cause}
}

// IOPath wraps a failure to read or write path when cause does not name it.
func IOPath(path, message string, cause error) *Error {
	return &Error{Kind: KindIO, Message: message, Path: path, Cause: cause}
}

// Parse wraps a malformed result file error.
func Parse(cause error) *Error {
	return &Error{Kind: KindParse, Message: "malformed result file", Cause: cause}
}

// Structure wraps a structural context error in a result file.
func Structure(cause error) *Error {
	return &Error{Kind: KindStructure, Message: "corrupt result structure", Cause: cause}
}

// Divergence reports a comparison that found differences.
func Divergence(message string) *Error {
	return &Error{Kind: KindDivergence, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{Kind: KindRuntime, Message: message, Cause: err}
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitError
}
