// Package errors provides structured error handling for databuilder.
//
// Every error raised at a package boundary carries an ErrorType so callers
// can tell construction-time validation failures apart from parse misses,
// sink I/O problems and configuration mistakes without string matching.
// A task additionally tags failures with the pipeline phase and component
// scope that raised them, so "load fs_neo4j_csv: file: ..." reads back to
// the loader without inspecting the message.
package errors

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents entity and serialization validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeParse represents SQL and type-string parse failures
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeNotFound represents missing components or resources
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeTimeout represents cancelled or timed out runs
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConnection represents source and target connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents malformed source rows and service responses
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents staging file errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeQuery represents metadata query errors
	ErrorTypeQuery ErrorType = "query"
)

// Phase is the stage of a job an error surfaced in.
type Phase string

const (
	PhaseExtract   Phase = "extract"
	PhaseTransform Phase = "transform"
	PhaseLoad      Phase = "load"
	PhasePublish   Phase = "publish"
)

// Error is a typed error. Phase and Component are set once the error has
// crossed a task or job boundary.
type Error struct {
	Type      ErrorType
	Message   string
	Cause     error
	Details   map[string]interface{}
	Phase     Phase
	Component string
	// Origin is the file:line that first raised the error.
	Origin string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Phase != "" {
		b.WriteString(string(e.Phase))
		if e.Component != "" {
			b.WriteByte(' ')
			b.WriteString(e.Component)
		}
		b.WriteString(": ")
		if e.Message == "" && e.Cause != nil {
			b.WriteString(e.Cause.Error())
			return b.String()
		}
	}
	b.WriteString(string(e.Type))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message, Origin: origin(2)}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Origin: origin(2)}
}

// Wrap wraps err under a new type and message. The origin of an inner
// *Error is kept.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: errType, Message: message, Cause: err, Origin: originOf(err)}
}

// InPhase tags err with the phase and component scope it surfaced from.
// The type of err is kept; an untyped err is internal. An err already
// tagged is returned unchanged.
func InPhase(err error, phase Phase, component string) error {
	if err == nil {
		return nil
	}
	if PhaseOf(err) != "" {
		return err
	}
	return &Error{
		Type:      TypeOf(err),
		Cause:     err,
		Phase:     phase,
		Component: component,
		Origin:    originOf(err),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost *Error in err's chain, or
// ErrorTypeInternal when there is none.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// PhaseOf returns the phase err was tagged with, or "" when it never
// crossed a task boundary.
func PhaseOf(err error) Phase {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return ""
		}
		if e.Phase != "" {
			return e.Phase
		}
		err = e.Cause
	}
	return ""
}

// Is mirrors the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As mirrors the standard library so callers need a single errors import.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func originOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Origin != "" {
		return e.Origin
	}
	return origin(3)
}

func origin(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
