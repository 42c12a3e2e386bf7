package codec

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes traversal failures.
type ErrorCode string

const (
	// ErrCodeSchema indicates a property name not declared on the entity
	// kind or any of its ancestors.
	ErrCodeSchema ErrorCode = "SCHEMA_ERROR"

	// ErrCodeTypeMismatch indicates a raw value whose runtime shape does
	// not match the requested field type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeKeyNotFound indicates a requested field absent from the
	// entity's property bag.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrCodeValueNotFound indicates a present but null value where a
	// non-optional value was requested.
	ErrCodeValueNotFound ErrorCode = "VALUE_NOT_FOUND"

	// ErrCodeStore wraps an underlying store I/O or fetch failure,
	// propagated verbatim.
	ErrCodeStore ErrorCode = "STORE_ERROR"
)

// Error is a traversal failure with the full coding path attached.
// Every internal failure aborts the entire Encode/Decode call; there is no
// partial-success return and no retry inside the engine.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the coding path from the traversal root to the failure.
	Path Path

	// Kind is the entity kind in play, when known.
	Kind string

	// Property is the property name in play, when known.
	Property string

	// Err is the wrapped cause (store failures, parse failures).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Kind != "" && e.Property != "" {
		msg = fmt.Sprintf("%s (kind=%s, property=%s)", msg, e.Kind, e.Property)
	} else if e.Kind != "" {
		msg = fmt.Sprintf("%s (kind=%s)", msg, e.Kind)
	}
	if len(e.Path) > 0 {
		msg = fmt.Sprintf("%s at %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

func codeIs(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsSchemaError reports whether err is a schema violation.
func IsSchemaError(err error) bool { return codeIs(err, ErrCodeSchema) }

// IsTypeMismatch reports whether err is a runtime shape mismatch.
func IsTypeMismatch(err error) bool { return codeIs(err, ErrCodeTypeMismatch) }

// IsKeyNotFound reports whether err is a missing-field failure.
func IsKeyNotFound(err error) bool { return codeIs(err, ErrCodeKeyNotFound) }

// IsValueNotFound reports whether err is a null-value failure.
func IsValueNotFound(err error) bool { return codeIs(err, ErrCodeValueNotFound) }

// IsStoreError reports whether err wraps an underlying store failure.
func IsStoreError(err error) bool { return codeIs(err, ErrCodeStore) }

func schemaErr(path Path, kind, property string) *Error {
	return &Error{
		Code:     ErrCodeSchema,
		Message:  "property not declared on entity kind or its ancestors",
		Path:     path.Clone(),
		Kind:     kind,
		Property: property,
	}
}

func mismatchErr(path Path, kind, property, msg string) *Error {
	return &Error{
		Code:     ErrCodeTypeMismatch,
		Message:  msg,
		Path:     path.Clone(),
		Kind:     kind,
		Property: property,
	}
}

func keyNotFoundErr(path Path, kind, property string) *Error {
	return &Error{
		Code:     ErrCodeKeyNotFound,
		Message:  "required field absent",
		Path:     path.Clone(),
		Kind:     kind,
		Property: property,
	}
}

func valueNotFoundErr(path Path, kind, property string) *Error {
	return &Error{
		Code:     ErrCodeValueNotFound,
		Message:  "required value is null",
		Path:     path.Clone(),
		Kind:     kind,
		Property: property,
	}
}

func storeErr(path Path, kind string, err error) *Error {
	return &Error{
		Code:    ErrCodeStore,
		Message: "store operation failed",
		Path:    path.Clone(),
		Kind:    kind,
		Err:     err,
	}
}
