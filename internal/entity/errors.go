package entity

import (
	"errors"
	"fmt"

	"github.com/roach88/kilnfs/internal/schema"
)

// ErrorCode categorizes storage errors.
type ErrorCode string

const (
	// CodeNotFound indicates no document exists at the expected location.
	CodeNotFound ErrorCode = "E001"

	// CodeDecode indicates a document could not be parsed as its kind.
	CodeDecode ErrorCode = "E002"

	// CodeTypeMismatch indicates a stored or assigned kind differs from the expected one.
	CodeTypeMismatch ErrorCode = "E003"

	// CodeSchemaVersion indicates a document newer than the running code supports.
	CodeSchemaVersion ErrorCode = "E004"

	// CodeMissingLocation indicates a save with no derivable storage location.
	CodeMissingLocation ErrorCode = "E005"

	// CodeValidation indicates one or more field or rule violations.
	CodeValidation ErrorCode = "E006"

	// CodeConfig indicates an invalid kind or relationship declaration.
	CodeConfig ErrorCode = "E007"
)

// Coded is implemented by every error in the storage taxonomy.
type Coded interface {
	error
	Code() ErrorCode
}

// CodeOf returns the code of the first Coded error in err's chain,
// or "" when there is none.
func CodeOf(err error) ErrorCode {
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// NotFoundError reports that no document exists at Path.
type NotFoundError struct {
	Kind string
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found at %s", CodeNotFound, e.Kind, e.Path)
}

func (e *NotFoundError) Unwrap() error   { return e.Err }
func (e *NotFoundError) Code() ErrorCode { return CodeNotFound }

// DecodeError reports a document that is not well-formed for its kind.
// Err is either a JSON error or a *ValidationError.
type DecodeError struct {
	Kind string
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: cannot decode %s from %s: %v", CodeDecode, e.Kind, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error   { return e.Err }
func (e *DecodeError) Code() ErrorCode { return CodeDecode }

// TypeMismatchError reports that a stored type tag, or an assigned parent,
// is not the kind the caller expected.
type TypeMismatchError struct {
	Expected string
	Actual   string
	Path     string // empty for in-memory assignments
	What     string // "document" or "parent"
}

func (e *TypeMismatchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s type mismatch at %s: expected %q, got %q", CodeTypeMismatch, e.What, e.Path, e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: %s type mismatch: expected %q, got %q", CodeTypeMismatch, e.What, e.Expected, e.Actual)
}

func (e *TypeMismatchError) Code() ErrorCode { return CodeTypeMismatch }

// SchemaVersionError reports a document written by a newer format revision.
type SchemaVersionError struct {
	Kind    string
	ID      string
	Path    string
	Version int
	Max     int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("%s: %s %q at %s has schema version %d, newest supported is %d; upgrade required",
		CodeSchemaVersion, e.Kind, e.ID, e.Path, e.Version, e.Max)
}

func (e *SchemaVersionError) Code() ErrorCode { return CodeSchemaVersion }

// MissingLocationError reports a save for an entity with neither an
// explicit path nor a persisted parent chain.
type MissingLocationError struct {
	Kind string
	ID   string
}

func (e *MissingLocationError) Error() string {
	return fmt.Sprintf("%s: cannot save %s %q: no path set and none derivable from a parent", CodeMissingLocation, e.Kind, e.ID)
}

func (e *MissingLocationError) Code() ErrorCode { return CodeMissingLocation }

// ValidationError aggregates every violation found in one pass.
type ValidationError struct {
	Kind       string
	Violations schema.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s failed validation with %d violation(s):\n%s", CodeValidation, e.Kind, len(e.Violations), e.Violations)
}

func (e *ValidationError) Code() ErrorCode { return CodeValidation }

// IsNotFound returns true if err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsSchemaVersion returns true if err is, or wraps, a SchemaVersionError.
func IsSchemaVersion(err error) bool {
	var sv *SchemaVersionError
	return errors.As(err, &sv)
}

// IsTypeMismatch returns true if err is, or wraps, a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}

// IsValidation returns true if err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
