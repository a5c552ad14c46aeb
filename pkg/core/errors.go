package core

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrNotFound is returned when a collection, field, relationship or table does not exist.
	ErrNotFound = errors.New("leapcollect: not found")

	// ErrConflict is returned when metadata would violate a uniqueness rule.
	ErrConflict = errors.New("leapcollect: metadata conflict")

	// ErrDDL is returned when the physical schema could not be changed.
	ErrDDL = errors.New("leapcollect: ddl failed")

	// ErrInvalidDefinition is returned for malformed collection, field or relationship input.
	ErrInvalidDefinition = errors.New("leapcollect: invalid definition")
)

// NotFoundError reports a missing collection, field, relationship or table.
type NotFoundError struct {
	Kind     string // collection, field, relationship, table
	Name     string
	TenantID int64
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.Kind == "collection" {
		return fmt.Sprintf("leapcollect: collection %q not found (tenant=%d)", e.Name, e.TenantID)
	}
	return fmt.Sprintf("leapcollect: %s %q not found", e.Kind, e.Name)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(err, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// NewNotFoundError returns a NotFoundError for the given kind and name.
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// MetadataConflictError reports a uniqueness violation in the metadata store,
// e.g. a second collection with the same (tenant, name).
type MetadataConflictError struct {
	Kind   string
	Name   string
	Reason string
	Err    error
}

// Error returns the error string.
func (e *MetadataConflictError) Error() string {
	msg := fmt.Sprintf("leapcollect: %s %q already exists", e.Kind, e.Name)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap returns the underlying store error, if any.
func (e *MetadataConflictError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches MetadataConflictError.
func (e *MetadataConflictError) Is(err error) bool {
	return err == ErrConflict
}

// IsConflict returns true if the error is a MetadataConflictError.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *MetadataConflictError
	return errors.As(err, &e) || errors.Is(err, ErrConflict)
}

// DDLError wraps a failure raised by the schema builder.
type DDLError struct {
	Op    string // create_table, add_column, drop_column, drop_table
	Table string
	Err   error
}

// Error returns the error string.
func (e *DDLError) Error() string {
	return fmt.Sprintf("leapcollect: %s on %q failed: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the driver error.
func (e *DDLError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches DDLError.
func (e *DDLError) Is(err error) bool {
	return err == ErrDDL
}

// IsDDL returns true if the error is a DDLError.
func IsDDL(err error) bool {
	if err == nil {
		return false
	}
	var e *DDLError
	return errors.As(err, &e) || errors.Is(err, ErrDDL)
}

// DefinitionError reports malformed input: a bad identifier, a missing id on
// update, an unknown relationship type.
type DefinitionError struct {
	Kind   string
	Name   string
	Reason string
}

// Error returns the error string.
func (e *DefinitionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("leapcollect: invalid %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("leapcollect: invalid %s %q: %s", e.Kind, e.Name, e.Reason)
}

// Is reports whether the target error matches DefinitionError.
func (e *DefinitionError) Is(err error) bool {
	return err == ErrInvalidDefinition
}

// IsInvalidDefinition returns true if the error is a DefinitionError.
func IsInvalidDefinition(err error) bool {
	if err == nil {
		return false
	}
	var e *DefinitionError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidDefinition)
}
