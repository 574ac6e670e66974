// Package errors defines error types and utilities for scopekit
package errors

import (
	"errors"
	"fmt"
)

// Common errors that can occur in scopekit operations
var (
	// ErrInvalidPageRequest is returned when a page request fails validation
	ErrInvalidPageRequest = errors.New("invalid page request")

	// ErrInvalidPageNumber is returned when a page number is below 1
	ErrInvalidPageNumber = errors.New("page number must be at least 1")

	// ErrInvalidPageSize is returned when a page size is below 1
	ErrInvalidPageSize = errors.New("page size must be at least 1")

	// ErrNotCountable is returned when a statement cannot be rewritten into a
	// COUNT projection because it does not begin with "SELECT *"
	ErrNotCountable = errors.New("statement is not countable: expected a SELECT * prefix")

	// ErrEmptyStatement is returned when a base statement is empty or blank
	ErrEmptyStatement = errors.New("empty query statement")

	// ErrDocumentNotFound is returned when a document does not exist in the collection
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDocumentExists is returned when inserting a document whose key is already taken
	ErrDocumentExists = errors.New("document already exists")

	// ErrUnsupportedOperator is returned when a condition operator is not recognized
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrInvalidCondition is returned when a condition value does not fit its operator
	ErrInvalidCondition = errors.New("invalid condition value")

	// ErrNotConstructible is returned when a type cannot be populated from a document
	ErrNotConstructible = errors.New("type cannot be populated from a document")

	// ErrInvalidConfig is returned when the session configuration fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
)

// QueryError represents a query execution failure annotated with the statement
type QueryError struct {
	Err       error
	Op        string
	Statement string
}

// Error implements the error interface
func (e *QueryError) Error() string {
	// Parameter values are never included; only the statement shape is safe to log
	if e == nil {
		return "scopekit: query failed"
	}

	op := e.Op
	if op == "" {
		op = "query"
	}

	if e.Statement == "" {
		return fmt.Sprintf("scopekit: %s operation failed: %v", op, e.Err)
	}
	return fmt.Sprintf("scopekit: %s operation failed for %q: %v", op, e.Statement, e.Err)
}

// Unwrap returns the underlying error
func (e *QueryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is checks if the error matches the target error
func (e *QueryError) Is(target error) bool {
	if e == nil {
		return false
	}
	return errors.Is(e.Err, target)
}

// NewQueryError creates a new QueryError
func NewQueryError(op, statement string, err error) *QueryError {
	return &QueryError{
		Op:        op,
		Statement: statement,
		Err:       err,
	}
}

// MappingError represents a document-to-type conversion failure
type MappingError struct {
	Err   error
	Type  string
	Field string
}

// Error implements the error interface
func (e *MappingError) Error() string {
	if e == nil {
		return "scopekit: mapping failed"
	}

	typ := e.Type
	if typ == "" {
		typ = "value"
	}

	if e.Field != "" {
		return fmt.Sprintf("scopekit: mapping %s failed on field %s: %v", typ, e.Field, e.Err)
	}
	return fmt.Sprintf("scopekit: mapping %s failed: %v", typ, e.Err)
}

// Unwrap returns the underlying error
func (e *MappingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is checks if the error matches the target error
func (e *MappingError) Is(target error) bool {
	if e == nil {
		return false
	}
	return errors.Is(e.Err, target)
}

// NewMappingError creates a new MappingError
func NewMappingError(typeName, field string, err error) *MappingError {
	return &MappingError{
		Type:  typeName,
		Field: field,
		Err:   err,
	}
}

// IsNotFound checks if an error indicates a document was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// IsPrecondition checks if an error was raised by request validation before
// any statement reached the database
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrInvalidPageRequest) ||
		errors.Is(err, ErrNotCountable) ||
		errors.Is(err, ErrEmptyStatement)
}

// IsQueryFailure checks if an error came from statement execution
func IsQueryFailure(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// IsMapping checks if an error came from document mapping
func IsMapping(err error) bool {
	var me *MappingError
	return errors.As(err, &me)
}
