package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors shared across the storage and service layers. Handlers never
// branch on these directly; the response package translates them.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrTokenStale         = errors.New("password was changed recently, please log in again")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
)

// DuplicateError reports a unique-constraint violation, naming the field.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("the value %q for field %q is already taken, please choose another", e.Value, e.Field)
	}
	return fmt.Sprintf("a record with the same %s already exists", e.Field)
}

// ValidationError collects field-level constraint violations.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns the error itself when any field failed, nil otherwise.
// Validate methods build up an instance and finish with this.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// UpstreamError wraps a failure from an external collaborator (mailer,
// payment provider).
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
