package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an order, category, menu item, chef or admin is absent
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on uniqueness violations and referenced deletes
	ErrConflict = errors.New("conflict")
	// ErrInvalidTransition is returned when an order status change is not allowed
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStorageUnavailable is returned when a tenant partition cannot be opened or queried
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidCredentials is returned by logins. It never says which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when a token is valid but not bound to the resource
	ErrForbidden = errors.New("forbidden")

	ErrCategoryInUse = fmt.Errorf("%w: category is referenced by menu items", ErrConflict)
)

// ValidationError carries field-level problems with client input
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records another field problem
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// OrNil returns nil when no field was recorded
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
