package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the backend has no record for an id
	ErrNotFound = errors.New("record not found")
	// ErrUnknownEntity is returned when an entity type has no search configuration
	ErrUnknownEntity = errors.New("unknown entity type")
	// ErrUnknownField is returned when a field is not part of an entity's search configuration
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidSchema is returned when a schema document breaks a registry invariant
	ErrInvalidSchema = errors.New("invalid search schema")
	// ErrInvalidValue is returned when a query parameter cannot be decoded for its field type
	ErrInvalidValue = errors.New("invalid filter value")
	// ErrCanceled is returned when the operation is canceled by the client
	// or superseded by a newer search.
	ErrCanceled = errors.New("operation canceled")
)

// ConfigurationError reports drift between callers and the search schema.
// It always wraps one of ErrUnknownEntity, ErrUnknownField or ErrInvalidSchema.
type ConfigurationError struct {
	Entity string
	Field  string
	Err    error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("search configuration: %s.%s: %v", e.Entity, e.Field, e.Err)
	case e.Entity != "":
		return fmt.Sprintf("search configuration: %s: %v", e.Entity, e.Err)
	default:
		return fmt.Sprintf("search configuration: %v", e.Err)
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// UnknownEntity builds a ConfigurationError for an unregistered entity type.
func UnknownEntity(entity string) error {
	return &ConfigurationError{Entity: entity, Err: ErrUnknownEntity}
}

// UnknownField builds a ConfigurationError for a field missing from an entity.
func UnknownField(entity, field string) error {
	return &ConfigurationError{Entity: entity, Field: field, Err: ErrUnknownField}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// WrapError converts context.Canceled and context.DeadlineExceeded to ErrCanceled.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsCanceled(err) {
		return ErrCanceled
	}
	return err
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
// Transport errors from net/http only carry the cause in their message, so the text is checked too.
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
