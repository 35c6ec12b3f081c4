package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedWidth is matched by every ConfigError raised for a fixed
	// width outside FixedWidths.
	ErrUnsupportedWidth = errors.New("unexpected fixed-width data size")
	// ErrInvalidInputs is matched by every other ConfigError.
	ErrInvalidInputs = errors.New("invalid test inputs")
)

// ConfigError describes a test input that cannot be run. It carries the
// offending field and value so the run can be reproduced from the message.
type ConfigError struct {
	Field string // The input field (e.g. "key_size")
	Value any    // The offending value
	Msg   string // Human-readable reason
	kind  error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s=%v): %s", e.Field, e.Value, e.Msg)
}

// Is lets errors.Is match the sentinel the error was created for.
func (e *ConfigError) Is(target error) bool {
	return target == e.kind
}

// NewWidthError creates a ConfigError for an unsupported fixed width.
func NewWidthError(field string, size int) *ConfigError {
	return &ConfigError{
		Field: field,
		Value: size,
		Msg:   fmt.Sprintf("%s: %d (supported: %v)", ErrUnsupportedWidth, size, FixedWidths),
		kind:  ErrUnsupportedWidth,
	}
}

// NewInputError creates a ConfigError for any other invalid input.
func NewInputError(field string, value any, msg string) *ConfigError {
	return &ConfigError{
		Field: field,
		Value: value,
		Msg:   msg,
		kind:  ErrInvalidInputs,
	}
}
