package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is returned when a numeric precondition on an input is violated.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyInput is returned when a pricer receives no paths.
	ErrEmptyInput = errors.New("empty input")
	// ErrNumericInstability is returned when a simulation produces a non-finite or non-positive price.
	ErrNumericInstability = errors.New("numeric instability")
)

// ParameterError describes which input failed validation and why.
type ParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// InvalidParameter builds a ParameterError for the named field.
func InvalidParameter(field string, value float64, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}
