package imc

import (
	"errors"
	"fmt"
)

// ErrNotModified is returned when the controller accepts a config change but
// reports the object untouched.
var ErrNotModified = errors.New("imc: object was not modified")

// ErrAttributeMissing is returned when a resolved object lacks an expected
// attribute.
var ErrAttributeMissing = errors.New("imc: attribute missing")

// ValidationError describes invalid operation input. It is returned before
// any request reaches the controller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidArg(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// APIError is the structured error document the controller returns in place
// of a result.
type APIError struct {
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("imc: device error %s: %s", e.Code, e.Description)
}
