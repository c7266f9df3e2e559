package modules

import (
	"errors"
	"fmt"

	"github.com/driftworks/driftd/internal/blockdev"
	"github.com/driftworks/driftd/internal/imc"
	"github.com/driftworks/driftd/internal/modjk"
	"github.com/driftworks/driftd/internal/mssql"
	"github.com/driftworks/driftd/internal/notify/mattermost"
)

// ErrNotFound is returned when no function or state is registered under the
// requested name.
var ErrNotFound = errors.New("modules: not found")

// UnavailableError is returned when a name belongs to a module that was not
// configured at startup.
type UnavailableError struct {
	Module string
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("module %s is not available: %s", e.Module, e.Reason)
}

// InvocationError describes invalid call input, detected before any
// endpoint I/O happens.
type InvocationError struct {
	Field  string
	Reason string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AsInvocation normalizes the validation error types of the endpoint
// modules so transport layers can map them all to one bad-request shape.
func AsInvocation(err error) (*InvocationError, bool) {
	var inv *InvocationError
	if errors.As(err, &inv) {
		return inv, true
	}
	var imcErr *imc.ValidationError
	if errors.As(err, &imcErr) {
		return &InvocationError{Field: imcErr.Field, Reason: imcErr.Reason}, true
	}
	var sqlErr *mssql.ValidationError
	if errors.As(err, &sqlErr) {
		return &InvocationError{Field: sqlErr.Field, Reason: sqlErr.Reason}, true
	}
	var jkErr *modjk.ValidationError
	if errors.As(err, &jkErr) {
		return &InvocationError{Field: jkErr.Field, Reason: jkErr.Reason}, true
	}
	var hookErr *mattermost.InvocationError
	if errors.As(err, &hookErr) {
		return &InvocationError{Field: hookErr.Field, Reason: hookErr.Reason}, true
	}
	if errors.Is(err, blockdev.ErrUnknownOption) || errors.Is(err, blockdev.ErrNoOptions) {
		return &InvocationError{Field: "options", Reason: err.Error()}, true
	}
	return nil, false
}
