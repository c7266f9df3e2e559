package mssql

import (
	"errors"
	"fmt"
)

// ErrSystemDatabase is returned when a drop targets one of the built-in
// databases.
var ErrSystemDatabase = errors.New("mssql: refusing to drop a system database")

// ErrDatabaseNotFound is returned when a drop targets a database that does
// not exist.
var ErrDatabaseNotFound = errors.New("mssql: database does not exist")

// ErrLoginExists is returned when a login create targets an existing login.
var ErrLoginExists = errors.New("mssql: login already exists")

// ErrUserExists is returned when a user create targets an existing user.
var ErrUserExists = errors.New("mssql: user already exists")

// ValidationError reports an argument that failed validation before any
// statement was sent to the server.
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
