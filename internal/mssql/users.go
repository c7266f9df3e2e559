package mssql

import (
	"context"
	"fmt"
	"strings"
)

// UserOptions carries the settings for a new database user.
type UserOptions struct {
	// Login maps the user to a server login. Without one the user is
	// created WITHOUT LOGIN.
	Login  string
	Domain string
	// Roles are database roles the user is added to after creation.
	Roles []string
	// Options are appended verbatim to the WITH clause.
	Options []string
}

// Users lists the SQL and Windows users of the configured database.
func (m *Module) Users(ctx context.Context) ([]string, error) {
	if err := m.requireDatabase(); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, "SELECT name FROM sysusers WHERE issqluser = 1 OR isntuser = 1")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return scanNames(rows)
}

// UserExists reports whether the user exists in the configured database.
func (m *Module) UserExists(ctx context.Context, username, domain string) (bool, error) {
	if err := m.requireDatabase(); err != nil {
		return false, err
	}
	qualified := qualifyAccount(domain, username)
	rows, err := m.db.QueryContext(ctx, "SELECT name FROM sysusers WHERE name = @p1", qualified)
	if err != nil {
		return false, fmt.Errorf("query user %s: %w", qualified, err)
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

// CreateUser creates a database user and adds it to the requested database
// roles. An existing user is reported with ErrUserExists.
func (m *Module) CreateUser(ctx context.Context, username string, opts UserOptions) error {
	if err := m.requireDatabase(); err != nil {
		return err
	}
	if opts.Domain != "" && opts.Login == "" {
		return invalidArg("domain", "cannot be set without a login")
	}
	exists, err := m.UserExists(ctx, username, opts.Domain)
	if err != nil {
		return err
	}
	qualified := qualifyAccount(opts.Domain, username)
	if exists {
		return fmt.Errorf("%w: %s", ErrUserExists, qualified)
	}

	stmt := "CREATE USER " + quoteIdent(qualified)
	switch {
	case opts.Login != "":
		stmt += " FOR LOGIN " + quoteIdent(qualifyAccount(opts.Domain, opts.Login))
	case opts.Domain == "":
		stmt += " WITHOUT LOGIN"
	}
	if len(opts.Options) > 0 {
		stmt += " WITH " + strings.Join(opts.Options, ", ")
	}
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create user %s: %w", qualified, err)
	}

	for _, role := range opts.Roles {
		roleStmt := fmt.Sprintf("ALTER ROLE %s ADD MEMBER %s", quoteIdent(role), quoteIdent(qualified))
		if _, err := m.db.ExecContext(ctx, roleStmt); err != nil {
			return fmt.Errorf("add user %s to role %s: %w", qualified, role, err)
		}
	}
	return nil
}

// DropUser drops a user from the configured database.
func (m *Module) DropUser(ctx context.Context, username string) error {
	if err := m.requireDatabase(); err != nil {
		return err
	}
	if _, err := m.db.ExecContext(ctx, "DROP USER "+quoteIdent(username)); err != nil {
		return fmt.Errorf("drop user %s: %w", username, err)
	}
	return nil
}
