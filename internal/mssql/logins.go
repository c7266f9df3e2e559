package mssql

import (
	"context"
	"fmt"
	"strings"
)

// LoginOptions carries the settings for a new server login. Exactly one of
// Password and Domain must be set: Password creates a SQL authentication
// login, Domain a Windows one.
type LoginOptions struct {
	Password string
	// PasswordHashed marks Password as a pre-hashed blob in hex form,
	// created with PASSWORD=0x... HASHED.
	PasswordHashed bool
	Domain         string
	// Roles are server roles the login is added to after creation.
	Roles []string
	// Options are appended verbatim to the WITH clause.
	Options []string
}

// LoginExists reports whether the login exists, qualified with the domain
// when one is given.
func (m *Module) LoginExists(ctx context.Context, login, domain string) (bool, error) {
	qualified := qualifyAccount(domain, login)
	rows, err := m.db.QueryContext(ctx, "SELECT name FROM sys.syslogins WHERE name = @p1", qualified)
	if err != nil {
		return false, fmt.Errorf("query login %s: %w", qualified, err)
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

// CreateLogin creates a server login and adds it to the requested server
// roles. An existing login is reported with ErrLoginExists.
func (m *Module) CreateLogin(ctx context.Context, login string, opts LoginOptions) error {
	if (opts.Password != "") == (opts.Domain != "") {
		return invalidArg("login", "exactly one of password and domain must be set")
	}
	exists, err := m.LoginExists(ctx, login, opts.Domain)
	if err != nil {
		return err
	}
	qualified := qualifyAccount(opts.Domain, login)
	if exists {
		return fmt.Errorf("%w: %s", ErrLoginExists, qualified)
	}

	stmt := "CREATE LOGIN " + quoteIdent(qualified)
	var with []string
	switch {
	case opts.Domain != "":
		stmt += " FROM WINDOWS"
	case opts.PasswordHashed:
		blob := strings.TrimPrefix(opts.Password, "0x")
		with = append(with, fmt.Sprintf("PASSWORD=0x%s HASHED", blob))
	default:
		with = append(with, fmt.Sprintf("PASSWORD=N'%s'", escapeLiteral(opts.Password)))
	}
	with = append(with, opts.Options...)
	if len(with) > 0 {
		stmt += " WITH " + strings.Join(with, ", ")
	}
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create login %s: %w", qualified, err)
	}

	for _, role := range opts.Roles {
		roleStmt := fmt.Sprintf("ALTER SERVER ROLE %s ADD MEMBER %s", quoteIdent(role), quoteIdent(qualified))
		if _, err := m.db.ExecContext(ctx, roleStmt); err != nil {
			return fmt.Errorf("add login %s to server role %s: %w", qualified, role, err)
		}
	}
	return nil
}

// DropLogin drops a server login.
func (m *Module) DropLogin(ctx context.Context, login string) error {
	if _, err := m.db.ExecContext(ctx, "DROP LOGIN "+quoteIdent(login)); err != nil {
		return fmt.Errorf("drop login %s: %w", login, err)
	}
	return nil
}
