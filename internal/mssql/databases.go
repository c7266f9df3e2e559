package mssql

import (
	"context"
	"fmt"
	"strings"
)

var systemDatabases = map[string]bool{
	"master": true,
	"model":  true,
	"msdb":   true,
	"tempdb": true,
}

// Databases lists the databases on the instance.
func (m *Module) Databases(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT name FROM sys.databases")
	if err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	defer rows.Close()
	return scanNames(rows)
}

// DatabaseExists reports whether the named database exists.
func (m *Module) DatabaseExists(ctx context.Context, name string) (bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT database_id FROM sys.databases WHERE name = @p1", name)
	if err != nil {
		return false, fmt.Errorf("query database %s: %w", name, err)
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

// CreateDatabase creates a database. Containment defaults to NONE; options
// are appended verbatim as WITH clauses.
func (m *Module) CreateDatabase(ctx context.Context, name, containment string, options []string) error {
	if containment == "" {
		containment = "NONE"
	}
	containment = strings.ToUpper(containment)
	if containment != "NONE" && containment != "PARTIAL" {
		return invalidArg("containment", "must be NONE or PARTIAL")
	}
	stmt := fmt.Sprintf("CREATE DATABASE %s CONTAINMENT = %s", quoteIdent(name), containment)
	if len(options) > 0 {
		stmt += " WITH " + strings.Join(options, ", ")
	}
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return nil
}

// DropDatabase forces the database into single-user mode to roll back open
// sessions, then drops it. System databases are refused.
func (m *Module) DropDatabase(ctx context.Context, name string) error {
	if systemDatabases[strings.ToLower(name)] {
		return fmt.Errorf("%w: %s", ErrSystemDatabase, name)
	}
	exists, err := m.DatabaseExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
	}
	single := fmt.Sprintf("ALTER DATABASE %s SET SINGLE_USER WITH ROLLBACK IMMEDIATE", quoteIdent(name))
	if _, err := m.db.ExecContext(ctx, single); err != nil {
		return fmt.Errorf("set single user on %s: %w", name, err)
	}
	if _, err := m.db.ExecContext(ctx, "DROP DATABASE "+quoteIdent(name)); err != nil {
		return fmt.Errorf("drop database %s: %w", name, err)
	}
	return nil
}
