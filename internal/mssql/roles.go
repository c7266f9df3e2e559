package mssql

import (
	"context"
	"fmt"
)

// Roles lists the database roles via sp_helprole.
func (m *Module) Roles(ctx context.Context) ([]map[string]any, error) {
	rows, err := m.db.QueryContext(ctx, "sp_helprole")
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// RoleExists reports whether the named database role exists.
func (m *Module) RoleExists(ctx context.Context, role string) (bool, error) {
	rows, err := m.db.QueryContext(ctx, "sp_helprole @p1", role)
	if err != nil {
		return false, fmt.Errorf("query role %s: %w", role, err)
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

// CreateRole creates a database role, optionally owned by another principal,
// and applies any grants to it.
func (m *Module) CreateRole(ctx context.Context, role, owner string, grants []string) error {
	stmt := "CREATE ROLE " + quoteIdent(role)
	if owner != "" {
		stmt += " AUTHORIZATION " + quoteIdent(owner)
	}
	if _, err := m.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create role %s: %w", role, err)
	}
	for _, grant := range grants {
		grantStmt := fmt.Sprintf("GRANT %s TO %s", grant, quoteIdent(role))
		if _, err := m.db.ExecContext(ctx, grantStmt); err != nil {
			return fmt.Errorf("grant %s to role %s: %w", grant, role, err)
		}
	}
	return nil
}

// DropRole drops a database role.
func (m *Module) DropRole(ctx context.Context, role string) error {
	if _, err := m.db.ExecContext(ctx, "DROP ROLE "+quoteIdent(role)); err != nil {
		return fmt.Errorf("drop role %s: %w", role, err)
	}
	return nil
}
