// Package mssql runs administrative operations against a SQL Server
// instance over database/sql.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
)

// Config holds the connection settings for one SQL Server instance. Zero
// fields fall back to the usual local defaults.
type Config struct {
	Server   string `mapstructure:"server"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Database scopes the connection; user operations require it.
	Database string `mapstructure:"database"`
}

func (c Config) withDefaults() Config {
	if c.Server == "" {
		c.Server = "localhost"
	}
	if c.Port == 0 {
		c.Port = 1433
	}
	if c.User == "" {
		c.User = "sysdba"
	}
	return c
}

func (c Config) dsn() string {
	u := url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Server, c.Port),
	}
	if c.Database != "" {
		u.RawQuery = url.Values{"database": []string{c.Database}}.Encode()
	}
	return u.String()
}

// Module wraps a SQL Server handle. DDL statements quote identifiers; data
// queries bind parameters.
type Module struct {
	db       *sql.DB
	database string
}

// Open connects to the configured instance.
func Open(cfg Config) (*Module, error) {
	cfg = cfg.withDefaults()
	db, err := sql.Open("sqlserver", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	return &Module{db: db, database: cfg.Database}, nil
}

// NewModule wraps an existing handle. Tests use it with a mock driver.
func NewModule(db *sql.DB, database string) *Module {
	return &Module{db: db, database: database}
}

func (m *Module) Close() error {
	return m.db.Close()
}

// Ping verifies the connection.
func (m *Module) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Query runs an arbitrary T-SQL statement and returns the rows as maps
// keyed by column name.
func (m *Module) Query(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Version reports the server version banner.
func (m *Module) Version(ctx context.Context) (string, error) {
	var version string
	if err := m.db.QueryRowContext(ctx, "SELECT @@version").Scan(&version); err != nil {
		return "", fmt.Errorf("query version: %w", err)
	}
	return version, nil
}

func (m *Module) requireDatabase() error {
	if m.database == "" {
		return invalidArg("database", "must be configured for user operations")
	}
	return nil
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		refs := make([]any, len(columns))
		for i := range values {
			refs[i] = &values[i]
		}
		if err := rows.Scan(refs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := values[i].([]byte); ok {
				row[col] = string(raw)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// quoteIdent brackets an identifier for use in DDL, where parameters cannot
// be bound.
func quoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func escapeLiteral(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// qualifyAccount joins domain and name in the down-level logon format.
func qualifyAccount(domain, name string) string {
	if domain == "" {
		return name
	}
	return domain + `\` + name
}
