package states

import (
	"context"
	"fmt"
	"sort"

	"github.com/driftworks/driftd/internal/state"
)

// DatabaseModule is the slice of the SQL Server module the states use.
type DatabaseModule interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
	CreateDatabase(ctx context.Context, name, containment string, options []string) error
	DropDatabase(ctx context.Context, name string) error
}

// Database manages SQL Server database presence.
type Database struct {
	Module DatabaseModule
}

// Present ensures the named database exists with the given containment and
// creation options. Options of an existing database are left alone.
func (d *Database) Present(ctx context.Context, name, containment string, options any, dryRun bool) state.Result {
	exists, err := d.Module.DatabaseExists(ctx, name)
	if err != nil {
		return state.Failf(name, "failed to read current state: %v", err)
	}
	if exists {
		return state.Unchanged(name, fmt.Sprintf("database %s is already present (not going to try to set its options)", name))
	}

	changes := map[string]state.Change{name: {Old: "Absent", New: "Present"}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("database %s is set to be added", name), changes)
	}

	if err := d.Module.CreateDatabase(ctx, name, containment, NormalizeDBOptions(options)); err != nil {
		return state.Failf(name, "database %s failed to be created: %v", name, err)
	}
	exists, err = d.Module.DatabaseExists(ctx, name)
	if err != nil {
		return state.Failf(name, "failed to verify state after apply: %v", err)
	}
	if !exists {
		return state.Failf(name, "database %s failed to be created: not present after create", name)
	}
	return state.Applied(name, fmt.Sprintf("database %s has been added", name), changes)
}

// Absent ensures the named database does not exist.
func (d *Database) Absent(ctx context.Context, name string, dryRun bool) state.Result {
	exists, err := d.Module.DatabaseExists(ctx, name)
	if err != nil {
		return state.Failf(name, "failed to read current state: %v", err)
	}
	if !exists {
		return state.Unchanged(name, fmt.Sprintf("database %s is not present", name))
	}

	changes := map[string]state.Change{name: {Old: "Present", New: "Absent"}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("database %s is set to be removed", name), changes)
	}

	if err := d.Module.DropDatabase(ctx, name); err != nil {
		return state.Failf(name, "database %s failed to be removed: %v", name, err)
	}
	exists, err = d.Module.DatabaseExists(ctx, name)
	if err != nil {
		return state.Failf(name, "failed to verify state after apply: %v", err)
	}
	if exists {
		return state.Failf(name, "database %s failed to be removed: still present after drop", name)
	}
	return state.Applied(name, fmt.Sprintf("database %s has been removed", name), changes)
}

// NormalizeDBOptions flattens the creation-option shapes plan documents are
// allowed to use: a list of strings, a mapping, or a list of mappings, all
// reduced to "KEY=value" strings. Mappings are emitted in sorted key order.
// Anything else yields no options.
func NormalizeDBOptions(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, key := range keys {
			out = append(out, fmt.Sprintf("%s=%v", key, v[key]))
		}
		return out
	case []any:
		var out []string
		for _, item := range v {
			switch entry := item.(type) {
			case string:
				out = append(out, entry)
			case map[string]any:
				out = append(out, NormalizeDBOptions(entry)...)
			}
		}
		return out
	default:
		return nil
	}
}
