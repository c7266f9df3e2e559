// Package states holds the declarative state functions. Each function reads
// the current state of a resource, compares it to the declared state and
// applies the difference, honoring dry-run mode. Operation failures become
// failed results rather than errors so a plan keeps evaluating its other
// entries.
package states

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/driftworks/driftd/internal/blockdev"
	"github.com/driftworks/driftd/internal/state"
)

// BlockdevModule is the slice of the block device module the states use.
type BlockdevModule interface {
	Exists(path string) bool
	IsBlockDevice(path string) bool
	HasFormatter(fsType string) bool
	Dump(ctx context.Context, device string) (map[string]string, error)
	Tune(ctx context.Context, device string, opts map[string]any) (map[string]string, error)
	Format(ctx context.Context, device, fsType string, force bool) error
	FilesystemType(ctx context.Context, device string) (string, error)
}

// Blockdev manages block device tuning and formatting states.
type Blockdev struct {
	Module BlockdevModule
	// FormatAttempts and FormatInterval bound the probe loop that waits for
	// a fresh filesystem to become visible. Zero values mean 10 tries every
	// 3 seconds.
	FormatAttempts int
	FormatInterval time.Duration
}

// Tuned ensures the device carries the declared tuning options. Boolean
// options are normalized before comparison and read-write is compared
// against the negated read-only flag, so a writable device declared
// read-write reports in sync.
func (b *Blockdev) Tuned(ctx context.Context, name string, opts map[string]any, dryRun bool) state.Result {
	if len(opts) == 0 {
		return state.Failf(name, "no tuning options declared for %s", name)
	}
	if !b.Module.IsBlockDevice(name) {
		return state.Failf(name, "changes to %s cannot be applied, not a block device", name)
	}

	current, err := b.Module.Dump(ctx, name)
	if err != nil {
		return state.Failf(name, "failed to read current state: %v", err)
	}

	type plannedChange struct {
		option string
		old    string
		new    string
	}
	var planned []plannedChange
	needed := map[string]any{}

	for _, option := range sortedKeys(opts) {
		get, ok := blockdev.DumpKey(option)
		if !ok {
			return state.Failf(name, "unknown tuning option %s", option)
		}
		declared := opts[option]
		observed := current[get]

		if declBool, isBool := state.Bool(declared); isBool && (option == blockdev.OptReadOnly || option == blockdev.OptReadWrite) {
			if !declBool {
				return state.Failf(name, "option %s must be true, declare the opposite switch instead", option)
			}
			obsBool, ok := state.Bool(observed)
			if !ok {
				return state.Failf(name, "device reports %s=%q, not a flag value", get, observed)
			}
			if blockdev.Inverted(option) {
				obsBool = !obsBool
			}
			if obsBool == declBool {
				continue
			}
			planned = append(planned, plannedChange{option, state.FormatBool(obsBool), state.FormatBool(declBool)})
			needed[option] = declared
			continue
		}

		want := fmt.Sprint(declared)
		if observed == want {
			continue
		}
		planned = append(planned, plannedChange{option, observed, want})
		needed[option] = declared
	}

	if len(needed) == 0 {
		return state.Unchanged(name, fmt.Sprintf("block device %s already in correct state", name))
	}

	changes := make(map[string]state.Change, len(planned))
	for _, p := range planned {
		changes[p.option] = state.Change{Old: p.old, New: p.new}
	}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("changes to %s will be applied", name), changes)
	}

	after, err := b.Module.Tune(ctx, name, needed)
	if err != nil {
		return state.Failf(name, "failed to modify block device %s: %v", name, err)
	}

	for _, p := range planned {
		get, _ := blockdev.DumpKey(p.option)
		observed := after[get]
		if declBool, isBool := state.Bool(needed[p.option]); isBool && (p.option == blockdev.OptReadOnly || p.option == blockdev.OptReadWrite) {
			obsBool, ok := state.Bool(observed)
			if !ok {
				return state.Failf(name, "device reports %s=%q after apply", get, observed)
			}
			if blockdev.Inverted(p.option) {
				obsBool = !obsBool
			}
			if obsBool != declBool {
				return state.Failf(name, "failed to modify block device %s: option %s is %s after apply, wanted %s",
					name, p.option, state.FormatBool(obsBool), state.FormatBool(declBool))
			}
			changes[p.option] = state.Change{Old: p.old, New: state.FormatBool(obsBool)}
			continue
		}
		if observed != p.new {
			return state.Failf(name, "failed to modify block device %s: option %s is %s after apply, wanted %s",
				name, p.option, observed, p.new)
		}
		changes[p.option] = state.Change{Old: p.old, New: observed}
	}
	return state.Applied(name, fmt.Sprintf("block device %s successfully modified", name), changes)
}

// Formatted ensures the device carries a filesystem of the declared type.
// mkfs reports success before the new filesystem is observable, so the probe
// is repeated on a bounded loop before declaring failure.
func (b *Blockdev) Formatted(ctx context.Context, name, fsType string, force, dryRun bool) state.Result {
	if fsType == "" {
		fsType = "ext4"
	}
	if !b.Module.Exists(name) {
		return state.Failf(name, "%s does not exist", name)
	}

	current, err := b.Module.FilesystemType(ctx, name)
	if err != nil {
		return state.Failf(name, "failed to read current state: %v", err)
	}
	if current == fsType {
		return state.Unchanged(name, fmt.Sprintf("%s already formatted with %s", name, fsType))
	}
	if !b.Module.HasFormatter(fsType) {
		return state.Failf(name, "invalid fs_type: %s", fsType)
	}

	changes := map[string]state.Change{"filesystem": {Old: renderFS(current), New: fsType}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("changes to %s will be applied", name), changes)
	}

	if err := b.Module.Format(ctx, name, fsType, force); err != nil {
		return state.Failf(name, "failed to format %s: %v", name, err)
	}

	attempts := b.FormatAttempts
	if attempts <= 0 {
		attempts = 10
	}
	interval := b.FormatInterval
	if interval <= 0 {
		interval = 3 * time.Second
	}

	for i := 0; i < attempts; i++ {
		observed, err := b.Module.FilesystemType(ctx, name)
		if err != nil {
			return state.Failf(name, "failed to verify state after apply: %v", err)
		}
		if observed == fsType {
			return state.Applied(name, fmt.Sprintf("%s has been formatted with %s", name, fsType), changes)
		}
		if observed != "" {
			break
		}
		select {
		case <-ctx.Done():
			return state.Failf(name, "failed to verify state after apply: %v", ctx.Err())
		case <-time.After(interval):
		}
	}
	return state.Failf(name, "failed to format %s", name)
}

func renderFS(fs string) string {
	if fs == "" {
		return "none"
	}
	return fs
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
