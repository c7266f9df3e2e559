// Package blockdev manages block device tuning and formatting through the
// standard Linux tooling: blockdev(8) for tuning, blkid(8) for filesystem
// probes and mkfs for formatting.
package blockdev

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/driftworks/driftd/internal/shell"
	"github.com/driftworks/driftd/internal/state"
)

// Tuning option names accepted by Tune.
const (
	OptReadAhead   = "read-ahead"
	OptFSReadAhead = "filesystem-read-ahead"
	OptReadOnly    = "read-only"
	OptReadWrite   = "read-write"
)

// ErrUnknownOption is returned when a tuning option has no blockdev switch.
var ErrUnknownOption = errors.New("blockdev: unknown tuning option")

// ErrNoOptions is returned when Tune is called without any options.
var ErrNoOptions = errors.New("blockdev: no tuning options given")

// dumpFlags lists the getters Dump reads, in output order.
var dumpFlags = []string{
	"getro", "getss", "getpbsz", "getiomin", "getioopt",
	"getalignoff", "getmaxsect", "getsize", "getsize64", "getra", "getfra",
}

type setter struct {
	flag string
	// get is the dump key the option is verified against.
	get string
	// boolean switches take no value on the command line.
	boolean bool
}

var setters = map[string]setter{
	OptReadAhead:   {flag: "--setra", get: "getra"},
	OptFSReadAhead: {flag: "--setfra", get: "getfra"},
	OptReadOnly:    {flag: "--setro", get: "getro", boolean: true},
	OptReadWrite:   {flag: "--setrw", get: "getro", boolean: true},
}

// DumpKey returns the dump field a tuning option is verified against.
func DumpKey(option string) (string, bool) {
	s, ok := setters[option]
	return s.get, ok
}

// Inverted reports whether an option has inverted semantics relative to its
// dump field: read-write is the negation of the getro flag.
func Inverted(option string) bool {
	return option == OptReadWrite
}

// Module wraps the block device tooling of one host.
type Module struct {
	run      shell.Runner
	lookPath func(string) (string, error)
	stat     func(string) (os.FileInfo, error)
}

// NewModule builds a Module on top of the given command runner.
func NewModule(r shell.Runner) *Module {
	return &Module{run: r, lookPath: exec.LookPath, stat: os.Stat}
}

// Exists reports whether the path exists at all.
func (m *Module) Exists(path string) bool {
	_, err := m.stat(path)
	return err == nil
}

// IsBlockDevice reports whether path names a block special device.
func (m *Module) IsBlockDevice(path string) bool {
	info, err := m.stat(path)
	if err != nil {
		return false
	}
	mode := info.Mode()
	return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0
}

// HasFormatter reports whether an mkfs helper for the filesystem type is
// installed.
func (m *Module) HasFormatter(fsType string) bool {
	_, err := m.lookPath("mkfs." + fsType)
	return err == nil
}

// Dump reads the current tuning values of a device, keyed by getter name
// ("getro", "getra", ...). Values are reported as the tool prints them.
func (m *Module) Dump(ctx context.Context, device string) (map[string]string, error) {
	args := make([]string, 0, len(dumpFlags)+1)
	for _, flag := range dumpFlags {
		args = append(args, "--"+flag)
	}
	args = append(args, device)

	res, err := m.run.Run(ctx, "blockdev", args...)
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", device, err)
	}
	lines := nonEmptyLines(res.Stdout)
	if len(lines) != len(dumpFlags) {
		return nil, fmt.Errorf("dump %s: expected %d values, got %d", device, len(dumpFlags), len(lines))
	}
	out := make(map[string]string, len(dumpFlags))
	for i, flag := range dumpFlags {
		out[flag] = strings.TrimSpace(lines[i])
	}
	return out, nil
}

// Tune applies tuning options to a device and returns the re-read values of
// the touched getters. Boolean options (read-only, read-write) emit the bare
// switch and must be declared true; valued options emit the switch with its
// value. Options are applied in sorted name order.
func (m *Module) Tune(ctx context.Context, device string, opts map[string]any) (map[string]string, error) {
	if len(opts) == 0 {
		return nil, ErrNoOptions
	}
	keys := make([]string, 0, len(opts))
	for key := range opts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]string, 0, 2*len(keys)+1)
	touched := make(map[string]bool, len(keys))
	for _, key := range keys {
		s, ok := setters[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOption, key)
		}
		touched[s.get] = true
		if s.boolean {
			enabled, ok := state.Bool(opts[key])
			if !ok || !enabled {
				return nil, fmt.Errorf("blockdev: option %s must be true, declare the opposite switch instead", key)
			}
			args = append(args, s.flag)
			continue
		}
		args = append(args, s.flag, fmt.Sprint(opts[key]))
	}
	args = append(args, device)

	if _, err := m.run.Run(ctx, "blockdev", args...); err != nil {
		return nil, fmt.Errorf("tune %s: %w", device, err)
	}

	full, err := m.Dump(ctx, device)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(touched))
	for get := range touched {
		out[get] = full[get]
	}
	return out, nil
}

// Format creates a filesystem on the device and syncs. Force maps to the
// mkfs flag of the filesystem family (-F for ext, -f for xfs).
func (m *Module) Format(ctx context.Context, device, fsType string, force bool) error {
	if fsType == "" {
		fsType = "ext4"
	}
	args := []string{"-t", fsType}
	if force {
		switch {
		case strings.HasPrefix(fsType, "ext"):
			args = append(args, "-F")
		case fsType == "xfs":
			args = append(args, "-f")
		}
	}
	args = append(args, device)

	if _, err := m.run.Run(ctx, "mkfs", args...); err != nil {
		return fmt.Errorf("format %s as %s: %w", device, fsType, err)
	}
	if _, err := m.run.Run(ctx, "sync"); err != nil {
		return fmt.Errorf("sync after formatting %s: %w", device, err)
	}
	return nil
}

// FilesystemType probes the filesystem on a device via blkid. An empty
// string with a nil error means no recognized filesystem; blkid signals
// that case with a non-zero exit.
func (m *Module) FilesystemType(ctx context.Context, device string) (string, error) {
	res, err := m.run.Run(ctx, "blkid", "-o", "value", "-s", "TYPE", device)
	if err != nil {
		var exitErr *shell.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", fmt.Errorf("probe %s: %w", device, err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
