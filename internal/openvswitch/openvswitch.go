// Package openvswitch drives ovs-vsctl to manage bridges and ports.
package openvswitch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/driftworks/driftd/internal/shell"
)

// Module wraps the ovs-vsctl tool of one host.
type Module struct {
	run shell.Runner
}

// NewModule builds a Module on top of the given command runner.
func NewModule(r shell.Runner) *Module {
	return &Module{run: r}
}

// BridgeExists reports whether the named bridge exists. ovs-vsctl signals
// absence with exit code 2.
func (m *Module) BridgeExists(ctx context.Context, bridge string) (bool, error) {
	_, err := m.run.Run(ctx, "ovs-vsctl", "br-exists", bridge)
	if err != nil {
		var exitErr *shell.ExitError
		if errors.As(err, &exitErr) && exitErr.Code == 2 {
			return false, nil
		}
		return false, fmt.Errorf("check bridge %s: %w", bridge, err)
	}
	return true, nil
}

// Ports lists the ports attached to a bridge.
func (m *Module) Ports(ctx context.Context, bridge string) ([]string, error) {
	res, err := m.run.Run(ctx, "ovs-vsctl", "list-ports", bridge)
	if err != nil {
		return nil, fmt.Errorf("list ports on %s: %w", bridge, err)
	}
	var ports []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ports = append(ports, line)
		}
	}
	return ports, nil
}

// AddPortOptions modifies AddPort. MayExist tolerates an existing port so
// the interface type can still be set; Internal creates an internal
// interface.
type AddPortOptions struct {
	MayExist bool
	Internal bool
}

// AddPort attaches a port to a bridge.
func (m *Module) AddPort(ctx context.Context, bridge, port string, opts AddPortOptions) error {
	var args []string
	if opts.MayExist {
		args = append(args, "--", "--may-exist")
	}
	args = append(args, "add-port", bridge, port)
	if opts.Internal {
		args = append(args, "--", "set", "interface", port, "type=internal")
	}
	if _, err := m.run.Run(ctx, "ovs-vsctl", args...); err != nil {
		return fmt.Errorf("add port %s to %s: %w", port, bridge, err)
	}
	return nil
}

// RemovePort detaches a port. With an empty bridge the port is removed from
// whatever bridge holds it.
func (m *Module) RemovePort(ctx context.Context, bridge, port string) error {
	args := []string{"del-port"}
	if bridge != "" {
		args = append(args, bridge)
	}
	args = append(args, port)
	if _, err := m.run.Run(ctx, "ovs-vsctl", args...); err != nil {
		return fmt.Errorf("remove port %s: %w", port, err)
	}
	return nil
}

// CreateVLANPort attaches a port with an access VLAN tag.
func (m *Module) CreateVLANPort(ctx context.Context, bridge, port string, tag uint64, internal bool) error {
	args := []string{"add-port", bridge, port, "tag=" + strconv.FormatUint(tag, 10)}
	if internal {
		args = append(args, "--", "set", "interface", port, "type=internal")
	}
	if _, err := m.run.Run(ctx, "ovs-vsctl", args...); err != nil {
		return fmt.Errorf("add VLAN port %s to %s: %w", port, bridge, err)
	}
	return nil
}

// CreateGREPort attaches a GRE tunnel interface keyed to a remote endpoint.
func (m *Module) CreateGREPort(ctx context.Context, bridge, port string, key uint64, remote string) error {
	args := []string{
		"add-port", bridge, port,
		"--", "set", "interface", port, "type=gre",
		"options:remote_ip=" + remote,
		"options:key=" + strconv.FormatUint(key, 10),
	}
	if _, err := m.run.Run(ctx, "ovs-vsctl", args...); err != nil {
		return fmt.Errorf("add GRE port %s to %s: %w", port, bridge, err)
	}
	return nil
}

// CreateVXLANPort attaches a VXLAN tunnel interface. A destination port in
// (0, 65535] is passed through; anything else is omitted.
func (m *Module) CreateVXLANPort(ctx context.Context, bridge, port string, key uint64, remote string, dstPort int) error {
	args := []string{
		"add-port", bridge, port,
		"--", "set", "interface", port, "type=vxlan",
		"options:remote_ip=" + remote,
		"options:key=" + strconv.FormatUint(key, 10),
	}
	if dstPort > 0 && dstPort <= 65535 {
		args = append(args, "options:dst_port="+strconv.Itoa(dstPort))
	}
	if _, err := m.run.Run(ctx, "ovs-vsctl", args...); err != nil {
		return fmt.Errorf("add VXLAN port %s to %s: %w", port, bridge, err)
	}
	return nil
}

// InterfaceType reads the interface type of a port ("internal", "gre", ...).
func (m *Module) InterfaceType(ctx context.Context, port string) (string, error) {
	res, err := m.run.Run(ctx, "ovs-vsctl", "get", "interface", port, "type")
	if err != nil {
		return "", fmt.Errorf("get interface type of %s: %w", port, err)
	}
	return trimQuotes(firstLine(res.Stdout)), nil
}

// InterfaceOptions reads the raw options column of a port's interface, in
// ovs-vsctl's map rendering, e.g. `{key="10", remote_ip="192.0.2.1"}`.
func (m *Module) InterfaceOptions(ctx context.Context, port string) (string, error) {
	res, err := m.run.Run(ctx, "ovs-vsctl", "get", "interface", port, "options")
	if err != nil {
		return "", fmt.Errorf("get interface options of %s: %w", port, err)
	}
	return firstLine(res.Stdout), nil
}

// PortTag reads the access VLAN tag of a port. An untagged port reports
// ovs-vsctl's empty set "[]".
func (m *Module) PortTag(ctx context.Context, port string) (string, error) {
	res, err := m.run.Run(ctx, "ovs-vsctl", "get", "port", port, "tag")
	if err != nil {
		return "", fmt.Errorf("get tag of %s: %w", port, err)
	}
	return firstLine(res.Stdout), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
