package states

import (
	"context"
	"fmt"
	"math"
	"net"
	"strconv"

	"github.com/driftworks/driftd/internal/openvswitch"
	"github.com/driftworks/driftd/internal/state"
)

// OVSModule is the slice of the Open vSwitch module the states use.
type OVSModule interface {
	BridgeExists(ctx context.Context, bridge string) (bool, error)
	Ports(ctx context.Context, bridge string) ([]string, error)
	AddPort(ctx context.Context, bridge, port string, opts openvswitch.AddPortOptions) error
	RemovePort(ctx context.Context, bridge, port string) error
	CreateVLANPort(ctx context.Context, bridge, port string, tag uint64, internal bool) error
	CreateGREPort(ctx context.Context, bridge, port string, key uint64, remote string) error
	CreateVXLANPort(ctx context.Context, bridge, port string, key uint64, remote string, dstPort int) error
	InterfaceType(ctx context.Context, port string) (string, error)
	InterfaceOptions(ctx context.Context, port string) (string, error)
	PortTag(ctx context.Context, port string) (string, error)
}

// PortSpec declares an Open vSwitch port. TunnelType selects between a
// plain port ("") and the vlan, gre and vxlan variants; ID is the VLAN tag
// or tunnel key.
type PortSpec struct {
	Bridge     string
	TunnelType string
	ID         uint64
	Remote     string
	DstPort    int
	Internal   bool
}

// OVSPort manages Open vSwitch port states.
type OVSPort struct {
	Module OVSModule
	// Interfaces lists the host network interfaces for the VLAN device
	// check. net.Interfaces when nil.
	Interfaces func() ([]net.Interface, error)
}

// Present ensures the named port exists on the bridge with the declared
// tunnel attributes.
func (o *OVSPort) Present(ctx context.Context, name string, spec PortSpec, dryRun bool) state.Result {
	switch spec.TunnelType {
	case "", "vlan", "gre", "vxlan":
	default:
		return state.Failf(name, "tunnel_type must be one of vlan, vxlan, gre, got %q", spec.TunnelType)
	}

	bridgeExists, err := o.Module.BridgeExists(ctx, spec.Bridge)
	if err != nil {
		return state.Failf(name, "failed to read current state: %v", err)
	}
	if !bridgeExists {
		comment := fmt.Sprintf("bridge %s does not exist", spec.Bridge)
		if dryRun {
			return state.Pending(name, comment, nil)
		}
		return state.Failed(name, comment)
	}
	ports, err := o.Module.Ports(ctx, spec.Bridge)
	if err != nil {
		return state.Failf(name, "failed to read current state: %v", err)
	}

	switch spec.TunnelType {
	case "vlan":
		return o.presentVLAN(ctx, name, spec, ports, dryRun)
	case "gre":
		return o.presentGRE(ctx, name, spec, ports, dryRun)
	case "vxlan":
		return o.presentVXLAN(ctx, name, spec, ports, dryRun)
	default:
		return o.presentPlain(ctx, name, spec, ports, dryRun)
	}
}

func (o *OVSPort) presentPlain(ctx context.Context, name string, spec PortSpec, ports []string, dryRun bool) state.Result {
	if contains(ports, name) {
		ifaceType, err := o.Module.InterfaceType(ctx, name)
		if err != nil {
			return state.Failf(name, "failed to read current state: %v", err)
		}
		if !spec.Internal || ifaceType == "internal" {
			return state.Unchanged(name, fmt.Sprintf("port %s already exists", name))
		}

		changes := map[string]state.Change{"internal": {Old: "false", New: "true"}}
		if dryRun {
			return state.Pending(name, fmt.Sprintf("port %s already exists, interface type will be changed to internal", name), changes)
		}
		err = o.Module.AddPort(ctx, spec.Bridge, name, openvswitch.AddPortOptions{MayExist: true, Internal: true})
		if err != nil {
			return state.Failf(name, "port %s already exists, but the interface type could not be changed to internal: %v", name, err)
		}
		ifaceType, err = o.Module.InterfaceType(ctx, name)
		if err != nil {
			return state.Failf(name, "failed to verify state after apply: %v", err)
		}
		if ifaceType != "internal" {
			return state.Failf(name, "port %s already exists, but the interface type could not be changed to internal", name)
		}
		return state.Applied(name, fmt.Sprintf("port %s already exists, interface type has been changed to internal", name), changes)
	}

	changes := map[string]state.Change{name: {Old: "Absent", New: "Present"}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("port %s will be created on bridge %s", name, spec.Bridge), changes)
	}
	if err := o.Module.AddPort(ctx, spec.Bridge, name, openvswitch.AddPortOptions{Internal: spec.Internal}); err != nil {
		return state.Failf(name, "unable to create port %s on bridge %s: %v", name, spec.Bridge, err)
	}
	after, err := o.Module.Ports(ctx, spec.Bridge)
	if err != nil {
		return state.Failf(name, "failed to verify state after apply: %v", err)
	}
	if !contains(after, name) {
		return state.Failf(name, "unable to create port %s on bridge %s", name, spec.Bridge)
	}
	return state.Applied(name, fmt.Sprintf("port %s created on bridge %s", name, spec.Bridge), changes)
}

func (o *OVSPort) presentVLAN(ctx context.Context, name string, spec PortSpec, ports []string, dryRun bool) state.Result {
	if spec.ID > 4095 {
		return state.Failed(name, "VLAN id must be between 0 and 4095")
	}
	if !spec.Internal {
		known, err := o.hostInterfaces()
		if err != nil {
			return state.Failf(name, "failed to read current state: %v", err)
		}
		if !known[name] {
			return state.Failf(name, "could not find network interface %s", name)
		}
	}

	if contains(ports, name) {
		tag, err := o.Module.PortTag(ctx, name)
		if err != nil {
			return state.Failf(name, "failed to read current state: %v", err)
		}
		if parsed, perr := strconv.ParseUint(tag, 10, 64); perr == nil && parsed == spec.ID {
			return state.Unchanged(name, fmt.Sprintf("port %s with access to VLAN %d already exists on bridge %s", name, spec.ID, spec.Bridge))
		}
	}

	changes := map[string]state.Change{name: {Old: "Absent", New: "Present"}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("port %s with access to VLAN %d will be created on bridge %s", name, spec.ID, spec.Bridge), changes)
	}
	if err := o.Module.CreateVLANPort(ctx, spec.Bridge, name, spec.ID, spec.Internal); err != nil {
		return state.Failf(name, "unable to create port %s with access to VLAN %d on bridge %s: %v", name, spec.ID, spec.Bridge, err)
	}
	tag, err := o.Module.PortTag(ctx, name)
	if err != nil {
		return state.Failf(name, "failed to verify state after apply: %v", err)
	}
	if parsed, perr := strconv.ParseUint(tag, 10, 64); perr != nil || parsed != spec.ID {
		return state.Failf(name, "unable to create port %s with access to VLAN %d on bridge %s, tag is %q after apply", name, spec.ID, spec.Bridge, tag)
	}
	return state.Applied(name, fmt.Sprintf("created port %s with access to VLAN %d on bridge %s", name, spec.ID, spec.Bridge), changes)
}

func (o *OVSPort) presentGRE(ctx context.Context, name string, spec PortSpec, ports []string, dryRun bool) state.Result {
	if spec.ID > math.MaxUint32 {
		return state.Failed(name, "id of GRE tunnel must be an unsigned 32-bit integer")
	}
	if net.ParseIP(spec.Remote) == nil {
		return state.Failed(name, "remote is not a valid ip address")
	}

	wantOptions := fmt.Sprintf(`{key="%d", remote_ip="%s"}`, spec.ID, spec.Remote)
	if contains(ports, name) {
		inSync, err := o.tunnelInSync(ctx, name, "gre", wantOptions)
		if err != nil {
			return state.Failf(name, "failed to read current state: %v", err)
		}
		if inSync {
			return state.Unchanged(name, fmt.Sprintf("GRE tunnel interface %s with remote ip %s and key %d already exists on bridge %s", name, spec.Remote, spec.ID, spec.Bridge))
		}
	}

	changes := map[string]state.Change{name: {Old: "Absent", New: "Present"}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("GRE tunnel interface %s with remote ip %s and key %d will be created on bridge %s", name, spec.Remote, spec.ID, spec.Bridge), changes)
	}
	if err := o.Module.CreateGREPort(ctx, spec.Bridge, name, spec.ID, spec.Remote); err != nil {
		return state.Failf(name, "unable to create GRE tunnel interface %s with remote ip %s and key %d on bridge %s: %v", name, spec.Remote, spec.ID, spec.Bridge, err)
	}
	inSync, err := o.tunnelInSync(ctx, name, "gre", wantOptions)
	if err != nil {
		return state.Failf(name, "failed to verify state after apply: %v", err)
	}
	if !inSync {
		return state.Failf(name, "unable to create GRE tunnel interface %s with remote ip %s and key %d on bridge %s", name, spec.Remote, spec.ID, spec.Bridge)
	}
	return state.Applied(name, fmt.Sprintf("created GRE tunnel interface %s with remote ip %s and key %d on bridge %s", name, spec.Remote, spec.ID, spec.Bridge), changes)
}

func (o *OVSPort) presentVXLAN(ctx context.Context, name string, spec PortSpec, ports []string, dryRun bool) state.Result {
	if net.ParseIP(spec.Remote) == nil {
		return state.Failed(name, "remote is not a valid ip address")
	}

	dstPortNote := ""
	optPort := ""
	if spec.DstPort > 0 && spec.DstPort <= 65535 {
		dstPortNote = fmt.Sprintf(" (dst_port %d)", spec.DstPort)
		optPort = fmt.Sprintf(`dst_port="%d", `, spec.DstPort)
	}
	wantOptions := fmt.Sprintf(`{%skey="%d", remote_ip="%s"}`, optPort, spec.ID, spec.Remote)

	if contains(ports, name) {
		inSync, err := o.tunnelInSync(ctx, name, "vxlan", wantOptions)
		if err != nil {
			return state.Failf(name, "failed to read current state: %v", err)
		}
		if inSync {
			return state.Unchanged(name, fmt.Sprintf("VXLAN tunnel interface %s with remote ip %s and key %d already exists on bridge %s%s", name, spec.Remote, spec.ID, spec.Bridge, dstPortNote))
		}
	}

	changes := map[string]state.Change{name: {Old: "Absent", New: "Present"}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("VXLAN tunnel interface %s with remote ip %s and key %d will be created on bridge %s%s", name, spec.Remote, spec.ID, spec.Bridge, dstPortNote), changes)
	}
	if err := o.Module.CreateVXLANPort(ctx, spec.Bridge, name, spec.ID, spec.Remote, spec.DstPort); err != nil {
		return state.Failf(name, "unable to create VXLAN tunnel interface %s with remote ip %s and key %d on bridge %s%s: %v", name, spec.Remote, spec.ID, spec.Bridge, dstPortNote, err)
	}
	inSync, err := o.tunnelInSync(ctx, name, "vxlan", wantOptions)
	if err != nil {
		return state.Failf(name, "failed to verify state after apply: %v", err)
	}
	if !inSync {
		return state.Failf(name, "unable to create VXLAN tunnel interface %s with remote ip %s and key %d on bridge %s%s", name, spec.Remote, spec.ID, spec.Bridge, dstPortNote)
	}
	return state.Applied(name, fmt.Sprintf("created VXLAN tunnel interface %s with remote ip %s and key %d on bridge %s%s", name, spec.Remote, spec.ID, spec.Bridge, dstPortNote), changes)
}

// Absent ensures the named port is gone. With an empty bridge the port is
// removed from whatever bridge holds it, without an existence check.
func (o *OVSPort) Absent(ctx context.Context, name, bridge string, dryRun bool) state.Result {
	portPresent := true
	if bridge != "" {
		bridgeExists, err := o.Module.BridgeExists(ctx, bridge)
		if err != nil {
			return state.Failf(name, "failed to read current state: %v", err)
		}
		if !bridgeExists {
			comment := fmt.Sprintf("bridge %s does not exist", bridge)
			if dryRun {
				return state.Pending(name, comment, nil)
			}
			return state.Failed(name, comment)
		}
		ports, err := o.Module.Ports(ctx, bridge)
		if err != nil {
			return state.Failf(name, "failed to read current state: %v", err)
		}
		portPresent = contains(ports, name)
	}

	if !portPresent {
		return state.Unchanged(name, fmt.Sprintf("port %s does not exist on bridge %s", name, bridge))
	}

	changes := map[string]state.Change{name: {Old: "Present", New: "Absent"}}
	if dryRun {
		return state.Pending(name, fmt.Sprintf("port %s will be deleted", name), changes)
	}
	if err := o.Module.RemovePort(ctx, bridge, name); err != nil {
		return state.Failf(name, "unable to delete port %s: %v", name, err)
	}
	if bridge != "" {
		after, err := o.Module.Ports(ctx, bridge)
		if err != nil {
			return state.Failf(name, "failed to verify state after apply: %v", err)
		}
		if contains(after, name) {
			return state.Failf(name, "unable to delete port %s", name)
		}
	}
	return state.Applied(name, fmt.Sprintf("port %s deleted", name), changes)
}

func (o *OVSPort) tunnelInSync(ctx context.Context, name, wantType, wantOptions string) (bool, error) {
	ifaceType, err := o.Module.InterfaceType(ctx, name)
	if err != nil {
		return false, err
	}
	options, err := o.Module.InterfaceOptions(ctx, name)
	if err != nil {
		return false, err
	}
	return ifaceType == wantType && options == wantOptions, nil
}

func (o *OVSPort) hostInterfaces() (map[string]bool, error) {
	list := o.Interfaces
	if list == nil {
		list = net.Interfaces
	}
	ifaces, err := list()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(ifaces))
	for _, iface := range ifaces {
		known[iface.Name] = true
	}
	return known, nil
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}
