package modules

import (
	"context"

	"github.com/driftworks/driftd/internal/openvswitch"
	"github.com/driftworks/driftd/internal/state"
	"github.com/driftworks/driftd/internal/states"
)

// RegisterOpenvswitch wires the ovs-vsctl operations and the ovs_port
// states.
func RegisterOpenvswitch(r *Registry, m *openvswitch.Module) {
	r.Register(Function{
		Name:   "openvswitch.bridge_exists",
		Doc:    "Whether the named bridge exists",
		Params: []string{"bridge"},
		Call: func(ctx context.Context, args Args) (any, error) {
			bridge, err := args.String("bridge")
			if err != nil {
				return nil, err
			}
			return m.BridgeExists(ctx, bridge)
		},
	})

	r.Register(Function{
		Name:   "openvswitch.port_list",
		Doc:    "List the ports of a bridge",
		Params: []string{"bridge"},
		Call: func(ctx context.Context, args Args) (any, error) {
			bridge, err := args.String("bridge")
			if err != nil {
				return nil, err
			}
			return m.Ports(ctx, bridge)
		},
	})

	r.Register(Function{
		Name:   "openvswitch.port_add",
		Doc:    "Add a port to a bridge",
		Params: []string{"bridge", "port", "may_exist", "internal"},
		Call: func(ctx context.Context, args Args) (any, error) {
			bridge, err := args.String("bridge")
			if err != nil {
				return nil, err
			}
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			var opts openvswitch.AddPortOptions
			if opts.MayExist, err = args.Bool("may_exist", false); err != nil {
				return nil, err
			}
			if opts.Internal, err = args.Bool("internal", false); err != nil {
				return nil, err
			}
			if err := m.AddPort(ctx, bridge, port, opts); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "openvswitch.port_remove",
		Doc:    "Remove a port, from a named bridge or wherever it is attached",
		Params: []string{"port", "bridge"},
		Call: func(ctx context.Context, args Args) (any, error) {
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			bridge, err := args.StringOr("bridge", "")
			if err != nil {
				return nil, err
			}
			if err := m.RemovePort(ctx, bridge, port); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "openvswitch.port_create_vlan",
		Doc:    "Create an access port for a VLAN",
		Params: []string{"bridge", "port", "id", "internal"},
		Call: func(ctx context.Context, args Args) (any, error) {
			bridge, err := args.String("bridge")
			if err != nil {
				return nil, err
			}
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			id, err := args.Uint("id", 0)
			if err != nil {
				return nil, err
			}
			internal, err := args.Bool("internal", false)
			if err != nil {
				return nil, err
			}
			if err := m.CreateVLANPort(ctx, bridge, port, id, internal); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "openvswitch.port_create_gre",
		Doc:    "Create a GRE tunnel port",
		Params: []string{"bridge", "port", "id", "remote"},
		Call: func(ctx context.Context, args Args) (any, error) {
			bridge, err := args.String("bridge")
			if err != nil {
				return nil, err
			}
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			id, err := args.Uint("id", 0)
			if err != nil {
				return nil, err
			}
			remote, err := args.String("remote")
			if err != nil {
				return nil, err
			}
			if err := m.CreateGREPort(ctx, bridge, port, id, remote); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "openvswitch.port_create_vxlan",
		Doc:    "Create a VXLAN tunnel port",
		Params: []string{"bridge", "port", "id", "remote", "dst_port"},
		Call: func(ctx context.Context, args Args) (any, error) {
			bridge, err := args.String("bridge")
			if err != nil {
				return nil, err
			}
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			id, err := args.Uint("id", 0)
			if err != nil {
				return nil, err
			}
			remote, err := args.String("remote")
			if err != nil {
				return nil, err
			}
			dstPort, err := args.Int("dst_port", 0)
			if err != nil {
				return nil, err
			}
			if err := m.CreateVXLANPort(ctx, bridge, port, id, remote, dstPort); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "openvswitch.interface_get_type",
		Doc:    "Type of an interface",
		Params: []string{"port"},
		Call: func(ctx context.Context, args Args) (any, error) {
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			return m.InterfaceType(ctx, port)
		},
	})

	r.Register(Function{
		Name:   "openvswitch.interface_get_options",
		Doc:    "Raw options of an interface",
		Params: []string{"port"},
		Call: func(ctx context.Context, args Args) (any, error) {
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			return m.InterfaceOptions(ctx, port)
		},
	})

	r.Register(Function{
		Name:   "openvswitch.port_get_tag",
		Doc:    "VLAN tag of a port",
		Params: []string{"port"},
		Call: func(ctx context.Context, args Args) (any, error) {
			port, err := args.String("port")
			if err != nil {
				return nil, err
			}
			return m.PortTag(ctx, port)
		},
	})

	ovs := &states.OVSPort{Module: m}

	r.RegisterState(State{
		Name:   "ovs_port.present",
		Doc:    "Ensure a port exists with the declared tunnel attributes",
		Params: []string{"bridge", "tunnel_type", "id", "remote", "dst_port", "internal"},
		Apply: func(ctx context.Context, name string, params Args, dryRun bool) state.Result {
			var spec states.PortSpec
			var err error
			if spec.Bridge, err = params.String("bridge"); err != nil {
				return state.Failed(name, err.Error())
			}
			if spec.TunnelType, err = params.StringOr("tunnel_type", ""); err != nil {
				return state.Failed(name, err.Error())
			}
			if spec.ID, err = params.Uint("id", 0); err != nil {
				return state.Failed(name, err.Error())
			}
			if spec.Remote, err = params.StringOr("remote", ""); err != nil {
				return state.Failed(name, err.Error())
			}
			if spec.DstPort, err = params.Int("dst_port", 0); err != nil {
				return state.Failed(name, err.Error())
			}
			if spec.Internal, err = params.Bool("internal", false); err != nil {
				return state.Failed(name, err.Error())
			}
			return ovs.Present(ctx, name, spec, dryRun)
		},
	})

	r.RegisterState(State{
		Name:   "ovs_port.absent",
		Doc:    "Ensure a port does not exist",
		Params: []string{"bridge"},
		Apply: func(ctx context.Context, name string, params Args, dryRun bool) state.Result {
			bridge, err := params.StringOr("bridge", "")
			if err != nil {
				return state.Failed(name, err.Error())
			}
			return ovs.Absent(ctx, name, bridge, dryRun)
		},
	})
}
