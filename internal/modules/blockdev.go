package modules

import (
	"context"

	"github.com/driftworks/driftd/internal/blockdev"
	"github.com/driftworks/driftd/internal/state"
	"github.com/driftworks/driftd/internal/states"
)

// RegisterBlockdev wires the block device operations and states.
func RegisterBlockdev(r *Registry, m *blockdev.Module) {
	r.Register(Function{
		Name:   "blockdev.dump",
		Doc:    "Report the blockdev(8) getter values of a device",
		Params: []string{"device"},
		Call: func(ctx context.Context, args Args) (any, error) {
			device, err := args.String("device")
			if err != nil {
				return nil, err
			}
			return m.Dump(ctx, device)
		},
	})

	r.Register(Function{
		Name:   "blockdev.tune",
		Doc:    "Apply tuning options to a device and report the touched getters",
		Params: []string{"device", blockdev.OptReadAhead, blockdev.OptFSReadAhead, blockdev.OptReadOnly, blockdev.OptReadWrite},
		Call: func(ctx context.Context, args Args) (any, error) {
			device, err := args.String("device")
			if err != nil {
				return nil, err
			}
			return m.Tune(ctx, device, args.Except("device"))
		},
	})

	r.Register(Function{
		Name:   "blockdev.format",
		Doc:    "Create a filesystem on a device",
		Params: []string{"device", "fs_type", "force"},
		Call: func(ctx context.Context, args Args) (any, error) {
			device, err := args.String("device")
			if err != nil {
				return nil, err
			}
			fsType, err := args.StringOr("fs_type", "ext4")
			if err != nil {
				return nil, err
			}
			force, err := args.Bool("force", false)
			if err != nil {
				return nil, err
			}
			if err := m.Format(ctx, device, fsType, force); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "blockdev.fstype",
		Doc:    "Probe the filesystem type of a device",
		Params: []string{"device"},
		Call: func(ctx context.Context, args Args) (any, error) {
			device, err := args.String("device")
			if err != nil {
				return nil, err
			}
			return m.FilesystemType(ctx, device)
		},
	})

	bd := &states.Blockdev{Module: m}

	r.RegisterState(State{
		Name:   "blockdev.tuned",
		Doc:    "Ensure the device tuning options match the declared values",
		Params: []string{blockdev.OptReadAhead, blockdev.OptFSReadAhead, blockdev.OptReadOnly, blockdev.OptReadWrite},
		Apply: func(ctx context.Context, name string, params Args, dryRun bool) state.Result {
			return bd.Tuned(ctx, name, map[string]any(params), dryRun)
		},
	})

	r.RegisterState(State{
		Name:   "blockdev.formatted",
		Doc:    "Ensure the device carries the declared filesystem",
		Params: []string{"fs_type", "force"},
		Apply: func(ctx context.Context, name string, params Args, dryRun bool) state.Result {
			fsType, err := params.StringOr("fs_type", "")
			if err != nil {
				return state.Failed(name, err.Error())
			}
			force, err := params.Bool("force", false)
			if err != nil {
				return state.Failed(name, err.Error())
			}
			return bd.Formatted(ctx, name, fsType, force, dryRun)
		},
	})
}
