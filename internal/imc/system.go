package imc

import (
	"context"
	"fmt"
)

const (
	rackUnitDN     = "sys/rack-unit-1"
	powerRestoreDN = "sys/rack-unit-1/board/Resume-on-AC-power-loss"
	vmediaDNPrefix = "sys/svc-ext/vmedia-svc/vmmap-"
)

// SystemInfo reports the rack unit inventory summary.
func (m *Module) SystemInfo(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "computeRackUnit", false)
}

// BIOSDefaults reports the platform default values of the BIOS tokens.
func (m *Module) BIOSDefaults(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "biosPlatformDefaults", true)
}

// BIOSSettings reports the configured BIOS token values.
func (m *Module) BIOSSettings(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "biosSettings", true)
}

// BootOrder reports the configured boot order table.
func (m *Module) BootOrder(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "lsbootDef", true)
}

// CPUDetails reports the CPU product catalog entries.
func (m *Module) CPUDetails(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "pidCatalogCpu", true)
}

// Disks reports the HDD product catalog entries.
func (m *Module) Disks(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "pidCatalogHdd", true)
}

// MemoryToken reports the memory RAS BIOS token.
func (m *Module) MemoryToken(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "biosVfSelectMemoryRASConfiguration", false)
}

// MemoryUnits reports the DIMM product catalog entries.
func (m *Module) MemoryUnits(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "pidCatalogDimm", true)
}

// PCIAdapters reports the PCI adapter product catalog entries.
func (m *Module) PCIAdapters(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "pidCatalogPCIAdapter", true)
}

// PowerSupplies reports the power supply unit details.
func (m *Module) PowerSupplies(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "equipmentPsu", false)
}

// PowerConfiguration reports the AC power restore policy. Only some rack
// models expose it.
func (m *Module) PowerConfiguration(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "biosVfResumeOnACPowerLoss", true)
}

// Reboot power cycles the server immediately.
func (m *Module) Reboot(ctx context.Context) ([]Object, error) {
	payload := fmt.Sprintf(`<computeRackUnit adminPower="cycle-immediate" dn="%s"></computeRackUnit>`, rackUnitDN)
	return m.modify(ctx, rackUnitDN, payload)
}

// SetPowerConfiguration sets what the server does when AC power returns
// after an unexpected loss. policy is reset, stay-off or last-state.
// delayType (fixed or random) and delaySeconds apply to the reset policy
// only; a fixed delay accepts 0 to 240 seconds.
func (m *Module) SetPowerConfiguration(ctx context.Context, policy, delayType string, delaySeconds int) ([]Object, error) {
	var attrs string
	switch policy {
	case "reset":
		attrs = ` vpResumeOnACPowerLoss="reset"`
		switch delayType {
		case "fixed":
			attrs += ` delayType="fixed"`
			if delaySeconds > 0 {
				attrs += fmt.Sprintf(` delay="%d"`, delaySeconds)
			}
		case "random":
			attrs += ` delayType="random"`
		case "":
		default:
			return nil, invalidArg("delayType", "must be fixed or random")
		}
	case "stay-off":
		attrs = ` vpResumeOnACPowerLoss="reset"`
	case "last-state":
		attrs = ` vpResumeOnACPowerLoss="last-state"`
	default:
		return nil, invalidArg("policy", "must be reset, stay-off or last-state")
	}
	payload := fmt.Sprintf(`<biosVfResumeOnACPowerLoss dn="%s"%s></biosVfResumeOnACPowerLoss>`, powerRestoreDN, attrs)
	return m.modify(ctx, powerRestoreDN, payload)
}

// ShareMount describes a virtual-media mapping of a remote image.
type ShareMount struct {
	// Name of the volume on the controller.
	Name string
	// RemoteShare is the share directory (NFS, CIFS or WWW), without the
	// file name.
	RemoteShare string
	// RemoteFile is the image file inside RemoteShare.
	RemoteFile string
	// MountType is nfs, cifs or www. Defaults to nfs.
	MountType string
	// Username and Password are optional share credentials; both must be
	// set for authenticated mounts.
	Username string
	Password string
}

// MountShare maps a remote image through the virtual media service.
func (m *Module) MountShare(ctx context.Context, mount ShareMount) ([]Object, error) {
	if mount.Name == "" {
		return nil, invalidArg("name", "must be set")
	}
	if mount.RemoteShare == "" {
		return nil, invalidArg("remote_share", "must be set")
	}
	if mount.RemoteFile == "" {
		return nil, invalidArg("remote_file", "must be set")
	}
	mountType := mount.MountType
	if mountType == "" {
		mountType = "nfs"
	}
	var options string
	if mount.Username != "" && mount.Password != "" {
		options = fmt.Sprintf(" mountOptions='username=%s,password=%s'", mount.Username, mount.Password)
	}
	dn := vmediaDNPrefix + mount.Name
	payload := fmt.Sprintf(`<commVMediaMap dn='%s' map='%s'%s remoteFile='%s' remoteShare='%s' status='created' volumeName='Win12' />`,
		dn, mountType, options, mount.RemoteFile, mount.RemoteShare)
	return m.modify(ctx, dn, payload)
}
