package imc

import (
	"context"
	"fmt"
)

const (
	bootUnitDN      = "sys/rack-unit-1/mgmt/fw-boot-def/bootunit-combined"
	biosUpdatableDN = "sys/rack-unit-1/bios/fw-updatable"
	cimcUpdatableDN = "sys/rack-unit-1/mgmt/fw-updatable"
)

// ActivateBackupImage activates the firmware backup image. With reset the
// controller power cycles as part of the activation.
func (m *Module) ActivateBackupImage(ctx context.Context, reset bool) ([]Object, error) {
	resetOnActivate := "no"
	if reset {
		resetOnActivate = "yes"
	}
	payload := fmt.Sprintf(`<firmwareBootUnit dn='%s' adminState='trigger' image='backup' resetOnActivate='%s' />`,
		bootUnitDN, resetOnActivate)
	return m.modify(ctx, bootUnitDN, payload)
}

// Firmware reports the running firmware versions of the server components.
func (m *Module) Firmware(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "firmwareRunning", false)
}

// TFTPUpdateBIOS triggers a BIOS firmware update from a TFTP server. path is
// the server-relative path of the image.
func (m *Module) TFTPUpdateBIOS(ctx context.Context, server, path string) ([]Object, error) {
	return m.tftpUpdate(ctx, biosUpdatableDN, "blade-bios", server, path)
}

// TFTPUpdateIMC triggers a management-controller firmware update from a TFTP
// server.
func (m *Module) TFTPUpdateIMC(ctx context.Context, server, path string) ([]Object, error) {
	return m.tftpUpdate(ctx, cimcUpdatableDN, "blade-controller", server, path)
}

func (m *Module) tftpUpdate(ctx context.Context, dn, component, server, path string) ([]Object, error) {
	if server == "" {
		return nil, invalidArg("server", "must be set")
	}
	if path == "" {
		return nil, invalidArg("path", "must be set")
	}
	payload := fmt.Sprintf(`<firmwareUpdatable adminState='trigger' dn='%s' protocol='tftp' remoteServer='%s' remotePath='%s' type='%s' />`,
		dn, server, path, component)
	return m.modify(ctx, dn, payload)
}
