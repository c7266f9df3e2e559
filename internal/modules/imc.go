package modules

import (
	"context"

	"github.com/driftworks/driftd/internal/imc"
)

// RegisterIMC wires the management-controller operations. The get_*
// inventory calls resolve a device class; the rest post config-modify
// payloads against fixed object paths.
func RegisterIMC(r *Registry, m *imc.Module) {
	inventory := func(name, doc string, call func(context.Context) ([]imc.Object, error)) {
		r.Register(Function{Name: name, Doc: doc, Call: func(ctx context.Context, _ Args) (any, error) {
			return call(ctx)
		}})
	}

	inventory("imc.get_bios_defaults", "Platform default values of the BIOS tokens", m.BIOSDefaults)
	inventory("imc.get_bios_settings", "Configured BIOS token values", m.BIOSSettings)
	inventory("imc.get_boot_order", "Configured boot order table", m.BootOrder)
	inventory("imc.get_cpu_details", "CPU product catalog entries", m.CPUDetails)
	inventory("imc.get_disks", "HDD product catalog entries", m.Disks)
	inventory("imc.get_ethernet_interfaces", "Adapter Ethernet interfaces", m.EthernetInterfaces)
	inventory("imc.get_fibre_channel_interfaces", "Adapter fibre channel interfaces", m.FibreChannelInterfaces)
	inventory("imc.get_firmware", "Running firmware versions per component", m.Firmware)
	inventory("imc.get_ldap", "LDAP client configuration", m.LDAP)
	inventory("imc.get_management_interface", "Management interface details", m.ManagementInterface)
	inventory("imc.get_memory_token", "Memory RAS BIOS token", m.MemoryToken)
	inventory("imc.get_memory_unit", "DIMM product catalog entries", m.MemoryUnits)
	inventory("imc.get_network_adapters", "Onboard network adapters", m.NetworkAdapters)
	inventory("imc.get_ntp", "NTP client configuration", m.NTP)
	inventory("imc.get_pci_adapters", "PCI adapter product catalog entries", m.PCIAdapters)
	inventory("imc.get_power_configuration", "AC power restore policy", m.PowerConfiguration)
	inventory("imc.get_power_supplies", "Power supply unit details", m.PowerSupplies)
	inventory("imc.get_snmp_config", "SNMP configuration", m.SNMPConfig)
	inventory("imc.get_syslog", "Configured syslog clients", m.Syslog)
	inventory("imc.get_syslog_settings", "Syslog severity configuration", m.SyslogSettings)
	inventory("imc.get_system_info", "Rack unit inventory summary", m.SystemInfo)
	inventory("imc.get_users", "Local user accounts", m.Users)
	inventory("imc.get_vic_adapters", "VIC adapter general profiles", m.VICAdapters)
	inventory("imc.get_vic_uplinks", "VIC adapter uplink ports", m.VICUplinks)

	r.Register(Function{
		Name: "imc.get_hostname",
		Doc:  "Hostname of the management controller",
		Call: func(ctx context.Context, _ Args) (any, error) {
			return m.Hostname(ctx)
		},
	})

	r.Register(Function{
		Name:   "imc.set_hostname",
		Doc:    "Rename the management controller",
		Params: []string{"hostname"},
		Call: func(ctx context.Context, args Args) (any, error) {
			hostname, err := args.String("hostname")
			if err != nil {
				return nil, err
			}
			if err := m.SetHostname(ctx, hostname); err != nil {
				return nil, err
			}
			return true, nil
		},
	})

	r.Register(Function{
		Name:   "imc.set_ntp_server",
		Doc:    "Enable the NTP client and set up to four servers",
		Params: []string{"server1", "server2", "server3", "server4"},
		Call: func(ctx context.Context, args Args) (any, error) {
			var servers []string
			for _, key := range []string{"server1", "server2", "server3", "server4"} {
				server, err := args.StringOr(key, "")
				if err != nil {
					return nil, err
				}
				if server != "" {
					servers = append(servers, server)
				}
			}
			return m.SetNTPServers(ctx, servers...)
		},
	})

	r.Register(Function{
		Name:   "imc.set_syslog_server",
		Doc:    "Point the primary or secondary syslog client at a server",
		Params: []string{"server", "type"},
		Call: func(ctx context.Context, args Args) (any, error) {
			server, err := args.String("server")
			if err != nil {
				return nil, err
			}
			role, err := args.StringOr("type", "primary")
			if err != nil {
				return nil, err
			}
			return m.SetSyslogServer(ctx, server, role)
		},
	})

	r.Register(Function{
		Name:   "imc.set_logging_levels",
		Doc:    "Adjust the remote and local syslog severities",
		Params: []string{"remote", "local"},
		Call: func(ctx context.Context, args Args) (any, error) {
			remote, err := args.StringOr("remote", "")
			if err != nil {
				return nil, err
			}
			local, err := args.StringOr("local", "")
			if err != nil {
				return nil, err
			}
			return m.SetLoggingLevels(ctx, remote, local)
		},
	})

	r.Register(Function{
		Name:   "imc.set_power_configuration",
		Doc:    "Set the policy applied when AC power returns",
		Params: []string{"policy", "delay_type", "delay_value"},
		Call: func(ctx context.Context, args Args) (any, error) {
			policy, err := args.String("policy")
			if err != nil {
				return nil, err
			}
			delayType, err := args.StringOr("delay_type", "")
			if err != nil {
				return nil, err
			}
			delayValue, err := args.Int("delay_value", 0)
			if err != nil {
				return nil, err
			}
			return m.SetPowerConfiguration(ctx, policy, delayType, delayValue)
		},
	})

	r.Register(Function{
		Name: "imc.reboot",
		Doc:  "Power cycle the server immediately",
		Call: func(ctx context.Context, _ Args) (any, error) {
			return m.Reboot(ctx)
		},
	})

	r.Register(Function{
		Name:   "imc.activate_backup_image",
		Doc:    "Activate the firmware backup image",
		Params: []string{"reset"},
		Call: func(ctx context.Context, args Args) (any, error) {
			reset, err := args.Bool("reset", false)
			if err != nil {
				return nil, err
			}
			return m.ActivateBackupImage(ctx, reset)
		},
	})

	r.Register(Function{
		Name:   "imc.tftp_update_bios",
		Doc:    "Update the BIOS firmware from a TFTP server",
		Params: []string{"server", "path"},
		Call: func(ctx context.Context, args Args) (any, error) {
			server, err := args.String("server")
			if err != nil {
				return nil, err
			}
			path, err := args.String("path")
			if err != nil {
				return nil, err
			}
			return m.TFTPUpdateBIOS(ctx, server, path)
		},
	})

	r.Register(Function{
		Name:   "imc.tftp_update_cimc",
		Doc:    "Update the controller firmware from a TFTP server",
		Params: []string{"server", "path"},
		Call: func(ctx context.Context, args Args) (any, error) {
			server, err := args.String("server")
			if err != nil {
				return nil, err
			}
			path, err := args.String("path")
			if err != nil {
				return nil, err
			}
			return m.TFTPUpdateIMC(ctx, server, path)
		},
	})

	r.Register(Function{
		Name:   "imc.create_user",
		Doc:    "Create an active local account in a user slot",
		Params: []string{"uid", "username", "password", "priv"},
		Call: func(ctx context.Context, args Args) (any, error) {
			uid, err := args.Int("uid", 0)
			if err != nil {
				return nil, err
			}
			username, err := args.String("username")
			if err != nil {
				return nil, err
			}
			password, err := args.String("password")
			if err != nil {
				return nil, err
			}
			priv, err := args.String("priv")
			if err != nil {
				return nil, err
			}
			return m.CreateUser(ctx, uid, username, password, priv)
		},
	})

	r.Register(Function{
		Name:   "imc.set_user",
		Doc:    "Update an existing user slot, leaving unset fields alone",
		Params: []string{"uid", "username", "password", "priv", "status"},
		Call: func(ctx context.Context, args Args) (any, error) {
			uid, err := args.Int("uid", 0)
			if err != nil {
				return nil, err
			}
			var settings imc.UserSettings
			if settings.Username, err = args.StringOr("username", ""); err != nil {
				return nil, err
			}
			if settings.Password, err = args.StringOr("password", ""); err != nil {
				return nil, err
			}
			if settings.Priv, err = args.StringOr("priv", ""); err != nil {
				return nil, err
			}
			if settings.Status, err = args.StringOr("status", ""); err != nil {
				return nil, err
			}
			return m.SetUser(ctx, uid, settings)
		},
	})

	r.Register(Function{
		Name:   "imc.mount_share",
		Doc:    "Map a remote image through the virtual media service",
		Params: []string{"name", "remote_share", "remote_file", "mount_type", "username", "password"},
		Call: func(ctx context.Context, args Args) (any, error) {
			var mount imc.ShareMount
			var err error
			if mount.Name, err = args.String("name"); err != nil {
				return nil, err
			}
			if mount.RemoteShare, err = args.String("remote_share"); err != nil {
				return nil, err
			}
			if mount.RemoteFile, err = args.String("remote_file"); err != nil {
				return nil, err
			}
			if mount.MountType, err = args.StringOr("mount_type", "nfs"); err != nil {
				return nil, err
			}
			if mount.Username, err = args.StringOr("username", ""); err != nil {
				return nil, err
			}
			if mount.Password, err = args.StringOr("password", ""); err != nil {
				return nil, err
			}
			return m.MountShare(ctx, mount)
		},
	})
}
