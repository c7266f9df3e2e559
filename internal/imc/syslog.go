package imc

import (
	"context"
	"fmt"
)

const syslogDN = "sys/svc-ext/syslog"

var severityLevels = map[string]bool{
	"emergency":     true,
	"alert":         true,
	"critical":      true,
	"error":         true,
	"warning":       true,
	"notice":        true,
	"informational": true,
	"debug":         true,
}

// Syslog reports the configured syslog clients.
func (m *Module) Syslog(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "commSyslogClient", false)
}

// SyslogSettings reports the syslog severity configuration.
func (m *Module) SyslogSettings(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "commSyslog", false)
}

// SNMPConfig reports the SNMP configuration.
func (m *Module) SNMPConfig(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "commSnmp", false)
}

// SetSyslogServer points the primary or secondary syslog client at server.
// role defaults to primary.
func (m *Module) SetSyslogServer(ctx context.Context, server, role string) ([]Object, error) {
	if server == "" {
		return nil, invalidArg("server", "must be set")
	}
	if role == "" {
		role = "primary"
	}
	switch role {
	case "primary", "secondary":
	default:
		return nil, invalidArg("type", "must be primary or secondary")
	}
	dn := syslogDN + "/client-" + role
	payload := fmt.Sprintf(`<commSyslogClient name='%s' adminState='enabled' hostname='%s' dn='%s'> </commSyslogClient>`,
		role, server, dn)
	return m.modify(ctx, dn, payload)
}

// SetLoggingLevels adjusts the remote and local log severities. Either can
// be empty to leave that side unchanged.
func (m *Module) SetLoggingLevels(ctx context.Context, remote, local string) ([]Object, error) {
	var attrs string
	if remote != "" {
		if !severityLevels[remote] {
			return nil, invalidArg("remote", "not a valid severity level")
		}
		attrs += fmt.Sprintf(` remoteSeverity="%s"`, remote)
	}
	if local != "" {
		if !severityLevels[local] {
			return nil, invalidArg("local", "not a valid severity level")
		}
		attrs += fmt.Sprintf(` localSeverity="%s"`, local)
	}
	payload := fmt.Sprintf(`<commSyslog dn="%s"%s ></commSyslog>`, syslogDN, attrs)
	return m.modify(ctx, syslogDN, payload)
}
