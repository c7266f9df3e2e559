package imc

import (
	"context"
	"fmt"
)

const (
	mgmtIfDN = "sys/rack-unit-1/mgmt/if-1"
	ntpDN    = "sys/svc-ext/ntp-svc"
)

// Hostname reads the controller hostname from the management interface.
func (m *Module) Hostname(ctx context.Context) (string, error) {
	resp, err := m.client.ResolveClass(ctx, "mgmtIf", true)
	if err != nil {
		return "", err
	}
	obj, ok := resp.First("mgmtIf")
	if !ok {
		return "", fmt.Errorf("%w: mgmtIf", ErrAttributeMissing)
	}
	hostname := obj.Attr("hostname")
	if hostname == "" {
		return "", fmt.Errorf("%w: hostname", ErrAttributeMissing)
	}
	return hostname, nil
}

// SetHostname renames the controller. The controller acknowledges the write
// by reporting the object status as modified; anything else is an error.
func (m *Module) SetHostname(ctx context.Context, hostname string) error {
	if hostname == "" {
		return invalidArg("hostname", "must be set")
	}
	payload := fmt.Sprintf(`<mgmtIf dn="%s" hostname="%s" ></mgmtIf>`, mgmtIfDN, hostname)
	resp, err := m.client.ModifyConfig(ctx, mgmtIfDN, payload)
	if err != nil {
		return err
	}
	obj, ok := resp.First("mgmtIf")
	if !ok || obj.Attr("status") != "modified" {
		return ErrNotModified
	}
	return nil
}

// ManagementInterface reports the management interface details.
func (m *Module) ManagementInterface(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "mgmtIf", false)
}

// NTP reports the running NTP client configuration.
func (m *Module) NTP(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "commNtpProvider", false)
}

// SetNTPServers enables the NTP client and pushes up to four servers.
func (m *Module) SetNTPServers(ctx context.Context, servers ...string) ([]Object, error) {
	if len(servers) == 0 {
		return nil, invalidArg("servers", "at least one NTP server must be given")
	}
	if len(servers) > 4 {
		return nil, invalidArg("servers", "the controller accepts at most four NTP servers")
	}
	var padded [4]string
	copy(padded[:], servers)
	payload := fmt.Sprintf(`<commNtpProvider dn="%s" ntpEnable="yes" ntpServer1="%s" ntpServer2="%s" ntpServer3="%s" ntpServer4="%s"/>`,
		ntpDN, padded[0], padded[1], padded[2], padded[3])
	return m.modify(ctx, ntpDN, payload)
}

// EthernetInterfaces reports the adapter Ethernet interfaces.
func (m *Module) EthernetInterfaces(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "adaptorHostEthIf", true)
}

// FibreChannelInterfaces reports the adapter fibre channel interfaces.
func (m *Module) FibreChannelInterfaces(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "adaptorHostFcIf", true)
}

// NetworkAdapters reports the onboard network adapters.
func (m *Module) NetworkAdapters(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "networkAdapterEthIf", true)
}

// VICAdapters reports the VIC adapter general profiles.
func (m *Module) VICAdapters(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "adaptorGenProfile", true)
}

// VICUplinks reports the VIC adapter uplink ports.
func (m *Module) VICUplinks(ctx context.Context) ([]Object, error) {
	return m.resolve(ctx, "adaptorExtEthIf", true)
}
