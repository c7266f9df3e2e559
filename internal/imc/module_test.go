package imc

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeDevice struct {
	modifyCalls  int
	resolveCalls int
	lastDN       string
	lastPayload  string
	lastClass    string
	lastHier     bool
	modifyResp   *Response
	resolveResp  *Response
	err          error
}

func (f *fakeDevice) ModifyConfig(_ context.Context, dn, inConfig string) (*Response, error) {
	f.modifyCalls++
	f.lastDN = dn
	f.lastPayload = inConfig
	if f.err != nil {
		return nil, f.err
	}
	if f.modifyResp != nil {
		return f.modifyResp, nil
	}
	return &Response{Kind: "configConfMo"}, nil
}

func (f *fakeDevice) ResolveClass(_ context.Context, class string, hierarchical bool) (*Response, error) {
	f.resolveCalls++
	f.lastClass = class
	f.lastHier = hierarchical
	if f.err != nil {
		return nil, f.err
	}
	if f.resolveResp != nil {
		return f.resolveResp, nil
	}
	return &Response{Kind: "configResolveClass"}, nil
}

func TestActivateBackupImagePayload(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.ActivateBackupImage(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if device.lastDN != "sys/rack-unit-1/mgmt/fw-boot-def/bootunit-combined" {
		t.Fatalf("unexpected dn %q", device.lastDN)
	}
	for _, attr := range []string{"adminState='trigger'", "image='backup'", "resetOnActivate='no'"} {
		if !strings.Contains(device.lastPayload, attr) {
			t.Fatalf("payload %q missing %s", device.lastPayload, attr)
		}
	}

	if _, err := module.ActivateBackupImage(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(device.lastPayload, "resetOnActivate='yes'") {
		t.Fatalf("payload %q missing reset attribute", device.lastPayload)
	}
}

func TestCreateUserPayload(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.CreateUser(context.Background(), 11, "operator", "hunter2", "admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<aaaUser id="11" accountStatus="active" name="operator" priv="admin" pwd="hunter2" dn="sys/user-ext/user-11"/>`
	if device.lastPayload != want {
		t.Fatalf("payload mismatch:\n got %s\nwant %s", device.lastPayload, want)
	}
	if device.lastDN != "sys/user-ext/user-11" {
		t.Fatalf("unexpected dn %q", device.lastDN)
	}
}

func TestCreateUserValidatesBeforeDeviceCall(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	_, err := module.CreateUser(context.Background(), 11, "operator", "", "admin")
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if invalid.Field != "password" {
		t.Fatalf("unexpected field %q", invalid.Field)
	}
	if device.modifyCalls != 0 {
		t.Fatalf("device was called %d times", device.modifyCalls)
	}
}

func TestSetUserBuildsConditionalAttributes(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.SetUser(context.Background(), 5, UserSettings{Status: "inactive", Priv: "read-only"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<aaaUser id="5" accountStatus="inactive" priv="read-only" dn="sys/user-ext/user-5"/>`
	if device.lastPayload != want {
		t.Fatalf("payload mismatch:\n got %s\nwant %s", device.lastPayload, want)
	}
}

func TestSetHostnameChecksModifiedStatus(t *testing.T) {
	device := &fakeDevice{modifyResp: &Response{
		Kind:    "configConfMo",
		Objects: []Object{{Class: "mgmtIf", Attributes: map[string]string{"status": "modified"}}},
	}}
	module := NewModule(device)

	if err := module.SetHostname(context.Background(), "rack-07"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(device.lastPayload, `hostname="rack-07"`) {
		t.Fatalf("payload %q missing hostname", device.lastPayload)
	}

	device.modifyResp = &Response{Kind: "configConfMo", Objects: []Object{{Class: "mgmtIf", Attributes: map[string]string{"status": "created"}}}}
	if err := module.SetHostname(context.Background(), "rack-07"); !errors.Is(err, ErrNotModified) {
		t.Fatalf("expected ErrNotModified, got %v", err)
	}
}

func TestHostnameReadsManagementInterface(t *testing.T) {
	device := &fakeDevice{resolveResp: &Response{
		Kind:    "configResolveClass",
		Objects: []Object{{Class: "mgmtIf", Attributes: map[string]string{"hostname": "rack-07"}}},
	}}
	module := NewModule(device)

	hostname, err := module.Hostname(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hostname != "rack-07" {
		t.Fatalf("unexpected hostname %q", hostname)
	}
	if device.lastClass != "mgmtIf" || !device.lastHier {
		t.Fatalf("unexpected resolve %s hierarchical=%v", device.lastClass, device.lastHier)
	}
}

func TestHostnameMissingAttribute(t *testing.T) {
	device := &fakeDevice{resolveResp: &Response{
		Kind:    "configResolveClass",
		Objects: []Object{{Class: "mgmtIf", Attributes: map[string]string{}}},
	}}
	module := NewModule(device)

	_, err := module.Hostname(context.Background())
	if !errors.Is(err, ErrAttributeMissing) {
		t.Fatalf("expected ErrAttributeMissing, got %v", err)
	}
}

func TestSetLoggingLevels(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.SetLoggingLevels(context.Background(), "error", "notice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<commSyslog dn="sys/svc-ext/syslog" remoteSeverity="error" localSeverity="notice" ></commSyslog>`
	if device.lastPayload != want {
		t.Fatalf("payload mismatch:\n got %s\nwant %s", device.lastPayload, want)
	}

	_, err := module.SetLoggingLevels(context.Background(), "loud", "")
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if device.modifyCalls != 1 {
		t.Fatalf("device called %d times, want 1", device.modifyCalls)
	}
}

func TestSetNTPServersPadsToFour(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.SetNTPServers(context.Background(), "10.0.0.1", "time.example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, attr := range []string{`ntpEnable="yes"`, `ntpServer1="10.0.0.1"`, `ntpServer2="time.example.com"`, `ntpServer3=""`, `ntpServer4=""`} {
		if !strings.Contains(device.lastPayload, attr) {
			t.Fatalf("payload %q missing %s", device.lastPayload, attr)
		}
	}

	if _, err := module.SetNTPServers(context.Background()); err == nil {
		t.Fatal("expected error for empty server list")
	}
}

func TestSetPowerConfiguration(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	cases := []struct {
		policy    string
		delayType string
		delay     int
		want      string
	}{
		{"reset", "fixed", 30, ` vpResumeOnACPowerLoss="reset" delayType="fixed" delay="30"`},
		{"reset", "random", 0, ` vpResumeOnACPowerLoss="reset" delayType="random"`},
		{"stay-off", "", 0, ` vpResumeOnACPowerLoss="reset"`},
		{"last-state", "", 0, ` vpResumeOnACPowerLoss="last-state"`},
	}
	for _, tc := range cases {
		if _, err := module.SetPowerConfiguration(context.Background(), tc.policy, tc.delayType, tc.delay); err != nil {
			t.Fatalf("policy %s: unexpected error: %v", tc.policy, err)
		}
		if !strings.Contains(device.lastPayload, tc.want) {
			t.Fatalf("policy %s: payload %q missing %q", tc.policy, device.lastPayload, tc.want)
		}
	}

	if _, err := module.SetPowerConfiguration(context.Background(), "sometimes", "", 0); err == nil {
		t.Fatal("expected error for invalid policy")
	}
	if _, err := module.SetPowerConfiguration(context.Background(), "reset", "jittered", 0); err == nil {
		t.Fatal("expected error for invalid delay type")
	}
}

func TestMountShareCredentials(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	mount := ShareMount{Name: "WIN7", RemoteShare: "10.0.0.5:/nfs", RemoteFile: "install.iso"}
	if _, err := module.MountShare(context.Background(), mount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(device.lastPayload, "mountOptions") {
		t.Fatalf("payload %q has credentials without username/password", device.lastPayload)
	}
	if !strings.Contains(device.lastPayload, "map='nfs'") {
		t.Fatalf("payload %q missing default mount type", device.lastPayload)
	}

	mount.Username = "svc"
	mount.Password = "secret"
	if _, err := module.MountShare(context.Background(), mount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(device.lastPayload, "mountOptions='username=svc,password=secret'") {
		t.Fatalf("payload %q missing mount options", device.lastPayload)
	}

	if _, err := module.MountShare(context.Background(), ShareMount{Name: "x"}); err == nil {
		t.Fatal("expected error for missing share path")
	}
}

func TestTFTPUpdateTargets(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.TFTPUpdateBIOS(context.Background(), "tftp.example.com", "images/bios.cap"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(device.lastPayload, "type='blade-bios'") || device.lastDN != "sys/rack-unit-1/bios/fw-updatable" {
		t.Fatalf("unexpected bios update call dn=%q payload=%q", device.lastDN, device.lastPayload)
	}

	if _, err := module.TFTPUpdateIMC(context.Background(), "tftp.example.com", "images/imc.bin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(device.lastPayload, "type='blade-controller'") || device.lastDN != "sys/rack-unit-1/mgmt/fw-updatable" {
		t.Fatalf("unexpected controller update call dn=%q payload=%q", device.lastDN, device.lastPayload)
	}

	if _, err := module.TFTPUpdateBIOS(context.Background(), "", "x"); err == nil {
		t.Fatal("expected error for missing server")
	}
}

func TestInventoryClassRouting(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	cases := []struct {
		name  string
		class string
		hier  bool
		call  func(context.Context) ([]Object, error)
	}{
		{"bios defaults", "biosPlatformDefaults", true, module.BIOSDefaults},
		{"bios settings", "biosSettings", true, module.BIOSSettings},
		{"boot order", "lsbootDef", true, module.BootOrder},
		{"cpu", "pidCatalogCpu", true, module.CPUDetails},
		{"disks", "pidCatalogHdd", true, module.Disks},
		{"ethernet", "adaptorHostEthIf", true, module.EthernetInterfaces},
		{"fibre channel", "adaptorHostFcIf", true, module.FibreChannelInterfaces},
		{"firmware", "firmwareRunning", false, module.Firmware},
		{"ldap", "aaaLdap", true, module.LDAP},
		{"management if", "mgmtIf", false, module.ManagementInterface},
		{"memory token", "biosVfSelectMemoryRASConfiguration", false, module.MemoryToken},
		{"memory units", "pidCatalogDimm", true, module.MemoryUnits},
		{"network adapters", "networkAdapterEthIf", true, module.NetworkAdapters},
		{"ntp", "commNtpProvider", false, module.NTP},
		{"pci", "pidCatalogPCIAdapter", true, module.PCIAdapters},
		{"power config", "biosVfResumeOnACPowerLoss", true, module.PowerConfiguration},
		{"power supplies", "equipmentPsu", false, module.PowerSupplies},
		{"snmp", "commSnmp", false, module.SNMPConfig},
		{"syslog clients", "commSyslogClient", false, module.Syslog},
		{"syslog settings", "commSyslog", false, module.SyslogSettings},
		{"system info", "computeRackUnit", false, module.SystemInfo},
		{"users", "aaaUser", false, module.Users},
		{"vic adapters", "adaptorGenProfile", true, module.VICAdapters},
		{"vic uplinks", "adaptorExtEthIf", true, module.VICUplinks},
	}
	for _, tc := range cases {
		if _, err := tc.call(context.Background()); err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if device.lastClass != tc.class || device.lastHier != tc.hier {
			t.Fatalf("%s: resolved %s hierarchical=%v, want %s hierarchical=%v",
				tc.name, device.lastClass, device.lastHier, tc.class, tc.hier)
		}
	}
}

func TestRebootPayload(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.Reboot(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(device.lastPayload, `adminPower="cycle-immediate"`) {
		t.Fatalf("payload %q missing power cycle attribute", device.lastPayload)
	}
	if device.lastDN != "sys/rack-unit-1" {
		t.Fatalf("unexpected dn %q", device.lastDN)
	}
}

func TestSetSyslogServerRoles(t *testing.T) {
	device := &fakeDevice{}
	module := NewModule(device)

	if _, err := module.SetSyslogServer(context.Background(), "logs.example.com", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if device.lastDN != "sys/svc-ext/syslog/client-primary" {
		t.Fatalf("unexpected dn %q", device.lastDN)
	}
	if !strings.Contains(device.lastPayload, "name='primary'") || !strings.Contains(device.lastPayload, "hostname='logs.example.com'") {
		t.Fatalf("unexpected payload %q", device.lastPayload)
	}

	if _, err := module.SetSyslogServer(context.Background(), "logs.example.com", "secondary"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if device.lastDN != "sys/svc-ext/syslog/client-secondary" {
		t.Fatalf("unexpected dn %q", device.lastDN)
	}

	if _, err := module.SetSyslogServer(context.Background(), "logs.example.com", "tertiary"); err == nil {
		t.Fatal("expected error for invalid role")
	}
	if _, err := module.SetSyslogServer(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for missing server")
	}
}
