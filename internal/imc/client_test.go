package imc

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const loginReply = `<aaaLogin cookie="" response="yes" outCookie="1477ee26/c4b6e259" outRefreshPeriod="600" outPriv="admin"></aaaLogin>`

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	client, err := NewClientWithHTTPClient(Config{Host: serverURL, Username: "admin", Password: "secret"}, &http.Client{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestResolveClassRequestAndParsing(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nuova" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		body := string(raw)
		bodies = append(bodies, body)
		if strings.HasPrefix(body, "<aaaLogin") {
			io.WriteString(w, loginReply)
			return
		}
		io.WriteString(w, `<configResolveClass cookie="1477ee26/c4b6e259" response="yes" classId="mgmtIf">
			<outConfigs>
				<mgmtIf dn="sys/rack-unit-1/mgmt/if-1" hostname="rack-07" extIp="10.20.30.40"/>
				<mgmtIf dn="sys/rack-unit-1/mgmt/if-2" hostname="" extIp="0.0.0.0"/>
			</outConfigs>
		</configResolveClass>`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.ResolveClass(context.Background(), "mgmtIf", true)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(bodies) != 2 {
		t.Fatalf("expected login + resolve, got %d requests", len(bodies))
	}
	if !strings.Contains(bodies[0], `inName="admin"`) || !strings.Contains(bodies[0], `inPassword="secret"`) {
		t.Fatalf("login body %q missing credentials", bodies[0])
	}
	for _, attr := range []string{`cookie="1477ee26/c4b6e259"`, `classId="mgmtIf"`, `inHierarchical="true"`} {
		if !strings.Contains(bodies[1], attr) {
			t.Fatalf("resolve body %q missing %s", bodies[1], attr)
		}
	}

	if len(resp.Objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(resp.Objects))
	}
	first, ok := resp.First("mgmtIf")
	if !ok || first.Attr("hostname") != "rack-07" || first.DN != "sys/rack-unit-1/mgmt/if-1" {
		t.Fatalf("unexpected first object %+v", first)
	}
}

func TestModifyConfigWrapsPayload(t *testing.T) {
	var lastBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		lastBody = string(raw)
		if strings.HasPrefix(lastBody, "<aaaLogin") {
			io.WriteString(w, loginReply)
			return
		}
		io.WriteString(w, `<configConfMo dn="sys/rack-unit-1/mgmt/if-1" response="yes">
			<outConfig>
				<mgmtIf dn="sys/rack-unit-1/mgmt/if-1" hostname="rack-08" status="modified"/>
			</outConfig>
		</configConfMo>`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	inConfig := `<mgmtIf dn="sys/rack-unit-1/mgmt/if-1" hostname="rack-08" ></mgmtIf>`
	resp, err := client.ModifyConfig(context.Background(), "sys/rack-unit-1/mgmt/if-1", inConfig)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}

	if !strings.Contains(lastBody, "<inConfig>"+inConfig+"</inConfig>") {
		t.Fatalf("body %q does not wrap the inner config", lastBody)
	}
	if !strings.Contains(lastBody, `dn="sys/rack-unit-1/mgmt/if-1"`) || !strings.Contains(lastBody, `inHierarchical="false"`) {
		t.Fatalf("body %q missing envelope attributes", lastBody)
	}

	obj, ok := resp.First("mgmtIf")
	if !ok || obj.Attr("status") != "modified" {
		t.Fatalf("unexpected object %+v", obj)
	}
}

func TestDeviceErrorIsNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		raw, _ := io.ReadAll(r.Body)
		if strings.HasPrefix(string(raw), "<aaaLogin") {
			io.WriteString(w, loginReply)
			return
		}
		io.WriteString(w, `<error cookie="" response="yes" errorCode="552" errorDescr="Authorization required"/>`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.ResolveClass(context.Background(), "aaaUser", false)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "552" || apiErr.Description != "Authorization required" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if requests != 2 {
		t.Fatalf("expected login + single attempt, got %d requests", requests)
	}
}

func TestTransportErrorIsRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		raw, _ := io.ReadAll(r.Body)
		if strings.HasPrefix(string(raw), "<aaaLogin") {
			io.WriteString(w, loginReply)
			return
		}
		if requests == 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `<configResolveClass response="yes" classId="aaaUser"><outConfigs></outConfigs></configResolveClass>`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.ResolveClass(context.Background(), "aaaUser", false)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resp.Kind != "configResolveClass" {
		t.Fatalf("unexpected kind %q", resp.Kind)
	}
	if requests != 3 {
		t.Fatalf("expected login + failed attempt + retry, got %d requests", requests)
	}
}

func TestClientValidatesConfig(t *testing.T) {
	_, err := NewClient(Config{Username: "admin", Password: "secret"})
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if invalid.Field != "host" {
		t.Fatalf("unexpected field %q", invalid.Field)
	}

	if _, err := NewClient(Config{Host: "imc.example.com", Username: "admin"}); err == nil {
		t.Fatal("expected error for missing password")
	}
}

func TestResolveClassRequiresClass(t *testing.T) {
	client := newTestClient(t, "https://imc.example.com")
	if _, err := client.ResolveClass(context.Background(), "", false); err == nil {
		t.Fatal("expected error for empty class")
	}
	if _, err := client.ModifyConfig(context.Background(), "", "<x/>"); err == nil {
		t.Fatal("expected error for empty dn")
	}
	if _, err := client.ModifyConfig(context.Background(), "sys/rack-unit-1", " "); err == nil {
		t.Fatal("expected error for empty config")
	}
}
