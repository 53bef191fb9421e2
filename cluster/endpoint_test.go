package cluster

import (
	"testing"

	"github.com/stratastore/strata/cmn"
)

func TestNewEndpointPath(t *testing.T) {
	ep, err := NewEndpoint("/mnt/disk1")
	if err != nil {
		t.Fatal(err)
	}
	if !ep.IsLocal() {
		t.Error("path endpoint must be local")
	}
	if ep.Path != "/mnt/disk1" || ep.Scheme != "" {
		t.Errorf("unexpected endpoint: %+v", ep)
	}
	if ep.String() != "/mnt/disk1" {
		t.Errorf("String() = %q", ep.String())
	}
}

func TestNewEndpointURL(t *testing.T) {
	ep, err := NewEndpoint("https://node3:9000/mnt/disk2")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Scheme != "https" || ep.Host != "node3:9000" || ep.Path != "/mnt/disk2" {
		t.Errorf("unexpected endpoint: %+v", ep)
	}
	if ep.HostURL() != "https://node3:9000" {
		t.Errorf("HostURL() = %q", ep.HostURL())
	}
	if ep.IsLocal() {
		t.Error("node3 should not be local")
	}
}

func TestNewEndpointLocalHosts(t *testing.T) {
	for _, arg := range []string{
		"http://localhost:9000/disk",
		"http://127.0.0.1:9000/disk",
		"http://[::1]:9000/disk",
		"http://0.0.0.0:9000/disk",
	} {
		ep, err := NewEndpoint(arg)
		if err != nil {
			t.Fatalf("NewEndpoint(%q): %v", arg, err)
		}
		if !ep.IsLocal() {
			t.Errorf("NewEndpoint(%q): expected local", arg)
		}
	}
}

func TestNewEndpointRejects(t *testing.T) {
	for _, arg := range []string{
		"",
		"/",
		"ftp://host:21/disk",
		"http://:9000/disk",
		"http://host:99999/disk",
		"http://host:0/disk",
		"http://host:9000/",
		"relative/path",
	} {
		if _, err := NewEndpoint(arg); !cmn.IsKind(err, cmn.KindInvalidArg) {
			t.Errorf("NewEndpoint(%q): got %v, want INVALID_ARG", arg, err)
		}
	}
}

func TestNewEndpointIPv6(t *testing.T) {
	ep, err := NewEndpoint("http://[fe80::1]:9000/disk1")
	if err != nil {
		t.Fatal(err)
	}
	if ep.Host != "[fe80::1]:9000" {
		t.Errorf("Host = %q", ep.Host)
	}
}
