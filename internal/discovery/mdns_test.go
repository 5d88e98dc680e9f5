// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager construction and server address formatting
package discovery

import (
	"testing"
)

func TestNewManager(t *testing.T) {
	config := Config{
		InstanceName: "test-client",
		MonitorPort:  8181,
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	mgr.Stop()
}

func TestServerInfoAddr(t *testing.T) {
	info := &ServerInfo{Name: "bench", Host: "10.0.0.7", Port: 5810}

	if got := info.Addr(); got != "10.0.0.7:5810" {
		t.Errorf("expected 10.0.0.7:5810, got %s", got)
	}
}

func TestAdvertiseDisabledWithoutPort(t *testing.T) {
	mgr := NewManager(Config{InstanceName: "test-client"})
	defer mgr.Stop()

	if err := mgr.Advertise(); err != nil {
		t.Errorf("expected no-op advertise, got %v", err)
	}
}
