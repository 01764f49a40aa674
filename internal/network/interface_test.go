package network

import (
	"net/netip"
	"testing"

	"github.com/wesleywu/winroute/internal/routing/entities"
)

func loopback(t *testing.T) InterfaceInfo {
	t.Helper()
	interfaces, err := GetNetworkInterfaces()
	if err != nil {
		t.Fatalf("GetNetworkInterfaces failed: %v", err)
	}
	for _, iface := range interfaces {
		if iface.IsLoopback && iface.HasIPv4() {
			return iface
		}
	}
	t.Skip("no IPv4 loopback interface")
	return InterfaceInfo{}
}

func TestGetNetworkInterfacesSorted(t *testing.T) {
	interfaces, err := GetNetworkInterfaces()
	if err != nil {
		t.Fatalf("GetNetworkInterfaces failed: %v", err)
	}
	for i := 1; i < len(interfaces); i++ {
		if interfaces[i-1].Index > interfaces[i].Index {
			t.Errorf("Expected interfaces sorted by index, got %d before %d", interfaces[i-1].Index, interfaces[i].Index)
		}
	}
}

func TestLookupLoopback(t *testing.T) {
	lo := loopback(t)

	byIndex, err := GetInterfaceByIndex(lo.Index)
	if err != nil {
		t.Fatalf("GetInterfaceByIndex(%d) failed: %v", lo.Index, err)
	}
	if byIndex.Name != lo.Name {
		t.Errorf("Expected name %q, got %q", lo.Name, byIndex.Name)
	}

	byName, err := GetInterfaceByName(lo.Name)
	if err != nil {
		t.Fatalf("GetInterfaceByName(%q) failed: %v", lo.Name, err)
	}
	if byName.Index != lo.Index {
		t.Errorf("Expected index %d, got %d", lo.Index, byName.Index)
	}

	if Names()[lo.Index] != lo.Name {
		t.Errorf("Expected name %q for index %d, got %q", lo.Name, lo.Index, Names()[lo.Index])
	}
}

func TestAddresses(t *testing.T) {
	info := InterfaceInfo{Prefixes: []netip.Prefix{
		netip.MustParsePrefix("192.168.1.10/24"),
		netip.MustParsePrefix("fe80::1/64"),
	}}

	if got := info.Addresses(entities.FamilyIPv4); len(got) != 1 || got[0] != netip.MustParseAddr("192.168.1.10") {
		t.Errorf("Expected only IPv4 addresses, got %v", got)
	}
	if got := info.Addresses(entities.FamilyAll); len(got) != 2 {
		t.Errorf("Expected both addresses, got %v", got)
	}
	if !info.HasIPv4() || !info.HasIPv6() {
		t.Error("Expected both families")
	}
	if _, err := GetInterfaceByName("no-such-interface-xyz"); err == nil {
		t.Error("Expected error for unknown interface")
	}
}
