package entities

import (
	"encoding/json"
	"errors"
	"net/netip"
	"testing"

	"github.com/wesleywu/winroute/internal/routing/types"
)

func TestNewRoutePrefixBounds(t *testing.T) {
	v4 := netip.MustParseAddr("192.168.1.0")
	v6 := netip.MustParseAddr("fe80:9464::")

	tests := []struct {
		name      string
		addr      netip.Addr
		prefixLen int
		wantErr   bool
	}{
		{"ipv4 zero", v4, 0, false},
		{"ipv4 host", v4, 32, false},
		{"ipv4 too long", v4, 33, true},
		{"ipv4 negative", v4, -1, true},
		{"ipv6 zero", v6, 0, false},
		{"ipv6 32", v6, 32, false},
		{"ipv6 host", v6, 128, false},
		{"ipv6 too long", v6, 129, true},
		{"unset address", netip.Addr{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRoute(tt.addr, tt.prefixLen)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error: %v, got: %v (%s/%d)", tt.wantErr, err, tt.addr, tt.prefixLen)
			}
			if err != nil && !errors.Is(err, types.ErrInvalidParameter) {
				t.Errorf("Expected InvalidParameter, got %v", err)
			}
		})
	}
}

func TestNewRouteIPv4(t *testing.T) {
	route := MustRoute(netip.MustParseAddr("192.168.0.0"), 24).
		WithGateway(netip.MustParseAddr("172.1.1.254")).
		WithInterface(1).
		WithLUID(123456).
		WithMetric(1)

	if got := route.String(); got != "192.168.0.0/24 gateway 172.1.1.254 metric 1 if 1" {
		t.Errorf("Unexpected string form %q", got)
	}
	if route.Version() != 4 {
		t.Errorf("Expected version 4, got %d", route.Version())
	}

	bare := MustRoute(netip.MustParseAddr("192.168.1.0"), 32)
	if got := bare.String(); got != "192.168.1.0/32 gateway 0.0.0.0 metric -" {
		t.Errorf("Unexpected string form %q", got)
	}
	if _, ok := bare.Metric(); ok {
		t.Error("Metric should be unset")
	}
	if _, ok := bare.Gateway(); ok {
		t.Error("Gateway should be unset")
	}
}

func TestNewRouteIPv6(t *testing.T) {
	route := MustRoute(netip.MustParseAddr("fe80:9464::"), 32)
	if got := route.String(); got != "fe80:9464::/32 gateway :: metric -" {
		t.Errorf("Unexpected string form %q", got)
	}
	if route.Version() != 6 {
		t.Errorf("Expected version 6, got %d", route.Version())
	}
	if route.Family() != FamilyIPv6 {
		t.Errorf("Expected FamilyIPv6, got %v", route.Family())
	}
}

func TestBuildersDoNotMutate(t *testing.T) {
	base := MustRoute(netip.MustParseAddr("223.6.6.6"), 32)
	_ = base.WithMetric(5).WithInterface(7)

	if _, ok := base.Metric(); ok {
		t.Error("WithMetric mutated the receiver")
	}
	if _, ok := base.Interface(); ok {
		t.Error("WithInterface mutated the receiver")
	}
}

func TestValidateGatewayFamily(t *testing.T) {
	mismatched := MustRoute(netip.MustParseAddr("10.0.0.0"), 8).
		WithGateway(netip.MustParseAddr("fe80::1"))
	if err := mismatched.Validate(); !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("Expected InvalidParameter, got %v", err)
	}

	mapped := MustRoute(netip.MustParseAddr("10.0.0.0"), 8).
		WithGateway(netip.MustParseAddr("::ffff:10.0.0.1"))
	if err := mapped.Validate(); err != nil {
		t.Errorf("IPv4-mapped gateway should be accepted, got %v", err)
	}

	if err := (Route{}).Validate(); err == nil {
		t.Error("Zero route should not validate")
	}
}

func TestKeyIgnoresMetricAndGateway(t *testing.T) {
	a := MustRoute(netip.MustParseAddr("10.1.0.0"), 16).WithInterface(3).WithMetric(1)
	b := MustRoute(netip.MustParseAddr("10.1.0.0"), 16).WithInterface(3).WithMetric(9).
		WithGateway(netip.MustParseAddr("10.0.0.1"))

	if a.Key() != b.Key() {
		t.Errorf("Expected equal keys, got %v and %v", a.Key(), b.Key())
	}
	if a.Equal(b) {
		t.Error("Routes with different metric should not be Equal")
	}
	if a.Key() == b.WithInterface(4).Key() {
		t.Error("Interface must be part of the key")
	}
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		input   string
		prefix  string
		wantErr bool
	}{
		{"223.6.6.6", "223.6.6.6/32", false},
		{"10.0.0.0/8", "10.0.0.0/8", false},
		{" 2001:db8::/32 ", "2001:db8::/32", false},
		{"2001:db8::1", "2001:db8::1/128", false},
		{"10.0.0.1/24", "10.0.0.0/24", false},
		{"2001:db8::1/32", "2001:db8::/32", false},
		{"::ffff:10.1.2.3/8", "10.0.0.0/8", false},
		{"10.0.0.0/33", "", true},
		{"10.0.0.0/x", "", true},
		{"not-an-ip", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			route, err := ParseRoute(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error: %v, got: %v", tt.wantErr, err)
			}
			if err == nil && route.Prefix().String() != tt.prefix {
				t.Errorf("Expected %s, got %s", tt.prefix, route.Prefix())
			}
		})
	}
}

func TestIsDefault(t *testing.T) {
	def := MustRoute(netip.IPv4Unspecified(), 0).WithGateway(netip.MustParseAddr("192.168.1.1"))
	if !def.IsDefault() {
		t.Error("Expected default route")
	}
	onLink := MustRoute(netip.IPv4Unspecified(), 0)
	if onLink.IsDefault() {
		t.Error("Default destination without gateway is not a default route")
	}
}

func TestRouteJSON(t *testing.T) {
	route := MustRoute(netip.MustParseAddr("192.168.0.0"), 24).
		WithGateway(netip.MustParseAddr("172.1.1.254")).
		WithInterface(1).
		WithLUID(123456).
		WithMetric(1)

	data, err := json.Marshal(route)
	if err != nil {
		t.Fatalf("Failed to marshal route: %v", err)
	}
	want := `{"destination":"192.168.0.0","prefix":24,"gateway":"172.1.1.254","ifindex":1,"metric":1,"luid":123456,"version":4}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	var decoded Route
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal route: %v", err)
	}
	if !decoded.Equal(route) {
		t.Errorf("Round trip mismatch: %s vs %s", decoded, route)
	}

	bare, _ := json.Marshal(MustRoute(netip.MustParseAddr("fe80:9464::"), 32))
	want = `{"destination":"fe80:9464::","prefix":32,"gateway":null,"ifindex":null,"metric":null,"luid":null,"version":6}`
	if string(bare) != want {
		t.Errorf("Expected %s, got %s", want, bare)
	}
}

func TestRouteJSONRejectsBadPrefix(t *testing.T) {
	var r Route
	err := json.Unmarshal([]byte(`{"destination":"10.0.0.0","prefix":40}`), &r)
	if !errors.Is(err, types.ErrInvalidParameter) {
		t.Errorf("Expected InvalidParameter, got %v", err)
	}
}

func TestEventJSON(t *testing.T) {
	prev := MustRoute(netip.MustParseAddr("10.0.0.0"), 8).WithMetric(1).WithInterface(3)
	ev := NewRouteEvent(RouteModified, prev.WithMetric(2))
	ev.Previous = &prev

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}
	var decoded RouteEvent
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	if decoded.Kind != RouteModified || decoded.Family != FamilyIPv4 {
		t.Errorf("Expected Modified ipv4, got %v %v", decoded.Kind, decoded.Family)
	}
	if !decoded.Route.Equal(ev.Route) {
		t.Errorf("Expected route %v, got %v", ev.Route, decoded.Route)
	}
	if decoded.Previous == nil || !decoded.Previous.Equal(prev) {
		t.Errorf("Expected previous %v, got %v", prev, decoded.Previous)
	}

	added := NewRouteEvent(RouteAdded, MustRoute(netip.MustParseAddr("2001:db8::"), 32))
	data, _ = json.Marshal(added)
	decoded = RouteEvent{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}
	if decoded.Kind != RouteAdded || decoded.Family != FamilyIPv6 || decoded.Previous != nil {
		t.Errorf("Expected Added ipv6 without previous, got %+v", decoded)
	}
}

func TestEventJSONRejectsUnknownKind(t *testing.T) {
	var ev RouteEvent
	data := []byte(`{"kind":"Renamed","family":4,"route":{"destination":"10.0.0.0","prefix":8}}`)
	if err := json.Unmarshal(data, &ev); err == nil {
		t.Error("Expected error for unknown kind, got nil")
	}
}

func TestParseEventKind(t *testing.T) {
	for _, kind := range []EventKind{RouteAdded, RouteDeleted, RouteModified} {
		got, err := ParseEventKind(kind.String())
		if err != nil || got != kind {
			t.Errorf("Expected %v, got %v (%v)", kind, got, err)
		}
	}
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		input   string
		want    Family
		wantErr bool
	}{
		{"", FamilyAll, false},
		{"4", FamilyIPv4, false},
		{"ipv6", FamilyIPv6, false},
		{"7", FamilyAll, true},
	}
	for _, tt := range tests {
		got, err := ParseFamily(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Expected %v for %q, got %v (error: %v)", tt.want, tt.input, got, err)
		}
	}

	if !FamilyIPv4.Contains(netip.MustParseAddr("::ffff:1.2.3.4")) {
		t.Error("IPv4-mapped address should belong to ipv4")
	}
	if FamilyIPv6.Contains(netip.MustParseAddr("1.2.3.4")) {
		t.Error("IPv4 address should not belong to ipv6")
	}
}
