package entities

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/wesleywu/winroute/internal/routing/types"
)

// Route represents an IP routing table entry.
//
// A Route is a value: the With* methods return modified copies, so a Route
// handed to the manager cannot be changed underneath it.
type Route struct {
	destination netip.Addr
	prefixLen   int

	gateway netip.Addr

	ifindex    uint32
	hasIfindex bool

	metric    uint32
	hasMetric bool

	luid    uint64
	hasLUID bool
}

// Key identifies a route for matching: the OS uses destination, prefix
// length and interface to find the entry on delete.
type Key struct {
	Destination netip.Addr
	PrefixLen   int
	Interface   uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d if %d", k.Destination, k.PrefixLen, k.Interface)
}

// NewRoute creates a route that matches the given destination network.
//
// Either the gateway or the interface should be set before adding it to the
// table; when neither is set the adapter picks the best interface.
func NewRoute(destination netip.Addr, prefixLen int) (Route, error) {
	if !destination.IsValid() {
		return Route{}, types.Invalid("new", "", "destination address is not set")
	}
	destination = destination.Unmap()
	if prefixLen < 0 || prefixLen > destination.BitLen() {
		return Route{}, types.Invalid("new", destination.String(),
			"prefix length %d out of range 0..%d", prefixLen, destination.BitLen())
	}
	return Route{destination: destination, prefixLen: prefixLen}, nil
}

// MustRoute is like NewRoute but panics on an invalid prefix. Intended for literals.
func MustRoute(destination netip.Addr, prefixLen int) Route {
	r, err := NewRoute(destination, prefixLen)
	if err != nil {
		panic(err)
	}
	return r
}

// ParseRoute parses CIDR notation ("10.0.0.0/8") or a bare address, which
// is taken as a host route. Host bits below the prefix are cleared.
func ParseRoute(s string) (Route, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return Route{}, types.NewError(types.RouteErrInvalidParameter, "parse", s, err)
		}
		return NewRoute(addr, addr.Unmap().BitLen())
	}
	addrPart, lenPart, _ := strings.Cut(s, "/")
	addr, err := netip.ParseAddr(addrPart)
	if err != nil {
		return Route{}, types.NewError(types.RouteErrInvalidParameter, "parse", s, err)
	}
	bits, err := strconv.Atoi(lenPart)
	if err != nil {
		return Route{}, types.NewError(types.RouteErrInvalidParameter, "parse", s, err)
	}
	route, err := NewRoute(addr, bits)
	if err != nil {
		return Route{}, err
	}
	// The table stores the network address; 10.0.0.1/24 becomes 10.0.0.0/24.
	return NewRoute(route.Prefix().Masked().Addr(), bits)
}

// WithMetric sets the route metric offset.
func (r Route) WithMetric(metric uint32) Route {
	r.metric = metric
	r.hasMetric = true
	return r
}

// WithGateway sets the next hop. Family mismatches are reported by Validate.
func (r Route) WithGateway(gateway netip.Addr) Route {
	r.gateway = gateway.Unmap()
	return r
}

// WithInterface sets the interface index.
func (r Route) WithInterface(ifindex uint32) Route {
	r.ifindex = ifindex
	r.hasIfindex = true
	return r
}

// WithLUID sets the interface LUID.
func (r Route) WithLUID(luid uint64) Route {
	r.luid = luid
	r.hasLUID = true
	return r
}

func (r Route) Destination() netip.Addr { return r.destination }
func (r Route) PrefixLen() int          { return r.prefixLen }

// Prefix returns destination/prefix-length as a netip.Prefix.
func (r Route) Prefix() netip.Prefix {
	return netip.PrefixFrom(r.destination, r.prefixLen)
}

// Gateway returns the next hop and whether one is set.
func (r Route) Gateway() (netip.Addr, bool) {
	return r.gateway, r.gateway.IsValid()
}

// Interface returns the interface index and whether one is set.
func (r Route) Interface() (uint32, bool) {
	return r.ifindex, r.hasIfindex
}

// Metric returns the metric and whether one is set.
func (r Route) Metric() (uint32, bool) {
	return r.metric, r.hasMetric
}

// LUID returns the interface LUID and whether one is set.
func (r Route) LUID() (uint64, bool) {
	return r.luid, r.hasLUID
}

// Family returns the address family of the destination.
func (r Route) Family() Family {
	if r.destination.Is6() {
		return FamilyIPv6
	}
	return FamilyIPv4
}

// Version returns 4 or 6.
func (r Route) Version() int {
	return r.Family().Version()
}

// Key returns the identity used to match entries on delete and in diffs.
func (r Route) Key() Key {
	return Key{Destination: r.destination, PrefixLen: r.prefixLen, Interface: r.ifindex}
}

// IsDefault reports whether r is a default route through a gateway.
func (r Route) IsDefault() bool {
	gw, ok := r.Gateway()
	return r.prefixLen == 0 && r.destination.IsUnspecified() && ok && !gw.IsUnspecified()
}

// Validate reports problems that only matter once the route is submitted.
func (r Route) Validate() error {
	if !r.destination.IsValid() {
		return types.Invalid("validate", "", "destination address is not set")
	}
	if r.prefixLen < 0 || r.prefixLen > r.destination.BitLen() {
		return types.Invalid("validate", r.Prefix().String(),
			"prefix length %d out of range 0..%d", r.prefixLen, r.destination.BitLen())
	}
	if gw, ok := r.Gateway(); ok && gw.Is4() != r.destination.Is4() {
		return types.Invalid("validate", r.Prefix().String(),
			"gateway %s does not match destination family", gw)
	}
	return nil
}

// Equal compares every field, not just the key.
func (r Route) Equal(o Route) bool {
	return r == o
}

// unspecified returns the family's all-zero address, used when printing an unset gateway.
func (r Route) unspecified() netip.Addr {
	if r.destination.Is6() {
		return netip.IPv6Unspecified()
	}
	return netip.IPv4Unspecified()
}

func (r Route) String() string {
	gw := r.unspecified()
	if g, ok := r.Gateway(); ok {
		gw = g
	}
	metric := "-"
	if m, ok := r.Metric(); ok {
		metric = strconv.FormatUint(uint64(m), 10)
	}
	s := fmt.Sprintf("%s/%d gateway %s metric %s", r.destination, r.prefixLen, gw, metric)
	if idx, ok := r.Interface(); ok {
		s += fmt.Sprintf(" if %d", idx)
	}
	return s
}
