package entities

import (
	"fmt"
	"net/netip"
)

// Family selects which address families a table read or a monitor covers.
type Family int

// Family constants
const (
	FamilyAll Family = iota
	FamilyIPv4
	FamilyIPv6
)

// ParseFamily accepts "", "all", "4", "ipv4", "6" and "ipv6".
func ParseFamily(s string) (Family, error) {
	switch s {
	case "", "all", "any":
		return FamilyAll, nil
	case "4", "ipv4", "inet":
		return FamilyIPv4, nil
	case "6", "ipv6", "inet6":
		return FamilyIPv6, nil
	default:
		return FamilyAll, fmt.Errorf("unknown address family %q", s)
	}
}

// Contains reports whether addr belongs to the family.
func (f Family) Contains(addr netip.Addr) bool {
	switch f {
	case FamilyIPv4:
		return addr.Unmap().Is4()
	case FamilyIPv6:
		return addr.Is6() && !addr.Is4In6()
	default:
		return addr.IsValid()
	}
}

// Version returns 4, 6, or 0 for FamilyAll.
func (f Family) Version() int {
	switch f {
	case FamilyIPv4:
		return 4
	case FamilyIPv6:
		return 6
	default:
		return 0
	}
}

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "all"
	}
}
