package network

import (
	"cmp"
	"fmt"
	"net"
	"net/netip"
	"slices"

	"github.com/wesleywu/winroute/internal/routing/entities"
)

// InterfaceInfo describes one local interface by the index routes refer to
type InterfaceInfo struct {
	Index      uint32
	Name       string
	MTU        int
	IsUp       bool
	IsLoopback bool
	Prefixes   []netip.Prefix
}

func fromNet(iface net.Interface) InterfaceInfo {
	info := InterfaceInfo{
		Index:      uint32(iface.Index),
		Name:       iface.Name,
		MTU:        iface.MTU,
		IsUp:       iface.Flags&net.FlagUp != 0,
		IsLoopback: iface.Flags&net.FlagLoopback != 0,
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return info
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		bits, _ := ipNet.Mask.Size()
		info.Prefixes = append(info.Prefixes, netip.PrefixFrom(ip.Unmap(), bits))
	}
	return info
}

// GetNetworkInterfaces lists local interfaces ordered by index
func GetNetworkInterfaces() ([]InterfaceInfo, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to get network interfaces: %w", err)
	}

	result := make([]InterfaceInfo, 0, len(interfaces))
	for _, iface := range interfaces {
		result = append(result, fromNet(iface))
	}
	slices.SortFunc(result, func(a, b InterfaceInfo) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return result, nil
}

// GetInterfaceByIndex looks up the interface a route's ifindex points at
func GetInterfaceByIndex(index uint32) (*InterfaceInfo, error) {
	iface, err := net.InterfaceByIndex(int(index))
	if err != nil {
		return nil, fmt.Errorf("interface %d not found: %w", index, err)
	}
	info := fromNet(*iface)
	return &info, nil
}

// GetInterfaceByName resolves a name such as "Ethernet" to its index
func GetInterfaceByName(name string) (*InterfaceInfo, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %s not found: %w", name, err)
	}
	info := fromNet(*iface)
	return &info, nil
}

// Names maps index to name for every local interface. Lookup failures
// yield an empty map.
func Names() map[uint32]string {
	names := make(map[uint32]string)
	interfaces, err := GetNetworkInterfaces()
	if err != nil {
		return names
	}
	for _, iface := range interfaces {
		names[iface.Index] = iface.Name
	}
	return names
}

// Addresses returns the interface's addresses in family
func (info *InterfaceInfo) Addresses(family entities.Family) []netip.Addr {
	var addrs []netip.Addr
	for _, p := range info.Prefixes {
		if family.Contains(p.Addr()) {
			addrs = append(addrs, p.Addr())
		}
	}
	return addrs
}

func (info *InterfaceInfo) HasIPv4() bool {
	return len(info.Addresses(entities.FamilyIPv4)) > 0
}

func (info *InterfaceInfo) HasIPv6() bool {
	return len(info.Addresses(entities.FamilyIPv6)) > 0
}
