//go:build windows

package platform

import (
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/windows"
	"golang.zx2c4.com/wireguard/windows/tunnel/winipcfg"

	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/routing/entities"
	"github.com/wesleywu/winroute/internal/routing/types"
)

type WindowsRouteTable struct {
	logger *logger.Logger
}

// NewNative returns the IP Helper backed table and notifier (Windows implementation)
func NewNative(log *logger.Logger) (Table, Notifier, error) {
	table := &WindowsRouteTable{
		logger: log.WithComponent("table"),
	}
	return table, &WindowsNotifier{logger: log.WithComponent("notifier")}, nil
}

// AddRoute creates the entry with CreateIpForwardEntry2
func (t *WindowsRouteTable) AddRoute(route entities.Route) error {
	row, err := t.buildRow("add", route)
	if err != nil {
		return err
	}
	if err := row.Create(); err != nil {
		return win32Error("add", route.Prefix().String(), err)
	}
	return nil
}

// DeleteRoute removes the entry with DeleteIpForwardEntry2
func (t *WindowsRouteTable) DeleteRoute(route entities.Route) error {
	row, err := t.buildRow("delete", route)
	if err != nil {
		return err
	}
	if err := row.Delete(); err != nil {
		return win32Error("delete", route.Prefix().String(), err)
	}
	return nil
}

// ListRoutes reads the forwarding table with GetIpForwardTable2
func (t *WindowsRouteTable) ListRoutes(family entities.Family) ([]entities.Route, error) {
	rows, err := winipcfg.GetIPForwardTable2(addressFamily(family))
	if err != nil {
		return nil, win32Error("list", "", err)
	}

	routes := make([]entities.Route, 0, len(rows))
	for i := range rows {
		if r, ok := routeFromRow(&rows[i]); ok {
			routes = append(routes, r)
		}
	}
	return routes, nil
}

// buildRow validates route and fills a MIB_IPFORWARD_ROW2. When the route
// has no interface, the best interface toward the gateway (or the
// destination for on-link routes) is used, for both add and delete, so the
// two resolve to the same key.
func (t *WindowsRouteTable) buildRow(op string, route entities.Route) (*winipcfg.MibIPforwardRow2, error) {
	if err := route.Validate(); err != nil {
		return nil, err
	}
	dst := route.Prefix().String()

	ifindex, ok := route.Interface()
	if !ok {
		idx, err := bestInterface(route)
		if err != nil {
			return nil, win32Error(op, dst, err)
		}
		ifindex = idx
		t.logger.Debug("resolved best interface", "route", dst, "ifindex", idx)
	}

	row := &winipcfg.MibIPforwardRow2{}
	row.Init()
	row.InterfaceIndex = ifindex
	if luid, ok := route.LUID(); ok {
		row.InterfaceLUID = winipcfg.LUID(luid)
	} else {
		luid, err := winipcfg.LUIDFromIndex(ifindex)
		if err != nil {
			return nil, types.NewError(types.RouteErrInvalidParameter, op, dst,
				fmt.Errorf("interface %d: %w", ifindex, err))
		}
		row.InterfaceLUID = luid
	}

	if err := row.DestinationPrefix.SetPrefix(route.Prefix()); err != nil {
		return nil, types.NewError(types.RouteErrInvalidParameter, op, dst, err)
	}
	if err := row.NextHop.SetAddr(nextHop(route)); err != nil {
		return nil, types.NewError(types.RouteErrInvalidParameter, op, dst, err)
	}

	metric, _ := route.Metric()
	row.Metric = metric
	row.Protocol = winipcfg.RouteProtocolNetMgmt
	return row, nil
}

func nextHop(route entities.Route) netip.Addr {
	if gw, ok := route.Gateway(); ok {
		return gw
	}
	if route.Destination().Is6() {
		return netip.IPv6Unspecified()
	}
	return netip.IPv4Unspecified()
}

func routeFromRow(row *winipcfg.MibIPforwardRow2) (entities.Route, bool) {
	prefix := row.DestinationPrefix.Prefix()
	if !prefix.IsValid() {
		return entities.Route{}, false
	}
	route, err := entities.NewRoute(prefix.Addr(), prefix.Bits())
	if err != nil {
		return entities.Route{}, false
	}
	route = route.
		WithInterface(row.InterfaceIndex).
		WithLUID(uint64(row.InterfaceLUID)).
		WithMetric(row.Metric)
	if gw := row.NextHop.Addr(); gw.IsValid() && !gw.IsUnspecified() {
		route = route.WithGateway(gw)
	}
	return route, true
}

func bestInterface(route entities.Route) (uint32, error) {
	target := route.Destination()
	if gw, ok := route.Gateway(); ok && !gw.IsUnspecified() {
		target = gw
	}

	var sa windows.Sockaddr
	if target.Is4() {
		sa = &windows.SockaddrInet4{Addr: target.As4()}
	} else {
		sa = &windows.SockaddrInet6{Addr: target.As16()}
	}

	var idx uint32
	if err := windows.GetBestInterfaceEx(sa, &idx); err != nil {
		return 0, err
	}
	return idx, nil
}

func addressFamily(family entities.Family) winipcfg.AddressFamily {
	switch family {
	case entities.FamilyIPv4:
		return winipcfg.AddressFamily(windows.AF_INET)
	case entities.FamilyIPv6:
		return winipcfg.AddressFamily(windows.AF_INET6)
	default:
		return winipcfg.AddressFamily(windows.AF_UNSPEC)
	}
}

// win32Error converts an IP Helper failure into the route error taxonomy
func win32Error(op, destination string, err error) error {
	var errno windows.Errno
	if errors.As(err, &errno) {
		return types.FromWin32(op, destination, uint32(errno), err)
	}
	return types.NewError(types.RouteErrOS, op, destination, err)
}
