package entities

import (
	"encoding/json"
	"fmt"
	"net/netip"
)

type routeJSON struct {
	Destination string  `json:"destination"`
	Prefix      int     `json:"prefix"`
	Gateway     *string `json:"gateway"`
	Ifindex     *uint32 `json:"ifindex"`
	Metric      *uint32 `json:"metric"`
	LUID        *uint64 `json:"luid"`
	Version     int     `json:"version,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (r Route) MarshalJSON() ([]byte, error) {
	out := routeJSON{
		Destination: r.destination.String(),
		Prefix:      r.prefixLen,
		Version:     r.Version(),
	}
	if gw, ok := r.Gateway(); ok {
		s := gw.String()
		out.Gateway = &s
	}
	if idx, ok := r.Interface(); ok {
		out.Ifindex = &idx
	}
	if m, ok := r.Metric(); ok {
		out.Metric = &m
	}
	if l, ok := r.LUID(); ok {
		out.LUID = &l
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. The version field is derived and ignored.
func (r *Route) UnmarshalJSON(data []byte) error {
	var in routeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	dst, err := netip.ParseAddr(in.Destination)
	if err != nil {
		return fmt.Errorf("invalid destination: %w", err)
	}
	route, err := NewRoute(dst, in.Prefix)
	if err != nil {
		return err
	}
	if in.Gateway != nil {
		gw, err := netip.ParseAddr(*in.Gateway)
		if err != nil {
			return fmt.Errorf("invalid gateway: %w", err)
		}
		route = route.WithGateway(gw)
	}
	if in.Ifindex != nil {
		route = route.WithInterface(*in.Ifindex)
	}
	if in.Metric != nil {
		route = route.WithMetric(*in.Metric)
	}
	if in.LUID != nil {
		route = route.WithLUID(*in.LUID)
	}
	*r = route
	return nil
}

type eventJSON struct {
	Kind     string `json:"kind"`
	Family   int    `json:"family"`
	Route    Route  `json:"route"`
	Previous *Route `json:"previous,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (e RouteEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		Kind:     e.Kind.String(),
		Family:   e.Family.Version(),
		Route:    e.Route,
		Previous: e.Previous,
	})
}

// UnmarshalJSON implements json.Unmarshaler. A missing or zero family is
// derived from the route.
func (e *RouteEvent) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseEventKind(in.Kind)
	if err != nil {
		return err
	}

	ev := NewRouteEvent(kind, in.Route)
	switch in.Family {
	case 0:
	case 4:
		ev.Family = FamilyIPv4
	case 6:
		ev.Family = FamilyIPv6
	default:
		return fmt.Errorf("invalid family %d", in.Family)
	}
	ev.Previous = in.Previous
	*e = ev
	return nil
}
