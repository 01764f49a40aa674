package entities

import "fmt"

// EventKind is the type of routing table change
type EventKind int

const (
	// RouteAdded indicates an entry present only in the newer snapshot
	RouteAdded EventKind = iota
	// RouteDeleted indicates an entry present only in the older snapshot
	RouteDeleted
	// RouteModified indicates an entry whose metric or gateway changed
	RouteModified
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case RouteAdded:
		return "Added"
	case RouteDeleted:
		return "Deleted"
	case RouteModified:
		return "Modified"
	default:
		return "Unknown"
	}
}

// ParseEventKind is the inverse of EventKind.String
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "Added":
		return RouteAdded, nil
	case "Deleted":
		return RouteDeleted, nil
	case "Modified":
		return RouteModified, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

// RouteEvent represents one routing table delta
type RouteEvent struct {
	Kind   EventKind
	Route  Route
	Family Family

	// Previous holds the entry as it was before a RouteModified change.
	Previous *Route
}

// NewRouteEvent builds an event for route, deriving the family from it.
func NewRouteEvent(kind EventKind, route Route) RouteEvent {
	return RouteEvent{Kind: kind, Route: route, Family: route.Family()}
}

func (e RouteEvent) String() string {
	if e.Kind == RouteModified && e.Previous != nil {
		return e.Kind.String() + " " + e.Previous.String() + " -> " + e.Route.String()
	}
	return e.Kind.String() + " " + e.Route.String()
}
