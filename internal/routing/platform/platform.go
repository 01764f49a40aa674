// Package platform is the native table adapter: it turns Route values into
// routing table calls and normalises the OS error codes.
package platform

import (
	"github.com/wesleywu/winroute/internal/routing/entities"
)

// Table is the routing table as the OS exposes it. Every call is a single
// native round-trip; implementations never retry and never cache.
type Table interface {
	// AddRoute creates the entry. Fails with AlreadyExists, InvalidParameter,
	// PermissionDenied or OsError.
	AddRoute(route entities.Route) error
	// DeleteRoute removes the entry matched by destination, prefix length
	// and interface. Fails with NotFound when there is no such entry.
	DeleteRoute(route entities.Route) error
	// ListRoutes enumerates the table for the given family.
	ListRoutes(family entities.Family) ([]entities.Route, error)
}

// Notifier is a native route-change registration. signal is invoked from an
// OS-owned thread every time the table changes and must not block.
type Notifier interface {
	Register(family entities.Family, signal func()) error
	Unregister() error
}
