// Package testutil provides an in-process routing table for tests that
// exercise the manager without touching the host's table.
package testutil

import (
	"errors"
	"slices"
	"sync"

	"github.com/wesleywu/winroute/internal/routing/entities"
	"github.com/wesleywu/winroute/internal/routing/types"
)

// DefaultInterface is the index given to routes added without one.
const DefaultInterface uint32 = 1

// MemoryTable implements platform.Table and platform.Notifier over a slice.
// It reproduces the native semantics the manager relies on: AlreadyExists on
// duplicate add, NotFound on missing delete, and a change signal after every
// successful mutation.
type MemoryTable struct {
	mutex  sync.Mutex
	routes []entities.Route

	signal   func()
	family   entities.Family
	readOnly bool

	listErr     error
	registerErr error

	Registrations   int
	Unregistrations int
}

// NewMemoryTable creates a table seeded with routes
func NewMemoryTable(routes ...entities.Route) *MemoryTable {
	return &MemoryTable{routes: slices.Clone(routes)}
}

func (m *MemoryTable) AddRoute(route entities.Route) error {
	if err := route.Validate(); err != nil {
		return err
	}
	m.mutex.Lock()
	if m.readOnly {
		m.mutex.Unlock()
		return types.FromWin32("add", route.Prefix().String(), types.Win32AccessDenied, nil)
	}
	route = normalize(route)
	if m.indexOf(route) >= 0 {
		m.mutex.Unlock()
		return types.FromWin32("add", route.Prefix().String(), types.Win32ObjectAlreadyExists, nil)
	}
	m.routes = append(m.routes, route)
	signal := m.signalFor(route)
	m.mutex.Unlock()

	if signal != nil {
		signal()
	}
	return nil
}

func (m *MemoryTable) DeleteRoute(route entities.Route) error {
	if err := route.Validate(); err != nil {
		return err
	}
	m.mutex.Lock()
	if m.readOnly {
		m.mutex.Unlock()
		return types.FromWin32("delete", route.Prefix().String(), types.Win32AccessDenied, nil)
	}
	route = normalize(route)
	i := m.indexOf(route)
	if i < 0 {
		m.mutex.Unlock()
		return types.FromWin32("delete", route.Prefix().String(), types.Win32NotFound, nil)
	}
	removed := m.routes[i]
	m.routes = slices.Delete(m.routes, i, i+1)
	signal := m.signalFor(removed)
	m.mutex.Unlock()

	if signal != nil {
		signal()
	}
	return nil
}

func (m *MemoryTable) ListRoutes(family entities.Family) ([]entities.Route, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]entities.Route, 0, len(m.routes))
	for _, r := range m.routes {
		if family.Contains(r.Destination()) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryTable) Register(family entities.Family, signal func()) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.registerErr != nil {
		return m.registerErr
	}
	if m.signal != nil {
		return types.NewError(types.RouteErrAlreadyExists, "notify", "", errors.New("already registered"))
	}
	m.signal = signal
	m.family = family
	m.Registrations++
	return nil
}

func (m *MemoryTable) Unregister() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.signal != nil {
		m.signal = nil
		m.Unregistrations++
	}
	return nil
}

// Registered reports whether a notifier registration is active
func (m *MemoryTable) Registered() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.signal != nil
}

// Replace swaps an entry for another with the same key, as an external
// process changing a metric or gateway would, and fires the signal.
func (m *MemoryTable) Replace(old, updated entities.Route) bool {
	m.mutex.Lock()
	i := m.indexOf(normalize(old))
	if i < 0 {
		m.mutex.Unlock()
		return false
	}
	m.routes[i] = normalize(updated)
	signal := m.signalFor(updated)
	m.mutex.Unlock()

	if signal != nil {
		signal()
	}
	return true
}

// Touch fires the change signal without changing the table.
func (m *MemoryTable) Touch() {
	m.mutex.Lock()
	signal := m.signal
	m.mutex.Unlock()
	if signal != nil {
		signal()
	}
}

// SetReadOnly makes every mutation fail with PermissionDenied
func (m *MemoryTable) SetReadOnly(readOnly bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.readOnly = readOnly
}

// FailList makes ListRoutes return err until called again with nil
func (m *MemoryTable) FailList(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.listErr = err
}

// FailRegister makes Register return err until called again with nil
func (m *MemoryTable) FailRegister(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.registerErr = err
}

// Len returns the number of entries
func (m *MemoryTable) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.routes)
}

// indexOf matches on key, and on gateway when route carries one. Callers hold the mutex.
func (m *MemoryTable) indexOf(route entities.Route) int {
	gw, hasGW := route.Gateway()
	return slices.IndexFunc(m.routes, func(r entities.Route) bool {
		if r.Key() != route.Key() {
			return false
		}
		if !hasGW {
			return true
		}
		rgw, _ := r.Gateway()
		return rgw == gw
	})
}

func (m *MemoryTable) signalFor(route entities.Route) func() {
	if m.signal == nil || !m.family.Contains(route.Destination()) {
		return nil
	}
	return m.signal
}

// normalize gives interface-less routes the default interface and a zero
// metric, the way the native table reports them back.
func normalize(route entities.Route) entities.Route {
	if _, ok := route.Interface(); !ok {
		route = route.WithInterface(DefaultInterface)
	}
	if _, ok := route.Metric(); !ok {
		route = route.WithMetric(0)
	}
	return route
}
