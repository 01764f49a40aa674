package routing

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/routing/entities"
	"github.com/wesleywu/winroute/internal/routing/metrics"
	"github.com/wesleywu/winroute/internal/routing/platform"
	"github.com/wesleywu/winroute/internal/routing/snapshot"
	"github.com/wesleywu/winroute/internal/routing/types"
)

// Options configures a RouteManager. Zero values pick the defaults: a
// discarding logger, both families and a fresh metrics collector.
type Options struct {
	Logger  *logger.Logger
	Family  entities.Family
	Metrics *metrics.Metrics
}

// RouteManager is the entry point of the library: table mutation, listing
// and change subscription over one native table.
type RouteManager struct {
	table   platform.Table
	bridge  *ChangeBridge
	family  entities.Family
	logger  *logger.Logger
	metrics *metrics.Metrics
	closed  atomic.Bool
}

// NewRouteManager registers for change notifications and snapshots the table.
func NewRouteManager(table platform.Table, notifier platform.Notifier, opts Options) (*RouteManager, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewMetrics()
	}

	bridge, err := NewChangeBridge(table, notifier, opts.Family, log, m)
	if err != nil {
		return nil, err
	}
	return &RouteManager{
		table:   table,
		bridge:  bridge,
		family:  opts.Family,
		logger:  log.WithComponent("manager"),
		metrics: m,
	}, nil
}

// AddRoute installs route in the system table. It does not retry.
func (rm *RouteManager) AddRoute(route entities.Route) error {
	if rm.closed.Load() {
		return types.Closed("add")
	}
	return rm.timed("add", route, rm.table.AddRoute)
}

// DeleteRoute removes route from the system table
func (rm *RouteManager) DeleteRoute(route entities.Route) error {
	if rm.closed.Load() {
		return types.Closed("delete")
	}
	return rm.timed("delete", route, rm.table.DeleteRoute)
}

// Routes returns the current table for the configured family, ordered by
// family, destination, prefix, interface and gateway.
func (rm *RouteManager) Routes() ([]entities.Route, error) {
	if rm.closed.Load() {
		return nil, types.Closed("list")
	}
	routes, err := rm.table.ListRoutes(rm.family)
	if err != nil {
		return nil, asOSError("list", err)
	}
	slices.SortFunc(routes, snapshot.Compare)
	return routes, nil
}

// DefaultRoute returns the preferred default route: an unspecified
// destination with prefix 0 and a gateway, IPv4 first, lowest metric next.
func (rm *RouteManager) DefaultRoute() (entities.Route, error) {
	routes, err := rm.Routes()
	if err != nil {
		return entities.Route{}, err
	}

	var best *entities.Route
	for i := range routes {
		r := &routes[i]
		if !r.IsDefault() {
			continue
		}
		if best == nil || betterDefault(*r, *best) {
			best = r
		}
	}
	if best == nil {
		return entities.Route{}, types.NewError(types.RouteErrNotFound, "default", "", nil)
	}
	return *best, nil
}

// SubscribeRouteChange returns a new receiver. Every subscription sees every
// event published after it was created. On a closed manager the returned
// subscription is already disconnected.
func (rm *RouteManager) SubscribeRouteChange() *Subscription {
	return rm.bridge.Subscribe()
}

// Poll blocks for the next table change and publishes the resulting events.
// It must be called repeatedly for subscribers to receive anything.
func (rm *RouteManager) Poll() error {
	return rm.bridge.Poll(context.Background())
}

// PollContext is Poll with cancellation
func (rm *RouteManager) PollContext(ctx context.Context) error {
	return rm.bridge.Poll(ctx)
}

// State reports whether the change notification is currently armed
func (rm *RouteManager) State() BridgeState {
	return rm.bridge.State()
}

// Stats returns a snapshot of the operation and poll counters
func (rm *RouteManager) Stats() metrics.Stats {
	return rm.metrics.GetStats()
}

// Close releases the notification registration, wakes a blocked Poll and
// disconnects all subscriptions. It is safe to call more than once.
func (rm *RouteManager) Close() error {
	if rm.closed.Swap(true) {
		return nil
	}
	stats := rm.metrics.GetStats()
	rm.logger.Performance("route manager", stats.Map())
	return rm.bridge.Close()
}

func (rm *RouteManager) timed(op string, route entities.Route, fn func(entities.Route) error) error {
	start := time.Now()
	err := fn(route)
	elapsed := time.Since(start)

	rm.metrics.RecordOperation(elapsed, err == nil)

	gateway := ""
	if gw, ok := route.Gateway(); ok {
		gateway = gw.String()
	}
	rm.logger.RouteOperation(op, route.Prefix().String(), gateway, elapsed.Milliseconds(), err == nil)
	return err
}

func betterDefault(a, b entities.Route) bool {
	if a.Version() != b.Version() {
		return a.Version() < b.Version()
	}
	am, _ := a.Metric()
	bm, _ := b.Metric()
	return am < bm
}
