// Package winroute manages the Windows IPv4/IPv6 routing table.
//
// A RouteManager adds and deletes routes through the IP Helper API and turns
// the system's route change notifications into Added, Deleted and Modified
// events for any number of subscribers:
//
//	rm, err := winroute.New()
//	if err != nil {
//		return err
//	}
//	defer rm.Close()
//
//	sub := rm.SubscribeRouteChange()
//	route := winroute.MustRoute(netip.MustParseAddr("223.6.6.6"), 32).WithMetric(1)
//	if err := rm.AddRoute(route); err != nil {
//		return err
//	}
//	if err := rm.Poll(); err != nil {
//		return err
//	}
//	ev, _ := sub.Recv()
//	fmt.Println(ev) // Added 223.6.6.6/32 gateway 0.0.0.0 metric 1 if 12
//
// Nothing is delivered unless some goroutine keeps calling Poll; the library
// starts no goroutines of its own.
package winroute

import (
	"log/slog"

	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/routing"
	"github.com/wesleywu/winroute/internal/routing/entities"
	"github.com/wesleywu/winroute/internal/routing/platform"
	"github.com/wesleywu/winroute/internal/routing/types"
)

type (
	Route        = entities.Route
	RouteKey     = entities.Key
	RouteEvent   = entities.RouteEvent
	EventKind    = entities.EventKind
	Family       = entities.Family
	RouteManager = routing.RouteManager
	Subscription = routing.Subscription
	BridgeState  = routing.BridgeState

	RouteOperationError = types.RouteOperationError
	RouteErrorType      = types.RouteErrorType

	// Table and Notifier are the native backend; see NewWithTable.
	Table    = platform.Table
	Notifier = platform.Notifier
)

const (
	RouteAdded    = entities.RouteAdded
	RouteDeleted  = entities.RouteDeleted
	RouteModified = entities.RouteModified

	FamilyAll  = entities.FamilyAll
	FamilyIPv4 = entities.FamilyIPv4
	FamilyIPv6 = entities.FamilyIPv6

	Idle  = routing.Idle
	Armed = routing.Armed

	ErrTypeInvalidParameter = types.RouteErrInvalidParameter
	ErrTypeAlreadyExists    = types.RouteErrAlreadyExists
	ErrTypeNotFound         = types.RouteErrNotFound
	ErrTypePermission       = types.RouteErrPermission
	ErrTypeOS               = types.RouteErrOS
	ErrTypeHandleClosed     = types.RouteErrHandleClosed
	ErrTypeUnsupported      = types.RouteErrUnsupported
)

// Sentinels for errors.Is
var (
	ErrInvalidParameter = types.ErrInvalidParameter
	ErrAlreadyExists    = types.ErrAlreadyExists
	ErrNotFound         = types.ErrNotFound
	ErrPermission       = types.ErrPermission
	ErrOS               = types.ErrOS
	ErrHandleClosed     = types.ErrHandleClosed
	ErrUnsupported      = types.ErrUnsupported
)

var (
	NewRoute    = entities.NewRoute
	MustRoute   = entities.MustRoute
	ParseRoute  = entities.ParseRoute
	ParseFamily = entities.ParseFamily
	ErrorType   = types.TypeOf
)

type options struct {
	logger *slog.Logger
	family Family
}

// Option configures New
type Option func(*options)

// WithLogger sends the manager's debug and change logs to l. By default
// nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithFamily restricts listing and change events to one address family
func WithFamily(f Family) Option {
	return func(o *options) {
		o.family = f
	}
}

// New opens the system routing table. It fails with ErrUnsupported on
// anything but Windows.
func New(opts ...Option) (*RouteManager, error) {
	o, log := resolve(opts)
	table, notifier, err := platform.NewNative(log)
	if err != nil {
		return nil, err
	}
	return routing.NewRouteManager(table, notifier, routing.Options{Logger: log, Family: o.family})
}

// NewWithTable builds a manager over a caller-supplied backend
func NewWithTable(table Table, notifier Notifier, opts ...Option) (*RouteManager, error) {
	o, log := resolve(opts)
	return routing.NewRouteManager(table, notifier, routing.Options{Logger: log, Family: o.family})
}

func resolve(opts []Option) (options, *logger.Logger) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return o, logger.Nop()
	}
	return o, logger.Wrap(o.logger)
}
