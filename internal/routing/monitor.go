package routing

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/wesleywu/winroute/internal/logger"
	"github.com/wesleywu/winroute/internal/routing/entities"
	"github.com/wesleywu/winroute/internal/routing/metrics"
	"github.com/wesleywu/winroute/internal/routing/platform"
	"github.com/wesleywu/winroute/internal/routing/snapshot"
	"github.com/wesleywu/winroute/internal/routing/types"
)

// BridgeState is the notification registration state
type BridgeState int32

const (
	// Idle means no native registration is active; the next Poll re-arms
	Idle BridgeState = iota
	// Armed means the OS will signal the next table change
	Armed
)

// String returns the string representation of the state
func (s BridgeState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Armed:
		return "Armed"
	default:
		return "Unknown"
	}
}

// ChangeBridge turns the OS "table changed" signal into per-route events.
//
// The native notification carries no reliable description of what changed,
// so every signal triggers a full table read that is diffed against the last
// snapshot. The snapshot is owned by the bridge and touched only under
// pollMutex.
type ChangeBridge struct {
	table    platform.Table
	notifier platform.Notifier
	family   entities.Family
	logger   *logger.Logger
	metrics  *metrics.Metrics

	// Signals coalesce: a burst of native callbacks between two polls
	// yields a single diff.
	signal chan struct{}
	done   chan struct{}

	pollMutex sync.Mutex
	last      *snapshot.Snapshot
	state     atomic.Int32

	subscribers *xsync.MapOf[uint64, *Subscription]
	nextID      atomic.Uint64

	// lifecycle orders Register/Unregister calls against Close, so a
	// registration made by a re-arm is always cancelled by Close.
	lifecycle sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewChangeBridge registers for notifications and takes the baseline snapshot.
func NewChangeBridge(table platform.Table, notifier platform.Notifier, family entities.Family, log *logger.Logger, m *metrics.Metrics) (*ChangeBridge, error) {
	b := &ChangeBridge{
		table:       table,
		notifier:    notifier,
		family:      family,
		logger:      log.WithComponent("bridge"),
		metrics:     m,
		signal:      make(chan struct{}, 1),
		done:        make(chan struct{}),
		subscribers: xsync.NewMapOf[uint64, *Subscription](),
	}

	// Register before reading so a change between the two is not lost.
	if err := notifier.Register(family, b.onChange); err != nil {
		return nil, err
	}
	routes, err := table.ListRoutes(family)
	if err != nil {
		_ = notifier.Unregister()
		return nil, asOSError("poll", err)
	}
	b.last = snapshot.New(routes)
	b.state.Store(int32(Armed))

	b.logger.MonitorStart(family.String(), b.last.Size())
	return b, nil
}

// State returns the current registration state
func (b *ChangeBridge) State() BridgeState {
	return BridgeState(b.state.Load())
}

// Subscribe registers a new independent receiver
func (b *ChangeBridge) Subscribe() *Subscription {
	id := b.nextID.Add(1)
	s := newSubscription(id, b.unsubscribe)
	if b.closed.Load() {
		s.disconnect()
		return s
	}
	b.subscribers.Store(id, s)
	// Close may have swept the registry between the check and the store.
	if b.closed.Load() {
		b.subscribers.Delete(id)
		s.disconnect()
	}
	return s
}

// Subscribers returns the number of live subscriptions
func (b *ChangeBridge) Subscribers() int {
	return b.subscribers.Size()
}

// Poll waits for one change signal, diffs the table and publishes the
// resulting events. It returns nil after each cycle, even when the signal
// turned out to carry no visible change.
func (b *ChangeBridge) Poll(ctx context.Context) error {
	b.pollMutex.Lock()
	defer b.pollMutex.Unlock()

	if b.closed.Load() {
		return types.Closed("poll")
	}
	if b.State() == Idle {
		if err := b.arm(); err != nil {
			return err
		}
	}

	select {
	case <-b.signal:
	case <-b.done:
		return types.Closed("poll")
	case <-ctx.Done():
		return ctx.Err()
	}
	if b.closed.Load() {
		return types.Closed("poll")
	}

	routes, err := b.table.ListRoutes(b.family)
	if err != nil {
		b.disarm()
		return asOSError("poll", err)
	}

	cur := snapshot.New(routes)
	var events []entities.RouteEvent
	if !b.last.Same(cur) {
		events = snapshot.Diff(b.last, cur)
	}
	b.last = cur

	b.publish(events)
	if b.metrics != nil {
		b.metrics.RecordPoll(len(events))
	}
	return nil
}

// Close cancels the native registration, then releases a blocked Poll and
// disconnects every subscription.
func (b *ChangeBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.closed.Store(true)

		b.lifecycle.Lock()
		err = b.notifier.Unregister()
		b.state.Store(int32(Idle))
		b.lifecycle.Unlock()

		close(b.done)

		b.subscribers.Range(func(id uint64, s *Subscription) bool {
			s.disconnect()
			return true
		})
		b.subscribers.Clear()
		b.logger.MonitorStop()
	})
	return err
}

// onChange runs on an OS thread; it must never block.
func (b *ChangeBridge) onChange() {
	if b.closed.Load() {
		return
	}
	select {
	case b.signal <- struct{}{}:
	default:
	}
}

// arm re-registers after a failure. Changes may have been missed while
// Idle, so a diff is queued straight away.
func (b *ChangeBridge) arm() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if b.closed.Load() {
		return types.Closed("poll")
	}
	if err := b.notifier.Register(b.family, b.onChange); err != nil {
		return err
	}
	b.state.Store(int32(Armed))
	b.logger.Debug("route change notification re-armed")
	b.onChange()
	return nil
}

func (b *ChangeBridge) disarm() {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if err := b.notifier.Unregister(); err != nil {
		b.logger.Warn("failed to cancel route change notification", "error", err)
	}
	b.state.Store(int32(Idle))
}

func (b *ChangeBridge) publish(events []entities.RouteEvent) {
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		delivered := 0
		b.subscribers.Range(func(id uint64, s *Subscription) bool {
			if s.push(ev) {
				delivered++
			}
			return true
		})
		b.logger.RouteChange(ev.Kind.String(), ev.Route.String(), delivered)
	}
}

func (b *ChangeBridge) unsubscribe(id uint64) {
	b.subscribers.Delete(id)
}

// asOSError keeps typed errors and wraps anything else as OsError
func asOSError(op string, err error) error {
	if _, ok := types.TypeOf(err); ok {
		return err
	}
	return types.NewError(types.RouteErrOS, op, "", err)
}
