package routing

import (
	"context"
	"sync"

	"github.com/gammazero/deque"

	"github.com/wesleywu/winroute/internal/routing/entities"
	"github.com/wesleywu/winroute/internal/routing/types"
)

// Subscription is one subscriber's receive endpoint. The queue is unbounded,
// so the poll loop never blocks on a slow reader.
type Subscription struct {
	id uint64

	mutex  sync.Mutex
	queue  *deque.Deque[entities.RouteEvent]
	closed bool

	ready chan struct{} // capacity 1; pinged on push
	done  chan struct{} // closed on disconnect

	unsubscribe func(id uint64)
}

func newSubscription(id uint64, unsubscribe func(uint64)) *Subscription {
	return &Subscription{
		id:          id,
		queue:       deque.New[entities.RouteEvent](),
		ready:       make(chan struct{}, 1),
		done:        make(chan struct{}),
		unsubscribe: unsubscribe,
	}
}

// Recv blocks until an event is available. Once the subscription is closed
// and drained it returns a HandleClosed error.
func (s *Subscription) Recv() (entities.RouteEvent, error) {
	return s.RecvContext(context.Background())
}

// RecvContext is Recv with cancellation.
func (s *Subscription) RecvContext(ctx context.Context) (entities.RouteEvent, error) {
	for {
		if ev, ok, closed := s.pop(); ok {
			return ev, nil
		} else if closed {
			return entities.RouteEvent{}, types.Closed("recv")
		}

		select {
		case <-s.ready:
		case <-s.done:
		case <-ctx.Done():
			return entities.RouteEvent{}, ctx.Err()
		}
	}
}

// TryRecv returns the next queued event without blocking.
func (s *Subscription) TryRecv() (entities.RouteEvent, bool) {
	ev, ok, _ := s.pop()
	return ev, ok
}

// Len returns the number of queued events
func (s *Subscription) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.queue.Len()
}

// Done is closed when the subscription is disconnected, either by Close or
// by the manager shutting down. Queued events remain readable.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unsubscribes. Other subscriptions are unaffected.
func (s *Subscription) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe(s.id)
	}
	s.disconnect()
	return nil
}

func (s *Subscription) pop() (ev entities.RouteEvent, ok bool, closed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.queue.Len() == 0 {
		return ev, false, s.closed
	}
	ev = s.queue.PopFront()
	if s.queue.Len() > 0 {
		s.wake()
	}
	return ev, true, s.closed
}

// push enqueues ev, reporting false if the subscription is already disconnected.
func (s *Subscription) push(ev entities.RouteEvent) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return false
	}
	s.queue.PushBack(ev)
	s.wake()
	return true
}

func (s *Subscription) disconnect() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *Subscription) wake() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}
