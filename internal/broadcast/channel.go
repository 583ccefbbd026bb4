package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pscheid92/yggdrasil/internal/metrics"
)

// ErrClosed is returned by Recv once the channel has been closed or the subscription released.
var ErrClosed = errors.New("broadcast channel closed")

// LaggedError reports that values were replaced before the subscriber read them.
// It is informational: the next Recv returns the newest value.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscriber lagged, %d value(s) skipped", e.Skipped)
}

// Channel is a single-producer, multi-consumer broadcast with one buffered value per subscriber.
type Channel[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	closed bool
	done   chan struct{}
}

// NewChannel creates an open channel with no subscribers.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{
		subs: make(map[*Subscription[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Subscribe attaches a new subscription. It only observes values published after this call.
// Subscribing to a closed channel yields a subscription whose Recv returns ErrClosed.
func (c *Channel[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{
		parent: c,
		slot:   make(chan T, 1),
		left:   make(chan struct{}),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		s.release()
		return s
	}
	c.subs[s] = struct{}{}
	metrics.ChannelSubscribers.Set(float64(len(c.subs)))
	return s
}

// Publish offers value to every subscriber without blocking and returns how many received it.
// A subscriber whose slot is still full has the old value replaced. Publishing to zero subscribers is a no-op.
func (c *Channel[T]) Publish(value T) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}

	for s := range c.subs {
		select {
		case s.slot <- value:
			continue
		default:
		}

		// Slot still holds an unread value: replace it with the newer one.
		select {
		case <-s.slot:
			s.lagged.Add(1)
			metrics.ChannelLaggedDrops.Inc()
		default:
		}
		select {
		case s.slot <- value:
		default:
		}
	}
	return len(c.subs)
}

// SubscriberCount returns the number of registered subscriptions.
func (c *Channel[T]) SubscriberCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close ends the channel. Subscribers drain a value still in their slot, then receive ErrClosed.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	clear(c.subs)
	metrics.ChannelSubscribers.Set(0)
}

func (c *Channel[T]) remove(s *Subscription[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[s]; !ok {
		return
	}
	delete(c.subs, s)
	metrics.ChannelSubscribers.Set(float64(len(c.subs)))
}

// Subscription is one consumer's handle on a Channel. It must be closed when no longer read.
type Subscription[T any] struct {
	parent   *Channel[T]
	slot     chan T
	lagged   atomic.Uint64
	left     chan struct{}
	stopOnce sync.Once
}

// Recv blocks until the next value, a lag notice, closure or ctx cancellation.
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	if n := s.lagged.Swap(0); n > 0 {
		return zero, &LaggedError{Skipped: n}
	}

	select {
	case v := <-s.slot:
		return v, nil
	case <-s.left:
		return zero, ErrClosed
	case <-s.parent.done:
		select {
		case v := <-s.slot:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close deregisters the subscription. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.parent.remove(s)
	s.release()
}

func (s *Subscription[T]) release() {
	s.stopOnce.Do(func() { close(s.left) })
}
