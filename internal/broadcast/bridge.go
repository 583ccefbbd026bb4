package broadcast

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pscheid92/yggdrasil/internal/metrics"
)

// Bridge republishes every value from a blocking producer channel onto a broadcast Channel.
//
// It owns the Channel's producer side. The worker exits when source is closed and is never restarted;
// the Channel stays open, so existing sessions keep running and simply stop receiving updates.
type Bridge[T any] struct {
	source    <-chan T
	channel   *Channel[T]
	startOnce sync.Once
	started   atomic.Bool
	done      chan struct{}
}

// NewBridge creates a bridge from source to channel. Call Start to spawn the worker.
func NewBridge[T any](source <-chan T, channel *Channel[T]) *Bridge[T] {
	return &Bridge[T]{
		source:  source,
		channel: channel,
		done:    make(chan struct{}),
	}
}

// Start spawns the worker goroutine. Only the first call has an effect.
func (b *Bridge[T]) Start() {
	b.startOnce.Do(func() {
		b.started.Store(true)
		metrics.BridgeWorkerRunning.Set(1)
		go b.run()
	})
}

// Subscribe returns a new subscription on the bridged channel. No history is replayed.
func (b *Bridge[T]) Subscribe() *Subscription[T] {
	return b.channel.Subscribe()
}

// Done is closed when the worker has exited.
func (b *Bridge[T]) Done() <-chan struct{} {
	return b.done
}

// Running reports whether the worker has been started and has not exited.
func (b *Bridge[T]) Running() bool {
	if !b.started.Load() {
		return false
	}
	select {
	case <-b.done:
		return false
	default:
		return true
	}
}

func (b *Bridge[T]) run() {
	defer close(b.done)
	defer metrics.BridgeWorkerRunning.Set(0)

	published := 0
	for value := range b.source {
		receivers := b.channel.Publish(value)
		metrics.BridgeSnapshotsPublished.Inc()
		if receivers == 0 {
			metrics.BridgeUnheardPublishes.Inc()
		}
		published++
	}

	slog.Warn("Bridge source closed, worker exiting", "published", published)
}
