package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/pscheid92/yggdrasil/internal/metrics"
)

// FetchFunc computes today's value. It is called with the cache lock held.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	day   string
	value T
}

// Daily caches one value per UTC calendar day.
type Daily[T any] struct {
	name  string
	fetch FetchFunc[T]
	clock clockwork.Clock

	// lock is a one-slot semaphore so that waiting for it honors ctx.
	lock  chan struct{}
	entry *entry[T]
}

// New creates an empty cache. name labels metrics and logs.
func New[T any](name string, fetch FetchFunc[T], clock clockwork.Clock) *Daily[T] {
	return &Daily[T]{
		name:  name,
		fetch: fetch,
		clock: clock,
		lock:  make(chan struct{}, 1),
	}
}

// Get returns today's value, fetching it if the entry is absent or from an earlier day.
// A failed fetch leaves the entry untouched and returns an error wrapping domain.ErrUpstreamUnavailable;
// the next call fetches again.
func (c *Daily[T]) Get(ctx context.Context) (T, error) {
	var zero T

	select {
	case c.lock <- struct{}{}:
	case <-ctx.Done():
		return zero, fmt.Errorf("waiting for %s cache: %w", c.name, ctx.Err())
	}
	defer func() { <-c.lock }()

	today := dayKey(c.clock.Now())
	if c.entry != nil && c.entry.day == today {
		metrics.CacheHits.WithLabelValues(c.name).Inc()
		return c.entry.value, nil
	}
	metrics.CacheMisses.WithLabelValues(c.name).Inc()

	start := c.clock.Now()
	value, err := c.fetch(ctx)
	metrics.CacheFetchDuration.WithLabelValues(c.name).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		metrics.CacheFetchFailures.WithLabelValues(c.name).Inc()
		return zero, fmt.Errorf("refresh %s cache: %w: %w", c.name, domain.ErrUpstreamUnavailable, err)
	}

	stale := c.entry != nil
	c.entry = &entry[T]{day: today, value: value}
	slog.Info("Daily cache refreshed", "cache", c.name, "day", today, "replaced_stale", stale)

	return value, nil
}

// Peek returns the stored value and its day key without fetching.
// It never waits: while a Get holds the lock, Peek reports nothing.
func (c *Daily[T]) Peek() (value T, day string, ok bool) {
	select {
	case c.lock <- struct{}{}:
	default:
		return value, "", false
	}
	defer func() { <-c.lock }()

	if c.entry == nil {
		return value, "", false
	}
	return c.entry.value, c.entry.day, true
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
