package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvWithin(t *testing.T, sub *Subscription[int], d time.Duration) (int, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return sub.Recv(ctx)
}

func TestChannel_PublishWithoutSubscribers(t *testing.T) {
	ch := NewChannel[int]()

	for i := range 100 {
		assert.Equal(t, 0, ch.Publish(i))
	}

	// Nothing was retained for later delivery.
	sub := ch.Subscribe()
	t.Cleanup(sub.Close)

	_, err := recvWithin(t, sub, 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_LateSubscriberSeesOnlyNewValues(t *testing.T) {
	ch := NewChannel[int]()
	early := ch.Subscribe()
	t.Cleanup(early.Close)

	ch.Publish(1)

	late := ch.Subscribe()
	t.Cleanup(late.Close)

	ch.Publish(2)

	v, err := recvWithin(t, late, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "late subscriber must never observe values published before it joined")
}

func TestChannel_SlowSubscriberObservesLatestOnly(t *testing.T) {
	ch := NewChannel[int]()
	sub := ch.Subscribe()
	t.Cleanup(sub.Close)

	ch.Publish(1)
	ch.Publish(2)

	_, err := recvWithin(t, sub, time.Second)
	var lagged *LaggedError
	require.True(t, errors.As(err, &lagged), "first receive should report the lag")
	assert.Equal(t, uint64(1), lagged.Skipped)

	v, err := recvWithin(t, sub, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// No duplicate of the newest value.
	_, err = recvWithin(t, sub, 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannel_LagIsPerSubscriber(t *testing.T) {
	ch := NewChannel[int]()
	fast := ch.Subscribe()
	slow := ch.Subscribe()
	t.Cleanup(fast.Close)
	t.Cleanup(slow.Close)

	ch.Publish(1)
	v, err := recvWithin(t, fast, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	ch.Publish(2)
	v, err = recvWithin(t, fast, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = recvWithin(t, slow, time.Second)
	var lagged *LaggedError
	require.ErrorAs(t, err, &lagged)
	v, err = recvWithin(t, slow, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestChannel_OrderPreservedUnderConcurrentPublish(t *testing.T) {
	ch := NewChannel[int]()
	sub := ch.Subscribe()
	t.Cleanup(sub.Close)

	const total = 10_000
	go func() {
		for i := 1; i <= total; i++ {
			ch.Publish(i)
		}
	}()

	last := 0
	for last < total {
		v, err := recvWithin(t, sub, 5*time.Second)
		var lagged *LaggedError
		if errors.As(err, &lagged) {
			continue
		}
		require.NoError(t, err)
		require.Greater(t, v, last, "values must never be reordered or duplicated")
		last = v
	}
}

func TestChannel_CloseEndsSubscribersAfterDrain(t *testing.T) {
	ch := NewChannel[int]()
	sub := ch.Subscribe()

	ch.Publish(7)
	ch.Close()

	v, err := recvWithin(t, sub, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = recvWithin(t, sub, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, ch.SubscriberCount())
	assert.Equal(t, 0, ch.Publish(8))
}

func TestChannel_SubscribeAfterClose(t *testing.T) {
	ch := NewChannel[int]()
	ch.Close()
	ch.Close()

	sub := ch.Subscribe()
	_, err := recvWithin(t, sub, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, ch.SubscriberCount())
}

func TestSubscription_CloseDeregisters(t *testing.T) {
	ch := NewChannel[int]()
	a := ch.Subscribe()
	b := ch.Subscribe()
	require.Equal(t, 2, ch.SubscriberCount())

	a.Close()
	a.Close()
	assert.Equal(t, 1, ch.SubscriberCount())

	_, err := recvWithin(t, a, time.Second)
	assert.ErrorIs(t, err, ErrClosed)

	assert.Equal(t, 1, ch.Publish(3))
	b.Close()
	assert.Equal(t, 0, ch.SubscriberCount())
}

func TestSubscription_RecvHonorsContext(t *testing.T) {
	ch := NewChannel[int]()
	sub := ch.Subscribe()
	t.Cleanup(sub.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sub.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChannel_ConcurrentSubscribeAndPublish(t *testing.T) {
	ch := NewChannel[int]()
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := ch.Subscribe()
			for i := range 10 {
				ch.Publish(i)
			}
			sub.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, ch.SubscriberCount())
}
