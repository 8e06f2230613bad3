package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, Event{UserID: 1}, Event{UserID: 2}))
	require.NoError(t, q.Publish(ctx, Event{UserID: 3}))
	assert.Equal(t, 3, q.Len())

	for _, want := range []int64{1, 2, 3} {
		ev, err := q.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, ev.UserID)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_PublishNeverBlocks(t *testing.T) {
	q := NewQueue()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			_ = q.Publish(context.Background(), Event{UserID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked without a consumer")
	}
	assert.Equal(t, 10000, q.Len())
}

func TestQueue_NextWaitsForPublish(t *testing.T) {
	q := NewQueue()

	got := make(chan Event, 1)
	go func() {
		ev, err := q.Next(context.Background())
		if err == nil {
			got <- ev
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Publish(context.Background(), Event{UserID: 9}))

	select {
	case ev := <-got:
		assert.Equal(t, int64(9), ev.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer was not woken up")
	}
}

func TestQueue_NextStopsOnCancel(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = q.Publish(ctx, Event{UserID: 1})
			}
		}()
	}

	received := 0
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for received < 800 {
			if _, err := q.Next(ctx); err != nil {
				return
			}
			received++
		}
	}()

	wg.Wait()
	select {
	case <-consumed:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not receive every event")
	}
	assert.Equal(t, 800, received)
}
