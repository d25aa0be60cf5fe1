package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/ilpomo/open-core/errors"
)

func TestQueueFIFO(t *testing.T) {
	q := New[int]()
	defer q.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, 10, q.Len())

	for i := 0; i < 10; i++ {
		item, err := q.Pop(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, item)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := New[string]()
	defer q.Close()

	result := make(chan string, 1)
	go func() {
		item, err := q.Pop(context.Background())
		if err == nil {
			result <- item
		}
	}()

	// The popper must be parked, not failing fast.
	select {
	case <-result:
		t.Fatal("Pop returned before any Push")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.Push("late"))

	select {
	case item := <-result:
		assert.Equal(t, "late", item)
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake up after Push")
	}
}

func TestQueuePopCancellation(t *testing.T) {
	q := New[int]()
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(ctx)
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe cancellation")
	}
}

func TestQueueTryPop(t *testing.T) {
	q := New[int]()
	defer q.Close()

	_, ok := q.TryPop()
	assert.False(t, ok)

	require.NoError(t, q.Push(1))
	item, ok := q.TryPop()
	assert.True(t, ok)
	assert.Equal(t, 1, item)
}

func TestQueueClear(t *testing.T) {
	q := New[int]()
	defer q.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Push(i))
	}

	assert.Equal(t, 5, q.Clear())
	assert.Equal(t, 0, q.Len())

	// Still usable after Clear.
	require.NoError(t, q.Push(42))
	item, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, item)
}

func TestQueueClose(t *testing.T) {
	q := New[int]()
	require.NoError(t, q.Push(1))

	q.Close()
	q.Close() // idempotent

	// Leftover items drain first.
	item, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, item)

	_, err = q.Pop(context.Background())
	assert.ErrorIs(t, err, cerrors.ErrQueueClosed)

	err = q.Push(2)
	assert.ErrorIs(t, err, cerrors.ErrQueueClosed)
}

func TestQueueCloseWakesWaiters(t *testing.T) {
	q := New[int]()

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Pop(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, cerrors.ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe Close")
	}
}

// Every pushed item must reach exactly one popper, even with many of each.
func TestQueueConcurrentExactlyOnce(t *testing.T) {
	q := New[int]()
	defer q.Close()

	const producers = 4
	const perProducer = 250
	const total = producers * perProducer

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Push(base + i)
			}
		}(p * perProducer)
	}

	results := make(chan int, total)
	for c := 0; c < 4; c++ {
		go func() {
			for {
				item, err := q.Pop(context.Background())
				if err != nil {
					return
				}
				results <- item
			}
		}()
	}

	wg.Wait()

	seen := make(map[int]struct{}, total)
	for i := 0; i < total; i++ {
		select {
		case item := <-results:
			_, dup := seen[item]
			require.False(t, dup, "item %d delivered twice", item)
			seen[item] = struct{}{}
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d of %d items delivered", i, total)
		}
	}

	stats := q.Stats()
	assert.Equal(t, int64(total), stats.Pushed)
	assert.Equal(t, int64(total), stats.Popped)
}

func TestQueueStats(t *testing.T) {
	q := New[int]()
	defer q.Close()

	_ = q.Push(1)
	_ = q.Push(2)
	_, _ = q.Pop(context.Background())
	q.Clear()

	stats := q.Stats()
	assert.Equal(t, int64(2), stats.Pushed)
	assert.Equal(t, int64(1), stats.Popped)
	assert.Equal(t, int64(1), stats.Discarded)
}
