package syncutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEventSetReleasesAllWaiters(t *testing.T) {
	e := NewEvent()
	require.False(t, e.IsSet())

	const waiters = 5
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Wait()
		}()
	}

	// Let the waiters block.
	time.Sleep(20 * time.Millisecond)
	e.Set()
	require.True(t, e.IsSet())

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("waiters were not released")
	}

	// The condition stays set: a late waiter returns immediately.
	e.Wait()
}

func TestEventWaitTimeout(t *testing.T) {
	e := NewEvent()

	start := time.Now()
	require.False(t, e.WaitTimeout(50*time.Millisecond))
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	go func() {
		time.Sleep(10 * time.Millisecond)
		e.Set()
	}()
	require.True(t, e.WaitTimeout(5*time.Second))
}

func TestEventReset(t *testing.T) {
	e := NewEvent()

	e.Set()
	require.True(t, e.IsSet())

	e.Reset()
	require.False(t, e.IsSet())
	require.False(t, e.WaitTimeout(20*time.Millisecond))
}
