package netio

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReactorPostRuns(t *testing.T) {
	r := NewReactor()
	go r.Run()
	defer r.Stop()

	done := make(chan struct{})
	r.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("posted task did not run")
	}
}

func TestReactorStopTerminatesRun(t *testing.T) {
	r := NewReactor()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Run()
		}()
	}

	r.Stop()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("Run did not return after Stop")
	}

	// Posts after Stop are dropped without blocking.
	r.Post(func() {})
}

func TestReactorReset(t *testing.T) {
	r := NewReactor()
	go r.Run()
	r.Stop()

	// Reset re-arms the stopped reactor.
	r.Reset()
	go r.Run()
	defer r.Stop()

	done := make(chan struct{})
	r.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("posted task did not run after Reset")
	}
}

func TestReactorCallbacksSpreadAcrossWorkers(t *testing.T) {
	r := startReactor(t, 4)

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		r.Post(func() {
			ran.Add(1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		require.Equal(t, int32(100), ran.Load())
	case <-time.After(testTimeout):
		t.Fatal("posted tasks did not all run")
	}
}
