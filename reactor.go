package netio

import (
	"sync"

	"github.com/panjf2000/ants/v2"
)

// defaultTaskBacklog is the capacity of the reactor completion queue.
const defaultTaskBacklog = 256

// Reactor dispatches completion callbacks to the goroutines pumping Run.
// Blocking socket operations are launched on an internal goroutine pool and
// post their completions back to the reactor, so no operation ever blocks
// the goroutine that issued it.
//
// A Reactor is shared: all handles created against it, and the listener's
// whole worker pool, schedule through the same instance.
type Reactor struct {
	mu      sync.Mutex
	tasks   chan func()
	quit    chan struct{}
	ops     *ants.Pool
	stopped bool
}

// NewReactor creates a reactor ready to be pumped with Run.
func NewReactor() *Reactor {
	// Unbounded pool: operations park in blocking socket calls and must not
	// starve each other.
	ops, err := ants.NewPool(-1)
	if err != nil {
		panic(err)
	}

	return &Reactor{
		tasks: make(chan func(), defaultTaskBacklog),
		quit:  make(chan struct{}),
		ops:   ops,
	}
}

// Run pumps completion callbacks until Stop is called. Every goroutine of a
// worker pool drives the same reactor by calling Run; callbacks execute on
// whichever pumping goroutine picks them up.
func (r *Reactor) Run() {
	r.mu.Lock()
	tasks, quit := r.tasks, r.quit
	r.mu.Unlock()

	for {
		select {
		case <-quit:
			return
		case fn := <-tasks:
			fn()
		}
	}
}

// Post schedules fn to run on a pumping goroutine. Posts issued after Stop
// are dropped, mirroring the pending work a stopped event loop abandons.
func (r *Reactor) Post(fn func()) {
	r.mu.Lock()
	tasks, quit := r.tasks, r.quit
	r.mu.Unlock()

	select {
	case tasks <- fn:
	case <-quit:
	}
}

// Stop terminates every goroutine blocked in Run. Pending completions are
// discarded. Safe to call multiple times.
func (r *Reactor) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopped = true
	close(r.quit)
}

// Reset re-arms a stopped reactor so it can be pumped again. Completions
// left over from the previous run are dropped.
func (r *Reactor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.stopped {
		return
	}
	r.stopped = false
	r.quit = make(chan struct{})
	r.tasks = make(chan func(), defaultTaskBacklog)
}

// execute launches a blocking operation on the pool. The operation is
// responsible for posting its own completion.
func (r *Reactor) execute(op func()) {
	if err := r.ops.Submit(op); err != nil {
		// Pool rejected the task; fall back to a plain goroutine so the
		// operation still terminates with exactly one callback.
		go op()
	}
}
