package netio

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ichramm/netio/debug"
)

// DefaultWorkerCount is the number of goroutines pumping the listener's
// reactor unless SetWorkerCount says otherwise.
const DefaultWorkerCount = 2

// AcceptHandler receives the outcome of each accept. On success err is nil
// and conn is the new handle; on accept failure err is set, conn is nil, and
// the listener stops accepting until restarted. The handler must be safe to
// call concurrently: distinct connections may be delivered simultaneously
// from different worker goroutines.
type AcceptHandler func(err error, conn *TCPConn)

// Listener accepts inbound TCP connections on one address/port and hands
// each to a handler. It owns a reactor driven by a fixed pool of worker
// goroutines; accepted handles are scheduled on that same reactor.
//
// While running, exactly one accept is outstanding at all times; a fresh
// accept is armed the moment the previous one completes successfully.
type Listener struct {
	address string
	port    uint16

	// lifecycle serializes Start and Stop so an overlapping pair cannot
	// interleave bind/teardown of the shared reactor.
	lifecycle sync.Mutex

	mu      sync.Mutex
	reactor *Reactor
	workers int
	ln      net.Listener
	handler AcceptHandler
	eg      *errgroup.Group
	running bool

	stopping atomic.Bool

	// Live accepted connections, keyed by remote address. Entries are
	// removed when the handle closes; Stop closes whatever remains so
	// in-flight operations terminate and the worker pool can be joined.
	conns cmap.ConcurrentMap[string, *TCPConn]
}

// NewListener creates a listener for address:port. An empty address means
// all interfaces; port 0 picks an ephemeral port (see Addr).
func NewListener(port uint16, address string) *Listener {
	return &Listener{
		address: address,
		port:    port,
		reactor: NewReactor(),
		workers: DefaultWorkerCount,
		conns:   cmap.New[*TCPConn](),
	}
}

// SetWorkerCount resizes the worker pool. Must be called before Start.
func (l *Listener) SetWorkerCount(n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrRunning
	}
	if n < 1 {
		n = 1
	}
	l.workers = n

	return nil
}

// Reactor returns the reactor shared by the worker pool and every accepted
// handle.
func (l *Listener) Reactor() *Reactor {
	return l.reactor
}

// Addr returns the actual bound address while running, or nil.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln == nil {
		return nil
	}

	return l.ln.Addr()
}

// Start binds the acceptor, spins up the worker pool, and arms the first
// accept. Returns an ErrListen-kind error if the bind fails. The handler is
// invoked for every accept completion until an accept error occurs or Stop
// is called.
func (l *Listener) Start(handler AcceptHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrRunning
	}

	addr := net.JoinHostPort(l.address, strconv.Itoa(int(l.port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return wrapError(ErrListen, err)
	}

	debug.Tracef(debug.TCPTrace, "listening on %s", ln.Addr())

	l.ln = ln
	l.handler = handler
	l.stopping.Store(false)
	l.running = true

	// Allows start() -> stop() -> start().
	l.reactor.Reset()

	l.eg = &errgroup.Group{}
	for i := 0; i < l.workers; i++ {
		l.eg.Go(func() error {
			l.reactor.Run()

			return nil
		})
	}

	l.acceptNext(ln)

	return nil
}

// Stop closes the acceptor, closes every live accepted connection, stops the
// reactor, and joins all worker goroutines. Blocking; safe to call multiple
// times. A subsequent Start behaves like a fresh instance.
func (l *Listener) Stop() error {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()

	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()

		return nil
	}
	l.running = false
	l.stopping.Store(true)
	ln, eg := l.ln, l.eg
	l.ln = nil
	l.mu.Unlock()

	err := ln.Close()

	for _, c := range l.conns.Items() {
		_ = c.Close()
	}

	l.reactor.Stop()
	_ = eg.Wait()

	l.mu.Lock()
	l.handler = nil
	l.mu.Unlock()

	return err
}

// acceptNext arms one accept against ln. On success the connection is
// registered, the next accept is armed, and the handler invocation is posted
// to the reactor. On failure the handler is notified once and the chain ends;
// errors caused by Stop itself are suppressed.
func (l *Listener) acceptNext(ln net.Listener) {
	l.reactor.execute(func() {
		nc, err := ln.Accept()
		if err != nil {
			if l.stopping.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			l.reactor.Post(func() { l.invokeHandler(wrapError(ErrListen, err), nil) })

			return
		}

		key := nc.RemoteAddr().String()
		conn := newAcceptedConn(l.reactor, nc)
		conn.onClose = func(*TCPConn) {
			l.conns.Remove(key)
			activeConnections.Dec()
		}
		l.conns.Set(key, conn)

		connectionsAccepted.Inc()
		activeConnections.Inc()
		debug.Tracef(debug.TCPTrace, "accepted connection from %s", key)

		l.acceptNext(ln)
		l.reactor.Post(func() { l.invokeHandler(nil, conn) })
	})
}

func (l *Listener) invokeHandler(err error, conn *TCPConn) {
	l.mu.Lock()
	handler := l.handler
	l.mu.Unlock()

	if handler != nil {
		handler(err, conn)
	}
}
