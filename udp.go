package netio

import (
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ichramm/netio/debug"
)

// MaxDatagramSize is the largest payload accepted by UDPConn.Write: the
// maximum UDP payload over IPv4. A logical write is always exactly one
// physical datagram; larger payloads are rejected rather than silently
// fragmented, since the receiving side treats each datagram as atomic and
// could never reassemble them.
const MaxDatagramSize = 65507

// DatagramReadCallback receives one complete datagram and its sender, or an
// error with empty results.
type DatagramReadCallback func(err error, sender *net.UDPAddr, data []byte)

// UDPConn is an asynchronous datagram connection handle. Connect only fixes
// the default peer address (datagram sockets have no connection state);
// Bind opens a local receive socket instead.
type UDPConn struct {
	reactor *Reactor

	mu   sync.Mutex
	conn *net.UDPConn

	connecting atomic.Bool
	reading    atomic.Bool
	writing    atomic.Bool
	closed     atomic.Bool
}

// NewUDPConn creates an unbound datagram handle scheduled on r.
func NewUDPConn(r *Reactor) *UDPConn {
	return &UDPConn{reactor: r}
}

// Bind opens a socket on the local host:port for receiving. Empty host
// binds all interfaces; port 0 picks an ephemeral port. Synchronous: binding
// involves no network round trip.
func (c *UDPConn) Bind(host string, port uint16) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.current() != nil {
		return ErrAlreadyConnected
	}

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return wrapError(ErrListen, err)
	}

	nc, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return wrapError(ErrListen, err)
	}

	c.mu.Lock()
	c.conn = nc
	c.mu.Unlock()

	return nil
}

// Connect resolves host and fixes host:port as the peer for subsequent
// writes. No handshake is issued; the callback fires as soon as the peer
// address is set, with an ErrResolve- or ErrConnect-kind error on failure.
func (c *UDPConn) Connect(host string, port uint16, cb ConnectCallback) error {
	if cb == nil {
		return ErrNilHandler
	}
	if c.closed.Load() {
		return ErrClosed
	}
	if c.current() != nil {
		return ErrAlreadyConnected
	}
	if !c.connecting.CompareAndSwap(false, true) {
		return ErrConnectPending
	}

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	debug.Tracef(debug.UDPTrace, "fixing peer address %s", addr)

	c.reactor.execute(func() {
		raddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			c.connecting.Store(false)
			c.reactor.Post(func() { cb(wrapError(ErrResolve, err)) })

			return
		}

		nc, err := net.DialUDP("udp", nil, raddr)
		if err != nil {
			c.connecting.Store(false)
			c.reactor.Post(func() { cb(wrapError(ErrConnect, err)) })

			return
		}

		c.mu.Lock()
		c.conn = nc
		c.mu.Unlock()

		if c.closed.Load() {
			_ = nc.Close()
		}

		c.connecting.Store(false)
		c.reactor.Post(func() { cb(nil) })
	})

	return nil
}

// Read delivers exactly one full datagram to the callback: never more, never
// less, never merged with another. On error the callback fires once with
// empty results. A second Read while one is outstanding is rejected with
// ErrReadPending.
func (c *UDPConn) Read(cb DatagramReadCallback) error {
	if cb == nil {
		return ErrNilHandler
	}
	if c.closed.Load() {
		return ErrClosed
	}
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}
	if !c.reading.CompareAndSwap(false, true) {
		return ErrReadPending
	}

	c.reactor.execute(func() {
		scratch := GetBuffer(MaxDatagramSize)
		n, sender, err := conn.ReadFromUDP(scratch)
		if err != nil {
			PutBuffer(scratch)
			c.reading.Store(false)
			c.reactor.Post(func() { cb(wrapError(ErrIO, err), nil, nil) })

			return
		}

		// Size the result exactly to the received datagram.
		data := make([]byte, n)
		copy(data, scratch[:n])
		PutBuffer(scratch)

		debug.Tracef(debug.UDPTrace, "received %d byte datagram from %s", n, sender)
		if n < BufferLength {
			debug.Dump(debug.UDPTrace, os.Stderr, "Read:", data)
		}
		datagramsReceived.Inc()

		c.reading.Store(false)
		c.reactor.Post(func() { cb(nil, sender, data) })
	})

	return nil
}

// Write sends the buffer as a single datagram to the connected peer. The
// buffer is snapshotted before Write returns. Payloads larger than
// MaxDatagramSize are rejected with ErrDatagramTooLarge. A second Write
// while one is outstanding is rejected with ErrWritePending.
func (c *UDPConn) Write(data []byte, cb WriteCallback) error {
	if cb == nil {
		return ErrNilHandler
	}
	if len(data) > MaxDatagramSize {
		return ErrDatagramTooLarge
	}
	if c.closed.Load() {
		return ErrClosed
	}
	conn := c.current()
	if conn == nil {
		return ErrNotConnected
	}
	if !c.writing.CompareAndSwap(false, true) {
		return ErrWritePending
	}

	debug.Tracef(debug.UDPTrace, "asked to write datagram of %d bytes", len(data))
	if len(data) < BufferLength {
		debug.Dump(debug.UDPTrace, os.Stderr, "Write:", data)
	}

	pending := GetBuffer(len(data))
	copy(pending, data)

	c.reactor.execute(func() {
		_, err := conn.Write(pending)
		PutBuffer(pending)
		if err == nil {
			datagramsSent.Inc()
		}
		c.writing.Store(false)
		c.reactor.Post(func() { cb(wrapError(ErrIO, err)) })
	})

	return nil
}

// Close closes the underlying socket. In-flight operations complete with an
// error. Safe to call multiple times.
func (c *UDPConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if conn := c.current(); conn != nil {
		return conn.Close()
	}

	return nil
}

// LocalAddr returns the local address, or nil if the socket is not open.
func (c *UDPConn) LocalAddr() net.Addr {
	if conn := c.current(); conn != nil {
		return conn.LocalAddr()
	}

	return nil
}

func (c *UDPConn) current() *net.UDPConn {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn
}
