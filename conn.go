package netio

import (
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ichramm/netio/debug"
)

// BufferLength is the scratch chunk size: every read and write moves through
// the kernel in transfers of at most this many bytes.
const BufferLength = 1024

// ConnectCallback receives the outcome of a Connect.
type ConnectCallback func(err error)

// ReadCallback receives the outcome of a stream Read. On success data holds
// exactly the requested number of bytes; on error data is nil and any
// partially accumulated bytes are discarded.
type ReadCallback func(err error, data []byte)

// WriteCallback receives the outcome of a Write. On error an unknown prefix
// of the buffer may already have been transmitted.
type WriteCallback func(err error)

// TCPConn is an asynchronous stream connection handle. It owns one socket
// and allows at most one outstanding read and one outstanding write at a
// time; the two directions are independent and may proceed concurrently.
//
// All methods return immediately. Results arrive through the callback,
// invoked exactly once from a reactor worker, unless the method itself
// returned a non-nil error (in which case the callback never fires).
type TCPConn struct {
	reactor *Reactor

	mu   sync.Mutex
	conn net.Conn

	// Scratch buffers staging data between the socket and the logical byte
	// sequence. Safe without locking: the pending-operation flags guarantee a
	// single user per buffer.
	readScratch  [BufferLength]byte
	writeScratch [BufferLength]byte

	connecting atomic.Bool
	reading    atomic.Bool
	writing    atomic.Bool
	closed     atomic.Bool

	onClose func(*TCPConn) // set by the listener for registry cleanup.
}

// NewTCPConn creates an unconnected stream handle scheduled on r.
func NewTCPConn(r *Reactor) *TCPConn {
	return &TCPConn{reactor: r}
}

// newAcceptedConn wraps a socket produced by the listener's acceptor.
func newAcceptedConn(r *Reactor, nc net.Conn) *TCPConn {
	return &TCPConn{reactor: r, conn: nc}
}

// Connect resolves host and connects to host:port. The callback receives nil
// on success, an ErrResolve-kind error if the lookup failed, or an
// ErrConnect-kind error if the connection attempt failed. At most one
// connect may be outstanding; there is no automatic retry.
func (c *TCPConn) Connect(host string, port uint16, cb ConnectCallback) error {
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
	debug.Tracef(debug.TCPTrace, "connecting to %s", addr)

	c.reactor.execute(func() {
		raddr, err := net.ResolveTCPAddr("tcp", addr)
		if err != nil {
			c.connecting.Store(false)
			c.complete(func() { cb(wrapError(ErrResolve, err)) })

			return
		}

		nc, err := net.DialTCP("tcp", nil, raddr)
		if err != nil {
			c.connecting.Store(false)
			c.complete(func() { cb(wrapError(ErrConnect, err)) })

			return
		}

		c.mu.Lock()
		c.conn = nc
		c.mu.Unlock()

		// Connect raced with Close; release the socket instead of leaking it.
		if c.closed.Load() {
			_ = nc.Close()
		}

		c.connecting.Store(false)
		c.complete(func() { cb(nil) })
	})

	return nil
}

// Read delivers exactly n bytes to the callback, never a short read. The
// transfer is chunked through the read scratch buffer and accumulated until
// n bytes are available or an I/O error aborts the operation; the caller
// never sees partial data. A second Read while one is outstanding is
// rejected with ErrReadPending.
func (c *TCPConn) Read(n int, cb ReadCallback) error {
	if cb == nil {
		return ErrNilHandler
	}
	if n < 0 {
		return ErrNegativeLength
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

	debug.Tracef(debug.TCPTrace, "asked to read %d bytes", n)

	c.reactor.execute(func() {
		data, err := c.readExact(conn, n)
		c.reading.Store(false)
		if err != nil {
			c.complete(func() { cb(wrapError(ErrIO, err), nil) })

			return
		}

		c.complete(func() { cb(nil, data) })
	})

	return nil
}

// readExact accumulates exactly n bytes from conn in ≤BufferLength chunks.
func (c *TCPConn) readExact(conn net.Conn, n int) ([]byte, error) {
	data := make([]byte, n)

	offset := 0
	for offset < n {
		chunk := n - offset
		if chunk > BufferLength {
			chunk = BufferLength
		}

		m, err := io.ReadFull(conn, c.readScratch[:chunk])
		if m > 0 {
			copy(data[offset:], c.readScratch[:m])
			offset += m
		}
		if err != nil {
			return nil, err
		}
	}

	if n < BufferLength {
		debug.Dump(debug.TCPTrace, os.Stderr, "Read:", data)
	}
	bytesRead.Add(float64(n))

	return data, nil
}

// Write sends the entire buffer. The buffer is snapshotted before Write
// returns, so the caller may reuse or discard it immediately. The transfer
// is chunked through the write scratch buffer until every byte is sent or an
// I/O error aborts; on error the callback reports it but bytes already
// transmitted cannot be retracted. A second Write while one is outstanding
// is rejected with ErrWritePending.
func (c *TCPConn) Write(data []byte, cb WriteCallback) error {
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
	if !c.writing.CompareAndSwap(false, true) {
		return ErrWritePending
	}

	debug.Tracef(debug.TCPTrace, "asked to write buffer of %d bytes", len(data))
	if len(data) < BufferLength {
		debug.Dump(debug.TCPTrace, os.Stderr, "Write:", data)
	}

	// Decouple the physical sends from the caller's buffer.
	pending := GetBuffer(len(data))
	copy(pending, data)

	c.reactor.execute(func() {
		err := c.writeAll(conn, pending)
		PutBuffer(pending)
		c.writing.Store(false)
		c.complete(func() { cb(wrapError(ErrIO, err)) })
	})

	return nil
}

// writeAll sends data in ≤BufferLength chunks through the write scratch.
func (c *TCPConn) writeAll(conn net.Conn, data []byte) error {
	sent := 0
	for sent < len(data) {
		chunk := len(data) - sent
		if chunk > BufferLength {
			chunk = BufferLength
		}
		copy(c.writeScratch[:chunk], data[sent:sent+chunk])

		m, err := conn.Write(c.writeScratch[:chunk])
		sent += m
		if err != nil {
			return err
		}
	}

	bytesWritten.Add(float64(len(data)))

	return nil
}

// Close closes the underlying socket. In-flight operations complete with an
// error. Safe to call multiple times.
func (c *TCPConn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if conn := c.current(); conn != nil {
		err = conn.Close()
	}
	if c.onClose != nil {
		c.onClose(c)
	}

	return err
}

// LocalAddr returns the local address, or nil if not connected.
func (c *TCPConn) LocalAddr() net.Addr {
	if conn := c.current(); conn != nil {
		return conn.LocalAddr()
	}

	return nil
}

// RemoteAddr returns the peer address, or nil if not connected.
func (c *TCPConn) RemoteAddr() net.Addr {
	if conn := c.current(); conn != nil {
		return conn.RemoteAddr()
	}

	return nil
}

func (c *TCPConn) current() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn
}

// complete posts a callback invocation to the reactor.
func (c *TCPConn) complete(fn func()) {
	c.reactor.Post(fn)
}
