// Package netio provides asynchronous, byte-exact stream I/O over TCP,
// datagram I/O over UDP, and a multi-threaded listener for accepting
// inbound connections.
//
// Features:
//   - Reactor: a shared completion loop pumped by worker goroutines; all
//     results are delivered through callbacks, no call blocks its caller.
//   - TCPConn: connect, read-exactly-N-bytes, write-the-whole-buffer. Reads
//     and writes are chunked through a fixed scratch buffer and may proceed
//     concurrently on the same handle (full duplex).
//   - UDPConn: peer-address fixing connect, one-full-datagram-per-call read,
//     single-datagram write.
//   - Listener: binds to an address/port, drives its reactor with a
//     configurable worker pool, and perpetually accepts connections into a
//     user-supplied handler.
//
// Basic Server Example:
//
//	l := netio.NewListener(9000, "")
//	err := l.Start(func(err error, c *netio.TCPConn) {
//	    if err != nil {
//	        // listener is no longer accepting; restart it or give up
//	        return
//	    }
//	    c.Read(4, func(err error, data []byte) {
//	        // exactly 4 bytes, or err
//	    })
//	})
//	defer l.Stop()
//
// Basic Client Example:
//
//	r := netio.NewReactor()
//	go r.Run()
//	defer r.Stop()
//	c := netio.NewTCPConn(r)
//	c.Connect("localhost", 9000, func(err error) {
//	    if err == nil {
//	        c.Write([]byte("ping"), func(err error) { /* ... */ })
//	    }
//	})
//
// A handle with an operation outstanding is kept alive by the operation
// itself; callers may drop their own reference at any time. Closing the
// socket is the only cancellation mechanism: in-flight operations then
// complete with an error instead of hanging.
package netio
