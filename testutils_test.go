package netio

import (
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

// startReactor returns a reactor pumped by the given number of goroutines,
// stopped when the test finishes.
func startReactor(t *testing.T, workers int) *Reactor {
	t.Helper()

	r := NewReactor()
	for i := 0; i < workers; i++ {
		go r.Run()
	}
	t.Cleanup(r.Stop)

	return r
}

// spinEchoServer starts a raw loopback TCP server that echoes every byte it
// receives, closed when the test finishes.
func spinEchoServer(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}

			go func(conn net.Conn) {
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}(conn)
		}
	}()

	return l.Addr().String()
}

// splitAddr breaks a host:port string into Connect arguments.
func splitAddr(t *testing.T, addr string) (string, uint16) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return host, uint16(port)
}

// dialTCP connects a new handle to addr and waits for the connect callback.
func dialTCP(t *testing.T, r *Reactor, addr string) *TCPConn {
	t.Helper()

	host, port := splitAddr(t, addr)
	c := NewTCPConn(r)
	t.Cleanup(func() { _ = c.Close() })

	errCh := make(chan error, 1)
	require.NoError(t, c.Connect(host, port, func(err error) { errCh <- err }))
	require.NoError(t, awaitErr(t, errCh))

	return c
}

// awaitErr receives one error from ch or fails the test on timeout.
func awaitErr(t *testing.T, ch <-chan error) error {
	t.Helper()

	select {
	case err := <-ch:
		return err
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for callback")

		return nil
	}
}

// patternBytes produces a deterministic byte sequence of length n.
func patternBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31 + 7)
	}

	return data
}
