package netio

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// bindUDP opens a receiver on a loopback ephemeral port.
func bindUDP(t *testing.T, r *Reactor) *UDPConn {
	t.Helper()

	c := NewUDPConn(r)
	require.NoError(t, c.Bind("127.0.0.1", 0))
	t.Cleanup(func() { _ = c.Close() })

	return c
}

// dialUDP fixes the peer address of a new handle to addr.
func dialUDP(t *testing.T, r *Reactor, addr net.Addr) *UDPConn {
	t.Helper()

	host, port := splitAddr(t, addr.String())
	c := NewUDPConn(r)
	t.Cleanup(func() { _ = c.Close() })

	errCh := make(chan error, 1)
	require.NoError(t, c.Connect(host, port, func(err error) { errCh <- err }))
	require.NoError(t, awaitErr(t, errCh))

	return c
}

// readDatagram issues one read and waits for its callback.
func readDatagram(t *testing.T, c *UDPConn) (*net.UDPAddr, []byte) {
	t.Helper()

	errCh := make(chan error, 1)
	var (
		sender *net.UDPAddr
		data   []byte
	)
	require.NoError(t, c.Read(func(err error, from *net.UDPAddr, got []byte) {
		sender = from
		data = got
		errCh <- err
	}))
	require.NoError(t, awaitErr(t, errCh))

	return sender, data
}

func TestDatagramRoundTrip(t *testing.T) {
	r := startReactor(t, 2)

	receiver := bindUDP(t, r)
	sender := dialUDP(t, r, receiver.LocalAddr())

	payload := patternBytes(300)
	writeCh := make(chan error, 1)
	require.NoError(t, sender.Write(payload, func(err error) { writeCh <- err }))
	require.NoError(t, awaitErr(t, writeCh))

	from, got := readDatagram(t, receiver)
	require.True(t, bytes.Equal(payload, got))
	require.Equal(t, sender.LocalAddr().String(), from.String())
}

// TestDatagramBoundariesPreserved sends two datagrams of different sizes
// back to back; each read delivers exactly one of them, never merged or
// truncated. The second is larger than the stream chunk size, proving a
// logical write is a single physical datagram.
func TestDatagramBoundariesPreserved(t *testing.T) {
	r := startReactor(t, 2)

	receiver := bindUDP(t, r)
	sender := dialUDP(t, r, receiver.LocalAddr())

	first := patternBytes(100)
	second := patternBytes(BufferLength + 476)

	for _, payload := range [][]byte{first, second} {
		writeCh := make(chan error, 1)
		require.NoError(t, sender.Write(payload, func(err error) { writeCh <- err }))
		require.NoError(t, awaitErr(t, writeCh))
	}

	_, got := readDatagram(t, receiver)
	require.Equal(t, len(first), len(got))
	require.True(t, bytes.Equal(first, got))

	_, got = readDatagram(t, receiver)
	require.Equal(t, len(second), len(got))
	require.True(t, bytes.Equal(second, got))
}

func TestDatagramTooLarge(t *testing.T) {
	r := startReactor(t, 1)

	receiver := bindUDP(t, r)
	sender := dialUDP(t, r, receiver.LocalAddr())

	oversized := make([]byte, MaxDatagramSize+1)
	require.ErrorIs(t, sender.Write(oversized, func(error) {}), ErrDatagramTooLarge)
}

func TestDatagramMisuse(t *testing.T) {
	r := startReactor(t, 1)

	t.Run("second read rejected", func(t *testing.T) {
		receiver := bindUDP(t, r)

		require.NoError(t, receiver.Read(func(error, *net.UDPAddr, []byte) {}))
		require.ErrorIs(t, receiver.Read(func(error, *net.UDPAddr, []byte) {}), ErrReadPending)
	})

	t.Run("not connected", func(t *testing.T) {
		c := NewUDPConn(r)
		require.ErrorIs(t, c.Read(func(error, *net.UDPAddr, []byte) {}), ErrNotConnected)
		require.ErrorIs(t, c.Write([]byte("x"), func(error) {}), ErrNotConnected)
	})

	t.Run("resolution error", func(t *testing.T) {
		c := NewUDPConn(r)
		errCh := make(chan error, 1)
		require.NoError(t, c.Connect("host.invalid", 1, func(err error) { errCh <- err }))

		err := awaitErr(t, errCh)
		require.ErrorIs(t, err, ErrResolve)
	})

	t.Run("read error after close", func(t *testing.T) {
		receiver := bindUDP(t, r)

		errCh := make(chan error, 1)
		require.NoError(t, receiver.Read(func(err error, _ *net.UDPAddr, _ []byte) { errCh <- err }))
		require.NoError(t, receiver.Close())

		err := awaitErr(t, errCh)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrIO)
	})
}
