package netio

import "errors"

// Error kinds. Asynchronous failures delivered to callbacks wrap one of
// these, so callers can classify with errors.Is while still unwrapping the
// underlying cause.
var (
	// ErrResolve indicates a host name lookup failed.
	ErrResolve = errors.New("name resolution failed")

	// ErrConnect indicates a connection attempt failed.
	ErrConnect = errors.New("connect failed")

	// ErrIO indicates a read or write chunk failed, including peer close.
	ErrIO = errors.New("i/o error")

	// ErrListen indicates a bind or accept failure.
	ErrListen = errors.New("listen failed")
)

// Misuse errors. These are returned synchronously by the method itself;
// the operation callback is never invoked in that case.
var (
	// ErrConnectPending indicates a connect is already outstanding.
	ErrConnectPending = errors.New("connect already in progress")

	// ErrReadPending indicates a read is already outstanding on the handle.
	ErrReadPending = errors.New("read already in progress")

	// ErrWritePending indicates a write is already outstanding on the handle.
	ErrWritePending = errors.New("write already in progress")

	// ErrNotConnected indicates the handle has no underlying socket yet.
	ErrNotConnected = errors.New("not connected")

	// ErrAlreadyConnected indicates the handle already has a socket.
	ErrAlreadyConnected = errors.New("already connected")

	// ErrClosed indicates the handle has been closed.
	ErrClosed = errors.New("connection closed")

	// ErrRunning indicates the listener is already started.
	ErrRunning = errors.New("listener is running")

	// ErrNegativeLength indicates a read was requested with n < 0.
	ErrNegativeLength = errors.New("negative read length")

	// ErrNilHandler indicates a nil callback or handler was supplied.
	ErrNilHandler = errors.New("handler is required")

	// ErrDatagramTooLarge indicates a datagram payload exceeds MaxDatagramSize.
	ErrDatagramTooLarge = errors.New("datagram exceeds maximum size")
)

// kindError attaches an error kind to an underlying cause. errors.Is matches
// the kind, errors.Unwrap yields the cause.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.err.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.err
}

// wrapError classifies err under kind. Returns nil if err is nil.
func wrapError(kind, err error) error {
	if err == nil {
		return nil
	}

	return &kindError{kind: kind, err: err}
}
