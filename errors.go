package lirc

import (
	"errors"
	"fmt"

	"github.com/pior/lirc/protocol"
)

var (
	// ErrNotConnected is wrapped by an IOError when a transport is used before
	// Connect or after Close.
	ErrNotConnected = errors.New("lirc: transport not connected")

	// ErrAlreadyConnected is wrapped by a ConnectionError when Connect is
	// called on a connected transport.
	ErrAlreadyConnected = errors.New("lirc: transport already connected")

	// ErrUnknownConnectionKind is returned for a ConnectionKind outside the
	// known set.
	ErrUnknownConnectionKind = errors.New("lirc: unknown connection kind")
)

// ConnectionError reports a failure to open or close the channel to the daemon.
// It is never retried.
type ConnectionError struct {
	Op   string // connect, close or parse kind
	Addr string // daemon address
	Err  error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("lirc: %s %s: %v", e.Op, e.Addr, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IOError reports a read or write failure on an open channel, or the use of a
// channel that is not open. The connection is not re-established.
type IOError struct {
	Op  string // send or receive
	Err error  // Underlying error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("lirc: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *IOError) Unwrap() error {
	return e.Err
}

// ShouldCloseConnection reports whether err leaves the connection in an
// unknown state, so that it must not be used for another request.
//
// Returns true for:
//   - ConnectionError
//   - IOError
//   - protocol.FramingError
//   - context cancellation and deadline errors
//   - any other non-nil error
//
// Returns false for:
//   - protocol.InvalidRequestError, which is detected before anything is sent
//   - nil
func ShouldCloseConnection(err error) bool {
	if err == nil {
		return false
	}

	var invalid *protocol.InvalidRequestError
	if errors.As(err, &invalid) {
		return false
	}

	// Unknown error type - be conservative and close connection
	return true
}
