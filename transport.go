package lirc

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the TCP port lircd listens on when started with --listen.
const DefaultPort = 8765

// DefaultSocketPath is where lircd creates its local socket by default.
const DefaultSocketPath = "/var/run/lirc/lircd"

// Transport delivers request lines to the daemon and raw reply lines back.
//
// A Transport owns its channel between Connect and Close. It is not safe for
// concurrent Send and Receive; Close may be called from another goroutine to
// unblock a pending Receive.
type Transport interface {
	// Connect opens the channel. Failures are reported as *ConnectionError.
	Connect(ctx context.Context) error

	// Close releases the channel. Closing a closed transport is a no-op.
	Close() error

	// Send writes command followed by a line terminator.
	Send(ctx context.Context, command string) error

	// Receive blocks until data is available and returns the lines that can
	// be read without blocking further.
	Receive(ctx context.Context) ([]string, error)

	// Addr returns the daemon address.
	Addr() string
}

// ConnectionKind selects the transport variant.
type ConnectionKind int

const (
	// Stream connects to a TCP endpoint, host:port.
	Stream ConnectionKind = iota
	// Local connects to a unix domain socket path.
	Local
)

func (k ConnectionKind) String() string {
	switch k {
	case Stream:
		return "stream"
	case Local:
		return "local"
	}
	return "ConnectionKind(" + strconv.Itoa(int(k)) + ")"
}

// ParseConnectionKind maps a configuration value to a ConnectionKind.
// It accepts "stream" or "tcp", and "local" or "unix".
func ParseConnectionKind(s string) (ConnectionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stream", "tcp":
		return Stream, nil
	case "local", "unix":
		return Local, nil
	}
	return 0, &ConnectionError{Op: "parse kind", Addr: s, Err: ErrUnknownConnectionKind}
}

// NewTransport creates the transport for kind. For Stream, address is the host
// and a zero port means DefaultPort; for Local, address is the socket path and
// port is ignored. A nil dialer means a zero net.Dialer.
func NewTransport(kind ConnectionKind, address string, port int, dialer *net.Dialer) (Transport, error) {
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	switch kind {
	case Stream:
		if port == 0 {
			port = DefaultPort
		}
		return NewStreamTransport(net.JoinHostPort(address, strconv.Itoa(port)), dialer), nil
	case Local:
		return NewLocalTransport(address, dialer), nil
	}

	return nil, ErrUnknownConnectionKind
}

// setDeadline applies the ctx deadline to conn, or clears it.
func setDeadline(ctx context.Context, conn net.Conn) error {
	if deadline, ok := ctx.Deadline(); ok {
		return conn.SetDeadline(deadline)
	}
	return conn.SetDeadline(time.Time{})
}
