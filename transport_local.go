package lirc

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/pior/lirc/internal"
	"github.com/pior/lirc/protocol"
)

// MaxLocalReplySize bounds a single LocalTransport read. Bytes of a reply
// beyond it are not returned by Receive.
const MaxLocalReplySize = 16 * 1024

var readBuffers = internal.NewBufferPool(MaxLocalReplySize)

// LocalTransport talks to lircd over its unix domain socket.
//
// Receive performs a single read of at most MaxLocalReplySize bytes and splits
// it into lines. Replies larger than the bound are truncated.
type LocalTransport struct {
	path   string
	dialer *net.Dialer

	mu   sync.Mutex
	conn net.Conn
}

var _ Transport = (*LocalTransport)(nil)

// NewLocalTransport returns an unconnected transport for the socket at path.
func NewLocalTransport(path string, dialer *net.Dialer) *LocalTransport {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &LocalTransport{path: path, dialer: dialer}
}

func (t *LocalTransport) Addr() string {
	return t.path
}

func (t *LocalTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return &ConnectionError{Op: "connect", Addr: t.path, Err: ErrAlreadyConnected}
	}

	conn, err := t.dialer.DialContext(ctx, "unix", t.path)
	if err != nil {
		return &ConnectionError{Op: "connect", Addr: t.path, Err: err}
	}

	t.conn = conn
	return nil
}

func (t *LocalTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return &ConnectionError{Op: "close", Addr: t.path, Err: err}
	}
	return nil
}

func (t *LocalTransport) Send(ctx context.Context, command string) error {
	conn := t.active()
	if conn == nil {
		return &IOError{Op: "send", Err: ErrNotConnected}
	}

	if err := setDeadline(ctx, conn); err != nil {
		return &IOError{Op: "send", Err: err}
	}

	if _, err := io.WriteString(conn, command+protocol.LF); err != nil {
		return &IOError{Op: "send", Err: err}
	}
	return nil
}

func (t *LocalTransport) Receive(ctx context.Context) ([]string, error) {
	conn := t.active()
	if conn == nil {
		return nil, &IOError{Op: "receive", Err: ErrNotConnected}
	}

	if err := setDeadline(ctx, conn); err != nil {
		return nil, &IOError{Op: "receive", Err: err}
	}

	buf := readBuffers.Get()
	defer readBuffers.Put(buf)

	n, err := conn.Read(*buf)
	if n == 0 {
		if err == nil {
			err = io.ErrNoProgress
		}
		return nil, &IOError{Op: "receive", Err: err}
	}

	return splitLines(string((*buf)[:n])), nil
}

func (t *LocalTransport) active() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

// splitLines splits on LF and drops trailing empty elements.
func splitLines(s string) []string {
	lines := strings.Split(s, protocol.LF)
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
