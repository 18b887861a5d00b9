package lirc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/pior/lirc/protocol"
)

// StreamTransport talks to lircd over TCP.
//
// Receive reads whole lines for as long as the connection has buffered data,
// so a reply written by the daemon in one go is returned by one call.
type StreamTransport struct {
	addr   string
	dialer *net.Dialer

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

var _ Transport = (*StreamTransport)(nil)

// NewStreamTransport returns an unconnected transport for addr (host:port).
func NewStreamTransport(addr string, dialer *net.Dialer) *StreamTransport {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &StreamTransport{addr: addr, dialer: dialer}
}

func (t *StreamTransport) Addr() string {
	return t.addr
}

func (t *StreamTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return &ConnectionError{Op: "connect", Addr: t.addr, Err: ErrAlreadyConnected}
	}

	conn, err := t.dialer.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return &ConnectionError{Op: "connect", Addr: t.addr, Err: err}
	}

	t.conn = conn
	t.reader = bufio.NewReader(conn)
	return nil
}

func (t *StreamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	if err != nil {
		return &ConnectionError{Op: "close", Addr: t.addr, Err: err}
	}
	return nil
}

func (t *StreamTransport) Send(ctx context.Context, command string) error {
	conn, _ := t.active()
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

func (t *StreamTransport) Receive(ctx context.Context) ([]string, error) {
	conn, reader := t.active()
	if conn == nil {
		return nil, &IOError{Op: "receive", Err: ErrNotConnected}
	}

	if err := setDeadline(ctx, conn); err != nil {
		return nil, &IOError{Op: "receive", Err: err}
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && (len(lines) > 0 || line != "") {
				if line != "" {
					lines = append(lines, trimLineEnd(line))
				}
				return lines, nil
			}
			return nil, &IOError{Op: "receive", Err: err}
		}

		lines = append(lines, trimLineEnd(line))

		// Stop on a line boundary once the buffered data is consumed; the
		// next read would block.
		if reader.Buffered() == 0 {
			return lines, nil
		}
	}
}

func (t *StreamTransport) active() (net.Conn, *bufio.Reader) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn, t.reader
}

func trimLineEnd(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
