package lirc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/pior/lirc/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name     string
		kind     ConnectionKind
		address  string
		port     int
		wantType Transport
		wantAddr string
	}{
		{name: "stream default port", kind: Stream, address: "localhost", wantType: &StreamTransport{}, wantAddr: "localhost:8765"},
		{name: "stream custom port", kind: Stream, address: "10.0.0.7", port: 9000, wantType: &StreamTransport{}, wantAddr: "10.0.0.7:9000"},
		{name: "stream ipv6", kind: Stream, address: "::1", wantType: &StreamTransport{}, wantAddr: "[::1]:8765"},
		{name: "local", kind: Local, address: "/var/run/lirc/lircd", port: 1234, wantType: &LocalTransport{}, wantAddr: "/var/run/lirc/lircd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransport(tt.kind, tt.address, tt.port, nil)
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, tr)
			assert.Equal(t, tt.wantAddr, tr.Addr())
		})
	}
}

func TestNewTransportUnknownKind(t *testing.T) {
	tr, err := NewTransport(ConnectionKind(7), "localhost", 0, nil)
	assert.Nil(t, tr)
	assert.ErrorIs(t, err, ErrUnknownConnectionKind)
}

func TestParseConnectionKind(t *testing.T) {
	tests := []struct {
		in   string
		want ConnectionKind
	}{
		{"stream", Stream},
		{"tcp", Stream},
		{"TCP", Stream},
		{"local", Local},
		{" unix ", Local},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			kind, err := ParseConnectionKind(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}

	_, err := ParseConnectionKind("serial")
	assert.ErrorIs(t, err, ErrUnknownConnectionKind)
}

func TestConnectionKindString(t *testing.T) {
	assert.Equal(t, "stream", Stream.String())
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "ConnectionKind(9)", ConnectionKind(9).String())
}

func TestTransportNotConnected(t *testing.T) {
	transports := map[string]Transport{
		"stream": NewStreamTransport("127.0.0.1:1", nil),
		"local":  NewLocalTransport("/nonexistent/lircd", nil),
	}

	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := tr.Send(ctx, "LIST")
			var ioErr *IOError
			require.ErrorAs(t, err, &ioErr)
			assert.Equal(t, "send", ioErr.Op)
			assert.ErrorIs(t, err, ErrNotConnected)

			lines, err := tr.Receive(ctx)
			assert.Nil(t, lines)
			require.ErrorAs(t, err, &ioErr)
			assert.Equal(t, "receive", ioErr.Op)
			assert.ErrorIs(t, err, ErrNotConnected)

			assert.NoError(t, tr.Close())
			assert.NoError(t, tr.Close())
		})
	}
}

func TestTransportConnectFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	transports := map[string]Transport{
		"stream": NewStreamTransport(addr, nil),
		"local":  NewLocalTransport(t.TempDir()+"/missing.sock", nil),
	}

	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			err := tr.Connect(context.Background())

			var connErr *ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.Equal(t, "connect", connErr.Op)
			assert.Equal(t, tr.Addr(), connErr.Addr)
		})
	}
}

func TestTransportLifecycle(t *testing.T) {
	tcp := testutils.NewTCPDaemon(t)
	unix := testutils.NewUnixDaemon(t)

	transports := map[string]Transport{
		"stream": NewStreamTransport(tcp.Addr(), nil),
		"local":  NewLocalTransport(unix.Addr(), nil),
	}

	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, tr.Connect(ctx))
			assert.ErrorIs(t, tr.Connect(ctx), ErrAlreadyConnected)

			require.NoError(t, tr.Close())
			assert.NoError(t, tr.Close())

			assert.ErrorIs(t, tr.Send(ctx, "LIST"), ErrNotConnected)

			// A closed transport can be connected again.
			require.NoError(t, tr.Connect(ctx))
			require.NoError(t, tr.Close())
		})
	}
}

func TestTransportRoundTrip(t *testing.T) {
	tcp := testutils.NewTCPDaemon(t)
	unix := testutils.NewUnixDaemon(t)

	for _, d := range []*testutils.Daemon{tcp, unix} {
		d.Reply("LIST", testutils.SuccessReply("LIST", "tv", "amp"))
	}

	transports := map[string]Transport{
		"stream": NewStreamTransport(tcp.Addr(), nil),
		"local":  NewLocalTransport(unix.Addr(), nil),
	}

	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, tr.Connect(ctx))
			defer tr.Close()

			for range 3 {
				require.NoError(t, tr.Send(ctx, "LIST"))

				lines, err := tr.Receive(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"BEGIN", "LIST", "SUCCESS", "DATA", "2", "tv", "amp", "END"}, lines)
			}
		})
	}

	assert.Equal(t, []string{"LIST", "LIST", "LIST"}, tcp.Requests())
	assert.Equal(t, []string{"LIST", "LIST", "LIST"}, unix.Requests())
}

func TestTransportSendWritesLine(t *testing.T) {
	mock := testutils.NewConnectionMock()
	tr := &LocalTransport{path: "/var/run/lirc/lircd", dialer: &net.Dialer{}, conn: mock}

	require.NoError(t, tr.Send(context.Background(), "SEND_ONCE tv KEY_POWER 0"))
	assert.Equal(t, "SEND_ONCE tv KEY_POWER 0\n", mock.GetWrittenRequest())

	require.NoError(t, tr.Close())
	assert.True(t, mock.IsClosed())
}

func TestStreamTransportReceive(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{name: "single line", reply: "BEGIN\n", want: []string{"BEGIN"}},
		{name: "crlf terminators", reply: "BEGIN\r\nSIGHUP\r\nEND\r\n", want: []string{"BEGIN", "SIGHUP", "END"}},
		{name: "unterminated last line", reply: "BEGIN\nSIGHUP\nEND", want: []string{"BEGIN", "SIGHUP", "END"}},
		{name: "empty lines kept", reply: "BEGIN\n\nEND\n", want: []string{"BEGIN", "", "END"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutils.NewConnectionMock(tt.reply)
			tr := NewStreamTransport("127.0.0.1:8765", nil)
			tr.conn = mock
			tr.reader = bufio.NewReader(mock)

			lines, err := tr.Receive(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestStreamTransportReceiveEOF(t *testing.T) {
	mock := testutils.NewConnectionMock()
	tr := NewStreamTransport("127.0.0.1:8765", nil)
	tr.conn = mock
	tr.reader = bufio.NewReader(mock)

	lines, err := tr.Receive(context.Background())
	assert.Nil(t, lines)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLocalTransportReceive(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{name: "packet", reply: testutils.SighupPacket, want: []string{"BEGIN", "SIGHUP", "END"}},
		{name: "no trailing newline", reply: "BEGIN\nSIGHUP\nEND", want: []string{"BEGIN", "SIGHUP", "END"}},
		{name: "trailing empty lines dropped", reply: "BEGIN\nSIGHUP\nEND\n\n\n", want: []string{"BEGIN", "SIGHUP", "END"}},
		{name: "inner empty line kept", reply: "BEGIN\n\nEND\n", want: []string{"BEGIN", "", "END"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutils.NewConnectionMock(tt.reply)
			tr := &LocalTransport{path: "/var/run/lirc/lircd", conn: mock}

			lines, err := tr.Receive(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines)
		})
	}
}

func TestLocalTransportReceiveTruncates(t *testing.T) {
	// 20000 bytes of "a\n": only the first MaxLocalReplySize bytes are read.
	mock := testutils.NewConnectionMock(strings.Repeat("a\n", 10000))
	tr := &LocalTransport{path: "/var/run/lirc/lircd", conn: mock}

	lines, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Len(t, lines, MaxLocalReplySize/2)

	// The remainder is left for the next single read.
	lines, err = tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Len(t, lines, 10000-MaxLocalReplySize/2)
}

func TestLocalTransportReceiveEOF(t *testing.T) {
	mock := testutils.NewConnectionMock()
	tr := &LocalTransport{path: "/var/run/lirc/lircd", conn: mock}

	_, err := tr.Receive(context.Background())

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTransportReceiveDeadline(t *testing.T) {
	tcp := testutils.NewTCPDaemon(t)
	unix := testutils.NewUnixDaemon(t)

	transports := map[string]Transport{
		"stream": NewStreamTransport(tcp.Addr(), nil),
		"local":  NewLocalTransport(unix.Addr(), nil),
	}

	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, tr.Connect(context.Background()))
			defer tr.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			// Nothing was sent, so nothing comes back.
			_, err := tr.Receive(ctx)

			var ioErr *IOError
			require.ErrorAs(t, err, &ioErr)
			assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))
		})
	}
}

func TestTransportCloseUnblocksReceive(t *testing.T) {
	unix := testutils.NewUnixDaemon(t)
	tr := NewLocalTransport(unix.Addr(), nil)
	require.NoError(t, tr.Connect(context.Background()))

	errc := make(chan error, 1)
	go func() {
		_, err := tr.Receive(context.Background())
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, tr.Close())

	select {
	case err := <-errc:
		var ioErr *IOError
		assert.ErrorAs(t, err, &ioErr)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive still blocked after Close")
	}
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\n\nb"))
	assert.Empty(t, splitLines("\n\n"))
}
