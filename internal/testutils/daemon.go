package testutils

import (
	"bufio"
	"io"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// SuccessReply formats a SUCCESS reply packet for command carrying data.
func SuccessReply(command string, data ...string) string {
	return reply(command, "SUCCESS", data)
}

// ErrorReply formats an ERROR reply packet for command carrying message lines.
func ErrorReply(command string, message ...string) string {
	return reply(command, "ERROR", message)
}

// SighupPacket is the notification lircd broadcasts after a configuration reload.
const SighupPacket = "BEGIN\nSIGHUP\nEND\n"

func reply(command, status string, data []string) string {
	var b strings.Builder
	b.WriteString("BEGIN\n")
	b.WriteString(command + "\n")
	b.WriteString(status + "\n")
	if len(data) > 0 {
		b.WriteString("DATA\n")
		b.WriteString(strconv.Itoa(len(data)) + "\n")
		for _, line := range data {
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("END\n")
	return b.String()
}

// Daemon is an in-process stand-in for lircd. It answers each request line
// with the raw reply registered for it, or an ERROR packet for unknown
// requests. A reply is a single write unless registered with ReplyInParts.
type Daemon struct {
	listener net.Listener

	mu       sync.Mutex
	replies  map[string][]string
	pause    time.Duration
	requests []string
	conns    []net.Conn
	accepted int

	wg sync.WaitGroup
}

// NewTCPDaemon starts a Daemon on a loopback TCP port.
// It is stopped when the test ends.
func NewTCPDaemon(t testing.TB) *Daemon {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen tcp: %v", err)
	}
	return startDaemon(t, l)
}

// NewUnixDaemon starts a Daemon on a unix socket in a temporary directory.
// It is stopped when the test ends.
func NewUnixDaemon(t testing.TB) *Daemon {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lircd")
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen unix: %v", err)
	}
	return startDaemon(t, l)
}

func startDaemon(t testing.TB, l net.Listener) *Daemon {
	d := &Daemon{
		listener: l,
		replies:  make(map[string][]string),
	}

	d.wg.Add(1)
	go d.serve()

	t.Cleanup(d.Close)
	return d
}

// Addr returns the listen address: host:port for TCP, the socket path for unix.
func (d *Daemon) Addr() string {
	return d.listener.Addr().String()
}

// HostPort splits a TCP listen address. It fails the test for unix daemons.
func (d *Daemon) HostPort(t testing.TB) (string, int) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(d.Addr())
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	return host, port
}

// Reply registers the raw reply sent for request. An empty reply makes the
// daemon read the request and stay silent.
func (d *Daemon) Reply(request, raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies[request] = []string{raw}
}

// ReplyInParts registers a reply written as several writes, with pause between
// consecutive parts.
func (d *Daemon) ReplyInParts(request string, pause time.Duration, parts ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replies[request] = parts
	d.pause = pause
}

// Requests returns the request lines received so far, in order.
func (d *Daemon) Requests() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.requests...)
}

// Accepted returns the number of connections accepted so far.
func (d *Daemon) Accepted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accepted
}

// DropConnections closes every accepted connection.
func (d *Daemon) DropConnections() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.conns {
		_ = c.Close()
	}
	d.conns = nil
}

// Close stops the daemon and closes its connections.
func (d *Daemon) Close() {
	_ = d.listener.Close()
	d.DropConnections()
	d.wg.Wait()
}

func (d *Daemon) serve() {
	defer d.wg.Done()

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}

		d.mu.Lock()
		d.conns = append(d.conns, conn)
		d.accepted++
		d.mu.Unlock()

		d.wg.Add(1)
		go d.handle(conn)
	}
}

func (d *Daemon) handle(conn net.Conn) {
	defer d.wg.Done()
	defer conn.Close()

	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		request := strings.TrimSuffix(line, "\n")

		d.mu.Lock()
		d.requests = append(d.requests, request)
		parts, ok := d.replies[request]
		pause := d.pause
		d.mu.Unlock()

		if !ok {
			parts = []string{ErrorReply(request, "unknown command: \""+request+"\"")}
		}
		for i, part := range parts {
			if i > 0 {
				time.Sleep(pause)
			}
			if _, err := io.WriteString(conn, part); err != nil {
				return
			}
		}
	}
}
