package lirc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pior/lirc/protocol"
)

// Config holds the settings of a single daemon connection.
type Config struct {
	// Kind selects the transport. The zero value is Stream.
	Kind ConnectionKind

	// Address is the host for Stream and the socket path for Local.
	Address string

	// Port is the TCP port for Stream. Zero means DefaultPort.
	Port int

	// DialTimeout bounds Connect. Zero means no timeout beyond the context.
	DialTimeout time.Duration

	// Dialer is the net.Dialer used to open connections.
	// If nil, a net.Dialer with DialTimeout is used.
	Dialer *net.Dialer

	// Logger receives debug and diagnostic records.
	// If nil, nothing is logged.
	Logger *slog.Logger

	// OnSighup, if set, is called when the daemon reports a configuration
	// reload in a reply.
	OnSighup func()
}

// Transmitter drives one daemon connection: it encodes a request, performs
// one send/receive cycle on its Transport and parses the reply.
//
// Round trips are serialized; a Transmitter never has more than one request
// in flight.
type Transmitter struct {
	transport Transport
	logger    *slog.Logger

	mu     sync.Mutex
	parser *protocol.Parser
}

// NewTransmitter creates an unconnected Transmitter for cfg.
func NewTransmitter(cfg Config) (*Transmitter, error) {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: cfg.DialTimeout}
	}

	tr, err := NewTransport(cfg.Kind, cfg.Address, cfg.Port, dialer)
	if err != nil {
		return nil, err
	}

	t := NewTransmitterWithTransport(tr, cfg.Logger)
	t.parser.OnSighup = t.sighupHook(cfg.OnSighup)
	return t, nil
}

// NewTransmitterWithTransport binds a Transmitter to an existing transport.
func NewTransmitterWithTransport(tr Transport, logger *slog.Logger) *Transmitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &Transmitter{
		transport: tr,
		logger:    logger.With("addr", tr.Addr()),
		parser:    protocol.NewParser(),
	}
	t.parser.OnSighup = t.sighupHook(nil)
	return t
}

// Dial creates a Transmitter for cfg and connects it.
func Dial(ctx context.Context, cfg Config) (*Transmitter, error) {
	t, err := NewTransmitter(cfg)
	if err != nil {
		return nil, err
	}
	if err := t.Connect(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// Connect opens the underlying transport.
func (t *Transmitter) Connect(ctx context.Context) error {
	if err := t.transport.Connect(ctx); err != nil {
		return err
	}
	t.logger.Debug("connected")
	return nil
}

// Close closes the underlying transport. It may be called while a request is
// pending, which then fails with an *IOError.
func (t *Transmitter) Close() error {
	return t.transport.Close()
}

// Addr returns the daemon address.
func (t *Transmitter) Addr() string {
	return t.transport.Addr()
}

// ListDevices returns the remotes configured in the daemon.
// ok is false when the daemon answered ERROR.
func (t *Transmitter) ListDevices(ctx context.Context) ([]string, bool, error) {
	return t.Do(ctx, protocol.NewListRequest())
}

// ListKeys returns the keys of a remote, as "<code> <name>" lines.
// ok is false when the daemon answered ERROR, typically for an unknown remote.
func (t *Transmitter) ListKeys(ctx context.Context, device string) ([]string, bool, error) {
	req, err := protocol.NewListKeysRequest(device)
	if err != nil {
		return nil, false, err
	}
	return t.Do(ctx, req)
}

// SendOnce transmits key of device a single time.
func (t *Transmitter) SendOnce(ctx context.Context, device, key string) (bool, error) {
	return t.Send(ctx, device, key, 0)
}

// Send transmits key of device, repeated repeats more times.
// It reports whether the daemon answered SUCCESS.
func (t *Transmitter) Send(ctx context.Context, device, key string, repeats int) (bool, error) {
	req, err := protocol.NewSendOnceRequest(device, key, repeats)
	if err != nil {
		return false, err
	}
	_, ok, err := t.Do(ctx, req)
	return ok, err
}

// Version returns the daemon version string.
func (t *Transmitter) Version(ctx context.Context) (string, bool, error) {
	data, ok, err := t.Do(ctx, protocol.NewVersionRequest())
	if err != nil || !ok {
		return "", false, err
	}
	if len(data) == 0 {
		return "", true, nil
	}
	return data[0], true, nil
}

// Do performs one request/response cycle and returns the parsed reply.
// Errors from the transport and the parser are returned unmodified. A reply
// that is not complete after one receive is read further. When the reply
// cannot be framed or received, the transport is closed and later calls fail
// with ErrNotConnected.
func (t *Transmitter) Do(ctx context.Context, req *protocol.Request) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	command := req.String()

	if err := t.transport.Send(ctx, command); err != nil {
		return nil, false, err
	}

	lines, err := t.transport.Receive(ctx)
	if err != nil {
		t.closeDesynced(command, err)
		return nil, false, err
	}

	data, ok, err := t.parser.Parse(lines)
	// A reply may arrive in several writes; keep reading until the packet
	// is complete.
	for errors.Is(err, protocol.ErrIncompleteReply) {
		more, rerr := t.transport.Receive(ctx)
		if rerr != nil {
			t.closeDesynced(command, rerr)
			return nil, false, rerr
		}
		lines = append(lines, more...)
		data, ok, err = t.parser.Parse(lines)
	}
	if err != nil {
		var fe *protocol.FramingError
		if errors.As(err, &fe) {
			t.logger.Warn("malformed reply", "command", command, "state", fe.State.String(), "line", fe.Line)
		}
		t.closeDesynced(command, err)
		return nil, false, err
	}

	t.logger.Debug("reply", "command", command, "lines", len(lines), "ok", ok)
	return data, ok, nil
}

// closeDesynced closes the transport after a request whose reply was not fully
// consumed, so that late reply lines are never read as the next reply.
func (t *Transmitter) closeDesynced(command string, cause error) {
	if err := t.transport.Close(); err != nil {
		t.logger.Debug("close after failed reply", "command", command, "error", err)
		return
	}
	t.logger.Debug("closed connection after failed reply", "command", command, "error", cause)
}

func (t *Transmitter) sighupHook(notify func()) func() {
	return func() {
		t.logger.Info("daemon reloaded its configuration")
		if notify != nil {
			notify()
		}
	}
}
