package lirc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pior/lirc/protocol"
	"github.com/sony/gobreaker/v2"
)

// ClientConfig holds configuration for a pooled client.
type ClientConfig struct {
	// Config describes how each pooled connection reaches the daemon.
	Config

	// MaxSize is the maximum number of connections in the pool.
	// Required: must be > 0.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle before being closed.
	// Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle connections are probed with VERSION.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// NewCircuitBreaker creates the circuit breaker for the daemon address.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(addr string) *gobreaker.CircuitBreaker[bool]

	// for testing purposes only
	constructor func(ctx context.Context) (*Transmitter, error)
}

// Client is a daemon client safe for concurrent use.
//
// Each call borrows a connected Transmitter from a pool for a single
// request/response cycle, so requests are never pipelined on a connection.
// A connection that fails with a transport or framing error is discarded; the
// call itself is not retried.
type Client struct {
	addr           string
	pool           *pool
	circuitBreaker *gobreaker.CircuitBreaker[bool] // nil if not configured
	logger         *slog.Logger

	maxConnLifetime     time.Duration
	maxConnIdleTime     time.Duration
	healthCheckInterval time.Duration
	stopHealthCheck     chan struct{}
	closeOnce           sync.Once

	stats *clientStatsCollector
}

// NewClient creates a pooled client. Connections are opened lazily.
func NewClient(config ClientConfig) (*Client, error) {
	if config.MaxSize <= 0 {
		return nil, fmt.Errorf("lirc: pool size must be positive, got %d", config.MaxSize)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Validate the connection settings up front.
	probe, err := NewTransmitter(config.Config)
	if err != nil {
		return nil, err
	}

	client := &Client{
		addr:                probe.Addr(),
		logger:              logger.With("addr", probe.Addr()),
		maxConnLifetime:     config.MaxConnLifetime,
		maxConnIdleTime:     config.MaxConnIdleTime,
		healthCheckInterval: config.HealthCheckInterval,
		stopHealthCheck:     make(chan struct{}),
		stats:               newClientStatsCollector(),
	}

	connConfig := config.Config
	notify := config.OnSighup
	connConfig.OnSighup = func() {
		client.stats.recordSighup()
		if notify != nil {
			notify()
		}
	}

	constructor := config.constructor
	if constructor == nil {
		constructor = func(ctx context.Context) (*Transmitter, error) {
			return Dial(ctx, connConfig)
		}
	}

	client.pool, err = newPool(constructor, config.MaxSize)
	if err != nil {
		return nil, err
	}

	if config.NewCircuitBreaker != nil {
		client.circuitBreaker = config.NewCircuitBreaker(client.addr)
	}

	// Start health check goroutine if enabled
	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop()
	}

	return client, nil
}

// Close stops health checks and closes all pooled connections.
// Calling Close more than once is a no-op.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.healthCheckInterval > 0 {
			close(c.stopHealthCheck)
		}
		c.pool.close()
	})
}

// Addr returns the daemon address.
func (c *Client) Addr() string {
	return c.addr
}

// ListDevices returns the remotes configured in the daemon.
func (c *Client) ListDevices(ctx context.Context) ([]string, bool, error) {
	c.stats.recordList()
	return c.exec(ctx, protocol.NewListRequest())
}

// ListKeys returns the keys of a remote.
func (c *Client) ListKeys(ctx context.Context, device string) ([]string, bool, error) {
	req, err := protocol.NewListKeysRequest(device)
	if err != nil {
		c.stats.recordError()
		return nil, false, err
	}
	c.stats.recordList()
	return c.exec(ctx, req)
}

// SendOnce transmits key of device a single time.
func (c *Client) SendOnce(ctx context.Context, device, key string) (bool, error) {
	return c.Send(ctx, device, key, 0)
}

// Send transmits key of device, repeated repeats more times.
func (c *Client) Send(ctx context.Context, device, key string, repeats int) (bool, error) {
	req, err := protocol.NewSendOnceRequest(device, key, repeats)
	if err != nil {
		c.stats.recordError()
		return false, err
	}
	c.stats.recordSend()
	_, ok, err := c.exec(ctx, req)
	return ok, err
}

// Version returns the daemon version string.
func (c *Client) Version(ctx context.Context) (string, bool, error) {
	c.stats.recordVersion()
	data, ok, err := c.exec(ctx, protocol.NewVersionRequest())
	if err != nil || !ok {
		return "", false, err
	}
	if len(data) == 0 {
		return "", true, nil
	}
	return data[0], true, nil
}

// exec runs one request, through the circuit breaker when configured.
func (c *Client) exec(ctx context.Context, req *protocol.Request) ([]string, bool, error) {
	var data []string

	run := func() (bool, error) {
		d, ok, err := c.execDirect(ctx, req)
		data = d
		return ok, err
	}

	var (
		ok  bool
		err error
	)
	if c.circuitBreaker != nil {
		ok, err = c.circuitBreaker.Execute(run)
	} else {
		ok, err = run()
	}

	if err != nil {
		c.stats.recordError()
		if IsCircuitOpen(err) {
			c.logger.Warn("circuit breaker rejected request", "command", req.String(), "state", c.circuitBreaker.State().String())
		}
		return nil, false, err
	}
	if !ok {
		c.stats.recordDaemonError()
		return nil, false, nil
	}
	return data, true, nil
}

// execDirect borrows a connection for a single round trip and releases or
// destroys it depending on the outcome.
func (c *Client) execDirect(ctx context.Context, req *protocol.Request) ([]string, bool, error) {
	resource, err := c.pool.acquire(ctx)
	if err != nil {
		return nil, false, err
	}

	data, ok, err := resource.Value().Do(ctx, req)
	if err != nil {
		if ShouldCloseConnection(err) {
			resource.Destroy()
		} else {
			resource.Release()
		}
		return nil, false, err
	}

	resource.Release()
	return data, ok, nil
}

// healthCheckLoop periodically checks idle connections for health and lifecycle limits.
func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(c.healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkConnections()
		}
	}
}

// checkConnections destroys idle connections that are stale or fail a VERSION probe.
func (c *Client) checkConnections() {
	now := time.Now()

	for _, res := range c.pool.acquireAllIdle() {
		if c.maxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.maxConnLifetime {
			res.Destroy()
			continue
		}

		if c.maxConnIdleTime > 0 && res.IdleDuration() > c.maxConnIdleTime {
			res.Destroy()
			continue
		}

		if err := c.healthCheck(res.Value()); err != nil {
			c.logger.Warn("health check failed, closing connection", "error", err)
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}

// healthCheck probes a connection with VERSION. Any complete reply counts as healthy.
func (c *Client) healthCheck(t *Transmitter) error {
	ctx := context.Background()
	if c.healthCheckInterval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.healthCheckInterval)
		defer cancel()
	}

	c.stats.recordVersion()
	_, _, err := t.Version(ctx)
	return err
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// PoolStats returns a snapshot of pool statistics.
func (c *Client) PoolStats() PoolStats {
	return c.pool.stats()
}

// CircuitBreakerState returns the breaker state, or StateClosed without a breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	if c.circuitBreaker == nil {
		return gobreaker.StateClosed
	}
	return c.circuitBreaker.State()
}

// IsCircuitOpen reports whether err was returned because the circuit breaker rejected the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
