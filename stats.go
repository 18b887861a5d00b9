package lirc

import "sync/atomic"

// ClientStats contains statistics about client operations.
// All fields are safe for concurrent access.
type ClientStats struct {
	Lists        uint64 // LIST requests, for remotes and keys
	Sends        uint64 // SEND_ONCE requests
	Versions     uint64 // VERSION requests, health checks included
	DaemonErrors uint64 // Replies with ERROR status
	Sighups      uint64 // SIGHUP packets seen in replies
	Errors       uint64 // Transport, framing and pool errors
}

// PoolStats contains statistics about the connection pool.
type PoolStats struct {
	AcquireCount      uint64 // Total acquire attempts
	AcquireWaitCount  uint64 // Acquires that had to wait
	CreatedConns      uint64 // Total connections created
	DestroyedConns    uint64 // Total connections destroyed
	AcquireErrors     uint64 // Canceled acquire attempts
	AcquireWaitTimeNs uint64 // Total nanoseconds spent waiting

	TotalConns  int32 // Total connections in pool (active + idle)
	IdleConns   int32 // Idle connections available
	ActiveConns int32 // Connections currently in use
}

// clientStatsCollector provides internal methods for updating client stats.
// Not exported - client updates its own stats.
type clientStatsCollector struct {
	stats *ClientStats
}

func newClientStatsCollector() *clientStatsCollector {
	return &clientStatsCollector{
		stats: &ClientStats{},
	}
}

func (c *clientStatsCollector) recordList() {
	atomic.AddUint64(&c.stats.Lists, 1)
}

func (c *clientStatsCollector) recordSend() {
	atomic.AddUint64(&c.stats.Sends, 1)
}

func (c *clientStatsCollector) recordVersion() {
	atomic.AddUint64(&c.stats.Versions, 1)
}

func (c *clientStatsCollector) recordDaemonError() {
	atomic.AddUint64(&c.stats.DaemonErrors, 1)
}

func (c *clientStatsCollector) recordSighup() {
	atomic.AddUint64(&c.stats.Sighups, 1)
}

func (c *clientStatsCollector) recordError() {
	atomic.AddUint64(&c.stats.Errors, 1)
}

func (c *clientStatsCollector) snapshot() ClientStats {
	return ClientStats{
		Lists:        atomic.LoadUint64(&c.stats.Lists),
		Sends:        atomic.LoadUint64(&c.stats.Sends),
		Versions:     atomic.LoadUint64(&c.stats.Versions),
		DaemonErrors: atomic.LoadUint64(&c.stats.DaemonErrors),
		Sighups:      atomic.LoadUint64(&c.stats.Sighups),
		Errors:       atomic.LoadUint64(&c.stats.Errors),
	}
}
