// Package lirc is a client for the lircd infrared remote control daemon.
//
// The daemon speaks a line protocol over a TCP socket (port 8765 by default)
// or a local unix socket (usually /var/run/lirc/lircd). This package opens
// the channel, sends one request at a time and decodes the reply packet with
// the protocol subpackage.
//
// # Single connection
//
// A Transmitter owns one connection:
//
//	t, err := lirc.Dial(ctx, lirc.Config{Kind: lirc.Local, Address: lirc.DefaultSocketPath})
//	if err != nil {
//		return err
//	}
//	defer t.Close()
//
//	devices, ok, err := t.ListDevices(ctx)
//
// ok is false when the daemon answered ERROR, or when the reply only carried a
// SIGHUP notification. Transport failures are returned as *ConnectionError or
// *IOError, malformed replies as *protocol.FramingError.
//
// # Pooled client
//
// Client keeps a pool of Transmitters and is safe for concurrent use:
//
//	client, err := lirc.NewClient(lirc.ClientConfig{
//		Config:              lirc.Config{Kind: lirc.Stream, Address: "raspberrypi"},
//		MaxSize:             4,
//		HealthCheckInterval: 30 * time.Second,
//		NewCircuitBreaker:   lirc.NewCircuitBreakerConfig(1, time.Minute, 10*time.Second),
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	sent, err := client.SendOnce(ctx, "tv", "KEY_POWER")
//
// Connections failing with a transport or framing error are discarded. Calls
// are never retried.
package lirc
