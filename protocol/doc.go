// Package protocol implements the wire protocol spoken by lircd, the LIRC
// daemon, on its command sockets.
//
// The protocol is line oriented. A client writes one request line and the
// daemon answers with a reply packet framed by BEGIN and END lines:
//
//	LIST
//
//	BEGIN
//	LIST
//	SUCCESS
//	DATA
//	2
//	tv
//	amp
//	END
//
// # Requests
//
// Requests are plain data built by the New*Request constructors, which reject
// arguments that would break the line framing:
//
//	req, err := protocol.NewSendOnceRequest("tv", "KEY_POWER", 0)
//	fmt.Fprint(conn, req.String()+protocol.LF)
//
// # Replies
//
// Parser is a state machine over the reply lines. Parse has three outcomes,
// which callers must keep apart:
//
//	data, ok, err := parser.Parse(lines)
//	switch {
//	case err != nil:
//	    // *FramingError: the reply does not follow the packet grammar.
//	    // Close the connection, the stream position is unknown.
//	case !ok:
//	    // The daemon answered ERROR, or only sent a SIGHUP notification.
//	default:
//	    // data holds the DATA lines, possibly none.
//	}
//
// SIGHUP packets are sent by the daemon after a configuration reload. They
// are consumed by the parser and never reported as a result; set
// Parser.OnSighup to observe them.
package protocol
