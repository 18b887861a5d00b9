package protocol

// CmdType is a request command word.
type CmdType string

// Protocol delimiters
const (
	// LF terminates every request and reply line.
	LF = "\n"

	// Space separates request tokens.
	Space = " "
)

// Request commands understood by lircd.
const (
	// CmdList enumerates remotes, or the keys of one remote.
	//
	// Wire format: LIST [<remote>]\n
	//
	// Reply data: one remote name per line, or one "<code> <key>" pair per
	// line when a remote is given.
	CmdList CmdType = "LIST"

	// CmdSendOnce transmits a key of a remote.
	//
	// Wire format: SEND_ONCE <remote> <key> <repeats>\n
	//
	// The reply carries no data. Status alone reports the outcome.
	CmdSendOnce CmdType = "SEND_ONCE"

	// CmdVersion asks the daemon for its version string.
	//
	// Wire format: VERSION\n
	//
	// Reply data: a single line with the version.
	CmdVersion CmdType = "VERSION"
)

// Reply packet markers. Each occupies a whole line.
//
// A reply packet looks like:
//
//	BEGIN
//	<echoed command>
//	SUCCESS | ERROR
//	[DATA
//	<n>
//	<line 1>
//	...
//	<line n>]
//	END
//
// The daemon also broadcasts an out-of-band packet when it reloads its
// configuration:
//
//	BEGIN
//	SIGHUP
//	END
const (
	MarkerBegin   = "BEGIN"
	MarkerEnd     = "END"
	MarkerSuccess = "SUCCESS"
	MarkerError   = "ERROR"
	MarkerData    = "DATA"
	MarkerSighup  = "SIGHUP"
)
