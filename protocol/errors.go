package protocol

import (
	"errors"
	"fmt"
)

// ErrIncompleteReply is wrapped by a FramingError when the reply lines ran out
// before the packet reached END.
var ErrIncompleteReply = errors.New("lirc: incomplete reply packet")

// FramingError reports a reply line that does not fit the packet grammar.
// It is distinct from an ERROR reply: the daemon answered something the parser
// could not frame, so the stream position is unknown and the connection
// should be closed.
type FramingError struct {
	// State is the parser state in which the line was rejected.
	State State

	// Line is the offending line. Empty when the reply ended early.
	Line string

	// Command is the echoed command of the packet, when it was seen.
	Command string

	// Message describes what the parser expected.
	Message string

	// Err is the underlying error, if any.
	Err error
}

func (e *FramingError) Error() string {
	msg := fmt.Sprintf("lirc: framing error in state %s: %s", e.State, e.Message)
	if e.Command != "" {
		msg += " (command " + e.Command + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *FramingError) Unwrap() error {
	return e.Err
}

// InvalidRequestError is returned when request arguments cannot be encoded
// into a valid request line. Nothing was written to the daemon.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string {
	return "lirc: invalid request: " + e.Message
}
