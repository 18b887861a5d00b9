package protocol

import (
	"strconv"
	"strings"
)

// Request is a single request line.
// It is immutable once built; use the New*Request constructors, which
// validate the arguments before anything reaches the wire.
type Request struct {
	// Command is the command word.
	Command CmdType

	// Args are the space separated arguments following the command.
	Args []string
}

// NewListRequest builds a LIST request enumerating the remotes known to the daemon.
func NewListRequest() *Request {
	return &Request{Command: CmdList}
}

// NewListKeysRequest builds a LIST request enumerating the keys of a remote.
func NewListKeysRequest(remote string) (*Request, error) {
	if err := ValidateName("remote", remote); err != nil {
		return nil, err
	}
	return &Request{Command: CmdList, Args: []string{remote}}, nil
}

// NewSendOnceRequest builds a SEND_ONCE request.
// repeats is the number of additional times the code is repeated; zero sends it once.
func NewSendOnceRequest(remote, key string, repeats int) (*Request, error) {
	if err := ValidateName("remote", remote); err != nil {
		return nil, err
	}
	if err := ValidateName("key", key); err != nil {
		return nil, err
	}
	if repeats < 0 {
		return nil, &InvalidRequestError{Message: "repeat count is negative: " + strconv.Itoa(repeats)}
	}
	return &Request{
		Command: CmdSendOnce,
		Args:    []string{remote, key, strconv.Itoa(repeats)},
	}, nil
}

// NewVersionRequest builds a VERSION request.
func NewVersionRequest() *Request {
	return &Request{Command: CmdVersion}
}

// String encodes the request line, without the line terminator.
func (r *Request) String() string {
	if len(r.Args) == 0 {
		return string(r.Command)
	}

	var b strings.Builder
	b.WriteString(string(r.Command))
	for _, arg := range r.Args {
		b.WriteString(Space)
		b.WriteString(arg)
	}
	return b.String()
}

// ValidateName checks that a remote or key name can be sent as a single token.
// what names the argument in the returned error.
func ValidateName(what, name string) error {
	if name == "" {
		return &InvalidRequestError{Message: what + " name is empty"}
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return &InvalidRequestError{Message: what + " name contains whitespace: " + strconv.Quote(name)}
	}
	return nil
}
