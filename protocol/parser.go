package protocol

import (
	"errors"
	"slices"
	"strconv"
)

// State is a reply parser state.
type State int

const (
	// StateBegin expects the BEGIN marker. It is the initial and reset state.
	StateBegin State = iota
	// StateCommand expects the echoed command, or SIGHUP.
	StateCommand
	// StateResult expects SUCCESS or ERROR.
	StateResult
	// StateData expects DATA or END.
	StateData
	// StateLineCount expects the number of data lines.
	StateLineCount
	// StateDataBody consumes data lines.
	StateDataBody
	// StateSighupEnd expects the END closing a SIGHUP packet.
	StateSighupEnd
	// StateEnd expects the END closing the packet.
	StateEnd
)

var stateNames = [...]string{
	StateBegin:     "BEGIN",
	StateCommand:   "COMMAND",
	StateResult:    "RESULT",
	StateData:      "DATA",
	StateLineCount: "LINE_COUNT",
	StateDataBody:  "DATA_BODY",
	StateSighupEnd: "SIGHUP_END",
	StateEnd:       "END",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// effect is the side effect a transition asks the parser to apply.
type effect int

const (
	effectNone effect = iota
	effectCommand
	effectSuccess
	effectFailure
	effectCount
	effectAppend
	effectFinish
	effectSighup
)

// step is the outcome of one transition.
type step struct {
	next   State
	effect effect
	count  int
}

// transition is the reply state machine: the state following s on line, and the
// effect to apply. It has no access to the parser; DATA_BODY stays in place and
// the parser moves to END once the declared number of lines was collected.
func transition(s State, line string) (step, error) {
	switch s {
	case StateBegin:
		if line == MarkerBegin {
			return step{next: StateCommand}, nil
		}
		return step{}, framingError(s, line, "expected a BEGIN line")

	case StateCommand:
		if line == MarkerSighup {
			return step{next: StateSighupEnd}, nil
		}
		if line != "" {
			return step{next: StateResult, effect: effectCommand}, nil
		}
		return step{}, framingError(s, line, "expected a command line")

	case StateResult:
		switch line {
		case MarkerSuccess:
			return step{next: StateData, effect: effectSuccess}, nil
		case MarkerError:
			return step{next: StateData, effect: effectFailure}, nil
		}
		return step{}, framingError(s, line, "expected a SUCCESS or ERROR line")

	case StateData:
		switch line {
		case MarkerEnd:
			return step{next: StateBegin, effect: effectFinish}, nil
		case MarkerData:
			return step{next: StateLineCount}, nil
		}
		return step{}, framingError(s, line, "expected a DATA or END line")

	case StateLineCount:
		n, err := strconv.Atoi(line)
		if err != nil {
			e := framingError(s, line, "expected a data line count")
			e.Err = err
			return step{}, e
		}
		if n < 0 {
			return step{}, framingError(s, line, "data line count is negative")
		}
		if n == 0 {
			return step{next: StateEnd, effect: effectCount}, nil
		}
		return step{next: StateDataBody, effect: effectCount, count: n}, nil

	case StateDataBody:
		return step{next: StateDataBody, effect: effectAppend}, nil

	case StateSighupEnd:
		if line == MarkerEnd {
			return step{next: StateBegin, effect: effectSighup}, nil
		}
		return step{}, framingError(s, line, "expected an END line closing the SIGHUP packet")

	case StateEnd:
		if line == MarkerEnd {
			return step{next: StateBegin, effect: effectFinish}, nil
		}
		return step{}, framingError(s, line, "expected an END line")
	}

	return step{}, framingError(s, line, "unknown parser state")
}

func framingError(s State, line, expected string) *FramingError {
	return &FramingError{
		State:   s,
		Line:    line,
		Message: expected + ", got " + strconv.Quote(line),
	}
}

// Parser decodes the reply packet of one request.
//
// A Parser keeps per-packet state only while Parse runs and is reset on every
// exit, so a single instance can be reused for any number of replies. It is
// not safe for concurrent use.
type Parser struct {
	// OnSighup, if set, is called for every SIGHUP packet consumed.
	// The daemon sends one after reloading its configuration.
	OnSighup func()

	data      []string
	state     State
	finished  bool
	success   bool
	remaining int
	command   string
}

// NewParser returns a parser in its initial state.
func NewParser() *Parser {
	p := &Parser{}
	p.reset()
	return p
}

// Parse feeds lines to the state machine until a packet is complete. Lines
// after the completed packet are ignored.
//
// It returns the data lines and true for a SUCCESS reply, and nil and false for
// an ERROR reply. A reply made only of a SIGHUP packet, or no lines at all,
// also yields nil and false: there is no result to report. A line that
// violates the packet grammar, or input ending in the middle of a packet,
// returns a *FramingError and never a partial payload.
func (p *Parser) Parse(lines []string) ([]string, bool, error) {
	p.reset()
	defer p.reset()

	for _, line := range lines {
		if p.finished {
			break
		}
		if err := p.feed(line); err != nil {
			return nil, false, err
		}
	}

	if !p.finished {
		if p.state != StateBegin {
			return nil, false, &FramingError{
				State:   p.state,
				Command: p.command,
				Message: "reply ended before END",
				Err:     ErrIncompleteReply,
			}
		}
		return nil, false, nil
	}

	if !p.success {
		return nil, false, nil
	}

	return slices.Clone(p.data), true, nil
}

// State returns the current state. Outside of Parse it is always StateBegin.
func (p *Parser) State() State {
	return p.state
}

func (p *Parser) feed(line string) error {
	st, err := transition(p.state, line)
	if err != nil {
		var fe *FramingError
		if errors.As(err, &fe) {
			fe.Command = p.command
		}
		return err
	}

	p.state = st.next

	switch st.effect {
	case effectCommand:
		p.command = line
	case effectSuccess:
		p.success = true
	case effectFailure:
		p.success = false
	case effectCount:
		p.remaining = st.count
	case effectAppend:
		p.data = append(p.data, line)
		if len(p.data) >= p.remaining {
			p.state = StateEnd
		}
	case effectFinish:
		p.finished = true
	case effectSighup:
		p.reset()
		if p.OnSighup != nil {
			p.OnSighup()
		}
	}

	return nil
}

func (p *Parser) reset() {
	p.data = make([]string, 0)
	p.state = StateBegin
	p.finished = false
	p.success = false
	p.remaining = 0
	p.command = ""
}
