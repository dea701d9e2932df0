package comm

// Layout defines the literal bytes delimiting a frame.
type Layout struct {
	Header []byte
	Tail   []byte
}

// DefaultLayout is the layout agreed by the firmware and the host.
var DefaultLayout = Layout{
	Header: []byte("DAT"),
	Tail:   []byte("DONE"),
}

// Validate checks the layout can be used for resynchronization.
func (l Layout) Validate() error {
	if len(l.Header) == 0 || len(l.Tail) == 0 {
		return ErrInvalidLayout
	}
	return nil
}

// Overhead is the number of non-payload bytes in a frame.
func (l Layout) Overhead() int {
	return len(l.Header) + 5 + len(l.Tail)
}

// State is the window of the wire layout the parser is consuming.
type State int

// States, in wire order.
const (
	StateHeader State = iota
	StateCmd
	StateLenHi
	StateLenLo
	StateCsHi
	StateCsLo
	StatePayload
	StateTail
)

var stateNames = [...]string{
	StateHeader:  "header",
	StateCmd:     "cmd",
	StateLenHi:   "len-hi",
	StateLenLo:   "len-lo",
	StateCsHi:    "cs-hi",
	StateCsLo:    "cs-lo",
	StatePayload: "payload",
	StateTail:    "tail",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// nextState is the transition taken when a window is complete.
// Leaving StateTail completes the frame.
var nextState = [...]State{
	StateHeader:  StateCmd,
	StateCmd:     StateLenHi,
	StateLenHi:   StateLenLo,
	StateLenLo:   StateCsHi,
	StateCsHi:    StateCsLo,
	StateCsLo:    StatePayload,
	StatePayload: StateTail,
	StateTail:    StateHeader,
}

// width returns the number of bytes in the window of state s.
func (l Layout) width(s State, size uint16) int {
	switch s {
	case StateHeader:
		return len(l.Header)
	case StatePayload:
		return int(size)
	case StateTail:
		return len(l.Tail)
	}
	return 1
}
