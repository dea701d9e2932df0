package comm

import "io"

// Code is a 2-byte response code.
type Code [2]byte

// Response codes.
var (
	CodeOK             = Code{'O', 'K'}
	CodeChecksumError  = Code{'C', 'E'}
	CodeGarbage        = Code{'G', 'B'}
	CodeParityError    = Code{'P', 'E'}
	CodeDataOverrun    = Code{'D', 'O'}
	CodeFrameError     = Code{'F', 'E'}
	CodeBufferOverflow = Code{'B', 'O'}
	CodeUnfinished     = Code{'U', 'F'}
	CodeReset          = Code{'R', 'S'}
)

// DefaultMarker precedes response codes on the polled path.
var DefaultMarker = []byte("ANS")

var codeDescriptions = map[Code]string{
	CodeOK:             "ok",
	CodeChecksumError:  "checksum mismatch",
	CodeGarbage:        "garbage before header",
	CodeParityError:    "parity error",
	CodeDataOverrun:    "data overrun",
	CodeFrameError:     "frame error",
	CodeBufferOverflow: "receive buffer overflow",
	CodeUnfinished:     "frame unfinished",
	CodeReset:          "frame reset",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return string(c[:])
}

// Description returns a human readable meaning.
func (c Code) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown"
}

// Known indicates the code is one of the defined codes.
func (c Code) Known() bool {
	_, ok := codeDescriptions[c]
	return ok
}

// LineCode maps a line error to its response code.
// Overrun wins over buffer overflow, which wins over frame and parity errors.
func LineCode(s LineStatus) (Code, bool) {
	switch {
	case s&LineOverrun != 0:
		return CodeDataOverrun, true
	case s&LineBufferOverflow != 0:
		return CodeBufferOverflow, true
	case s&LineFrameError != 0:
		return CodeFrameError, true
	case s&LineParityError != 0:
		return CodeParityError, true
	}
	return Code{}, false
}

// StatusCode maps a parser status to its response code.
func StatusCode(s Status) (Code, bool) {
	switch s {
	case StatusVerified:
		return CodeOK, true
	case StatusChecksumError:
		return CodeChecksumError, true
	case StatusUnfinished:
		return CodeUnfinished, true
	case StatusReset:
		return CodeReset, true
	}
	return Code{}, false
}

// Responder writes response codes preceded by Marker.
type Responder struct {
	W      io.Writer
	Marker []byte
}

// Respond writes one response.
func (r *Responder) Respond(code Code) error {
	msg := make([]byte, 0, len(r.Marker)+len(code))
	msg = append(append(msg, r.Marker...), code[:]...)
	_, err := r.W.Write(msg)
	return err
}
