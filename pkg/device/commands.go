// Package device is the application side of the link: it takes
// verified frames from the transport and applies them to an LED strip.
package device

import (
	"errors"
	"fmt"
	"sync"
)

// Command codes carried in the frame command byte.
const (
	CmdSoundToLight byte = 1
	CmdSlave        byte = 2
	CmdMood         byte = 3
	CmdWhite        byte = 4
	CmdOff          byte = 5
	CmdSnake        byte = 6
)

// MaxSnakeLength is the maximum number of LEDs lit by CmdSnake.
const MaxSnakeLength = 4

var cmdNames = map[byte]string{
	CmdSoundToLight: "soundtolight",
	CmdSlave:        "slave",
	CmdMood:         "mood",
	CmdWhite:        "white",
	CmdOff:          "off",
	CmdSnake:        "snake",
}

// CmdName returns the name of a command code.
func CmdName(cmd byte) string {
	if name, ok := cmdNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("cmd(%d)", cmd)
}

// CmdByName looks up a command code by name.
func CmdByName(name string) (byte, bool) {
	for cmd, n := range cmdNames {
		if n == name {
			return cmd, true
		}
	}
	return 0, false
}

var (
	// ErrUnsupportedCommand indicates no handler for the command code.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrShortPayload indicates the payload misses required bytes.
	ErrShortPayload = errors.New("payload too short")
)

// CommandError wraps the error of handling a command.
type CommandError struct {
	Cmd byte
	Err error
}

// Error implements error.
func (e *CommandError) Error() string {
	return CmdName(e.Cmd) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// Handler handles a command.
type Handler interface {
	HandleCommand(cmd byte, payload []byte) error
}

// HandlerFunc is func form of Handler.
type HandlerFunc func(cmd byte, payload []byte) error

// HandleCommand implements Handler.
func (f HandlerFunc) HandleCommand(cmd byte, payload []byte) error {
	return f(cmd, payload)
}

// Mux routes commands to handlers by command code.
type Mux struct {
	handlers map[byte]Handler
	lock     sync.RWMutex
}

// Handle registers the handler for a command code.
func (m *Mux) Handle(cmd byte, h Handler) *Mux {
	m.lock.Lock()
	if m.handlers == nil {
		m.handlers = make(map[byte]Handler)
	}
	m.handlers[cmd] = h
	m.lock.Unlock()
	return m
}

// HandleFunc registers a func handler.
func (m *Mux) HandleFunc(cmd byte, fn func(payload []byte) error) *Mux {
	return m.Handle(cmd, HandlerFunc(func(_ byte, payload []byte) error {
		return fn(payload)
	}))
}

// HandleCommand implements Handler. Errors are returned as *CommandError.
func (m *Mux) HandleCommand(cmd byte, payload []byte) error {
	m.lock.RLock()
	h := m.handlers[cmd]
	m.lock.RUnlock()
	if h == nil {
		return &CommandError{Cmd: cmd, Err: ErrUnsupportedCommand}
	}
	if err := h.HandleCommand(cmd, payload); err != nil {
		return &CommandError{Cmd: cmd, Err: err}
	}
	return nil
}
