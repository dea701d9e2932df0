// Package link opens the byte stream to the firmware.
//
// An address is one of
//
//	/dev/ttyUSB0             serial device, also serial:///dev/ttyUSB0
//	tcp://host:port          raw TCP stream
//	ws://host:port/path      websocket, binary frames
package link

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the firmware UART configuration.
const DefaultBaudRate = 500000

// DialTimeout bounds connecting network links.
var DialTimeout = 5 * time.Second

// Kind is the type of link.
type Kind string

// Link kinds.
const (
	KindSerial    Kind = "serial"
	KindTCP       Kind = "tcp"
	KindWebsocket Kind = "ws"
)

// Addr is a parsed link address.
type Addr struct {
	Kind Kind
	// Target is the device path, host:port or websocket URL.
	Target string
}

// ParseAddr parses a link address.
func ParseAddr(addr string) (Addr, error) {
	if addr == "" {
		return Addr{}, fmt.Errorf("empty link address")
	}
	if !strings.Contains(addr, "://") {
		return Addr{Kind: KindSerial, Target: addr}, nil
	}
	u, err := url.Parse(addr)
	if err != nil {
		return Addr{}, fmt.Errorf("invalid link address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "serial":
		return Addr{Kind: KindSerial, Target: u.Path}, nil
	case "tcp":
		return Addr{Kind: KindTCP, Target: u.Host}, nil
	case "ws", "wss":
		return Addr{Kind: KindWebsocket, Target: addr}, nil
	}
	return Addr{}, fmt.Errorf("unknown link scheme: %q", u.Scheme)
}

// SerialMode is the UART framing used by the firmware: 8 data bits,
// even parity, 1 stop bit.
func SerialMode(baud int) *serial.Mode {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the link. baud only applies to serial devices.
func Open(addr string, baud int) (io.ReadWriteCloser, error) {
	a, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case KindSerial:
		port, err := serial.Open(a.Target, SerialMode(baud))
		if err != nil {
			return nil, fmt.Errorf("open serial %s: %w", a.Target, err)
		}
		return port, nil
	case KindTCP:
		return net.DialTimeout("tcp", a.Target, DialTimeout)
	default:
		return DialWebsocket(a.Target)
	}
}

// Ports lists serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
