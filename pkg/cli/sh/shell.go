package sh

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/uartlink/pkg/env"
	"github.com/robotalks/uartlink/pkg/l0/comm"
	"github.com/robotalks/uartlink/pkg/l0/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
}

// Conn is an opened link with a client.
type Conn struct {
	Addr   string
	Link   io.ReadWriteCloser
	Client *comm.Client
}

// Result is printed for each sent frame.
type Result struct {
	Cmd      byte   `json:"cmd"`
	Size     int    `json:"size"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// ErrNotOpen indicates no link is open.
	ErrNotOpen = errors.New("link not open")

	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&SendCmd,
		&DataCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens the link at addr, closing the current one.
func (s *Shell) Open(addr string) error {
	rw, err := link.Open(addr, s.Config.Baud)
	if err != nil {
		return err
	}
	s.Attach(addr, rw)
	return nil
}

// Attach uses an opened link.
func (s *Shell) Attach(addr string, rw io.ReadWriteCloser) {
	s.Close()
	client := comm.NewClient(rw)
	client.Capacity = s.Config.Capacity
	s.Conn = &Conn{Addr: addr, Link: rw, Client: client}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", addr))
}

// Close closes the current link.
func (s *Shell) Close() {
	if s.Conn != nil {
		s.Conn.Link.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unopenedPrompt)
	}
}

// Send sends a frame and prints the result.
func (s *Shell) Send(c *ishell.Context, f *comm.Frame) error {
	if s.Conn == nil {
		c.Err(ErrNotOpen)
		return ErrNotOpen
	}
	err := s.Conn.Client.Send(f)
	s.printResult(c, f.Cmd, len(f.Payload), err)
	return err
}

// WriteData sends a payload on the blocking path and prints the result.
func (s *Shell) WriteData(c *ishell.Context, p []byte) error {
	if s.Conn == nil {
		c.Err(ErrNotOpen)
		return ErrNotOpen
	}
	err := s.Conn.Client.WriteData(p)
	s.printResult(c, 0, len(p), err)
	return err
}

func (s *Shell) printResult(c *ishell.Context, cmd byte, size int, err error) {
	res := Result{Cmd: cmd, Size: size, Response: comm.CodeOK.String()}
	var respErr *comm.ResponseError
	if errors.As(err, &respErr) {
		res.Response = respErr.Code.String()
	} else if err != nil {
		res.Response = ""
	}
	if err != nil {
		res.Error = err.Error()
	}
	if s.OutputJSON {
		out, jsonErr := json.Marshal(res)
		if jsonErr != nil {
			c.Err(jsonErr)
			return
		}
		c.Println(string(out))
		return
	}
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(res.Response)
}

// ParseBytes parses arguments as bytes. Each argument is a decimal
// number (0-255), a 0x-prefixed hex number, or hex:<hex string>.
func ParseBytes(args []string) ([]byte, error) {
	var out []byte
	for _, arg := range args {
		if strings.HasPrefix(arg, "hex:") {
			b, err := hex.DecodeString(arg[4:])
			if err != nil {
				return nil, fmt.Errorf("invalid hex %q: %w", arg, err)
			}
			out = append(out, b...)
			continue
		}
		v, err := strconv.ParseUint(arg, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", arg)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.Port != "" {
		if err := s.Open(s.Config.Port); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Port, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := link.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "ADDR",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADDR required"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// SendCmd sends a raw frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "CMD [BYTE...]",
		Func: func(c *ishell.Context) {
			b, err := ParseBytes(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if len(b) < 1 {
				c.Err(fmt.Errorf("CMD required"))
				return
			}
			ShellFrom(c).Send(c, &comm.Frame{Cmd: b[0], Payload: b[1:]})
		},
	}

	// DataCmd sends a payload to the blocking receive path.
	DataCmd = ishell.Cmd{
		Name: "data",
		Help: "[BYTE...]",
		Func: func(c *ishell.Context) {
			b, err := ParseBytes(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			ShellFrom(c).WriteData(c, b)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.MustNewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
