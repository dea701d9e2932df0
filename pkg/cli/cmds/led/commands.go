package led

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/uartlink/pkg/cli/sh"
	"github.com/robotalks/uartlink/pkg/device"
	"github.com/robotalks/uartlink/pkg/l0/comm"
)

// Payload builds the payload of a LED command from arguments, checking
// the minimum length for the command.
func Payload(cmd byte, args []string) ([]byte, error) {
	b, err := sh.ParseBytes(args)
	if err != nil {
		return nil, err
	}
	need := 0
	switch cmd {
	case device.CmdMood, device.CmdSlave:
		need = 3
	case device.CmdSoundToLight:
		need = 4
	case device.CmdSnake:
		need = 5
	}
	if len(b) < need {
		return nil, fmt.Errorf("%s: at least %d bytes required", device.CmdName(cmd), need)
	}
	return b, nil
}

func ledCmd(cmd byte, aliases []string, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    "led." + device.CmdName(cmd),
		Aliases: aliases,
		Help:    help,
		Func: func(c *ishell.Context) {
			payload, err := Payload(cmd, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.ShellFrom(c).Send(c, &comm.Frame{Cmd: cmd, Payload: payload})
		},
	}
}

func init() {
	sh.AddCmds(
		ledCmd(device.CmdSoundToLight, []string{"sound"}, "R G B LEVEL..."),
		ledCmd(device.CmdSlave, []string{"slave"}, "R G B [R G B...]"),
		ledCmd(device.CmdMood, []string{"mood"}, "R G B"),
		ledCmd(device.CmdWhite, []string{"white"}, ""),
		ledCmd(device.CmdOff, []string{"off"}, ""),
		ledCmd(device.CmdSnake, []string{"snake"}, fmt.Sprintf("START LEN(<=%d) R G B", device.MaxSnakeLength)),
	)
}
