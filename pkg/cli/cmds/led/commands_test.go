package led

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/uartlink/pkg/device"
)

func TestPayload(t *testing.T) {
	b, err := Payload(device.CmdMood, []string{"255", "0", "0x10"})
	require.NoError(t, err)
	require.Equal(t, []byte{255, 0, 16}, b)

	b, err = Payload(device.CmdOff, nil)
	require.NoError(t, err)
	require.Empty(t, b)

	_, err = Payload(device.CmdSnake, []string{"1", "2", "3"})
	require.EqualError(t, err, "snake: at least 5 bytes required")
	_, err = Payload(device.CmdSoundToLight, []string{"1", "2", "300"})
	require.Error(t, err)
}
