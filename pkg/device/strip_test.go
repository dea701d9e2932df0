package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStrip(t *testing.T) {
	red, blue := Color{255, 0, 0}, Color{0, 0, 255}
	testCases := []struct {
		name    string
		cmd     byte
		payload []byte
		expect  []Color
	}{
		{"mood", CmdMood, []byte{255, 0, 0}, []Color{red, red, red, red, red, red}},
		{"white", CmdWhite, nil, []Color{White, White, White, White, White, White}},
		{"off", CmdOff, []byte{1, 2, 3}, make([]Color, 6)},
		{"slave partial", CmdSlave, []byte{255, 0, 0, 0, 0, 255, 7},
			[]Color{red, blue, {}, {}, {}, {}}},
		{"slave extra", CmdSlave, make([]byte, 30), make([]Color, 6)},
		{"snake", CmdSnake, []byte{1, 2, 0, 0, 255},
			[]Color{{}, blue, blue, {}, {}, {}}},
		{"snake capped and wrapped", CmdSnake, []byte{4, 9, 255, 0, 0},
			[]Color{red, red, {}, {}, red, red}},
		{"sound to light", CmdSoundToLight, []byte{255, 0, 255, 0, 255, 51},
			[]Color{{}, {}, {255, 0, 255}, {255, 0, 255}, {51, 0, 51}, {51, 0, 51}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStrip(6)
			m := s.Register(&Mux{})
			require.NoError(t, m.HandleCommand(tc.cmd, tc.payload))
			require.Equal(t, tc.expect, s.LEDs())
			require.Equal(t, uint64(1), s.Updates())
		})
	}
}

func TestStripShortPayload(t *testing.T) {
	s := NewStrip(3)
	m := s.Register(&Mux{})
	for _, cmd := range []byte{CmdSoundToLight, CmdSlave, CmdMood, CmdSnake} {
		err := m.HandleCommand(cmd, []byte{1, 2})
		require.Error(t, err)
		cmdErr, ok := err.(*CommandError)
		require.True(t, ok)
		require.Equal(t, cmd, cmdErr.Cmd)
		require.Equal(t, ErrShortPayload, cmdErr.Err)
	}
	require.Zero(t, s.Updates())
	require.Equal(t, make([]Color, 3), s.LEDs())
}

func TestStripEmpty(t *testing.T) {
	s := NewStrip(0)
	require.NoError(t, s.Snake([]byte{1, 4, 1, 2, 3}))
	require.NoError(t, s.SoundToLight([]byte{1, 2, 3, 4}))
	require.Empty(t, s.LEDs())
}

func TestColorScale(t *testing.T) {
	require.Equal(t, Color{255, 128, 0}, Color{255, 128, 0}.Scale(255))
	require.Equal(t, Color{}, Color{255, 128, 9}.Scale(0))
	require.Equal(t, Color{128, 64, 0}, Color{255, 128, 0}.Scale(128))
}
