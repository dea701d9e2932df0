package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	testCases := []struct {
		name   string
		frame  Frame
		expect []byte
	}{
		{"no payload", Frame{Cmd: 5}, []byte{'D', 'A', 'T', 5, 0, 0, 0, 0, 'D', 'O', 'N', 'E'}},
		{"payload", Frame{Cmd: 2, Payload: []byte{0, 255, 36, 48, 91, 34}},
			[]byte{'D', 'A', 'T', 2, 0, 6, 0xd1, 0xf9, 0, 255, 36, 48, 91, 34, 'D', 'O', 'N', 'E'}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.frame.Bytes()
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)
			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, tc.expect, buf.Bytes())
			require.Equal(t, int64(len(tc.expect)), n)
		})
	}
}

func TestFrameTooLarge(t *testing.T) {
	f := Frame{Payload: make([]byte, 0x10000)}
	_, err := f.Bytes()
	require.Equal(t, ErrPayloadTooLarge, err)
	_, err = DefaultLayout.EncodeData(f.Payload)
	require.Equal(t, ErrPayloadTooLarge, err)
}
