package sh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBytes(t *testing.T) {
	b, err := ParseBytes([]string{"3", "0xff", "hex:0a0b", "017"})
	require.NoError(t, err)
	require.Equal(t, []byte{3, 255, 10, 11, 15}, b)

	b, err = ParseBytes(nil)
	require.NoError(t, err)
	require.Empty(t, b)

	for _, arg := range []string{"256", "-1", "x", "hex:zz"} {
		_, err = ParseBytes([]string{arg})
		require.Error(t, err, arg)
	}
}
