package comm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func frameBytes(cmd byte, payload ...byte) []byte {
	b, err := DefaultLayout.Encode(&Frame{Cmd: cmd, Payload: payload})
	if err != nil {
		panic(err)
	}
	return b
}

func corrupt(b []byte, idx int) []byte {
	c := append([]byte(nil), b...)
	c[idx] ^= 0x5a
	return c
}

type parserTestStep struct {
	in     []byte
	status Status
	cursor int
	left   int
}

type parserTestStepsBuilder struct {
	steps []parserTestStep
}

func parserTestSteps() *parserTestStepsBuilder {
	return &parserTestStepsBuilder{}
}

func (b *parserTestStepsBuilder) push(in ...byte) *parserTestStepsBuilder {
	b.steps = append(b.steps, parserTestStep{in: in})
	return b
}

func (b *parserTestStepsBuilder) expect(status Status, cursor int) *parserTestStepsBuilder {
	s := &b.steps[len(b.steps)-1]
	s.status, s.cursor = status, cursor
	return b
}

func (b *parserTestStepsBuilder) verified() *parserTestStepsBuilder {
	return b.expect(StatusVerified, 0)
}

func (b *parserTestStepsBuilder) checksumError() *parserTestStepsBuilder {
	return b.expect(StatusChecksumError, 0)
}

func (b *parserTestStepsBuilder) reset() *parserTestStepsBuilder {
	return b.expect(StatusReset, 0)
}

func (b *parserTestStepsBuilder) unfinished(cursor int) *parserTestStepsBuilder {
	return b.expect(StatusUnfinished, cursor)
}

func (b *parserTestStepsBuilder) leaving(n int) *parserTestStepsBuilder {
	b.steps[len(b.steps)-1].left = n
	return b
}

func (b *parserTestStepsBuilder) build() []parserTestStep {
	return b.steps
}

func TestParser(t *testing.T) {
	f1 := frameBytes(4, 1, 2, 3)
	f2 := frameBytes(2, 10, 20, 30, 40, 50, 60)
	empty := frameBytes(5)
	badTail := append(append([]byte(nil), f1[:len(f1)-1]...), 'X')

	testCases := []struct {
		name  string
		steps []parserTestStep
	}{
		{
			name:  "single batch",
			steps: parserTestSteps().push(f1...).verified().build(),
		},
		{
			name: "split across batches",
			steps: parserTestSteps().
				push(f1[:5]...).unfinished(5).
				push(f1[5:10]...).unfinished(10).
				push(f1[10:]...).verified().
				build(),
		},
		{
			name:  "empty payload",
			steps: parserTestSteps().push(empty...).verified().build(),
		},
		{
			name: "corrupted payload",
			steps: parserTestSteps().
				push(corrupt(f1, 9)...).checksumError().
				push(f1...).verified().
				build(),
		},
		{
			name: "corrupted checksum",
			steps: parserTestSteps().
				push(corrupt(f1, 7)...).checksumError().
				build(),
		},
		{
			name: "tail mismatch",
			steps: parserTestSteps().
				push(badTail...).reset().
				push(f1...).verified().
				build(),
		},
		{
			name:  "garbage only",
			steps: parserTestSteps().push('x', 'y', 'z').reset().build(),
		},
		{
			name: "garbage then partial header",
			steps: parserTestSteps().
				push('x', 'y', 'D').unfinished(1).
				push('A').unfinished(2).
				build(),
		},
		{
			name: "leftover bytes wait for next push",
			steps: parserTestSteps().
				push(concat(f1, f2)...).verified().leaving(len(f2)).
				push().verified().
				build(),
		},
		{
			name: "checksum error then frame",
			steps: parserTestSteps().
				push(concat(corrupt(f2, 10), f1)...).checksumError().leaving(len(f1)).
				push().verified().
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			link := newTestLink(256)
			buf := NewBuffer(64)
			for n, step := range tc.steps {
				require.Equal(t, len(step.in), link.Receive(step.in...))
				status := parser.Push(buf, link, link.Len())
				require.Equalf(t, step.status, status, "step[%d] status mismatch", n)
				require.Equalf(t, step.status, buf.Status, "step[%d] buffer status mismatch", n)
				require.Equalf(t, step.cursor, buf.Cursor(), "step[%d] cursor mismatch", n)
				require.Equalf(t, step.left, link.Len(), "step[%d] left bytes mismatch", n)
			}
		})
	}
}

func TestParserHeaderMismatchResyncs(t *testing.T) {
	header := DefaultLayout.Header
	f := frameBytes(3, 9, 8, 7)
	for k := 0; k < len(header); k++ {
		t.Run(fmt.Sprintf("position %d", k), func(t *testing.T) {
			var parser Parser
			link := newTestLink(256)
			buf := NewBuffer(64)

			garbage := append(append([]byte(nil), header[:k]...), 'X')
			link.Receive(garbage...)
			require.Equal(t, StatusReset, parser.Push(buf, link, link.Len()))
			require.Equal(t, 0, buf.Cursor())
			require.Equal(t, StateHeader, buf.State())
			require.Equal(t, 0, buf.HeaderProgress())

			link.Receive(concat(garbage, f)...)
			require.Equal(t, StatusVerified, parser.Push(buf, link, link.Len()))
			require.Equal(t, []byte{9, 8, 7}, buf.Payload())
			require.Equal(t, 0, link.Len())
		})
	}
}

func TestParserFields(t *testing.T) {
	var parser Parser
	link := newTestLink(256)
	buf := NewBuffer(16)
	payload := []byte{0, 255, 36, 48, 91, 34}
	link.Receive(frameBytes(0x02, payload...)...)
	require.Equal(t, StatusVerified, parser.Push(buf, link, link.Len()))
	require.Equal(t, byte(0x02), buf.Cmd)
	require.Equal(t, uint16(len(payload)), buf.Size)
	require.Equal(t, uint16(0xd1f9), buf.Checksum)
	require.Equal(t, payload, buf.Payload())
}

func TestParserByteByByte(t *testing.T) {
	var parser Parser
	link := newTestLink(256)
	buf := NewBuffer(64)
	f := frameBytes(6, 1, 2, 3, 4)
	for i, b := range f {
		link.Receive(b)
		status := parser.Push(buf, link, 1)
		if i+1 < len(f) {
			require.Equalf(t, StatusUnfinished, status, "byte %d", i)
			require.Equalf(t, i+1, buf.Cursor(), "byte %d", i)
		} else {
			require.Equal(t, StatusVerified, status)
			require.Equal(t, 0, buf.Cursor())
		}
	}
}

func TestParserStates(t *testing.T) {
	var parser Parser
	link := newTestLink(256)
	buf := NewBuffer(64)
	f := frameBytes(1, 0xaa)
	expected := []State{
		StateHeader, StateHeader, StateCmd, StateLenHi, StateLenLo,
		StateCsHi, StateCsLo, StatePayload, StateTail, StateTail, StateTail, StateTail,
	}
	require.Len(t, f, len(expected)+1)
	for i, state := range expected {
		link.Receive(f[i])
		parser.Push(buf, link, 1)
		require.Equalf(t, state, buf.State(), "after byte %d", i)
	}
	link.Receive(f[len(f)-1])
	require.Equal(t, StatusVerified, parser.Push(buf, link, 1))
	require.Equal(t, StateHeader, buf.State())
}

func TestParserOversizedPayload(t *testing.T) {
	var parser Parser
	link := newTestLink(256)
	buf := NewBuffer(4)
	link.Receive(concat(frameBytes(2, 1, 2, 3, 4, 5, 6), frameBytes(2, 7, 8))...)

	require.Equal(t, StatusChecksumError, parser.Push(buf, link, link.Len()))
	require.True(t, buf.Oversized())
	require.Equal(t, []byte{1, 2, 3, 4}, buf.Payload())

	require.Equal(t, StatusVerified, parser.Push(buf, link, link.Len()))
	require.False(t, buf.Oversized())
	require.Equal(t, []byte{7, 8}, buf.Payload())
}

func TestParserAvailableLimitsBatch(t *testing.T) {
	var parser Parser
	link := newTestLink(256)
	buf := NewBuffer(64)
	f := frameBytes(4, 1, 2, 3)
	link.Receive(f...)
	require.Equal(t, StatusUnfinished, parser.Push(buf, link, 4))
	require.Equal(t, len(f)-4, link.Len())
	require.Equal(t, StatusVerified, parser.Push(buf, link, link.Len()))
}

func TestParserCustomLayout(t *testing.T) {
	layout := Layout{Header: []byte{0xff}, Tail: []byte{0xfe, 0xfd}}
	parser, err := NewParser(layout)
	require.NoError(t, err)
	b, err := layout.Encode(&Frame{Cmd: 9, Payload: []byte{1}})
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 9, 0, 1, 0x01, 0x01, 1, 0xfe, 0xfd}, b)

	link := newTestLink(64)
	buf := NewBuffer(8)
	link.Receive(b...)
	require.Equal(t, StatusVerified, parser.Push(buf, link, link.Len()))
	require.Equal(t, byte(9), buf.Cmd)
}

func TestNewParserInvalidLayout(t *testing.T) {
	_, err := NewParser(Layout{Header: []byte("DAT")})
	require.Equal(t, ErrInvalidLayout, err)
	_, err = NewParser(Layout{Tail: []byte("DONE")})
	require.Equal(t, ErrInvalidLayout, err)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "verified", StatusVerified.String())
	require.Equal(t, "reset", StatusReset.String())
	require.Equal(t, "status(0x20)", Status(0x20).String())
	require.Equal(t, "payload", StatePayload.String())
}
