// Package comm provides L0 frame transport support.
package comm

// L0 frames are sent by the host (L1 controller) to the firmware over a
// byte-oriented serial link. A frame is laid out as
//
//	[header] [cmd] [length u16 BE] [checksum u16 BE] [payload] [tail]
//
// and the payload is covered by a Fletcher-style 16-bit checksum.
//
// The firmware side has two receive paths sharing the same framing rules:
//
//   - Dispatcher polls the byte source once per cycle, feeds whatever is
//     already buffered to the incremental Parser and hands verified frames
//     over through a DoubleBuffer. It never blocks on malformed input.
//   - Reader reads exactly one frame synchronously, waiting for every byte.
//
// Every cycle that produced an outcome is answered with a 2-byte code,
// preceded by a start marker on the polled path.
//
// Producer: L1 controller (Client)
// Consumer: L0 firmware (Dispatcher / Reader)
