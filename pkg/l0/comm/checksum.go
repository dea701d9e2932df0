package comm

// Fletcher16 computes the running 16-bit checksum used by frames.
// Both accumulators are folded modulo 255 once per byte, in order,
// starting from zero, so it differs from textbook Fletcher-16.
func Fletcher16(data []byte) uint16 {
	var sum1, sum2 uint16
	for _, b := range data {
		sum1 = (sum1 + uint16(b)) % 255
		sum2 = (sum2 + sum1) % 255
	}
	return sum1<<8 | sum2
}
