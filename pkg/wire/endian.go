package wire

// Multi-byte ITCH integers are big-endian on the wire. These accessors
// convert big-endian to host order on read; they never write to the
// backing buffer. Kept as free functions (rather than a binary.BigEndian
// call) so the 6-byte ITCH timestamp — which has no stdlib counterpart —
// sits next to its 2/4/8-byte siblings behind one read-only abstraction.

func readUint16(b []byte) uint16 {
	_ = b[1]
	return uint16(b[0])<<8 | uint16(b[1])
}

func readUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func readUint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

// readTimestamp48 reconstructs the 6-byte nanoseconds-since-midnight
// field into a 64-bit value by shift-and-or:
// b0<<40 | b1<<32 | ... | b5.
func readTimestamp48(b []byte) uint64 {
	_ = b[5]
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
}

// sideIsBuy returns true iff the side byte is 'B'.
func sideIsBuy(b byte) bool { return b == 'B' }
